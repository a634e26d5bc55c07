package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cordonio/cordon/internal/accounts"
	"github.com/cordonio/cordon/internal/authz"
	"github.com/cordonio/cordon/internal/config"
	"github.com/cordonio/cordon/internal/observability"
)

// ginModeOnce ensures gin.SetMode is only called once.
var ginModeOnce sync.Once

// Server is the HTTP server fronting the authorization pipeline.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	config     config.ServerConfig
	pipeline   *authz.Pipeline
	store      *accounts.Store
	logger     observability.Logger
	mu         sync.Mutex
	running    bool
}

// Option is a functional option for the server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a new HTTP server.
func New(cfg config.ServerConfig, pipeline *authz.Pipeline, store *accounts.Store, opts ...Option) (*Server, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if store == nil {
		return nil, fmt.Errorf("account store is required")
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		engine:   gin.New(),
		config:   cfg,
		pipeline: pipeline,
		store:    store,
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(RequestIDMiddleware())
	s.engine.Use(LoggingMiddleware(s.logger))
	s.registerRoutes()

	return s, nil
}

// registerRoutes wires the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	v1.GET("/accounts/:id", s.handleGetAccount)
}

// Engine returns the underlying gin engine, for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}

	s.httpServer = &http.Server{
		Addr:         s.config.Address,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", s.config.Address),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
