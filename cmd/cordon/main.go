// Package main is the entry point for the cordon authorization service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cordonio/cordon/internal/accounts"
	"github.com/cordonio/cordon/internal/authz"
	"github.com/cordonio/cordon/internal/config"
	"github.com/cordonio/cordon/internal/groups"
	"github.com/cordonio/cordon/internal/observability"
	"github.com/cordonio/cordon/internal/server"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)
	run(cfg, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("CORDON_CONFIG_PATH", "configs/cordon.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("CORDON_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("CORDON_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("cordon version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	return logger
}

// loadAndValidateConfig loads and validates the configuration.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting cordon",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	return cfg
}

// run wires the service components and blocks until shutdown.
func run(cfg *config.Config, logger observability.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracing := initTracing(ctx, cfg, logger)

	directory, err := groups.LoadFile(cfg.Groups.File,
		groups.WithDirectoryLogger(logger),
		groups.WithDirectoryMetrics(groups.NewMetrics("cordon")),
	)
	if err != nil {
		logger.Fatal("failed to load groups", observability.Error(err))
	}

	if cfg.Groups.Watch {
		watcher, err := groups.NewWatcher(cfg.Groups.File, directory,
			groups.WithWatcherLogger(logger),
		)
		if err != nil {
			logger.Fatal("failed to create groups watcher", observability.Error(err))
		}
		if err := watcher.Start(ctx); err != nil {
			logger.Fatal("failed to start groups watcher", observability.Error(err))
		}
		defer func() { _ = watcher.Stop() }()
	}

	store, err := accounts.LoadFile(cfg.Accounts.File, accounts.WithStoreLogger(logger))
	if err != nil {
		logger.Fatal("failed to load accounts", observability.Error(err))
	}

	pipeline, err := authz.NewPipeline(cfg.Authz, store, directory,
		authz.WithPipelineLogger(logger),
	)
	if err != nil {
		logger.Fatal("failed to create authorization pipeline", observability.Error(err))
	}
	defer func() { _ = pipeline.Close() }()

	srv, err := server.New(cfg.Server, pipeline, store, server.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to create server", observability.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal",
			observability.String("signal", sig.String()),
		)
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", observability.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop server", observability.Error(err))
	}

	if tracing != nil {
		if err := tracing.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop tracing", observability.Error(err))
		}
	}

	logger.Info("cordon stopped")
}

// initTracing starts the tracing provider when enabled.
func initTracing(ctx context.Context, cfg *config.Config, logger observability.Logger) *observability.TracingProvider {
	if !cfg.Tracing.Enabled {
		return nil
	}

	tracing := observability.NewTracingProvider(&cfg.Tracing, logger)
	if err := tracing.Start(ctx); err != nil {
		logger.Fatal("failed to start tracing", observability.Error(err))
	}
	return tracing
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
