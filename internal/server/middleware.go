package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cordonio/cordon/internal/observability"
)

// HeaderRequestID is the request correlation header.
const HeaderRequestID = "X-Request-Id"

// requestIDKey is the gin context key holding the request id.
const requestIDKey = "requestID"

// RequestIDMiddleware assigns each request a correlation id, reusing
// the inbound header when the caller already set one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(HeaderRequestID, requestID)
		c.Next()
	}
}

// RequestID returns the correlation id assigned to the request.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// LoggingMiddleware logs one line per request after it completes.
func LoggingMiddleware(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("http request",
			observability.String("method", c.Request.Method),
			observability.String("path", path),
			observability.Int("status", c.Writer.Status()),
			observability.Duration("elapsed", time.Since(start)),
			observability.String("requestId", RequestID(c)),
			observability.String("clientIp", c.ClientIP()),
		)
	}
}
