package utils

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// NewLogger builds the process-wide structured logger. Development gets
// human-readable text output; everything else gets JSON.
func NewLogger(level slog.Level, environment string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if environment == "development" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// ContextLogger attaches a request-scoped logger to the Gin context so
// downstream code can log with the request ID already bound.
func ContextLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestLogger := logger
		if requestID, exists := c.Get("request_id"); exists {
			requestLogger = logger.With("request_id", requestID)
		}
		c.Set("logger", requestLogger)
		c.Next()
	}
}

// LoggerFromContext returns the request-scoped logger, falling back to
// the given default when middleware has not run.
func LoggerFromContext(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if value, exists := c.Get("logger"); exists {
		if logger, ok := value.(*slog.Logger); ok {
			return logger
		}
	}
	return fallback
}

// LoggerMiddleware logs one line per request after it completes.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		attrs := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if requestID, exists := c.Get("request_id"); exists {
			attrs = append(attrs, "request_id", requestID)
		}

		if c.Writer.Status() >= 500 {
			logger.Error("Request completed", attrs...)
		} else {
			logger.Info("Request completed", attrs...)
		}
	}
}
