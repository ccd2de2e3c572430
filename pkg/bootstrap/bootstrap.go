// Package bootstrap wires the process-level dependencies shared by entry
// points: the logger and the PocketBase client.
package bootstrap

import (
	"log/slog"
	"os"
	"time"

	"github.com/huertohogar/storefront/pkg/logger"
	"github.com/huertohogar/storefront/pkg/pocketbase"
)

// NewLogger creates a new slog.Logger instance with the specified log level.
// Records are enriched with the request ID and trace ID from the context.
func NewLogger(level string) *slog.Logger {
	logLevel := toLevel(level)
	loggerOpts := &slog.HandlerOptions{
		AddSource: logLevel == slog.LevelDebug,
		Level:     logLevel,
	}
	logHandler := logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, loggerOpts))
	return slog.New(logHandler)
}

// NewPocketBase creates the record-storage client every service consumes.
func NewPocketBase(url string, timeout time.Duration, log *slog.Logger) *pocketbase.Client {
	return pocketbase.NewClient(url, timeout, log)
}

// toLevel converts a string representation of a log level to slog.Level.
func toLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
