// Package logging provides structured logging configuration using log/slog.
//
// This package integrates with chi's RequestID middleware to propagate
// request IDs through structured log entries, and can fan every record out to
// Fluent Bit for central collection.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/JonMunkholm/estoque-sync/internal/config"
	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
)

// Setup configures the global slog logger from cfg and returns a function
// that flushes and closes any log forwarder. The returned func is never nil.
//
// Format values: "text", "json", "tint" (colored text for terminals).
// Use "json" in production for machine parsing.
func Setup(cfg config.LoggingConfig) (func() error, error) {
	handler := NewHandler(os.Stdout, cfg.Level, cfg.Format)
	closeFn := func() error { return nil }

	if cfg.FluentHost != "" {
		client, err := fluent.New(fluent.Config{
			FluentHost: cfg.FluentHost,
			FluentPort: cfg.FluentPort,
			TagPrefix:  cfg.FluentTag,
			// Async keeps startup independent of the collector being up.
			Async: true,
		})
		if err != nil {
			return closeFn, fmt.Errorf("create fluent client: %w", err)
		}
		handler = NewFluentHandler(handler, client, "app")
		closeFn = client.Close
	}

	slog.SetDefault(slog.New(handler))
	return closeFn, nil
}

// NewHandler builds the local slog handler for the given level and format.
func NewHandler(w io.Writer, level, format string) slog.Handler {
	lvl := parseLevel(level)

	switch strings.ToLower(format) {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	case "tint":
		return tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: "2006-01-02 15:04:05",
		})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns the default logger enriched with the chi request ID
// when ctx carries one.
//
//	func handleSync(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("sync requested", "codigo", rec.Code)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns the request logger with additional structured fields.
// Batch runs use it to tag every row log with the run ID.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
