// Package logger provides the shared slog setup for all packages.
//
// Log level is controlled by LOG_LEVEL (debug, info, warn, error). Output is
// JSON in production (GO_ENV=production) and human-readable text otherwise.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"
)

// Module provides the application logger.
var Module = fx.Module("logger",
	fx.Provide(NewLogger),
)

// NewLogger creates a slog.Logger configured from environment variables.
func NewLogger() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("GO_ENV"), "production") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Scope returns a standard attribute identifying the logging component,
// e.g. logger.Scope("relations.svc").
func Scope(scope string) slog.Attr {
	return slog.String("scope", scope)
}

// Error returns a standard attribute for an error value.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}
