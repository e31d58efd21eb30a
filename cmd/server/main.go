// Package main provides the entry point for the Quill content relations server.
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/quillcms/quill/domain/entries"
	"github.com/quillcms/quill/domain/health"
	"github.com/quillcms/quill/domain/relations"
	"github.com/quillcms/quill/domain/tracing"
	"github.com/quillcms/quill/internal/config"
	"github.com/quillcms/quill/internal/database"
	"github.com/quillcms/quill/internal/server"
	"github.com/quillcms/quill/pkg/auth"
	"github.com/quillcms/quill/pkg/logger"
)

func main() {
	// Load .env files if present (for local development)
	// Note: Load() won't overwrite existing vars, Overload() will
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	fx.New(
		// Logging
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure modules
		logger.Module,
		config.Module,
		database.Module,
		server.Module,
		tracing.Module,

		// Actor identity
		auth.Module,

		// Domain modules
		health.Module,
		relations.Module,
		entries.Module,
	).Run()
}
