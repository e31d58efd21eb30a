// Command migrate runs the embedded database migrations.
//
// Usage:
//
//	migrate up      apply all pending migrations
//	migrate down    roll back the last migration
//	migrate status  print migration status
//	migrate version print the current database version
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"github.com/quillcms/quill/internal/config"
	"github.com/quillcms/quill/internal/migrate"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate <up|down|status|version>")
		os.Exit(1)
	}
	command := os.Args[1]

	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		var dbCfg config.DatabaseConfig
		if err := env.Parse(&dbCfg); err != nil {
			logger.Fatal("failed to load database configuration", zap.Error(err))
		}
		dsn = dbCfg.DSN()
	}

	db := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	migrator := migrate.NewMigrator(db, logger)

	switch command {
	case "up":
		err = migrator.Up(ctx)
	case "down":
		err = migrator.Down(ctx)
	case "status":
		err = migrator.Status(ctx)
	case "version":
		var version int64
		version, err = migrator.Version(ctx)
		if err == nil {
			fmt.Printf("database version: %d\n", version)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		os.Exit(1)
	}
	if err != nil {
		logger.Fatal("migration command failed", zap.String("command", command), zap.Error(err))
	}
}
