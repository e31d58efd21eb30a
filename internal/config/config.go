package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ServerPort    int    `env:"SERVER_PORT" envDefault:"4300"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// Database settings
	Database DatabaseConfig

	// Actor authentication
	Auth AuthConfig

	// Relations engine limits
	Relations RelationsConfig

	// OpenTelemetry tracing
	Otel OtelConfig

	// Request rate limiting (requests per second per client IP; 0 disables)
	RateLimit float64 `env:"RATE_LIMIT_RPS" envDefault:"0"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port         int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User         string        `env:"POSTGRES_USER" envDefault:"quill"`
	Password     string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database     string        `env:"POSTGRES_DB" envDefault:"quill"`
	SSLMode      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxIdleTime  time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	QueryDebug   bool          `env:"DB_QUERY_DEBUG" envDefault:"false"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// AuthConfig holds actor-identity settings. Authorization itself is handled
// by the upstream permission layer; these settings only identify callers.
type AuthConfig struct {
	// APIKey is the static bearer key for service-to-service calls
	APIKey string `env:"AUTH_API_KEY" envDefault:""`

	// JWTSecret is the HS256 secret for user tokens
	JWTSecret string `env:"AUTH_JWT_SECRET" envDefault:""`

	// Disabled bypasses authentication entirely (local development only)
	Disabled bool `env:"AUTH_DISABLED" envDefault:"false"`
}

// RelationsConfig holds limits for the relations engine.
type RelationsConfig struct {
	// MaxTraversalDepth is the deepest related-entry expansion a request may
	// ask for. Clamped to the hard server-side ceiling regardless of value.
	MaxTraversalDepth int `env:"RELATIONS_MAX_TRAVERSAL_DEPTH" envDefault:"3"`

	// BulkMaxItems caps the number of items accepted by one bulk mutation.
	BulkMaxItems int `env:"RELATIONS_BULK_MAX_ITEMS" envDefault:"500"`

	// DefaultPageSize / MaxPageSize govern list endpoints.
	DefaultPageSize int `env:"RELATIONS_DEFAULT_PAGE_SIZE" envDefault:"20"`
	MaxPageSize     int `env:"RELATIONS_MAX_PAGE_SIZE" envDefault:"200"`
}

// NewConfig loads configuration from environment variables
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.ServerPort),
		slog.String("db_host", cfg.Database.Host),
		slog.Bool("auth_disabled", cfg.Auth.Disabled),
	)

	return cfg, nil
}
