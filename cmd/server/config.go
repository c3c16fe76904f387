package main

import (
	"fmt"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
)

// Config holds the complete application configuration, loadable from
// environment variables (TILL_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL" flag:"database-url"`
	JWTSecret   string `usage:"HMAC secret for access token validation" flag:"jwt-secret"`

	Log         LogConfig
	Redis       RedisConfig
	Idempotency IdempotencyConfig
	Graceful    GracefulConfig
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `default:"info" usage:"Log level: debug, info, warn, error"`
	Development bool   `default:"false" usage:"Pretty console output for development"`
}

// RedisConfig controls the shared live-cart store. When Addr is empty
// carts live in process memory instead.
type RedisConfig struct {
	Addr     string `default:"" usage:"Redis address for shared cart storage (empty = in-memory)"`
	Password string `default:"" usage:"Redis password"`
	DB       int    `default:"0" usage:"Redis database number"`
}

// IdempotencyConfig controls replay protection on mutating POS routes.
type IdempotencyConfig struct {
	Enabled         bool          `default:"true" usage:"Enable idempotency key handling"`
	TTL             time.Duration `default:"24h" usage:"How long completed keys are kept"`
	CleanupInterval time.Duration `default:"1h" usage:"How often expired keys are swept"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ShutdownTimeout time.Duration `default:"30s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from defaults, YAML file, environment
// and flags, later sources winning.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "TILL",
		Files:     []string{"config.yaml", "/etc/tillpoint/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required: set TILL_DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required: set TILL_JWT_SECRET")
	}

	return &cfg, nil
}
