// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles gateway-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. In development a local
'.env' file is loaded first with 'joho/godotenv' so the process can be started
without exporting every variable by hand.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (Redis, backend client) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the PetHaul session gateway.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Upstreams
	BackendURL     string        `env:"BACKEND_URL,required,notEmpty"`
	StorefrontURL  string        `env:"STOREFRONT_URL,required,notEmpty"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
	TokenIssuePath string        `env:"TOKEN_ISSUE_PATH" envDefault:"/auth/token"`

	// Key-Value store (Redis) for bearer tokens and saved login ids
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Audit log (PostgreSQL). Auditing is disabled when empty.
	DatabaseURL   string `env:"DATABASE_URL"`
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Cross-Origin Resource Sharing
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Browser session handling
	SessionCookieSecure    bool          `env:"SESSION_COOKIE_SECURE"    envDefault:"true"`
	SessionRecheckInterval time.Duration `env:"SESSION_RECHECK_INTERVAL" envDefault:"5m"`
	SessionIdleTTL         time.Duration `env:"SESSION_IDLE_TTL"         envDefault:"2h"`
	SessionSweepSchedule   string        `env:"SESSION_SWEEP_SCHEDULE"   envDefault:"@every 10m"`

	// MaxUncertainChecks bounds how many consecutive inconclusive checks may
	// keep a session authenticated. Zero keeps it authenticated indefinitely.
	MaxUncertainChecks int `env:"MAX_UNCERTAIN_CHECKS" envDefault:"3"`

	// Bearer token bootstrap
	TokenSettleDelay time.Duration `env:"TOKEN_SETTLE_DELAY" envDefault:"500ms"`
	TokenMaxAttempts int           `env:"TOKEN_MAX_ATTEMPTS" envDefault:"5"`
	TokenBackoffBase time.Duration `env:"TOKEN_BACKOFF_BASE" envDefault:"300ms"`
	TokenBackoffStep time.Duration `env:"TOKEN_BACKOFF_STEP" envDefault:"300ms"`
	TokenDefaultTTL  time.Duration `env:"TOKEN_DEFAULT_TTL"  envDefault:"1h"`

	// Per-IP rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"50"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"100"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// A missing .env file is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.TokenMaxAttempts < 1 {
		return nil, fmt.Errorf("config: TOKEN_MAX_ATTEMPTS must be at least 1, got %d", cfg.TokenMaxAttempts)
	}

	if cfg.MaxUncertainChecks < 0 {
		return nil, fmt.Errorf("config: MAX_UNCERTAIN_CHECKS must not be negative, got %d", cfg.MaxUncertainChecks)
	}

	return cfg, nil
}

// IsDevelopment reports whether the gateway is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the gateway is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Origins returns the configured CORS origins.
func (c *Config) Origins() []string {
	return c.AllowedOrigins
}

// AuditEnabled reports whether a PostgreSQL audit store is configured.
func (c *Config) AuditEnabled() bool {
	return c.DatabaseURL != ""
}

// Hostname is used to tag log lines when several gateways share a log sink.
func Hostname() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
