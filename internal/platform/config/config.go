// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config maps environment variables onto a strongly-typed [Config].

It leverages 'caarlos0/env' for parsing and defaults. Circulation policy values
(loan period, fine rate, retry budget) live here too so the same binary can be
tuned per branch without a rebuild.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// # Configuration Schema

// Config holds all runtime configuration for the Libris API server and CLI.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis). Empty disables the report cache.
	RedisURL string `env:"REDIS_URL"`

	// JWT keys. The API only verifies; the CLI signs staff tokens.
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// AllowedOrigins is a comma-separated list of origin suffixes accepted in production.
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"libris.app"`

	Circulation Circulation
}

// Circulation holds the lending policy and the engine's contention budget.
type Circulation struct {
	// LoanPeriod is added to the issue date when no due date is supplied.
	LoanPeriod time.Duration `env:"LOAN_PERIOD" envDefault:"336h"`

	// FineDailyRate is charged per whole day a copy is returned late.
	FineDailyRate decimal.Decimal `env:"FINE_DAILY_RATE" envDefault:"5"`

	// FineMaxAmount caps a single fine. Empty means no cap.
	FineMaxAmount string `env:"FINE_MAX_AMOUNT"`

	RetryAttempts  int           `env:"CIRCULATION_RETRY_ATTEMPTS"   envDefault:"3"`
	RetryBaseDelay time.Duration `env:"CIRCULATION_RETRY_BASE_DELAY" envDefault:"10ms"`
	LockTimeout    time.Duration `env:"CIRCULATION_LOCK_TIMEOUT"     envDefault:"2s"`

	// ReportCacheTTL bounds how stale a cached dashboard summary may be.
	ReportCacheTTL time.Duration `env:"REPORT_CACHE_TTL" envDefault:"30s"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates the
// circulation policy.
func Load() (*Config, error) {
	cfg := &Config{}

	// Fails if any field marked 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Circulation.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// OriginSuffixes splits AllowedOrigins into trimmed, non-empty entries.
func (c *Config) OriginSuffixes() []string {
	var suffixes []string
	for _, part := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			suffixes = append(suffixes, trimmed)
		}
	}
	return suffixes
}

// FineCap parses FineMaxAmount. It returns nil when no cap is configured.
func (c Circulation) FineCap() (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.FineMaxAmount)
	if raw == "" {
		return nil, nil
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("config: FINE_MAX_AMOUNT %q is not a decimal: %w", raw, err)
	}
	return &amount, nil
}

func (c Circulation) validate() error {
	if c.LoanPeriod <= 0 {
		return fmt.Errorf("config: LOAN_PERIOD must be positive, got %s", c.LoanPeriod)
	}
	if c.FineDailyRate.IsNegative() {
		return fmt.Errorf("config: FINE_DAILY_RATE must not be negative, got %s", c.FineDailyRate)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("config: CIRCULATION_RETRY_ATTEMPTS must be at least 1, got %d", c.RetryAttempts)
	}

	fineCap, err := c.FineCap()
	if err != nil {
		return err
	}
	if fineCap != nil && fineCap.IsNegative() {
		return fmt.Errorf("config: FINE_MAX_AMOUNT must not be negative, got %s", fineCap)
	}

	return nil
}
