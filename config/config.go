// Package config loads the account projector service configuration from
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/aneshas/account-eventstore"
	"github.com/aneshas/account-eventstore/logger"
	"github.com/caarlos0/env/v11"
)

// Config captures runtime configuration
type Config struct {
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"accounts.db"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY"`

	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"100ms"`
	BatchSize    int           `env:"BATCH_SIZE" envDefault:"100"`
}

// Load parses ACCOUNTS_ prefixed environment variables into Config
func Load() (Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "ACCOUNTS_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.BatchSize < 1 {
		return Config{}, fmt.Errorf("ACCOUNTS_BATCH_SIZE must be at least 1, got %d", cfg.BatchSize)
	}

	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("ACCOUNTS_POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}

	return cfg, nil
}

// StoreOptions returns the event store backing storage option, postgres wins if set
func (c Config) StoreOptions() []eventstore.Option {
	if c.PostgresDSN != "" {
		return []eventstore.Option{eventstore.WithPostgresDB(c.PostgresDSN)}
	}

	return []eventstore.Option{eventstore.WithSQLiteDB(c.SQLitePath)}
}

// SubscriptionOptions returns the projector subscription options
func (c Config) SubscriptionOptions() []eventstore.SubAllOpt {
	return []eventstore.SubAllOpt{
		eventstore.WithBatchSize(c.BatchSize),
		eventstore.WithPollInterval(c.PollInterval),
	}
}

// Logger returns the logger configuration
func (c Config) Logger() logger.Config {
	return logger.Config{
		Level:  c.LogLevel,
		Pretty: c.LogPretty,
	}
}
