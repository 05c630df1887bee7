package config_test

import (
	"testing"
	"time"

	"github.com/aneshas/account-eventstore/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShould_Load_Defaults(t *testing.T) {
	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "accounts.db", cfg.SQLitePath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Len(t, cfg.StoreOptions(), 1)
	assert.Len(t, cfg.SubscriptionOptions(), 2)
}

func TestShould_Load_From_Env(t *testing.T) {
	t.Setenv("ACCOUNTS_POSTGRES_DSN", "postgres://localhost/accounts")
	t.Setenv("ACCOUNTS_HTTP_ADDR", ":9090")
	t.Setenv("ACCOUNTS_LOG_LEVEL", "debug")
	t.Setenv("ACCOUNTS_LOG_PRETTY", "true")
	t.Setenv("ACCOUNTS_POLL_INTERVAL", "1s")
	t.Setenv("ACCOUNTS_BATCH_SIZE", "10")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/accounts", cfg.PostgresDSN)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.True(t, cfg.Logger().Pretty)
}

func TestShould_Validate_Batch_Size(t *testing.T) {
	t.Setenv("ACCOUNTS_BATCH_SIZE", "0")

	_, err := config.Load()

	assert.Error(t, err)
}

func TestShould_Report_Malformed_Values(t *testing.T) {
	t.Setenv("ACCOUNTS_POLL_INTERVAL", "soon")

	_, err := config.Load()

	assert.Error(t, err)
}
