package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "./data/ledger.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
	assert.Empty(t, cfg.RedisAddr)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://ledger@localhost/ledger?sslmode=disable")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}},
		{"postgres without url", map[string]string{"STORAGE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{"bad duration", map[string]string{"TOKEN_TTL": "soon"}},
		{"zero ttl", map[string]string{"TOKEN_TTL": "0s"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			require.Error(t, err)
		})
	}
}
