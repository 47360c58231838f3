package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-thats-32-chars-long"

// setRequiredEnv sets the variables without which Load fails validation.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FOLIO_DATABASE_URL", "postgres://localhost:5432/folio")
	t.Setenv("FOLIO_AUTH_JWT_SECRET", testJWTSecret)
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply when only required values are set", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "info", cfg.Server.LogLevel)
		assert.Equal(t, 60, cfg.Auth.TokenLifetimeMinutes)
		assert.Equal(t, 20, cfg.API.DefaultPageSize)
		assert.Equal(t, 100, cfg.API.MaxPageSize)
		assert.Equal(t, 3, cfg.API.MaxIncludeDepth)
		assert.Equal(t, "postgres://localhost:5432/folio", cfg.Database.URL)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("FOLIO_SERVER_PORT", "9090")
		t.Setenv("FOLIO_SERVER_LOG_LEVEL", "debug")
		t.Setenv("FOLIO_API_MAX_PAGE_SIZE", "250")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Server.LogLevel)
		assert.Equal(t, 250, cfg.API.MaxPageSize)
	})

	t.Run("missing database URL fails", func(t *testing.T) {
		t.Setenv("FOLIO_AUTH_JWT_SECRET", testJWTSecret)

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("short jwt secret fails", func(t *testing.T) {
		t.Setenv("FOLIO_DATABASE_URL", "postgres://localhost:5432/folio")
		t.Setenv("FOLIO_AUTH_JWT_SECRET", "short")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown log level fails", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("FOLIO_SERVER_LOG_LEVEL", "verbose")

		_, err := Load()
		assert.Error(t, err)
	})
}
