package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnobt78/bookstore-backend/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "bookstore")
	t.Setenv("DB_NAME", "bookstore")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := config.Load("")
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "5432", cfg.Postgres.Port)
		assert.Equal(t, "disable", cfg.Postgres.SSLMode)
		assert.Equal(t, "storefront", cfg.Postgres.Schema)
		assert.Equal(t, "US", cfg.Shipping.SenderCountry)
		assert.Equal(t, "Bookstore", cfg.Email.FromName)
	})

	t.Run("provider_secrets_optional", func(t *testing.T) {
		setRequired(t)

		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Empty(t, cfg.Payment.SecretKey)
		assert.Empty(t, cfg.Shipping.APIKey)
		assert.Empty(t, cfg.Redis.Addr)
	})

	t.Run("overrides", func(t *testing.T) {
		setRequired(t)
		t.Setenv("APP_PORT", "9090")
		t.Setenv("DB_SCHEMA", "staging")
		t.Setenv("PAYMENT_SECRET_KEY", "sk_test_123")
		t.Setenv("REDIS_ADDR", "localhost:6379")

		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, "staging", cfg.Postgres.Schema)
		assert.Equal(t, "sk_test_123", cfg.Payment.SecretKey)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	})

	t.Run("missing_database_settings", func(t *testing.T) {
		setRequired(t)
		t.Setenv("DB_HOST", "")

		_, err := config.Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_HOST")
	})

	t.Run("missing_token_secret", func(t *testing.T) {
		setRequired(t)
		t.Setenv("JWT_SECRET", "")

		_, err := config.Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("missing_env_file_ignored", func(t *testing.T) {
		setRequired(t)

		_, err := config.Load("testdata/does-not-exist.env")
		assert.NoError(t, err)
	})
}
