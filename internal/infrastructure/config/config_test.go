package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearPrefixedEnv blanks every SUPPORTDESK_ variable for the duration
// of the test, so ambient environment cannot leak into assertions.
// t.Setenv restores the originals on cleanup.
func clearPrefixedEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "SUPPORTDESK_") {
			key, _, _ := strings.Cut(kv, "=")
			t.Setenv(key, "")
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearPrefixedEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "supportdesk-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Empty(t, cfg.Database.Password)
	assert.Equal(t, "supportdesk", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 3, cfg.Resolution.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Resolution.BaseBackoff)
	assert.Equal(t, 10, cfg.Platform.TimeoutSeconds)
	assert.Equal(t, 24*time.Hour, cfg.Event.IdempotencyTTL)
	assert.Equal(t, 100, cfg.Event.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Event.PollInterval)
	assert.Empty(t, cfg.HTTP.CORSAllowOrigins, "cross-origin access stays off until configured")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearPrefixedEnv(t)
	t.Setenv("SUPPORTDESK_APP_NAME", "test-app")
	t.Setenv("SUPPORTDESK_APP_ENV", "testing")
	t.Setenv("SUPPORTDESK_APP_PORT", "9000")
	t.Setenv("SUPPORTDESK_DATABASE_HOST", "testdb.local")
	t.Setenv("SUPPORTDESK_DATABASE_PORT", "5433")
	t.Setenv("SUPPORTDESK_DATABASE_USER", "testuser")
	t.Setenv("SUPPORTDESK_DATABASE_PASSWORD", "testpass")
	t.Setenv("SUPPORTDESK_DATABASE_DBNAME", "testdb")
	t.Setenv("SUPPORTDESK_DATABASE_SSLMODE", "require")
	t.Setenv("SUPPORTDESK_DATABASE_MAX_OPEN_CONNS", "50")
	t.Setenv("SUPPORTDESK_DATABASE_MAX_IDLE_CONNS", "10")
	t.Setenv("SUPPORTDESK_RESOLUTION_MAX_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.App.Name)
	assert.Equal(t, "testing", cfg.App.Env)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "testdb.local", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "testuser", cfg.Database.User)
	assert.Equal(t, "testpass", cfg.Database.Password)
	assert.Equal(t, "testdb", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.Equal(t, 5, cfg.Resolution.MaxAttempts)
}

func TestLoad_PoolValidation(t *testing.T) {
	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		clearPrefixedEnv(t)
		t.Setenv("SUPPORTDESK_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("SUPPORTDESK_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("explicit zero open conns falls back to default", func(t *testing.T) {
		clearPrefixedEnv(t)
		t.Setenv("SUPPORTDESK_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("negative idle conns rejected", func(t *testing.T) {
		clearPrefixedEnv(t)
		t.Setenv("SUPPORTDESK_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	productionBase := func(t *testing.T) {
		clearPrefixedEnv(t)
		t.Setenv("SUPPORTDESK_APP_ENV", "production")
		t.Setenv("SUPPORTDESK_DATABASE_PASSWORD", "secure-password")
		t.Setenv("SUPPORTDESK_DATABASE_SSLMODE", "require")
		t.Setenv("SUPPORTDESK_PLATFORM_API_BASE_URL", "https://shop.example.com/admin/api")
		t.Setenv("SUPPORTDESK_PLATFORM_ACCESS_TOKEN", "shpat-test-token")
	}

	t.Run("valid production config passes", func(t *testing.T) {
		productionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("missing database password", func(t *testing.T) {
		productionBase(t)
		t.Setenv("SUPPORTDESK_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("disabled SSL", func(t *testing.T) {
		productionBase(t)
		t.Setenv("SUPPORTDESK_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("missing platform token", func(t *testing.T) {
		productionBase(t)
		t.Setenv("SUPPORTDESK_PLATFORM_ACCESS_TOKEN", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "platform.access_token is required in production")
	})

	t.Run("wildcard CORS origin", func(t *testing.T) {
		productionBase(t)
		t.Setenv("SUPPORTDESK_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins cannot be '*' in production")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	base := DatabaseConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "testuser",
		DBName:  "testdb",
		SSLMode: "disable",
	}

	t.Run("contains every connection component", func(t *testing.T) {
		cfg := base
		cfg.Password = "testpass"

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := base
		cfg.Password = "pass@word#123"

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("empty password still yields a DSN", func(t *testing.T) {
		assert.NotEmpty(t, base.DSN())
	})
}
