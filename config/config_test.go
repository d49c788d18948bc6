package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_MODE", "")
	t.Setenv("PORT", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, AuthModeHeader, cfg.Auth.Mode)
	assert.Equal(t, time.Hour, cfg.Redis.LookupCacheTTL)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Empty(t, cfg.Server.TrustedProxies, "forwarded headers are ignored unless proxies are listed")
	assert.True(t, cfg.Database.Migrate)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://qc.example.com, https://admin.example.com ,")
	t.Setenv("LOOKUP_CACHE_TTL", "5m")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.10")
	t.Setenv("DB_MIGRATE", "false")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://qc.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.10"}, cfg.Server.TrustedProxies)
	assert.Equal(t, 5*time.Minute, cfg.Redis.LookupCacheTTL)
	assert.False(t, cfg.Database.Migrate)
	assert.Equal(t, 5432, cfg.Database.Port, "invalid integers fall back to the default")
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080", RateLimitRPS: 1, RateLimitBurst: 1},
			Database: DatabaseConfig{Host: "localhost"},
			Auth:     AuthConfig{Mode: AuthModeHeader},
			Storage:  StorageConfig{UploadMaxBytes: 1},
		}
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("firebase mode needs credentials", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.Mode = AuthModeFirebase
		assert.Error(t, cfg.Validate())

		cfg.Firebase.CredentialsPath = "/secrets/firebase.json"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown auth mode", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.Mode = "basic"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing db host", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Host = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive rate limit", func(t *testing.T) {
		cfg := valid()
		cfg.Server.RateLimitRPS = 0
		assert.Error(t, cfg.Validate())
	})
}
