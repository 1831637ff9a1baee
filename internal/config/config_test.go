package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("BACKEND_ANON_KEY", "anon")

	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, DefaultBackendURL, cfg.Backend.URL)
	assert.Equal(t, "anon", cfg.Backend.AnonKey)
	assert.True(t, cfg.Backend.AutoConfirm)
	assert.Equal(t, time.Hour, cfg.Backend.AccessTokenTTL)
	assert.Equal(t, 2*time.Second, cfg.Generation.Delay)
	assert.Equal(t, "0 * * * *", cfg.Tasks.TokenPurgeSchedule)
	assert.Equal(t, "*/10 * * * *", cfg.Tasks.SweepSchedule)
	assert.Equal(t, 30*time.Minute, cfg.Session.StateMaxIdle)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "postgres://u:p@db:5432/quested")
	t.Setenv("BACKEND_AUTO_CONFIRM", "false")
	t.Setenv("GENERATION_DELAY", "0s")
	t.Setenv("PORT", "9000")

	cfg := NewConfig()

	assert.Equal(t, "postgres://u:p@db:5432/quested", cfg.Backend.URL)
	assert.False(t, cfg.Backend.AutoConfirm)
	assert.Equal(t, time.Duration(0), cfg.Generation.Delay)
	assert.Equal(t, int32(9000), cfg.HTTP.Port)
}

func TestBackend_JWTSigningKey(t *testing.T) {
	assert.Equal(t, "anon", Backend{AnonKey: "anon"}.JWTSigningKey())
	assert.Equal(t, "secret", Backend{AnonKey: "anon", JWTSecret: "secret"}.JWTSigningKey())
}
