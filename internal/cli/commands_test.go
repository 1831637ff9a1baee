package cli

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questeded/quested/internal/catalog"
	"github.com/questeded/quested/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Backend: config.Backend{
			URL:              "sqlite://" + filepath.Join(t.TempDir(), "quested.db"),
			AnonKey:          "test-anon-key",
			AccessTokenTTL:   time.Hour,
			RefreshTokenTTL:  time.Hour,
			RecoveryTokenTTL: time.Hour,
			BcryptCost:       4,
		},
		Redis: config.Redis{Addr: "localhost:6379"},
		Log:   config.Log{Mode: "prod"},
	}
}

func TestSeedCommand_ParseFlags(t *testing.T) {
	cfg := testConfig(t)

	cmd := NewSeedCommand(cfg)
	require.NoError(t, cmd.ParseFlags(nil))
	assert.Equal(t, cfg.Backend.URL, cmd.BackendURL)
	assert.Equal(t, "test-anon-key", cmd.AnonKey)

	cmd = NewSeedCommand(cfg)
	require.NoError(t, cmd.ParseFlags([]string{"-backend", "sqlite://other.db", "-anon-key", "k"}))
	assert.Equal(t, "sqlite://other.db", cmd.BackendURL)
	assert.Equal(t, "k", cmd.AnonKey)

	cmd = NewSeedCommand(cfg)
	assert.Error(t, cmd.ParseFlags([]string{"-backend", ""}))
}

func TestSeedCommand_Run(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	cmd := NewSeedCommand(cfg)
	cmd.Out = &out
	require.NoError(t, cmd.ParseFlags(nil))
	require.NoError(t, cmd.Run())

	assert.Contains(t, out.String(), fmt.Sprintf("quests: %d", len(catalog.Quests())))
	assert.Contains(t, out.String(), fmt.Sprintf("badges: %d", len(catalog.Badges())))
	assert.Contains(t, out.String(), fmt.Sprintf("avatar_items: %d", len(catalog.AvatarItems())))

	// Seeding twice leaves the catalog unchanged
	out.Reset()
	require.NoError(t, cmd.Run())
	assert.Contains(t, out.String(), fmt.Sprintf("avatar_items: %d", len(catalog.AvatarItems())))
}

func TestSeedCommand_RunWithoutAnonKey(t *testing.T) {
	cmd := NewSeedCommand(testConfig(t))
	require.NoError(t, cmd.ParseFlags([]string{"-anon-key", ""}))
	assert.Error(t, cmd.Run())
}

func TestPurgeTokensCommand(t *testing.T) {
	cfg := testConfig(t)

	t.Run("rejects non-positive timeout", func(t *testing.T) {
		cmd := NewPurgeTokensCommand(cfg)
		assert.Error(t, cmd.ParseFlags([]string{"-timeout", "0s"}))
	})

	t.Run("purges an empty backend", func(t *testing.T) {
		var out bytes.Buffer
		cmd := NewPurgeTokensCommand(cfg)
		cmd.Out = &out
		require.NoError(t, cmd.ParseFlags([]string{"-timeout", "10s"}))
		assert.Equal(t, 10*time.Second, cmd.Timeout)

		require.NoError(t, cmd.Run())
		assert.Equal(t, "Purged 0 expired tokens\n", out.String())
	})
}
