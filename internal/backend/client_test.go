package backend

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/questeded/quested/internal/config"
	"github.com/questeded/quested/internal/entities"
	"github.com/questeded/quested/internal/logger"
)

type capturingMailer struct {
	mu    sync.Mutex
	links []string
	err   error
}

func (m *capturingMailer) SendConfirmation(_ context.Context, _, link string) error {
	return m.record(link)
}

func (m *capturingMailer) SendRecovery(_ context.Context, _, link string) error {
	return m.record(link)
}

func (m *capturingMailer) record(link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.links = append(m.links, link)
	return nil
}

func (m *capturingMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.links)
	u, err := url.Parse(m.links[len(m.links)-1])
	require.NoError(t, err)
	return u.Query().Get("token")
}

func testBackendConfig(t *testing.T) config.Backend {
	t.Helper()
	return config.Backend{
		URL:              "sqlite://" + filepath.Join(t.TempDir(), "backend.db") + "?_busy_timeout=5000",
		AnonKey:          "anon-key",
		JWTSecret:        "test-secret",
		AutoConfirm:      true,
		AccessTokenTTL:   time.Hour,
		RefreshTokenTTL:  24 * time.Hour,
		RecoveryTokenTTL: time.Hour,
		BcryptCost:       bcrypt.MinCost,
	}
}

func newTestClient(t *testing.T, cfg config.Backend, mailer Mailer) *Client {
	t.Helper()
	client, err := New(context.Background(), Options{Backend: cfg, Logger: logger.Nop(), Mailer: mailer})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNew_RequiresAnonKey(t *testing.T) {
	cfg := testBackendConfig(t)
	cfg.AnonKey = " "

	_, err := New(context.Background(), Options{Backend: cfg})
	assert.ErrorIs(t, err, ErrMissingAnonKey)
}

func TestNew_RejectsUnknownScheme(t *testing.T) {
	cfg := testBackendConfig(t)
	cfg.URL = "mysql://localhost/quested"

	_, err := New(context.Background(), Options{Backend: cfg})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidParameter, CodeOf(err))
}

func TestNew_SeedsCatalogOnce(t *testing.T) {
	client := newTestClient(t, testBackendConfig(t), nil)
	ctx := context.Background()

	require.NoError(t, client.SeedCatalog(ctx))

	var quests, badges, items int64
	require.NoError(t, client.DB(ctx).Model(&entities.Quest{}).Count(&quests).Error)
	require.NoError(t, client.DB(ctx).Model(&entities.Badge{}).Count(&badges).Error)
	require.NoError(t, client.DB(ctx).Model(&entities.AvatarItem{}).Count(&items).Error)
	assert.Equal(t, int64(4), quests)
	assert.Equal(t, int64(4), badges)
	assert.Equal(t, int64(11), items)

	assert.NoError(t, client.Ping(ctx))
}

func TestFrom_ScopesTable(t *testing.T) {
	client := newTestClient(t, testBackendConfig(t), nil)

	var titles []string
	err := client.From(context.Background(), "quests").Order("created_at").Pluck("title", &titles).Error
	require.NoError(t, err)
	assert.Equal(t, []string{"Math Adventure", "Grammar Galaxy", "Science Safari", "History Heroes"}, titles)
}

func TestGormLogger_SkipsMissingRows(t *testing.T) {
	var out bytes.Buffer
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "quiet.db")), &gorm.Config{
		Logger: newGormLogger(&out),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.UserProfile{}))

	var profile entities.UserProfile
	err = db.Where("id = ?", "nobody").First(&profile).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, out.String())

	err = db.Exec("SELECT * FROM no_such_table").Error
	require.Error(t, err)
	assert.Contains(t, out.String(), "no_such_table")
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", gorm.ErrRecordNotFound, CodeNoRows},
		{"duplicated key", gorm.ErrDuplicatedKey, CodeUniqueViolation},
		{"sqlite unique", errors.New("UNIQUE constraint failed: user_badges.user_id"), CodeUniqueViolation},
		{"other", errors.New("disk I/O error"), CodeInternal},
		{"already translated", newError(CodeInvalidToken, "bad"), CodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.want, CodeOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
