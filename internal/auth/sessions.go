package auth

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/config"
)

// Session data keys
const (
	SessionKeyStateID      = "state_id"
	SessionKeyAccessToken  = "access_token"
	SessionKeyRefreshToken = "refresh_token"
	SessionKeyGuest        = "guest"
)

const sessionCookieName = "quested_session"

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
	store *sqlite3store.SQLite3Store
	db    *sql.DB
}

// OpenSessionManager opens the session database at cfg.DBPath and builds a
// manager over it. Close releases the database.
func OpenSessionManager(cfg config.Session) (*SessionManager, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	sm, err := NewSessionManager(db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	sm.db = db
	return sm, nil
}

// NewSessionManager creates a configured session manager over sqlDB.
func NewSessionManager(sqlDB *sql.DB, cfg config.Session) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	sm := scs.New()
	store := sqlite3store.New(sqlDB)
	sm.Store = store

	sm.Lifetime = cfg.Lifetime
	sm.IdleTimeout = cfg.Lifetime / 2

	sm.Cookie.Name = sessionCookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm, store: store}, nil
}

// StateID returns the id binding this browser session to its in-memory
// state, creating one on first use.
func (sm *SessionManager) StateID(ctx context.Context) string {
	id := sm.GetString(ctx, SessionKeyStateID)
	if id == "" {
		id = uuid.NewString()
		sm.Put(ctx, SessionKeyStateID, id)
	}
	return id
}

// StoreSession records the backend tokens after sign-in. The cookie token
// is renewed to prevent session fixation.
func (sm *SessionManager) StoreSession(ctx context.Context, session *backend.Session) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.UpdateTokens(ctx, session)
	sm.Remove(ctx, SessionKeyGuest)
	return nil
}

// UpdateTokens replaces the stored tokens after a refresh. The cookie token
// is kept.
func (sm *SessionManager) UpdateTokens(ctx context.Context, session *backend.Session) {
	if sm.GetString(ctx, SessionKeyAccessToken) != session.AccessToken {
		sm.Put(ctx, SessionKeyAccessToken, session.AccessToken)
	}
	if session.RefreshToken != "" && sm.GetString(ctx, SessionKeyRefreshToken) != session.RefreshToken {
		sm.Put(ctx, SessionKeyRefreshToken, session.RefreshToken)
	}
}

// MarkGuest records that this browser entered guest mode.
func (sm *SessionManager) MarkGuest(ctx context.Context) {
	sm.Remove(ctx, SessionKeyAccessToken)
	sm.Remove(ctx, SessionKeyRefreshToken)
	sm.Put(ctx, SessionKeyGuest, true)
}

// ClearAuth drops tokens and the guest flag but keeps the state id.
func (sm *SessionManager) ClearAuth(ctx context.Context) error {
	sm.Remove(ctx, SessionKeyAccessToken)
	sm.Remove(ctx, SessionKeyRefreshToken)
	sm.Remove(ctx, SessionKeyGuest)
	return sm.RenewToken(ctx)
}

func (sm *SessionManager) AccessToken(ctx context.Context) string {
	return sm.GetString(ctx, SessionKeyAccessToken)
}

func (sm *SessionManager) RefreshToken(ctx context.Context) string {
	return sm.GetString(ctx, SessionKeyRefreshToken)
}

func (sm *SessionManager) IsGuest(ctx context.Context) bool {
	return sm.GetBool(ctx, SessionKeyGuest)
}

// Close stops the expired-session cleanup and closes the database if the
// manager opened it.
func (sm *SessionManager) Close() error {
	sm.store.StopCleanup()
	if sm.db != nil {
		return sm.db.Close()
	}
	return nil
}
