package auth

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/config"
)

func setupSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	sm, err := OpenSessionManager(config.Session{
		DBPath:   filepath.Join(t.TempDir(), "sessions.db"),
		Lifetime: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })
	return sm
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", sessionCookieName)
	return nil
}

func TestSessionManager_StateIDIsStable(t *testing.T) {
	sm := setupSessionManager(t)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.GET("/state", func(c *gin.Context) {
		c.String(http.StatusOK, sm.StateID(c.Request.Context()))
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	first := rr.Body.String()
	assert.NotEmpty(t, first)
	cookie := sessionCookie(t, rr)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, first, rr.Body.String())
}

func TestSessionManager_TokensAndGuestFlag(t *testing.T) {
	sm := setupSessionManager(t)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.POST("/signin", func(c *gin.Context) {
		ctx := c.Request.Context()
		sm.StateID(ctx)
		require.NoError(t, sm.StoreSession(ctx, &backend.Session{AccessToken: "at", RefreshToken: "rt"}))
		c.Status(http.StatusNoContent)
	})
	router.POST("/guest", func(c *gin.Context) {
		sm.MarkGuest(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	router.POST("/signout", func(c *gin.Context) {
		require.NoError(t, sm.ClearAuth(c.Request.Context()))
		c.Status(http.StatusNoContent)
	})
	router.GET("/whoami", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, gin.H{
			"state":   sm.GetString(ctx, SessionKeyStateID),
			"access":  sm.AccessToken(ctx),
			"refresh": sm.RefreshToken(ctx),
			"guest":   sm.IsGuest(ctx),
		})
	})

	do := func(method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	rr := do(http.MethodPost, "/signin", nil)
	cookie := sessionCookie(t, rr)

	rr = do(http.MethodGet, "/whoami", cookie)
	assert.Contains(t, rr.Body.String(), `"access":"at"`)
	assert.Contains(t, rr.Body.String(), `"refresh":"rt"`)
	assert.Contains(t, rr.Body.String(), `"guest":false`)

	do(http.MethodPost, "/guest", cookie)
	rr = do(http.MethodGet, "/whoami", cookie)
	assert.Contains(t, rr.Body.String(), `"access":""`)
	assert.Contains(t, rr.Body.String(), `"guest":true`)

	rr = do(http.MethodPost, "/signout", cookie)
	renewed := sessionCookie(t, rr)
	assert.NotEqual(t, cookie.Value, renewed.Value, "token is renewed on sign-out")

	rr = do(http.MethodGet, "/whoami", renewed)
	assert.Contains(t, rr.Body.String(), `"guest":false`)
	assert.NotContains(t, rr.Body.String(), `"state":""`, "state id survives sign-out")
}
