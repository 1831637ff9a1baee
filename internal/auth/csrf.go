package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"github.com/questeded/quested/internal/backend"
)

// CSRFTokenHeader is the header name for CSRF token in AJAX requests.
const CSRFTokenHeader = "X-CSRF-Token"

const csrfContextKey = "csrf_token"

// TokenValidator checks bearer tokens. Operations satisfies it.
type TokenValidator interface {
	GetSession(ctx context.Context, accessToken string) (*backend.Session, error)
}

// CSRFMiddleware creates a Gin middleware for CSRF protection of
// cookie-authenticated requests. Safe methods pass through gorilla/csrf
// untouched; requests with a bearer token that validator accepts skip the
// check entirely. A nil validator disables the bearer bypass.
// trustedOrigins are host[:port] values allowed to send cross-origin writes.
// With secure unset requests are treated as plain HTTP.
func CSRFMiddleware(secret []byte, secure bool, trustedOrigins []string, validator TokenValidator) gin.HandlerFunc {
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	}
	if len(trustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(trustedOrigins))
	}
	protect := csrf.Protect(secret, opts...)

	return func(c *gin.Context) {
		if hasValidBearer(c, validator) {
			c.Next()
			return
		}

		if !secure {
			c.Request = csrf.PlaintextHTTPRequest(c.Request)
		}
		handler := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Set(csrfContextKey, csrf.Token(r))
			c.Request = r
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
}

func hasValidBearer(c *gin.Context, validator TokenValidator) bool {
	if validator == nil {
		return false
	}
	token := BearerToken(c)
	if token == "" {
		return false
	}
	session, err := validator.GetSession(c.Request.Context(), token)
	return err == nil && session != nil
}

// BearerToken returns the token from an "Authorization: Bearer" header, or "".
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// GetCSRFToken retrieves the CSRF token from the Gin context.
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get(csrfContextKey); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}

// CSRFSecret returns the key for CSRFMiddleware. A hex-encoded configured
// value is decoded, any other non-empty value is used as raw bytes, and an
// empty one yields a fresh random 32-byte key with generated set.
func CSRFSecret(configured string) (secret []byte, generated bool, err error) {
	if configured != "" {
		if decoded, err := hex.DecodeString(configured); err == nil {
			return decoded, false, nil
		}
		return []byte(configured), false, nil
	}

	secret = make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, false, err
	}
	return secret, true, nil
}
