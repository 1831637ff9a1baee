package http

import (
	"context"

	"github.com/questeded/quested/internal/auth"
	"github.com/questeded/quested/internal/logger"
	"github.com/questeded/quested/internal/state"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Registry *state.Registry
	Sessions *auth.SessionManager
	Backend  Pinger

	// Sign-in throttling (optional)
	Limiter *auth.SignInLimiter

	// CSRF protection, enabled when CSRFSecret is set
	CSRFSecret     []byte
	SecureCookies  bool
	TrustedOrigins []string
	TokenValidator auth.TokenValidator

	// Origins allowed by CORS, usually the site URL
	AllowedOrigins []string

	// Application info
	Version string

	Log *logger.Logger
}
