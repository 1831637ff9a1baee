package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/questeded/quested/internal/auth"
	"github.com/questeded/quested/internal/logger"
	"github.com/questeded/quested/internal/state"
)

const contextKeyState = "state_session"

// StateMiddleware binds the browser session to its in-memory state. A state
// created for an existing browser session (after a restart or an idle
// sweep) is rehydrated from the stored tokens or guest flag. API clients
// without stored tokens may present a bearer token instead.
// Must run after the session manager's SessionLoadSave.
func StateMiddleware(registry *state.Registry, sm *auth.SessionManager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		s := registry.GetOrCreate(sm.StateID(ctx))

		access, refresh := sm.AccessToken(ctx), sm.RefreshToken(ctx)
		stored := access != ""
		if !stored {
			access = auth.BearerToken(c)
		}
		first, err := s.Resume(ctx, access, refresh, sm.IsGuest(ctx))
		if err != nil {
			log.Warn("Resumed session without profile", "error", err)
		}
		if first && stored {
			if session := s.Auth.Session(); session != nil {
				sm.UpdateTokens(ctx, session)
			} else if err := sm.ClearAuth(ctx); err != nil {
				log.Warn("Failed to clear stale tokens", "error", err)
			}
		}

		c.Set(contextKeyState, s)
		c.Next()
	}
}

// currentState returns the state bound by StateMiddleware.
func currentState(c *gin.Context) *state.Session {
	if v, ok := c.Get(contextKeyState); ok {
		if s, ok := v.(*state.Session); ok {
			return s
		}
	}
	return nil
}

// takeRedirect drains the route the stores asked to navigate to.
func takeRedirect(c *gin.Context) string {
	if s := currentState(c); s != nil {
		return s.Routes.Take()
	}
	return ""
}

// RequireSignIn rejects requests from clients that are neither signed in
// nor in guest mode.
func RequireSignIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := currentState(c)
		if s == nil || !s.Auth.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:    "sign in required",
				Redirect: state.RouteLogin,
			})
			return
		}
		c.Next()
	}
}
