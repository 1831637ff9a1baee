package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/questeded/quested/internal/auth"
	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/entities"
	"github.com/questeded/quested/internal/logger"
	"github.com/questeded/quested/internal/state"
)

// AuthController handles sign-up, sign-in and the rest of the account flow.
type AuthController struct {
	sessions *auth.SessionManager
	limiter  *auth.SignInLimiter
	log      *logger.Logger
}

func NewAuthController(sessions *auth.SessionManager, limiter *auth.SignInLimiter, log *logger.Logger) *AuthController {
	return &AuthController{sessions: sessions, limiter: limiter, log: log.With("controller", "auth")}
}

// AuthStatus describes who the client is signed in as.
type AuthStatus struct {
	Authenticated bool                  `json:"authenticated"`
	Guest         bool                  `json:"guest"`
	DisplayName   string                `json:"display_name,omitempty"`
	User          *backend.User         `json:"user,omitempty"`
	Profile       *entities.UserProfile `json:"profile,omitempty"`
	Loaded        *state.LoadReport     `json:"loaded,omitempty"`
	Redirect      string                `json:"redirect,omitempty"`
}

func statusOf(c *gin.Context, s *state.Session, loaded *state.LoadReport) AuthStatus {
	st := AuthStatus{
		Authenticated: s.Auth.IsAuthenticated(),
		Guest:         s.Auth.IsGuest(),
		Loaded:        loaded,
		Redirect:      takeRedirect(c),
	}
	if st.Authenticated {
		st.DisplayName = s.Auth.DisplayName()
		st.User = s.Auth.User()
		st.Profile = s.Auth.Profile()
	}
	return st
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signUpRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type passwordRequest struct {
	Password string `json:"password" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// SignUp registers an account.
// POST /api/auth/signup
func (ac *AuthController) SignUp(c *gin.Context) {
	var req signUpRequest
	if !bindJSON(c, &req) {
		return
	}
	s := currentState(c)
	ctx := c.Request.Context()

	result, err := s.Auth.SignUpWithEmail(ctx, req.Email, req.Password, req.FullName)
	if result == nil {
		respondStoreError(c, ac.log, err, "sign up")
		return
	}
	if result.NeedsConfirmation {
		c.JSON(http.StatusAccepted, gin.H{
			"needs_confirmation": true,
			"message":            "check your e-mail to confirm the account",
		})
		return
	}
	ac.signedIn(c, s, err)
}

// SignIn signs in with e-mail and password. Repeated failures for the same
// client and e-mail are locked out.
// POST /api/auth/signin
func (ac *AuthController) SignIn(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	ip := c.ClientIP()
	if ac.limiter != nil {
		if ok, wait := ac.limiter.Allow(ip, req.Email); !ok {
			ac.tooManyAttempts(c, wait)
			return
		}
	}

	s := currentState(c)
	resp, err := s.Auth.SignInWithEmail(c.Request.Context(), req.Email, req.Password)
	if resp == nil {
		if ac.limiter != nil && backend.IsCode(err, backend.CodeInvalidCredentials) {
			if locked, wait := ac.limiter.RecordFailure(ip, req.Email); locked {
				ac.log.Warn("Sign in locked out", "ip", ip, "email", req.Email)
				ac.tooManyAttempts(c, wait)
				return
			}
		}
		respondStoreError(c, ac.log, err, "sign in")
		return
	}
	if ac.limiter != nil {
		ac.limiter.RecordSuccess(ip, req.Email)
	}
	ac.signedIn(c, s, err)
}

func (ac *AuthController) tooManyAttempts(c *gin.Context, wait time.Duration) {
	c.Header("Retry-After", strconv.Itoa(int(wait.Round(time.Second).Seconds())))
	respondError(c, http.StatusTooManyRequests, "too many sign-in attempts, try again later")
}

// signedIn persists the new backend session in the browser session and
// loads the data stores. profileErr is a profile fetch failure after the
// session was established; the client is signed in regardless.
func (ac *AuthController) signedIn(c *gin.Context, s *state.Session, profileErr error) {
	ctx := c.Request.Context()
	session := s.Auth.Session()
	if session == nil {
		respondStoreError(c, ac.log, profileErr, "sign in")
		return
	}
	if err := ac.sessions.StoreSession(ctx, session); err != nil {
		ac.log.Error("Failed to store session", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to store session")
		return
	}
	if profileErr != nil {
		ac.log.Warn("Signed in without profile", "error", profileErr)
	}
	report := s.LoadAll(ctx)
	c.JSON(http.StatusOK, statusOf(c, s, &report))
}

// Guest enters guest mode.
// POST /api/auth/guest
func (ac *AuthController) Guest(c *gin.Context) {
	s := currentState(c)
	ctx := c.Request.Context()

	s.Auth.SignInAsGuest(ctx)
	ac.sessions.MarkGuest(ctx)
	report := s.LoadAll(ctx)
	c.JSON(http.StatusOK, statusOf(c, s, &report))
}

// SignOut signs out. Local state is cleared even when the backend call fails.
// POST /api/auth/signout
func (ac *AuthController) SignOut(c *gin.Context) {
	s := currentState(c)
	ctx := c.Request.Context()

	if err := s.SignOut(ctx); err != nil {
		ac.log.Warn("Backend sign out failed", "error", err)
	}
	if err := ac.sessions.ClearAuth(ctx); err != nil {
		ac.log.Error("Failed to clear session", "error", err)
	}
	respondSuccess(c, "signed out", nil)
}

// Status reports the current user.
// GET /api/auth/session
func (ac *AuthController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, statusOf(c, currentState(c), nil))
}

// ReloadProfile refetches the profile of the signed-in user.
// POST /api/auth/profile/reload
func (ac *AuthController) ReloadProfile(c *gin.Context) {
	s := currentState(c)
	if err := s.Auth.LoadProfile(c.Request.Context()); err != nil {
		respondStoreError(c, ac.log, err, "reload profile")
		return
	}
	c.JSON(http.StatusOK, statusOf(c, s, nil))
}

// ResetPassword sends a password recovery e-mail.
// POST /api/auth/reset-password
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}
	err := currentState(c).Auth.ResetPassword(c.Request.Context(), req.Email)
	if err != nil && !backend.IsCode(err, backend.CodeUserNotFound) {
		respondStoreError(c, ac.log, err, "reset password")
		return
	}
	// Unknown addresses get the same answer so accounts cannot be probed.
	respondSuccess(c, "if the address is registered, a reset link is on its way", nil)
}

// UpdatePassword changes the signed-in user's password.
// POST /api/auth/update-password
func (ac *AuthController) UpdatePassword(c *gin.Context) {
	var req passwordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := currentState(c).Auth.UpdatePassword(c.Request.Context(), req.Password); err != nil {
		respondStoreError(c, ac.log, err, "update password")
		return
	}
	respondSuccess(c, "password updated", nil)
}

// Refresh rotates the refresh token.
// POST /api/auth/refresh
func (ac *AuthController) Refresh(c *gin.Context) {
	s := currentState(c)
	ctx := c.Request.Context()

	session, err := s.Auth.RefreshSession(ctx)
	if err != nil {
		respondStoreError(c, ac.log, err, "refresh session")
		return
	}
	ac.sessions.UpdateTokens(ctx, session)
	c.JSON(http.StatusOK, gin.H{"expires_at": session.ExpiresAt})
}

// Confirm redeems an e-mail confirmation token and signs the user in.
// POST /api/auth/confirm
func (ac *AuthController) Confirm(c *gin.Context) {
	ac.redeem(c, "confirm email", func(s *state.Session, token string) error {
		return s.Auth.ConfirmEmail(c.Request.Context(), token)
	})
}

// Recover redeems a password recovery token. The client is signed in and
// sent to the reset-password view.
// POST /api/auth/recover
func (ac *AuthController) Recover(c *gin.Context) {
	ac.redeem(c, "verify recovery", func(s *state.Session, token string) error {
		return s.Auth.VerifyRecovery(c.Request.Context(), token)
	})
}

func (ac *AuthController) redeem(c *gin.Context, op string, fn func(*state.Session, string) error) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	s := currentState(c)
	before := s.Auth.AccessToken()
	err := fn(s, req.Token)
	if err != nil && s.Auth.AccessToken() == before {
		respondStoreError(c, ac.log, err, op)
		return
	}
	ac.signedIn(c, s, err)
}

// CSRFToken hands out the token for state-changing requests.
// GET /api/csrf
func CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": auth.GetCSRFToken(c)})
}
