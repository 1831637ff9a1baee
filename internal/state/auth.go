package state

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/entities"
	"github.com/questeded/quested/internal/logger"
)

// Guest identity used while in guest mode.
const (
	GuestUserID      = "guest"
	GuestEmail       = "guest@questedted.app"
	GuestDisplayName = "Guest Explorer"

	defaultDisplayName = "Young Learner"
	metadataFullName   = "full_name"
)

// eventTimeout bounds the profile reload triggered by an auth event.
const eventTimeout = 10 * time.Second

// SignUpResult separates a finished sign-up from one waiting on e-mail
// confirmation. No session exists while NeedsConfirmation is set.
type SignUpResult struct {
	NeedsConfirmation bool
	Response          *backend.AuthResponse
}

// Auth tracks the signed-in user, the guest flag and the user's profile.
type Auth struct {
	ops  AuthService
	data DataStore
	nav  Navigator
	log  *logger.Logger

	mu      sync.RWMutex
	user    *backend.User
	session *backend.Session
	guest   bool
	loading bool
	profile *entities.UserProfile
	sub     *backend.Subscription
}

func NewAuth(ops AuthService, data DataStore, nav Navigator, log *logger.Logger) *Auth {
	if log == nil {
		log = logger.Nop()
	}
	if nav == nil {
		nav = &RouteRecorder{}
	}
	return &Auth{
		ops:  ops,
		data: data,
		nav:  nav,
		log:  log.With("store", "auth"),
	}
}

// SignInWithEmail signs in, loads the profile and navigates home.
func (a *Auth) SignInWithEmail(ctx context.Context, email, password string) (*backend.AuthResponse, error) {
	a.setLoading(true)
	defer a.setLoading(false)

	resp, err := a.ops.SignIn(ctx, email, password)
	if err != nil {
		a.log.Error("Email sign in failed", "error", err)
		return nil, err
	}
	if err := a.establish(ctx, resp.Session, RouteHome); err != nil {
		return resp, err
	}
	return resp, nil
}

// SignUpWithEmail registers an account. When the backend holds the account
// for e-mail confirmation the result says so and nothing else changes;
// otherwise the new user is signed in like SignInWithEmail.
func (a *Auth) SignUpWithEmail(ctx context.Context, email, password, fullName string) (*SignUpResult, error) {
	a.setLoading(true)
	defer a.setLoading(false)

	resp, err := a.ops.SignUp(ctx, email, password, fullName)
	if err != nil {
		a.log.Error("Email sign up failed", "error", err)
		return nil, err
	}
	if resp.Session == nil || resp.User == nil || resp.User.EmailConfirmedAt == nil {
		return &SignUpResult{NeedsConfirmation: true, Response: resp}, nil
	}
	if err := a.establish(ctx, resp.Session, RouteHome); err != nil {
		return &SignUpResult{Response: resp}, err
	}
	return &SignUpResult{Response: resp}, nil
}

// SignInAsGuest switches to a local guest identity. The backend is not
// contacted.
func (a *Auth) SignInAsGuest(ctx context.Context) {
	a.mu.Lock()
	a.guest = true
	a.session = nil
	a.user = &backend.User{
		ID:           GuestUserID,
		Email:        GuestEmail,
		UserMetadata: map[string]interface{}{metadataFullName: GuestDisplayName},
	}
	a.profile = &entities.UserProfile{
		ID:          GuestUserID,
		DisplayName: GuestDisplayName,
		TotalXP:     0,
		Level:       1,
	}
	a.mu.Unlock()

	a.nav.Navigate(ctx, RouteHome)
}

func (a *Auth) ResetPassword(ctx context.Context, email string) error {
	if err := a.ops.ResetPassword(ctx, email); err != nil {
		a.log.Error("Password reset failed", "error", err)
		return err
	}
	return nil
}

// UpdatePassword changes the signed-in user's password.
func (a *Auth) UpdatePassword(ctx context.Context, newPassword string) error {
	token := a.AccessToken()
	if token == "" {
		return ErrNotSignedIn
	}
	if err := a.ops.UpdatePassword(ctx, token, newPassword); err != nil {
		a.log.Error("Password update failed", "error", err)
		return err
	}
	return nil
}

// SignOut revokes the backend session unless in guest mode, then clears
// local state and navigates to the login view. Local state is cleared even
// when the backend call fails; that error is still returned.
func (a *Auth) SignOut(ctx context.Context) error {
	a.mu.RLock()
	guest := a.guest
	var token string
	if a.session != nil {
		token = a.session.AccessToken
	}
	a.mu.RUnlock()

	var err error
	if !guest && token != "" {
		if err = a.ops.SignOut(ctx, token); err != nil {
			a.log.Error("Sign out failed", "error", err)
		}
	}

	a.clear()
	a.nav.Navigate(ctx, RouteLogin)
	return err
}

// Restore resumes a session from stored tokens, refreshing an expired access
// token when a refresh token is available. Invalid tokens leave the store
// signed out without error.
func (a *Auth) Restore(ctx context.Context, accessToken, refreshToken string) error {
	session, err := a.ops.GetSession(ctx, accessToken)
	if (err != nil || session == nil) && refreshToken != "" {
		a.log.Debug("Stored access token unusable, refreshing", "code", backend.CodeOf(err))
		session, err = a.ops.RefreshSession(ctx, refreshToken)
	}
	if err != nil {
		a.log.Warn("Session restore failed", "error", err)
		return nil
	}
	if session == nil {
		return nil
	}

	a.setSession(session)
	a.watch()
	return a.reloadProfile(ctx, session.User)
}

// LoadProfile refetches the profile of the signed-in user.
func (a *Auth) LoadProfile(ctx context.Context) error {
	a.mu.RLock()
	if a.user == nil || a.guest {
		a.mu.RUnlock()
		return nil
	}
	user := *a.user
	a.mu.RUnlock()

	return a.reloadProfile(ctx, user)
}

// RefreshSession rotates the stored refresh token.
func (a *Auth) RefreshSession(ctx context.Context) (*backend.Session, error) {
	token := a.RefreshToken()
	if token == "" {
		return nil, ErrNotSignedIn
	}
	session, err := a.ops.RefreshSession(ctx, token)
	if err != nil {
		a.log.Error("Session refresh failed", "error", err)
		return nil, err
	}
	a.setSession(session)
	return session, nil
}

// ConfirmEmail redeems a confirmation token and signs the user in.
func (a *Auth) ConfirmEmail(ctx context.Context, token string) error {
	resp, err := a.ops.ConfirmEmail(ctx, token)
	if err != nil {
		a.log.Error("Email confirmation failed", "error", err)
		return err
	}
	return a.establish(ctx, resp.Session, RouteHome)
}

// VerifyRecovery redeems a recovery token, signs the user in and navigates
// to the reset-password view.
func (a *Auth) VerifyRecovery(ctx context.Context, token string) error {
	resp, err := a.ops.VerifyRecovery(ctx, token)
	if err != nil {
		a.log.Error("Recovery verification failed", "error", err)
		return err
	}
	return a.establish(ctx, resp.Session, RouteResetPassword)
}

// Close drops the auth-change subscription.
func (a *Auth) Close() {
	a.mu.Lock()
	sub := a.sub
	a.sub = nil
	a.mu.Unlock()
	sub.Unsubscribe()
}

func (a *Auth) establish(ctx context.Context, session *backend.Session, route string) error {
	if session == nil {
		return ErrNotSignedIn
	}
	a.setSession(session)
	a.watch()

	if err := a.reloadProfile(ctx, session.User); err != nil {
		return err
	}
	a.nav.Navigate(ctx, route)
	return nil
}

func (a *Auth) setSession(session *backend.Session) {
	user := session.User

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil || a.user.ID != user.ID {
		a.profile = nil
	}
	a.user = &user
	a.session = session
	a.guest = false
}

// reloadProfile fetches the profile for user, creating it on first use.
func (a *Auth) reloadProfile(ctx context.Context, user backend.User) error {
	profile, err := a.data.GetUserProfile(ctx, user.ID)
	if err == nil && profile == nil {
		profile, err = a.data.CreateUserProfile(ctx, user.ID, profileNameOf(user))
	}
	if err != nil {
		a.log.Error("Failed to load user profile", "user_id", user.ID, "error", err)
		return err
	}

	a.mu.Lock()
	if a.user != nil && a.user.ID == user.ID && !a.guest {
		a.profile = profile
	}
	a.mu.Unlock()
	return nil
}

// watch subscribes to auth changes once per store.
func (a *Auth) watch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sub == nil {
		a.sub = a.ops.OnAuthStateChange(a.handleEvent)
	}
}

// handleEvent applies auth changes raised elsewhere for the current user.
// Guest mode and events about other users are ignored. A sign-out only
// clears state when it revoked this store's own session.
func (a *Auth) handleEvent(ev backend.AuthChangeEvent) {
	a.mu.Lock()
	if a.guest || a.user == nil || ev.UserID() != a.user.ID {
		a.mu.Unlock()
		return
	}

	if ev.Kind == backend.EventSignedOut {
		own := a.session != nil && ev.SessionID == a.session.ID
		a.mu.Unlock()
		if own {
			a.log.Info("Session signed out elsewhere")
			a.clear()
		}
		return
	}

	user := *ev.User
	a.user = &user
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	_ = a.reloadProfile(ctx, user)
}

func (a *Auth) clear() {
	a.mu.Lock()
	a.user = nil
	a.session = nil
	a.guest = false
	a.profile = nil
	a.mu.Unlock()
}

func (a *Auth) setLoading(v bool) {
	a.mu.Lock()
	a.loading = v
	a.mu.Unlock()
}

// Actor implements ActorSource.
func (a *Auth) Actor() Actor {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return Actor{Guest: a.guest}
	}
	return Actor{UserID: a.user.ID, Guest: a.guest}
}

// User returns a copy of the current user, or nil.
func (a *Auth) User() *backend.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

// Profile returns a copy of the current profile, or nil.
func (a *Auth) Profile() *entities.UserProfile {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.profile == nil {
		return nil
	}
	p := *a.profile
	return &p
}

func (a *Auth) IsGuest() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.guest
}

func (a *Auth) IsLoading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

// IsAuthenticated is true for signed-in users and guests.
func (a *Auth) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user != nil || a.guest
}

// DisplayName picks the best available name for the current user.
func (a *Auth) DisplayName() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.guest {
		return GuestDisplayName
	}
	if a.profile != nil && a.profile.DisplayName != "" {
		return a.profile.DisplayName
	}
	return displayNameOf(a.user)
}

func (a *Auth) AccessToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return ""
	}
	return a.session.AccessToken
}

func (a *Auth) RefreshToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return ""
	}
	return a.session.RefreshToken
}

// Session returns a copy of the backend session, or nil.
func (a *Auth) Session() *backend.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return nil
	}
	s := *a.session
	return &s
}

// profileNameOf names a new profile: full_name metadata, then the e-mail
// local part.
func profileNameOf(user backend.User) string {
	if name, ok := user.UserMetadata[metadataFullName].(string); ok && strings.TrimSpace(name) != "" {
		return name
	}
	if local := strings.SplitN(user.Email, "@", 2)[0]; local != "" {
		return local
	}
	return defaultDisplayName
}

// displayNameOf falls back from the full_name metadata to the e-mail.
func displayNameOf(user *backend.User) string {
	if user == nil {
		return defaultDisplayName
	}
	if name, ok := user.UserMetadata[metadataFullName].(string); ok && strings.TrimSpace(name) != "" {
		return name
	}
	if user.Email != "" {
		return user.Email
	}
	return defaultDisplayName
}
