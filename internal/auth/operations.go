package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/logger"
)

const (
	// ResetPasswordPath is appended to the site URL to form the recovery
	// redirect.
	ResetPasswordPath = "/reset-password"
	// ConfirmEmailPath is appended to the site URL to form the confirmation
	// redirect.
	ConfirmEmailPath = "/confirm"

	metadataFullName = "full_name"
)

// AuthBackend is the subset of the backend auth client used here.
type AuthBackend interface {
	SignUp(ctx context.Context, email, password string, opts backend.SignUpOptions) (*backend.AuthResponse, error)
	SignInWithPassword(ctx context.Context, email, password string) (*backend.AuthResponse, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	VerifyRecovery(ctx context.Context, token string) (*backend.AuthResponse, error)
	ConfirmEmail(ctx context.Context, token string) (*backend.AuthResponse, error)
	UpdateUser(ctx context.Context, accessToken string, attrs backend.UserAttributes) (*backend.User, error)
	GetSession(ctx context.Context, accessToken string) (*backend.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*backend.Session, error)
	OnAuthStateChange(cb func(backend.AuthChangeEvent)) *backend.Subscription
}

// Operations is the named auth API used by the stores.
type Operations struct {
	backend AuthBackend
	siteURL string
	log     *logger.Logger
}

func NewOperations(b AuthBackend, siteURL string, log *logger.Logger) *Operations {
	if log == nil {
		log = logger.Nop()
	}
	return &Operations{
		backend: b,
		siteURL: strings.TrimRight(siteURL, "/"),
		log:     log.With("service", "AuthOperations"),
	}
}

// SignUp registers an account. fullName is stored as the display name and
// defaults to the local part of the e-mail address.
func (o *Operations) SignUp(ctx context.Context, email, password, fullName string) (*backend.AuthResponse, error) {
	if strings.TrimSpace(fullName) == "" {
		fullName = emailLocalPart(email)
	}
	resp, err := o.backend.SignUp(ctx, email, password, backend.SignUpOptions{
		Data:            map[string]interface{}{metadataFullName: strings.TrimSpace(fullName)},
		EmailRedirectTo: o.redirect(ConfirmEmailPath),
	})
	if err != nil {
		return nil, o.fail("sign up", err)
	}
	return resp, nil
}

func (o *Operations) SignIn(ctx context.Context, email, password string) (*backend.AuthResponse, error) {
	resp, err := o.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, o.fail("sign in", err)
	}
	return resp, nil
}

func (o *Operations) SignOut(ctx context.Context, accessToken string) error {
	if err := o.backend.SignOut(ctx, accessToken); err != nil {
		return o.fail("sign out", err)
	}
	return nil
}

// ResetPassword mails a recovery link pointing at the reset-password page.
func (o *Operations) ResetPassword(ctx context.Context, email string) error {
	if err := o.backend.ResetPasswordForEmail(ctx, email, o.redirect(ResetPasswordPath)); err != nil {
		return o.fail("reset password", err)
	}
	return nil
}

// UpdatePassword sets a new password for the user owning accessToken.
func (o *Operations) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	if _, err := o.backend.UpdateUser(ctx, accessToken, backend.UserAttributes{Password: &newPassword}); err != nil {
		return o.fail("update password", err)
	}
	return nil
}

func (o *Operations) GetSession(ctx context.Context, accessToken string) (*backend.Session, error) {
	session, err := o.backend.GetSession(ctx, accessToken)
	if err != nil {
		return nil, o.fail("get session", err)
	}
	return session, nil
}

func (o *Operations) RefreshSession(ctx context.Context, refreshToken string) (*backend.Session, error) {
	session, err := o.backend.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, o.fail("refresh session", err)
	}
	return session, nil
}

func (o *Operations) ConfirmEmail(ctx context.Context, token string) (*backend.AuthResponse, error) {
	resp, err := o.backend.ConfirmEmail(ctx, token)
	if err != nil {
		return nil, o.fail("confirm email", err)
	}
	return resp, nil
}

func (o *Operations) VerifyRecovery(ctx context.Context, token string) (*backend.AuthResponse, error) {
	resp, err := o.backend.VerifyRecovery(ctx, token)
	if err != nil {
		return nil, o.fail("verify recovery", err)
	}
	return resp, nil
}

func (o *Operations) OnAuthStateChange(cb func(backend.AuthChangeEvent)) *backend.Subscription {
	return o.backend.OnAuthStateChange(cb)
}

func (o *Operations) redirect(path string) string {
	if o.siteURL == "" {
		return ""
	}
	return o.siteURL + path
}

func (o *Operations) fail(op string, err error) error {
	o.log.Error("Auth operation failed", "operation", op, "code", backend.CodeOf(err), "error", err)
	return fmt.Errorf("%s: %w", op, err)
}

func emailLocalPart(email string) string {
	email = strings.TrimSpace(email)
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
