package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/questeded/quested/internal/config"
	"github.com/questeded/quested/internal/entities"
	"github.com/questeded/quested/internal/logger"
)

const (
	tokenTypeBearer   = "bearer"
	roleAuthenticated = "authenticated"
	tokenIssuer       = "quested"
)

// User is the public view of an auth account.
type User struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	UserMetadata     map[string]interface{} `json:"user_metadata,omitempty"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time             `json:"last_sign_in_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

// Session is an authenticated session. RefreshToken is only populated when
// the session is first issued or refreshed.
type Session struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// AuthResponse is returned by sign-up and sign-in. Session is nil when the
// account still needs e-mail confirmation.
type AuthResponse struct {
	User    *User
	Session *Session
}

type SignUpOptions struct {
	// Data is stored as the user's metadata.
	Data map[string]interface{}
	// EmailRedirectTo is the base of the confirmation link.
	EmailRedirectTo string
}

// UserAttributes lists the fields UpdateUser may change. Nil fields are
// left untouched.
type UserAttributes struct {
	Email    *string
	Password *string
	Data     map[string]interface{}
}

type accessClaims struct {
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// AuthClient is the auth sub-client of the backend.
type AuthClient struct {
	db     *gorm.DB
	cfg    config.Backend
	events *eventBus
	mailer Mailer
	log    *logger.Logger
	now    func() time.Time
}

func newAuthClient(db *gorm.DB, cfg config.Backend, events *eventBus, mailer Mailer, log *logger.Logger) *AuthClient {
	return &AuthClient{
		db:     db,
		cfg:    cfg,
		events: events,
		mailer: mailer,
		log:    log.With("service", "AuthClient"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SignUp creates an account. With auto-confirm enabled the user is signed in
// straight away; otherwise a confirmation link is mailed and the response
// carries no session.
func (a *AuthClient) SignUp(ctx context.Context, email, password string, opts SignUpOptions) (*AuthResponse, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(password, a.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	db := a.db.WithContext(ctx)
	var count int64
	if err := db.Model(&entities.AuthUser{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, Translate(err)
	}
	if count > 0 {
		return nil, newError(CodeUserAlreadyExists, "user already registered")
	}

	now := a.now()
	user := &entities.AuthUser{
		Email:        email,
		PasswordHash: hash,
		UserMetadata: opts.Data,
	}
	if a.cfg.AutoConfirm {
		user.EmailConfirmedAt = &now
		user.LastSignInAt = &now
	}
	if err := db.Create(user).Error; err != nil {
		if IsCode(Translate(err), CodeUniqueViolation) {
			return nil, newError(CodeUserAlreadyExists, "user already registered")
		}
		return nil, Translate(err)
	}

	if !a.cfg.AutoConfirm {
		token, err := a.issueOneTimeToken(db, user.ID, entities.OneTimeTokenConfirmation)
		if err != nil {
			return nil, err
		}
		link := buildLink(opts.EmailRedirectTo, "signup", token)
		if err := a.mailer.SendConfirmation(ctx, user.Email, link); err != nil {
			a.log.Error("Failed to send confirmation", "user_id", user.ID, "error", err)
			return nil, fmt.Errorf("failed to send confirmation: %w", err)
		}
		pub := toUser(user)
		return &AuthResponse{User: &pub}, nil
	}

	session, err := a.issueSession(db, user)
	if err != nil {
		return nil, err
	}
	a.events.publish(ctx, AuthChangeEvent{Kind: EventSignedIn, User: &session.User, SessionID: session.ID, Session: session})
	return &AuthResponse{User: &session.User, Session: session}, nil
}

// SignInWithPassword checks the credentials and issues a session.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	db := a.db.WithContext(ctx)

	var user entities.AuthUser
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeInvalidCredentials, "invalid login credentials")
		}
		return nil, Translate(err)
	}
	if err := checkPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, errInvalidPassword) {
			return nil, newError(CodeInvalidCredentials, "invalid login credentials")
		}
		return nil, Translate(err)
	}
	if user.EmailConfirmedAt == nil {
		return nil, newError(CodeEmailNotConfirmed, "email not confirmed")
	}

	now := a.now()
	user.LastSignInAt = &now
	if err := db.Model(&user).Update("last_sign_in_at", now).Error; err != nil {
		return nil, Translate(err)
	}

	session, err := a.issueSession(db, &user)
	if err != nil {
		return nil, err
	}
	a.events.publish(ctx, AuthChangeEvent{Kind: EventSignedIn, User: &session.User, SessionID: session.ID, Session: session})
	return &AuthResponse{User: &session.User, Session: session}, nil
}

// SignOut revokes the session behind accessToken.
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	claims, user, err := a.authenticate(ctx, accessToken)
	if err != nil {
		return err
	}
	err = a.db.WithContext(ctx).
		Model(&entities.AuthRefreshToken{}).
		Where("id = ?", claims.SessionID).
		Update("revoked", true).Error
	if err != nil {
		return Translate(err)
	}
	pub := toUser(user)
	a.events.publish(ctx, AuthChangeEvent{Kind: EventSignedOut, User: &pub, SessionID: claims.SessionID})
	return nil
}

// ResetPasswordForEmail mails a recovery link. Unknown addresses succeed
// silently so accounts cannot be probed.
func (a *AuthClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	db := a.db.WithContext(ctx)

	var user entities.AuthUser
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			a.log.Debug("Recovery requested for unknown address")
			return nil
		}
		return Translate(err)
	}

	token, err := a.issueOneTimeToken(db, user.ID, entities.OneTimeTokenRecovery)
	if err != nil {
		return err
	}
	if err := a.mailer.SendRecovery(ctx, user.Email, buildLink(redirectTo, "recovery", token)); err != nil {
		a.log.Error("Failed to send recovery", "user_id", user.ID, "error", err)
		return fmt.Errorf("failed to send recovery: %w", err)
	}
	return nil
}

// VerifyRecovery exchanges a recovery token for a session, after which the
// user can set a new password with UpdateUser.
func (a *AuthClient) VerifyRecovery(ctx context.Context, token string) (*AuthResponse, error) {
	session, err := a.redeem(ctx, token, entities.OneTimeTokenRecovery, nil)
	if err != nil {
		return nil, err
	}
	a.events.publish(ctx, AuthChangeEvent{Kind: EventPasswordRecovery, User: &session.User, SessionID: session.ID, Session: session})
	return &AuthResponse{User: &session.User, Session: session}, nil
}

// ConfirmEmail marks the account confirmed and signs the user in.
func (a *AuthClient) ConfirmEmail(ctx context.Context, token string) (*AuthResponse, error) {
	session, err := a.redeem(ctx, token, entities.OneTimeTokenConfirmation, func(tx *gorm.DB, user *entities.AuthUser) error {
		now := a.now()
		user.EmailConfirmedAt = &now
		user.LastSignInAt = &now
		return tx.Model(user).Updates(map[string]interface{}{
			"email_confirmed_at": now,
			"last_sign_in_at":    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	a.events.publish(ctx, AuthChangeEvent{Kind: EventSignedIn, User: &session.User, SessionID: session.ID, Session: session})
	return &AuthResponse{User: &session.User, Session: session}, nil
}

func (a *AuthClient) redeem(ctx context.Context, token string, kind entities.OneTimeTokenKind, apply func(tx *gorm.DB, user *entities.AuthUser) error) (*Session, error) {
	if token == "" {
		return nil, newError(CodeInvalidToken, "token is required")
	}

	var session *Session
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ott entities.AuthOneTimeToken
		err := tx.Where("token_hash = ? AND kind = ?", hashToken(token), kind).First(&ott).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(CodeInvalidToken, "token is invalid or has expired")
			}
			return err
		}
		if !ott.ExpiresAt.After(a.now()) {
			return newError(CodeInvalidToken, "token is invalid or has expired")
		}
		if err := tx.Delete(&ott).Error; err != nil {
			return err
		}

		var user entities.AuthUser
		if err := tx.First(&user, "id = ?", ott.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(CodeUserNotFound, "user not found")
			}
			return err
		}
		if apply != nil {
			if err := apply(tx, &user); err != nil {
				return err
			}
		}

		session, err = a.issueSession(tx, &user)
		return err
	})
	if err != nil {
		return nil, Translate(err)
	}
	return session, nil
}

// UpdateUser changes the e-mail, password or metadata of the user owning
// accessToken.
func (a *AuthClient) UpdateUser(ctx context.Context, accessToken string, attrs UserAttributes) (*User, error) {
	claims, user, err := a.authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if attrs.Email != nil {
		email, err := normalizeEmail(*attrs.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
		updates["email"] = email
	}
	if attrs.Password != nil {
		hash, err := hashPassword(*attrs.Password, a.cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		updates["password_hash"] = hash
	}
	if attrs.Data != nil {
		merged := datatypes.JSONMap{}
		for k, v := range user.UserMetadata {
			merged[k] = v
		}
		for k, v := range attrs.Data {
			merged[k] = v
		}
		user.UserMetadata = merged
		updates["user_metadata"] = merged
	}
	if len(updates) == 0 {
		pub := toUser(user)
		return &pub, nil
	}

	if err := a.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if IsCode(Translate(err), CodeUniqueViolation) {
			return nil, newError(CodeUserAlreadyExists, "email address already registered")
		}
		return nil, Translate(err)
	}

	pub := toUser(user)
	a.events.publish(ctx, AuthChangeEvent{Kind: EventUserUpdated, User: &pub, SessionID: claims.SessionID})
	return &pub, nil
}

// GetSession resolves an access token to its session. An empty token means
// no session and is not an error.
func (a *AuthClient) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, nil
	}
	claims, user, err := a.authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:          claims.SessionID,
		AccessToken: accessToken,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        toUser(user),
	}, nil
}

// RefreshSession rotates a refresh token: the old one is revoked and a new
// session is issued.
func (a *AuthClient) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, newError(CodeInvalidToken, "refresh token is required")
	}

	var session *Session
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row entities.AuthRefreshToken
		err := tx.Where("token_hash = ?", hashToken(refreshToken)).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(CodeInvalidToken, "invalid refresh token")
			}
			return err
		}
		if row.Revoked || !row.ExpiresAt.After(a.now()) {
			return newError(CodeInvalidToken, "refresh token is revoked or expired")
		}
		if err := tx.Model(&row).Update("revoked", true).Error; err != nil {
			return err
		}

		var user entities.AuthUser
		if err := tx.First(&user, "id = ?", row.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(CodeUserNotFound, "user not found")
			}
			return err
		}
		session, err = a.issueSession(tx, &user)
		return err
	})
	if err != nil {
		return nil, Translate(err)
	}

	a.events.publish(ctx, AuthChangeEvent{Kind: EventTokenRefreshed, User: &session.User, SessionID: session.ID, Session: session})
	return session, nil
}

// OnAuthStateChange registers cb for auth events. Callbacks run on a
// dedicated goroutine, in publish order.
func (a *AuthClient) OnAuthStateChange(cb func(AuthChangeEvent)) *Subscription {
	return a.events.subscribe(cb)
}

// PurgeExpired deletes expired or revoked refresh tokens and expired
// one-time tokens. Returns the number of rows removed.
func (a *AuthClient) PurgeExpired(ctx context.Context) (int64, error) {
	now := a.now()
	db := a.db.WithContext(ctx)

	res := db.Where("expires_at < ? OR revoked = ?", now, true).Delete(&entities.AuthRefreshToken{})
	if res.Error != nil {
		return 0, Translate(res.Error)
	}
	purged := res.RowsAffected

	res = db.Where("expires_at < ?", now).Delete(&entities.AuthOneTimeToken{})
	if res.Error != nil {
		return purged, Translate(res.Error)
	}
	return purged + res.RowsAffected, nil
}

// authenticate validates the access token and checks that its session has
// not been revoked.
func (a *AuthClient) authenticate(ctx context.Context, accessToken string) (*accessClaims, *entities.AuthUser, error) {
	if accessToken == "" {
		return nil, nil, newError(CodeSessionMissing, "auth session missing")
	}
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(a.cfg.JWTSigningKey()), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, nil, &Error{Code: CodeInvalidToken, Message: "invalid or expired access token", cause: err}
	}

	db := a.db.WithContext(ctx)
	var row entities.AuthRefreshToken
	if err := db.First(&row, "id = ?", claims.SessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, newError(CodeSessionMissing, "session not found")
		}
		return nil, nil, Translate(err)
	}
	if row.Revoked {
		return nil, nil, newError(CodeSessionMissing, "session has been revoked")
	}

	var user entities.AuthUser
	if err := db.First(&user, "id = ?", claims.Subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, newError(CodeUserNotFound, "user not found")
		}
		return nil, nil, Translate(err)
	}
	return claims, &user, nil
}

// issueSession stores a new refresh token and signs an access token bound
// to it through the session_id claim.
func (a *AuthClient) issueSession(db *gorm.DB, user *entities.AuthUser) (*Session, error) {
	plaintext, hash, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	now := a.now()
	row := &entities.AuthRefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(a.cfg.RefreshTokenTTL),
	}
	if err := db.Create(row).Error; err != nil {
		return nil, Translate(err)
	}

	expiresAt := now.Add(a.cfg.AccessTokenTTL)
	claims := accessClaims{
		Email:     user.Email,
		SessionID: row.ID,
		Role:      roleAuthenticated,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.JWTSigningKey()))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &Session{
		ID:           row.ID,
		AccessToken:  signed,
		RefreshToken: plaintext,
		TokenType:    tokenTypeBearer,
		ExpiresAt:    expiresAt,
		User:         toUser(user),
	}, nil
}

func (a *AuthClient) issueOneTimeToken(db *gorm.DB, userID string, kind entities.OneTimeTokenKind) (string, error) {
	plaintext, hash, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate %s token: %w", kind, err)
	}
	row := &entities.AuthOneTimeToken{
		UserID:    userID,
		Kind:      kind,
		TokenHash: hash,
		ExpiresAt: a.now().Add(a.cfg.RecoveryTokenTTL),
	}
	if err := db.Create(row).Error; err != nil {
		return "", Translate(err)
	}
	return plaintext, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", newError(CodeValidationFailed, "unable to validate email address: invalid format")
	}
	return email, nil
}

func toUser(u *entities.AuthUser) User {
	var meta map[string]interface{}
	if len(u.UserMetadata) > 0 {
		meta = make(map[string]interface{}, len(u.UserMetadata))
		for k, v := range u.UserMetadata {
			meta[k] = v
		}
	}
	return User{
		ID:               u.ID,
		Email:            u.Email,
		UserMetadata:     meta,
		EmailConfirmedAt: u.EmailConfirmedAt,
		LastSignInAt:     u.LastSignInAt,
		CreatedAt:        u.CreatedAt,
	}
}
