package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuthUser is an account known to the backend auth service.
type AuthUser struct {
	ID               string            `gorm:"primaryKey;size:64" json:"id"`
	Email            string            `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash     string            `gorm:"size:255" json:"-"`
	UserMetadata     datatypes.JSONMap `json:"user_metadata"`
	EmailConfirmedAt *time.Time        `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time        `json:"last_sign_in_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (AuthUser) TableName() string { return "auth_users" }

func (u *AuthUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// AuthRefreshToken stores the SHA-256 hash of an issued refresh token.
type AuthRefreshToken struct {
	ID        string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"index;size:64"`
	TokenHash string    `gorm:"uniqueIndex;size:64"`
	ExpiresAt time.Time `gorm:"index"`
	Revoked   bool      `gorm:"default:false"`
	CreatedAt time.Time
}

func (AuthRefreshToken) TableName() string { return "auth_refresh_tokens" }

func (t *AuthRefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type OneTimeTokenKind string

const (
	OneTimeTokenConfirmation OneTimeTokenKind = "confirmation"
	OneTimeTokenRecovery     OneTimeTokenKind = "recovery"
)

// AuthOneTimeToken backs e-mail confirmation and password recovery links.
type AuthOneTimeToken struct {
	ID        string           `gorm:"primaryKey;size:64"`
	UserID    string           `gorm:"index;size:64"`
	Kind      OneTimeTokenKind `gorm:"size:20"`
	TokenHash string           `gorm:"uniqueIndex;size:64"`
	ExpiresAt time.Time        `gorm:"index"`
	CreatedAt time.Time
}

func (AuthOneTimeToken) TableName() string { return "auth_one_time_tokens" }

func (t *AuthOneTimeToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
