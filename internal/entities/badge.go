package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Badge struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"size:32" json:"icon"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Badge) TableName() string { return "badges" }

func (b *Badge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// UserBadge records that a user earned a badge. The composite primary key
// makes a second earn a unique-constraint violation.
type UserBadge struct {
	UserID   string    `gorm:"primaryKey;size:64" json:"user_id"`
	BadgeID  string    `gorm:"primaryKey;size:64" json:"badge_id"`
	EarnedAt time.Time `gorm:"autoCreateTime" json:"earned_at"`
	Badge    *Badge    `gorm:"foreignKey:BadgeID" json:"badges,omitempty"`
}

func (UserBadge) TableName() string { return "user_badges" }
