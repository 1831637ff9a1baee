package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AvatarCategory string

const (
	AvatarCategoryHair       AvatarCategory = "hair"
	AvatarCategoryOutfit     AvatarCategory = "outfit"
	AvatarCategoryAccessory  AvatarCategory = "accessory"
	AvatarCategoryBackground AvatarCategory = "background"
)

// Valid reports whether c is one of the four known categories.
func (c AvatarCategory) Valid() bool {
	switch c {
	case AvatarCategoryHair, AvatarCategoryOutfit, AvatarCategoryAccessory, AvatarCategoryBackground:
		return true
	}
	return false
}

type AvatarItem struct {
	ID         string         `gorm:"primaryKey;size:64" json:"id"`
	Name       string         `gorm:"size:255" json:"name"`
	Category   AvatarCategory `gorm:"index;size:20" json:"category"`
	Image      string         `gorm:"size:32" json:"image"`
	XPRequired int            `gorm:"column:xp_required;default:0" json:"xp_required"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (AvatarItem) TableName() string { return "avatar_items" }

func (a *AvatarItem) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// UserAvatarItem holds per-user unlock and equip state. At most one
// equipped row per (user, category) is expected, but not enforced here.
type UserAvatarItem struct {
	UserID     string      `gorm:"primaryKey;size:64" json:"user_id"`
	ItemID     string      `gorm:"primaryKey;size:64" json:"item_id"`
	Unlocked   bool        `gorm:"default:false" json:"unlocked"`
	Equipped   bool        `gorm:"default:false" json:"equipped"`
	UnlockedAt *time.Time  `json:"unlocked_at,omitempty"`
	Item       *AvatarItem `gorm:"foreignKey:ItemID" json:"avatar_items,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (UserAvatarItem) TableName() string { return "user_avatar_items" }
