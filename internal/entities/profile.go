package entities

import (
	"time"
)

// UserProfile is keyed by the auth user id.
type UserProfile struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	TotalXP     int       `gorm:"column:total_xp;default:0" json:"total_xp"`
	Level       int       `gorm:"default:1" json:"level"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (UserProfile) TableName() string { return "user_profiles" }
