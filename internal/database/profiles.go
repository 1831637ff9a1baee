package database

import (
	"context"

	"github.com/questeded/quested/internal/entities"
)

// ProfileUpdate lists the profile fields that may change. Nil fields are
// left untouched.
type ProfileUpdate struct {
	DisplayName *string
	TotalXP     *int
	Level       *int
}

func (u ProfileUpdate) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.DisplayName != nil {
		cols["display_name"] = *u.DisplayName
	}
	if u.TotalXP != nil {
		cols["total_xp"] = *u.TotalXP
	}
	if u.Level != nil {
		cols["level"] = *u.Level
	}
	return cols
}

// GetUserProfile returns the profile, or nil if the user has none yet.
func (s *Store) GetUserProfile(ctx context.Context, userID string) (*entities.UserProfile, error) {
	var profile entities.UserProfile
	if err := s.db(ctx).Where("id = ?", userID).First(&profile).Error; err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, s.fail("get user profile", err)
	}
	return &profile, nil
}

// CreateUserProfile inserts a zero-XP, level 1 profile.
func (s *Store) CreateUserProfile(ctx context.Context, userID, displayName string) (*entities.UserProfile, error) {
	profile := &entities.UserProfile{
		ID:          userID,
		DisplayName: displayName,
		TotalXP:     0,
		Level:       1,
	}
	if err := s.db(ctx).Create(profile).Error; err != nil {
		return nil, s.fail("create user profile", err)
	}
	return profile, nil
}

// UpdateUserProfile applies update and returns the stored row.
func (s *Store) UpdateUserProfile(ctx context.Context, userID string, update ProfileUpdate) (*entities.UserProfile, error) {
	db := s.db(ctx)
	if cols := update.columns(); len(cols) > 0 {
		if err := db.Model(&entities.UserProfile{}).Where("id = ?", userID).Updates(cols).Error; err != nil {
			return nil, s.fail("update user profile", err)
		}
	}

	var profile entities.UserProfile
	if err := db.Where("id = ?", userID).First(&profile).Error; err != nil {
		return nil, s.fail("update user profile", err)
	}
	return &profile, nil
}
