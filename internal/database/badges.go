package database

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/entities"
)

// GetBadges returns the badge catalog, oldest first.
func (s *Store) GetBadges(ctx context.Context) ([]entities.Badge, error) {
	badges := []entities.Badge{}
	if err := s.db(ctx).Order("created_at ASC").Find(&badges).Error; err != nil {
		return nil, s.fail("get badges", err)
	}
	return badges, nil
}

// GetUserBadges returns the badges the user has earned.
func (s *Store) GetUserBadges(ctx context.Context, userID string) ([]entities.UserBadge, error) {
	rows := []entities.UserBadge{}
	if err := s.db(ctx).Preload("Badge").Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, s.fail("get user badges", err)
	}
	return rows, nil
}

// EarnBadge records the badge. Earning it again returns nil and no error.
func (s *Store) EarnBadge(ctx context.Context, userID, badgeID string) (*entities.UserBadge, error) {
	row := &entities.UserBadge{UserID: userID, BadgeID: badgeID}
	res := s.db(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil && !backend.IsCode(backend.Translate(res.Error), backend.CodeUniqueViolation) {
		return nil, s.fail("earn badge", res.Error)
	}
	if res.Error != nil || res.RowsAffected == 0 {
		s.log.Debug("Badge already earned", "user_id", userID, "badge_id", badgeID)
		return nil, nil
	}
	return row, nil
}
