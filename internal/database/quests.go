package database

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/questeded/quested/internal/entities"
)

// GetQuests returns the quest catalog, oldest first.
func (s *Store) GetQuests(ctx context.Context) ([]entities.Quest, error) {
	quests := []entities.Quest{}
	if err := s.db(ctx).Order("created_at ASC").Find(&quests).Error; err != nil {
		return nil, s.fail("get quests", err)
	}
	return quests, nil
}

// GetUserQuestProgress returns the user's progress rows with their quests.
func (s *Store) GetUserQuestProgress(ctx context.Context, userID string) ([]entities.UserQuestProgress, error) {
	rows := []entities.UserQuestProgress{}
	if err := s.db(ctx).Preload("Quest").Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, s.fail("get user quest progress", err)
	}
	return rows, nil
}

// UpdateQuestProgress upserts the (user, quest) row. Progress is clamped to
// [0, 100]; reaching 100 marks the quest completed. A completed row stays
// completed and keeps its first completion time.
func (s *Store) UpdateQuestProgress(ctx context.Context, userID, questID string, progress int) (*entities.UserQuestProgress, error) {
	progress = clampProgress(progress)
	row := &entities.UserQuestProgress{
		UserID:    userID,
		QuestID:   questID,
		Progress:  progress,
		Completed: progress >= 100,
	}
	if row.Completed {
		now := time.Now().UTC()
		row.CompletedAt = &now
	}

	db := s.db(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "quest_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "progress"}, Value: clause.Expr{SQL: "excluded.progress"}},
			{Column: clause.Column{Name: "completed"}, Value: clause.Expr{SQL: "user_quest_progress.completed OR excluded.completed"}},
			{Column: clause.Column{Name: "completed_at"}, Value: clause.Expr{SQL: "COALESCE(user_quest_progress.completed_at, excluded.completed_at)"}},
			{Column: clause.Column{Name: "updated_at"}, Value: clause.Expr{SQL: "excluded.updated_at"}},
		},
	}).Create(row).Error
	if err != nil {
		return nil, s.fail("update quest progress", err)
	}

	var stored entities.UserQuestProgress
	if err := db.Where("user_id = ? AND quest_id = ?", userID, questID).First(&stored).Error; err != nil {
		return nil, s.fail("update quest progress", err)
	}
	return &stored, nil
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
