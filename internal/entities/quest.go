package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestDifficulty string

const (
	QuestDifficultyEasy   QuestDifficulty = "easy"
	QuestDifficultyMedium QuestDifficulty = "medium"
	QuestDifficultyHard   QuestDifficulty = "hard"
)

// Quest is a catalog entry. Rows are seeded and never written by clients.
type Quest struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id"`
	Title       string          `gorm:"size:255" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Category    string          `gorm:"size:100" json:"category"`
	Difficulty  QuestDifficulty `gorm:"size:20" json:"difficulty"`
	XPReward    int             `gorm:"column:xp_reward" json:"xp_reward"`
	Icon        string          `gorm:"size:32" json:"icon"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (Quest) TableName() string { return "quests" }

func (q *Quest) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// UserQuestProgress is one row per (user, quest).
type UserQuestProgress struct {
	UserID      string     `gorm:"primaryKey;size:64" json:"user_id"`
	QuestID     string     `gorm:"primaryKey;size:64" json:"quest_id"`
	Progress    int        `gorm:"default:0" json:"progress"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Quest       *Quest     `gorm:"foreignKey:QuestID" json:"quests,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (UserQuestProgress) TableName() string { return "user_quest_progress" }
