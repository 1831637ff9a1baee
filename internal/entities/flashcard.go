package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FlashcardSet struct {
	ID          string                      `gorm:"primaryKey;size:64" json:"id"`
	UserID      string                      `gorm:"index;size:64" json:"user_id"`
	Name        string                      `gorm:"size:255" json:"name"`
	Category    string                      `gorm:"size:100" json:"category"`
	ArtStyle    string                      `gorm:"column:art_style;size:100" json:"art_style"`
	CustomWords datatypes.JSONSlice[string] `gorm:"column:custom_words" json:"custom_words,omitempty"`
	Flashcards  []Flashcard                 `gorm:"foreignKey:SetID" json:"flashcards,omitempty"`
	CreatedAt   time.Time                   `gorm:"index" json:"created_at"`
}

func (FlashcardSet) TableName() string { return "flashcard_sets" }

func (s *FlashcardSet) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type Flashcard struct {
	ID         string `gorm:"primaryKey;size:64" json:"id"`
	SetID      string `gorm:"index;size:64" json:"set_id"`
	Front      string `gorm:"size:255" json:"front"`
	Back       string `gorm:"size:255" json:"back"`
	ImageURL   string `gorm:"column:image_url;size:2048" json:"image_url,omitempty"`
	OrderIndex int    `gorm:"column:order_index" json:"order_index"`
}

func (Flashcard) TableName() string { return "flashcards" }

func (f *Flashcard) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
