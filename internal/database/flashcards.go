package database

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/questeded/quested/internal/entities"
)

type FlashcardSetInput struct {
	Name        string
	Category    string
	ArtStyle    string
	CustomWords []string
}

type FlashcardInput struct {
	Front string
	Back  string
	Image string
}

// GetFlashcardSets returns the user's sets, newest first, each with its
// cards in order.
func (s *Store) GetFlashcardSets(ctx context.Context, userID string) ([]entities.FlashcardSet, error) {
	sets := []entities.FlashcardSet{}
	err := s.db(ctx).
		Preload("Flashcards", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sets).Error
	if err != nil {
		return nil, s.fail("get flashcard sets", err)
	}
	return sets, nil
}

// CreateFlashcardSet inserts the set row only; cards go through
// CreateFlashcards.
func (s *Store) CreateFlashcardSet(ctx context.Context, userID string, input FlashcardSetInput) (*entities.FlashcardSet, error) {
	set := &entities.FlashcardSet{
		UserID:   userID,
		Name:     input.Name,
		Category: input.Category,
		ArtStyle: input.ArtStyle,
	}
	if len(input.CustomWords) > 0 {
		set.CustomWords = datatypes.NewJSONSlice(input.CustomWords)
	}
	if err := s.db(ctx).Create(set).Error; err != nil {
		return nil, s.fail("create flashcard set", err)
	}
	return set, nil
}

// CreateFlashcards inserts cards into the set, numbering them in slice order.
func (s *Store) CreateFlashcards(ctx context.Context, setID string, cards []FlashcardInput) ([]entities.Flashcard, error) {
	rows := make([]entities.Flashcard, 0, len(cards))
	for i, card := range cards {
		rows = append(rows, entities.Flashcard{
			SetID:      setID,
			Front:      card.Front,
			Back:       card.Back,
			ImageURL:   card.Image,
			OrderIndex: i,
		})
	}
	if len(rows) == 0 {
		return rows, nil
	}
	if err := s.db(ctx).Create(&rows).Error; err != nil {
		return nil, s.fail("create flashcards", err)
	}
	return rows, nil
}

// DeleteFlashcardSet removes the set and its cards.
func (s *Store) DeleteFlashcardSet(ctx context.Context, setID string) error {
	err := s.db(ctx).Select("Flashcards").Delete(&entities.FlashcardSet{ID: setID}).Error
	if err != nil {
		return s.fail("delete flashcard set", err)
	}
	return nil
}
