// Package catalog holds the built-in reference data: the quest, badge and
// avatar catalogs seeded into a fresh backend, and the flashcard category,
// art style, word list and emoji tables.
package catalog

import (
	"github.com/questeded/quested/internal/entities"
)

// Quests returns the default quest catalog in display order.
func Quests() []entities.Quest {
	return []entities.Quest{
		{
			ID:          "1",
			Title:       "Math Adventure",
			Description: "Learn addition and subtraction through fun challenges!",
			Category:    "Mathematics",
			Difficulty:  entities.QuestDifficultyEasy,
			XPReward:    50,
			Icon:        "🔢",
		},
		{
			ID:          "2",
			Title:       "Grammar Galaxy",
			Description: "Explore the universe of words and sentences!",
			Category:    "Language",
			Difficulty:  entities.QuestDifficultyMedium,
			XPReward:    75,
			Icon:        "📚",
		},
		{
			ID:          "3",
			Title:       "Science Safari",
			Description: "Discover amazing facts about animals and nature!",
			Category:    "Science",
			Difficulty:  entities.QuestDifficultyMedium,
			XPReward:    75,
			Icon:        "🔬",
		},
		{
			ID:          "4",
			Title:       "History Heroes",
			Description: "Meet famous people from the past!",
			Category:    "History",
			Difficulty:  entities.QuestDifficultyHard,
			XPReward:    100,
			Icon:        "🏛️",
		},
	}
}

// Badges returns the default badge catalog in display order.
func Badges() []entities.Badge {
	return []entities.Badge{
		{ID: "1", Name: "First Steps", Description: "Complete your first quest", Icon: "👶"},
		{ID: "2", Name: "Math Wizard", Description: "Complete 5 math quests", Icon: "🧙‍♂️"},
		{ID: "3", Name: "Word Master", Description: "Learn 100 new words", Icon: "📖"},
		{ID: "4", Name: "Explorer", Description: "Try quests from 3 different categories", Icon: "🗺️"},
	}
}

// AvatarItems returns the default avatar catalog, grouped by category.
func AvatarItems() []entities.AvatarItem {
	return []entities.AvatarItem{
		{ID: "hair-1", Name: "Brown Hair", Category: entities.AvatarCategoryHair, Image: "👦", XPRequired: 0},
		{ID: "hair-2", Name: "Blonde Hair", Category: entities.AvatarCategoryHair, Image: "👱", XPRequired: 50},
		{ID: "hair-3", Name: "Curly Hair", Category: entities.AvatarCategoryHair, Image: "👨‍🦱", XPRequired: 100},
		{ID: "outfit-1", Name: "Casual Wear", Category: entities.AvatarCategoryOutfit, Image: "👕", XPRequired: 0},
		{ID: "outfit-2", Name: "Superhero Costume", Category: entities.AvatarCategoryOutfit, Image: "🦸", XPRequired: 150},
		{ID: "outfit-3", Name: "Wizard Robes", Category: entities.AvatarCategoryOutfit, Image: "🧙", XPRequired: 200},
		{ID: "accessory-1", Name: "Cool Sunglasses", Category: entities.AvatarCategoryAccessory, Image: "🕶️", XPRequired: 75},
		{ID: "accessory-2", Name: "Magic Hat", Category: entities.AvatarCategoryAccessory, Image: "🎩", XPRequired: 125},
		{ID: "bg-1", Name: "Forest", Category: entities.AvatarCategoryBackground, Image: "🌲", XPRequired: 0},
		{ID: "bg-2", Name: "Space", Category: entities.AvatarCategoryBackground, Image: "🌌", XPRequired: 100},
		{ID: "bg-3", Name: "Castle", Category: entities.AvatarCategoryBackground, Image: "🏰", XPRequired: 175},
	}
}
