package state

import (
	"strconv"
	"time"

	"github.com/questeded/quested/internal/catalog"
)

// Guest progress sits part way through level one.
const guestTotalXP = 150

var guestQuestProgress = map[string]int{"1": 75, "2": 25}

var guestBadgesEarned = map[string]time.Time{
	"1": time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	"4": time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
}

func guestQuests() []Quest {
	quests := catalog.Quests()
	out := make([]Quest, 0, len(quests))
	for _, q := range quests {
		out = append(out, Quest{
			ID:          q.ID,
			Title:       q.Title,
			Description: q.Description,
			Category:    q.Category,
			Difficulty:  q.Difficulty,
			XPReward:    q.XPReward,
			Progress:    guestQuestProgress[q.ID],
			Icon:        q.Icon,
		})
	}
	return out
}

func guestBadges() []Badge {
	badges := catalog.Badges()
	out := make([]Badge, 0, len(badges))
	for _, b := range badges {
		badge := Badge{ID: b.ID, Name: b.Name, Description: b.Description, Icon: b.Icon}
		if at, ok := guestBadgesEarned[b.ID]; ok {
			badge.Earned = true
			badge.EarnedAt = &at
		}
		out = append(out, badge)
	}
	return out
}

// guestAvatarItems starts guests with the free item of each category worn.
func guestAvatarItems() []AvatarItem {
	items := catalog.AvatarItems()
	out := make([]AvatarItem, 0, len(items))
	for _, it := range items {
		free := it.XPRequired == 0
		out = append(out, AvatarItem{
			ID:         it.ID,
			Name:       it.Name,
			Category:   it.Category,
			Image:      it.Image,
			XPRequired: it.XPRequired,
			Unlocked:   free,
			Equipped:   free,
		})
	}
	return out
}

type guestSet struct {
	name     string
	category string
	artStyle string
	day      time.Time
	words    []string
}

// Words without an entry in the emoji table.
var guestBacks = map[string]string{
	"Stegosaurus":  "🦴",
	"Pterodactyl":  "🦅",
	"Brontosaurus": "🦕",
}

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}

var guestSets = []guestSet{
	{"My Fruit Friends", "fruits", "cartoon-animals", day(1, 15), []string{"Apple", "Banana", "Orange", "Grape", "Strawberry"}},
	{"Animal Kingdom", "animals", "jungle-adventure", day(1, 16), []string{"Lion", "Elephant", "Tiger", "Monkey", "Giraffe"}},
	{"Sweet Treats", "sweets", "fairy-tale", day(1, 17), []string{"Candy", "Chocolate", "Lollipop", "Cookie", "Ice Cream"}},
	{"Yummy Food", "food", "cartoon-animals", day(1, 18), []string{"Pizza", "Burger", "Pasta", "Sandwich", "Salad"}},
	{"Rainbow Colors", "colors", "fantasy-creatures", day(1, 19), []string{"Red", "Blue", "Yellow", "Green", "Purple"}},
	{"Fun Shapes", "shapes", "robot-helpers", day(1, 20), []string{"Circle", "Square", "Triangle", "Star", "Heart"}},
	{"Number Fun", "numbers", "space-explorers", day(1, 21), []string{"One", "Two", "Three", "Four", "Five"}},
	{"Cool Vehicles", "vehicles", "superhero", day(1, 22), []string{"Car", "Airplane", "Train", "Boat", "Bicycle"}},
	{"Nature Wonders", "nature", "underwater-world", day(1, 23), []string{"Tree", "Flower", "Mountain", "Ocean", "Sun"}},
	{"Space Adventure", "space", "space-explorers", day(1, 24), []string{"Rocket", "Planet", "Star", "Moon", "Astronaut"}},
	{"Sports Fun", "sports", "superhero", day(1, 25), []string{"Soccer", "Basketball", "Tennis", "Swimming", "Running"}},
	{"Musical Notes", "music", "fairy-tale", day(1, 26), []string{"Piano", "Guitar", "Drums", "Violin", "Microphone"}},
	{"Dress Up Time", "clothes", "cartoon-animals", day(1, 27), []string{"Shirt", "Pants", "Shoes", "Hat", "Dress"}},
	{"Weather Watch", "weather", "fantasy-creatures", day(1, 28), []string{"Sunny", "Rainy", "Cloudy", "Snowy", "Windy"}},
	{"Happy Feelings", "emotions", "robot-helpers", day(1, 29), []string{"Happy", "Sad", "Excited", "Surprised", "Calm"}},
	{"Ocean Friends", "animals", "underwater-world", day(1, 30), []string{"Fish", "Whale", "Dolphin", "Octopus", "Shark"}},
	{"Dinosaur Discovery", "animals", "dinosaur-land", day(1, 31), []string{"T-Rex", "Triceratops", "Stegosaurus", "Pterodactyl", "Brontosaurus"}},
	{"Pirate Treasure", "fantasy", "pirate-treasure", day(2, 1), []string{"Treasure", "Ship", "Map", "Compass", "Parrot"}},
	{"Garden Party", "nature", "fairy-tale", day(2, 2), []string{"Rose", "Tulip", "Sunflower", "Butterfly", "Bee"}},
	{"Kitchen Fun", "food", "cartoon-animals", day(2, 3), []string{"Bread", "Milk", "Egg", "Cheese", "Soup"}},
}

// guestFlashcardSets builds the canned sets shown to guests. Set ids run
// from 1 and card ids continue across sets.
func guestFlashcardSets() []FlashcardSet {
	out := make([]FlashcardSet, 0, len(guestSets))
	cardID := 1
	for i, gs := range guestSets {
		cards := make([]Flashcard, 0, len(gs.words))
		for _, w := range gs.words {
			back, ok := guestBacks[w]
			if !ok {
				back = catalog.EmojiFor(w, gs.category)
			}
			cards = append(cards, Flashcard{ID: strconv.Itoa(cardID), Front: w, Back: back})
			cardID++
		}
		out = append(out, FlashcardSet{
			ID:        strconv.Itoa(i + 1),
			Name:      gs.name,
			Category:  gs.category,
			ArtStyle:  gs.artStyle,
			CreatedAt: gs.day,
			Cards:     cards,
		})
	}
	return out
}
