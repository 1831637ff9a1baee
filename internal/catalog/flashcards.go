package catalog

import (
	"fmt"
	"strings"
)

// UnknownEmoji is shown on the back of a card whose word has no mapping.
const UnknownEmoji = "❓"

// imageIndexBase offsets generated image references.
const imageIndexBase = 100000

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

type ArtStyle struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Preview string `json:"preview"`
}

var categories = []Category{
	{ID: "fruits", Name: "Fruits", Emoji: "🍎"},
	{ID: "animals", Name: "Animals", Emoji: "🦁"},
	{ID: "sweets", Name: "Sweets", Emoji: "🍭"},
	{ID: "food", Name: "Food", Emoji: "🍕"},
	{ID: "colors", Name: "Colors", Emoji: "🌈"},
	{ID: "shapes", Name: "Shapes", Emoji: "🔷"},
	{ID: "numbers", Name: "Numbers", Emoji: "🔢"},
	{ID: "vehicles", Name: "Vehicles", Emoji: "🚗"},
	{ID: "nature", Name: "Nature", Emoji: "🌳"},
	{ID: "space", Name: "Space", Emoji: "🚀"},
	{ID: "sports", Name: "Sports", Emoji: "⚽"},
	{ID: "music", Name: "Music", Emoji: "🎵"},
	{ID: "clothes", Name: "Clothes", Emoji: "👕"},
	{ID: "weather", Name: "Weather", Emoji: "☀️"},
	{ID: "emotions", Name: "Emotions", Emoji: "😊"},
}

var artStyles = []ArtStyle{
	{ID: "cartoon-animals", Name: "Cartoon Animal Friends", Preview: "🐱"},
	{ID: "fantasy-creatures", Name: "Fantasy Creatures", Preview: "🦄"},
	{ID: "robot-helpers", Name: "Robot Helpers", Preview: "🤖"},
	{ID: "space-explorers", Name: "Space Explorers", Preview: "👨‍🚀"},
	{ID: "underwater-world", Name: "Underwater World", Preview: "🐠"},
	{ID: "jungle-adventure", Name: "Jungle Adventure", Preview: "🦜"},
	{ID: "fairy-tale", Name: "Fairy Tale Magic", Preview: "🧚"},
	{ID: "superhero", Name: "Superhero Squad", Preview: "🦸"},
	{ID: "pirate-treasure", Name: "Pirate Treasure", Preview: "🏴‍☠️"},
	{ID: "dinosaur-land", Name: "Dinosaur Land", Preview: "🦕"},
}

var defaultWords = map[string][]string{
	"fruits":   {"Apple", "Banana", "Orange", "Grape", "Strawberry", "Pineapple", "Mango", "Kiwi"},
	"animals":  {"Lion", "Elephant", "Tiger", "Monkey", "Giraffe", "Zebra", "Hippo", "Rhino"},
	"sweets":   {"Candy", "Chocolate", "Lollipop", "Cookie", "Ice Cream", "Cake", "Donut", "Gummy"},
	"food":     {"Pizza", "Burger", "Pasta", "Sandwich", "Salad", "Soup", "Rice", "Bread"},
	"colors":   {"Red", "Blue", "Yellow", "Green", "Purple", "Orange", "Pink", "Brown"},
	"shapes":   {"Circle", "Square", "Triangle", "Rectangle", "Star", "Heart", "Diamond", "Oval"},
	"numbers":  {"One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight"},
	"vehicles": {"Car", "Airplane", "Train", "Boat", "Bicycle", "Bus", "Truck", "Motorcycle"},
	"nature":   {"Tree", "Flower", "Mountain", "Ocean", "Sun", "Moon", "River", "Forest"},
	"space":    {"Rocket", "Planet", "Star", "Moon", "Astronaut", "Satellite", "Comet", "Galaxy"},
	"sports":   {"Soccer", "Basketball", "Tennis", "Swimming", "Running", "Baseball", "Golf", "Skiing"},
	"music":    {"Piano", "Guitar", "Drums", "Violin", "Microphone", "Flute", "Trumpet", "Harp"},
	"clothes":  {"Shirt", "Pants", "Shoes", "Hat", "Dress", "Jacket", "Socks", "Gloves"},
	"weather":  {"Sunny", "Rainy", "Cloudy", "Snowy", "Windy", "Stormy", "Foggy", "Hot"},
	"emotions": {"Happy", "Sad", "Excited", "Surprised", "Calm", "Angry", "Scared", "Proud"},
}

var emojiByWord = map[string]string{
	// Fruits
	"Apple": "🍎", "Banana": "🍌", "Grape": "🍇", "Strawberry": "🍓",
	"Pineapple": "🍍", "Mango": "🥭", "Kiwi": "🥝",
	// Animals
	"Lion": "🦁", "Elephant": "🐘", "Tiger": "🐅", "Monkey": "🐒", "Giraffe": "🦒",
	"Zebra": "🦓", "Hippo": "🦛", "Rhino": "🦏", "Fish": "🐠", "Whale": "🐋",
	"Dolphin": "🐬", "Octopus": "🐙", "Shark": "🦈", "T-Rex": "🦖", "Triceratops": "🦕",
	// Sweets
	"Candy": "🍬", "Chocolate": "🍫", "Lollipop": "🍭", "Cookie": "🍪", "Ice Cream": "🍦",
	"Cake": "🎂", "Donut": "🍩", "Gummy": "🍬",
	// Food
	"Pizza": "🍕", "Burger": "🍔", "Pasta": "🍝", "Sandwich": "🥪", "Salad": "🥗",
	"Soup": "🍲", "Rice": "🍚", "Bread": "🍞", "Milk": "🥛", "Egg": "🥚", "Cheese": "🧀",
	// Colors
	"Red": "🔴", "Blue": "🔵", "Yellow": "🟡", "Green": "🟢", "Purple": "🟣",
	"Orange": "🟠", "Pink": "🩷", "Brown": "🤎",
	// Shapes
	"Circle": "⭕", "Square": "⬜", "Triangle": "🔺", "Star": "⭐", "Heart": "❤️",
	"Rectangle": "▭", "Diamond": "💎", "Oval": "⭕",
	// Numbers
	"One": "1️⃣", "Two": "2️⃣", "Three": "3️⃣", "Four": "4️⃣", "Five": "5️⃣",
	"Six": "6️⃣", "Seven": "7️⃣", "Eight": "8️⃣",
	// Vehicles
	"Car": "🚗", "Airplane": "✈️", "Train": "🚂", "Boat": "⛵", "Bicycle": "🚲",
	"Bus": "🚌", "Truck": "🚛", "Motorcycle": "🏍️",
	// Nature
	"Tree": "🌳", "Flower": "🌸", "Mountain": "⛰️", "Ocean": "🌊", "Sun": "☀️",
	"Moon": "🌙", "River": "🏞️", "Forest": "🌲", "Rose": "🌹", "Tulip": "🌷",
	"Sunflower": "🌻", "Butterfly": "🦋", "Bee": "🐝",
	// Space
	"Rocket": "🚀", "Planet": "🪐", "Astronaut": "👨‍🚀",
	"Satellite": "🛰️", "Comet": "☄️", "Galaxy": "🌌",
	// Sports
	"Soccer": "⚽", "Basketball": "🏀", "Tennis": "🎾", "Swimming": "🏊", "Running": "🏃",
	"Baseball": "⚾", "Golf": "⛳", "Skiing": "⛷️",
	// Music
	"Piano": "🎹", "Guitar": "🎸", "Drums": "🥁", "Violin": "🎻", "Microphone": "🎤",
	"Flute": "🪈", "Trumpet": "🎺", "Harp": "🪕",
	// Clothes
	"Shirt": "👕", "Pants": "👖", "Shoes": "👟", "Hat": "👒", "Dress": "👗",
	"Jacket": "🧥", "Socks": "🧦", "Gloves": "🧤",
	// Weather
	"Sunny": "☀️", "Rainy": "🌧️", "Cloudy": "☁️", "Snowy": "❄️", "Windy": "💨",
	"Stormy": "⛈️", "Foggy": "🌫️", "Hot": "🔥",
	// Emotions
	"Happy": "😊", "Sad": "😢", "Excited": "🤩", "Surprised": "😲", "Calm": "😌",
	"Angry": "😠", "Scared": "😨", "Proud": "😤",
	// Fantasy / pirate
	"Treasure": "💰", "Ship": "🚢", "Map": "🗺️", "Compass": "🧭", "Parrot": "🦜",
}

// Words that mean different things in different categories.
var emojiByCategory = map[string]map[string]string{
	"fruits": {"Orange": "🍊"},
}

// Categories returns the flashcard categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ArtStyles returns the art styles in display order.
func ArtStyles() []ArtStyle {
	out := make([]ArtStyle, len(artStyles))
	copy(out, artStyles)
	return out
}

// CategoryByID looks up a category.
func CategoryByID(id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// ArtStyleByID looks up an art style.
func ArtStyleByID(id string) (ArtStyle, bool) {
	for _, s := range artStyles {
		if s.ID == id {
			return s, true
		}
	}
	return ArtStyle{}, false
}

// DefaultWords returns the eight built-in words for a category, or nil for
// an unknown category.
func DefaultWords(category string) []string {
	words, ok := defaultWords[category]
	if !ok {
		return nil
	}
	out := make([]string, len(words))
	copy(out, words)
	return out
}

// EmojiFor maps a word to its emoji, preferring a category-specific entry.
// Unmapped words get UnknownEmoji.
func EmojiFor(word, category string) string {
	word = strings.TrimSpace(word)
	if byWord, ok := emojiByCategory[category]; ok {
		if e, ok := byWord[word]; ok {
			return e
		}
	}
	if e, ok := emojiByWord[word]; ok {
		return e
	}
	return UnknownEmoji
}

// ImageURL returns the stock image reference for the card at index.
func ImageURL(index int) string {
	n := imageIndexBase + index
	return fmt.Sprintf("https://images.pexels.com/photos/%d/pexels-photo-%d.jpeg?auto=compress&cs=tinysrgb&w=300", n, n)
}
