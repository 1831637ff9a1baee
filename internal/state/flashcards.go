package state

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/questeded/quested/internal/catalog"
	"github.com/questeded/quested/internal/database"
	"github.com/questeded/quested/internal/entities"
	"github.com/questeded/quested/internal/logger"
)

type Flashcard struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back"`
	Image string `json:"image,omitempty"`
}

type FlashcardSet struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	ArtStyle    string      `json:"art_style"`
	Cards       []Flashcard `json:"cards"`
	CreatedAt   time.Time   `json:"created_at"`
	CustomWords []string    `json:"custom_words,omitempty"`
}

// Flashcards generates and keeps the actor's flashcard sets.
type Flashcards struct {
	data   DataStore
	actors ActorSource
	log    *logger.Logger
	delay  time.Duration
	now    func() time.Time
	newID  func() string

	mu         sync.Mutex
	sets       []FlashcardSet
	current    *FlashcardSet
	generating bool
	loading    bool
}

// NewFlashcards creates the store. delay is the pause before each
// generation.
func NewFlashcards(data DataStore, actors ActorSource, delay time.Duration, log *logger.Logger) *Flashcards {
	if log == nil {
		log = logger.Nop()
	}
	return &Flashcards{
		data:   data,
		actors: actors,
		log:    log.With("store", "flashcards"),
		delay:  delay,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// LoadFlashcardSets loads the actor's sets, newest first. Guests and failed
// loads get the canned guest sets.
func (f *Flashcards) LoadFlashcardSets(ctx context.Context) Source {
	actor := f.actors.Actor()
	if !actor.Persistent() {
		f.loadGuest()
		return SourceGuest
	}

	f.mu.Lock()
	f.loading = true
	f.mu.Unlock()

	rows, err := f.data.GetFlashcardSets(ctx, actor.UserID)

	f.mu.Lock()
	f.loading = false
	f.mu.Unlock()

	if err != nil {
		f.log.Error("Failed to load flashcard sets", "user_id", actor.UserID, "error", err)
		f.loadGuest()
		return SourceFallback
	}

	sets := make([]FlashcardSet, 0, len(rows))
	for _, row := range rows {
		sets = append(sets, toFlashcardSet(row))
	}
	f.mu.Lock()
	f.sets = sets
	f.current = nil
	f.mu.Unlock()
	return SourceBackend
}

func toFlashcardSet(row entities.FlashcardSet) FlashcardSet {
	cards := make([]Flashcard, 0, len(row.Flashcards))
	for _, c := range row.Flashcards {
		cards = append(cards, Flashcard{ID: c.ID, Front: c.Front, Back: c.Back, Image: c.ImageURL})
	}
	var words []string
	if len(row.CustomWords) > 0 {
		words = append(words, row.CustomWords...)
	}
	return FlashcardSet{
		ID:          row.ID,
		Name:        row.Name,
		Category:    row.Category,
		ArtStyle:    row.ArtStyle,
		Cards:       cards,
		CreatedAt:   row.CreatedAt,
		CustomWords: words,
	}
}

func (f *Flashcards) loadGuest() {
	f.mu.Lock()
	f.sets = guestFlashcardSets()
	f.current = nil
	f.mu.Unlock()
}

// Reset forgets every set.
func (f *Flashcards) Reset() {
	f.mu.Lock()
	f.sets = nil
	f.current = nil
	f.mu.Unlock()
}

// GenerateFlashcards builds a set from customWords, or from the category's
// default words when none are given, and makes it the current set. Signed-in
// users get the set persisted; a failed save is logged and the set is kept
// locally under its generated id.
func (f *Flashcards) GenerateFlashcards(ctx context.Context, category, artStyle string, customWords []string) (*FlashcardSet, error) {
	f.mu.Lock()
	f.generating = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.generating = false
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		timer := time.NewTimer(f.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			f.log.Warn("Flashcard generation cancelled", "category", category)
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	words := cleanWords(customWords)
	custom := words
	if len(words) == 0 {
		words = catalog.DefaultWords(category)
		custom = nil
	}

	set := FlashcardSet{
		ID:          f.newID(),
		Name:        setName(category, artStyle),
		Category:    category,
		ArtStyle:    artStyle,
		CreatedAt:   f.now().UTC(),
		CustomWords: custom,
		Cards:       make([]Flashcard, 0, len(words)),
	}
	for i, w := range words {
		set.Cards = append(set.Cards, Flashcard{
			ID:    fmt.Sprintf("%s-%d", set.ID, i),
			Front: w,
			Back:  catalog.EmojiFor(w, category),
			Image: catalog.ImageURL(i),
		})
	}

	if actor := f.actors.Actor(); actor.Persistent() {
		f.persist(ctx, actor.UserID, &set)
	}

	f.mu.Lock()
	f.sets = append([]FlashcardSet{set}, f.sets...)
	current := set
	f.current = &current
	f.mu.Unlock()

	return &set, nil
}

// persist saves the set and its cards, adopting the stored ids only when
// both writes succeed.
func (f *Flashcards) persist(ctx context.Context, userID string, set *FlashcardSet) {
	saved, err := f.data.CreateFlashcardSet(ctx, userID, database.FlashcardSetInput{
		Name:        set.Name,
		Category:    set.Category,
		ArtStyle:    set.ArtStyle,
		CustomWords: set.CustomWords,
	})
	if err != nil {
		f.log.Error("Failed to save flashcard set", "category", set.Category, "error", err)
		return
	}

	inputs := make([]database.FlashcardInput, 0, len(set.Cards))
	for _, c := range set.Cards {
		inputs = append(inputs, database.FlashcardInput{Front: c.Front, Back: c.Back, Image: c.Image})
	}
	cards, err := f.data.CreateFlashcards(ctx, saved.ID, inputs)
	if err != nil {
		f.log.Error("Failed to save flashcards", "set_id", saved.ID, "error", err)
		return
	}

	set.ID = saved.ID
	set.CreatedAt = saved.CreatedAt
	if len(cards) == len(set.Cards) {
		for i := range cards {
			set.Cards[i].ID = cards[i].ID
		}
	}
}

func cleanWords(words []string) []string {
	var out []string
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// setName is "<category name> - <style name>", using the raw ids for
// unknown entries.
func setName(category, artStyle string) string {
	catName := category
	if c, ok := catalog.CategoryByID(category); ok {
		catName = c.Name
	}
	styleName := artStyle
	if s, ok := catalog.ArtStyleByID(artStyle); ok {
		styleName = s.Name
	}
	return catName + " - " + styleName
}

// DeleteFlashcardSet removes a set from local state at once and deletes it
// remotely on a best-effort basis. Only sets held by this store can be
// deleted.
func (f *Flashcards) DeleteFlashcardSet(ctx context.Context, setID string) error {
	f.mu.Lock()
	idx := -1
	for i := range f.sets {
		if f.sets[i].ID == setID {
			idx = i
			break
		}
	}
	if idx < 0 {
		f.mu.Unlock()
		return ErrSetNotFound
	}
	f.sets = append(f.sets[:idx:idx], f.sets[idx+1:]...)
	if f.current != nil && f.current.ID == setID {
		f.current = nil
	}
	f.mu.Unlock()

	if actor := f.actors.Actor(); actor.Persistent() {
		if err := f.data.DeleteFlashcardSet(ctx, setID); err != nil {
			f.log.Error("Failed to delete flashcard set", "set_id", setID, "error", err)
		}
	}
	return nil
}

// SetCurrentSet selects one of the held sets.
func (f *Flashcards) SetCurrentSet(setID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sets {
		if s.ID == setID {
			current := s
			f.current = &current
			return nil
		}
	}
	return ErrSetNotFound
}

func (f *Flashcards) Sets() []FlashcardSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FlashcardSet(nil), f.sets...)
}

// CurrentSet returns the selected set, or nil.
func (f *Flashcards) CurrentSet() *FlashcardSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	s := *f.current
	return &s
}

func (f *Flashcards) IsGenerating() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generating
}

func (f *Flashcards) IsLoading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *Flashcards) Categories() []catalog.Category { return catalog.Categories() }

func (f *Flashcards) ArtStyles() []catalog.ArtStyle { return catalog.ArtStyles() }

func (f *Flashcards) CategoryByID(id string) (catalog.Category, bool) { return catalog.CategoryByID(id) }

func (f *Flashcards) ArtStyleByID(id string) (catalog.ArtStyle, bool) { return catalog.ArtStyleByID(id) }
