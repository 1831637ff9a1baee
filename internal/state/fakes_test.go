package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/catalog"
	"github.com/questeded/quested/internal/database"
	"github.com/questeded/quested/internal/entities"
)

var errBackendDown = errors.New("backend down")

// fakeData is an in-memory DataStore that records every mutating call.
type fakeData struct {
	mu sync.Mutex

	profiles   map[string]*entities.UserProfile
	progress   []entities.UserQuestProgress
	userBadges []entities.UserBadge
	userItems  []entities.UserAvatarItem
	sets       []entities.FlashcardSet

	failReads  bool
	failWrites bool
	writes     []string
	nextSetID  int
}

func newFakeData() *fakeData {
	return &fakeData{profiles: map[string]*entities.UserProfile{}}
}

func (f *fakeData) record(format string, args ...interface{}) error {
	f.writes = append(f.writes, fmt.Sprintf(format, args...))
	if f.failWrites {
		return errBackendDown
	}
	return nil
}

func (f *fakeData) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func (f *fakeData) GetUserProfile(_ context.Context, userID string) (*entities.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errBackendDown
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeData) CreateUserProfile(_ context.Context, userID, displayName string) (*entities.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateUserProfile %s %s", userID, displayName); err != nil {
		return nil, err
	}
	p := &entities.UserProfile{ID: userID, DisplayName: displayName, Level: 1}
	f.profiles[userID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeData) UpdateUserProfile(_ context.Context, userID string, update database.ProfileUpdate) (*entities.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	desc := "UpdateUserProfile " + userID
	if update.TotalXP != nil {
		desc += fmt.Sprintf(" xp=%d", *update.TotalXP)
	}
	if update.Level != nil {
		desc += fmt.Sprintf(" level=%d", *update.Level)
	}
	if err := f.record("%s", desc); err != nil {
		return nil, err
	}
	p, ok := f.profiles[userID]
	if !ok {
		p = &entities.UserProfile{ID: userID, Level: 1}
		f.profiles[userID] = p
	}
	if update.TotalXP != nil {
		p.TotalXP = *update.TotalXP
	}
	if update.Level != nil {
		p.Level = *update.Level
	}
	cp := *p
	return &cp, nil
}

func (f *fakeData) GetQuests(context.Context) ([]entities.Quest, error) {
	if f.failReads {
		return nil, errBackendDown
	}
	return catalog.Quests(), nil
}

func (f *fakeData) GetUserQuestProgress(_ context.Context, userID string) ([]entities.UserQuestProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errBackendDown
	}
	var out []entities.UserQuestProgress
	for _, p := range f.progress {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeData) UpdateQuestProgress(_ context.Context, userID, questID string, progress int) (*entities.UserQuestProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateQuestProgress %s %s %d", userID, questID, progress); err != nil {
		return nil, err
	}
	row := entities.UserQuestProgress{UserID: userID, QuestID: questID, Progress: progress, Completed: progress >= 100}
	for i := range f.progress {
		if f.progress[i].UserID == userID && f.progress[i].QuestID == questID {
			row.Completed = row.Completed || f.progress[i].Completed
			f.progress[i] = row
			return &row, nil
		}
	}
	f.progress = append(f.progress, row)
	return &row, nil
}

func (f *fakeData) GetBadges(context.Context) ([]entities.Badge, error) {
	if f.failReads {
		return nil, errBackendDown
	}
	return catalog.Badges(), nil
}

func (f *fakeData) GetUserBadges(_ context.Context, userID string) ([]entities.UserBadge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errBackendDown
	}
	var out []entities.UserBadge
	for _, b := range f.userBadges {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeData) EarnBadge(_ context.Context, userID, badgeID string) (*entities.UserBadge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EarnBadge %s %s", userID, badgeID); err != nil {
		return nil, err
	}
	for _, b := range f.userBadges {
		if b.UserID == userID && b.BadgeID == badgeID {
			return nil, nil
		}
	}
	row := entities.UserBadge{UserID: userID, BadgeID: badgeID, EarnedAt: time.Now()}
	f.userBadges = append(f.userBadges, row)
	return &row, nil
}

func (f *fakeData) GetAvatarItems(context.Context) ([]entities.AvatarItem, error) {
	if f.failReads {
		return nil, errBackendDown
	}
	return catalog.AvatarItems(), nil
}

func (f *fakeData) GetUserAvatarItems(_ context.Context, userID string) ([]entities.UserAvatarItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errBackendDown
	}
	var out []entities.UserAvatarItem
	for _, it := range f.userItems {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeData) UpdateAvatarItem(_ context.Context, userID, itemID string, update database.AvatarItemUpdate) (*entities.UserAvatarItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateAvatarItem %s %s", userID, itemID); err != nil {
		return nil, err
	}
	row := f.userItemLocked(userID, itemID)
	if update.Unlocked != nil {
		row.Unlocked = *update.Unlocked
	}
	if update.Equipped != nil {
		row.Equipped = *update.Equipped
	}
	cp := *row
	return &cp, nil
}

func (f *fakeData) EquipAvatarItem(_ context.Context, userID, itemID string, category entities.AvatarCategory) (*entities.UserAvatarItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EquipAvatarItem %s %s %s", userID, itemID, category); err != nil {
		return nil, err
	}
	for i := range f.userItems {
		if f.userItems[i].UserID == userID && categoryOf(f.userItems[i].ItemID) == category {
			f.userItems[i].Equipped = false
		}
	}
	row := f.userItemLocked(userID, itemID)
	row.Equipped = true
	cp := *row
	return &cp, nil
}

func (f *fakeData) userItemLocked(userID, itemID string) *entities.UserAvatarItem {
	for i := range f.userItems {
		if f.userItems[i].UserID == userID && f.userItems[i].ItemID == itemID {
			return &f.userItems[i]
		}
	}
	f.userItems = append(f.userItems, entities.UserAvatarItem{UserID: userID, ItemID: itemID})
	return &f.userItems[len(f.userItems)-1]
}

func categoryOf(itemID string) entities.AvatarCategory {
	for _, it := range catalog.AvatarItems() {
		if it.ID == itemID {
			return it.Category
		}
	}
	return ""
}

func (f *fakeData) GetFlashcardSets(_ context.Context, userID string) ([]entities.FlashcardSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errBackendDown
	}
	var out []entities.FlashcardSet
	for i := len(f.sets) - 1; i >= 0; i-- {
		if f.sets[i].UserID == userID {
			out = append(out, f.sets[i])
		}
	}
	return out, nil
}

func (f *fakeData) CreateFlashcardSet(_ context.Context, userID string, input database.FlashcardSetInput) (*entities.FlashcardSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateFlashcardSet %s %s", userID, input.Category); err != nil {
		return nil, err
	}
	f.nextSetID++
	set := entities.FlashcardSet{
		ID:          fmt.Sprintf("set-%d", f.nextSetID),
		UserID:      userID,
		Name:        input.Name,
		Category:    input.Category,
		ArtStyle:    input.ArtStyle,
		CustomWords: input.CustomWords,
		CreatedAt:   time.Now().UTC(),
	}
	f.sets = append(f.sets, set)
	return &set, nil
}

func (f *fakeData) CreateFlashcards(_ context.Context, setID string, cards []database.FlashcardInput) ([]entities.Flashcard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateFlashcards %s %d", setID, len(cards)); err != nil {
		return nil, err
	}
	rows := make([]entities.Flashcard, 0, len(cards))
	for i, c := range cards {
		rows = append(rows, entities.Flashcard{
			ID:         fmt.Sprintf("%s-card-%d", setID, i),
			SetID:      setID,
			Front:      c.Front,
			Back:       c.Back,
			ImageURL:   c.Image,
			OrderIndex: i,
		})
	}
	for i := range f.sets {
		if f.sets[i].ID == setID {
			f.sets[i].Flashcards = append(f.sets[i].Flashcards, rows...)
		}
	}
	return rows, nil
}

func (f *fakeData) DeleteFlashcardSet(_ context.Context, setID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteFlashcardSet %s", setID); err != nil {
		return err
	}
	for i := range f.sets {
		if f.sets[i].ID == setID {
			f.sets = append(f.sets[:i], f.sets[i+1:]...)
			break
		}
	}
	return nil
}

// fakeAuth is an AuthService with one known account.
type fakeAuth struct {
	mu sync.Mutex

	user          backend.User
	password      string
	needsConfirm  bool
	signOutErr    error
	signedOut     []string
	refreshed     int
	subscriptions []func(backend.AuthChangeEvent)
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		user: backend.User{
			ID:           "user-1",
			Email:        "ada@example.com",
			UserMetadata: map[string]interface{}{"full_name": "Ada"},
		},
		password: "secret1",
	}
}

func (f *fakeAuth) session(id string) *backend.Session {
	confirmed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	user := f.user
	user.EmailConfirmedAt = &confirmed
	return &backend.Session{
		ID:           id,
		AccessToken:  "access-" + id,
		RefreshToken: "refresh-" + id,
		TokenType:    "bearer",
		User:         user,
	}
}

func (f *fakeAuth) SignUp(_ context.Context, email, _, _ string) (*backend.AuthResponse, error) {
	if f.needsConfirm {
		user := backend.User{ID: "user-2", Email: email}
		return &backend.AuthResponse{User: &user}, nil
	}
	s := f.session("s1")
	return &backend.AuthResponse{User: &s.User, Session: s}, nil
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (*backend.AuthResponse, error) {
	if email != f.user.Email || password != f.password {
		return nil, &backend.Error{Code: backend.CodeInvalidCredentials, Message: "Invalid login credentials"}
	}
	s := f.session("s1")
	return &backend.AuthResponse{User: &s.User, Session: s}, nil
}

func (f *fakeAuth) SignOut(_ context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedOut = append(f.signedOut, accessToken)
	return f.signOutErr
}

func (f *fakeAuth) ResetPassword(context.Context, string) error { return nil }

func (f *fakeAuth) UpdatePassword(_ context.Context, accessToken, _ string) error {
	if accessToken == "" {
		return &backend.Error{Code: backend.CodeInvalidToken, Message: "invalid token"}
	}
	return nil
}

func (f *fakeAuth) GetSession(_ context.Context, accessToken string) (*backend.Session, error) {
	switch accessToken {
	case "":
		return nil, nil
	case "access-s1":
		return f.session("s1"), nil
	}
	return nil, &backend.Error{Code: backend.CodeInvalidToken, Message: "invalid token"}
}

func (f *fakeAuth) RefreshSession(_ context.Context, refreshToken string) (*backend.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if refreshToken != "refresh-s1" {
		return nil, &backend.Error{Code: backend.CodeInvalidToken, Message: "invalid refresh token"}
	}
	f.refreshed++
	return f.session("s2"), nil
}

func (f *fakeAuth) ConfirmEmail(_ context.Context, token string) (*backend.AuthResponse, error) {
	if token != "confirm" {
		return nil, &backend.Error{Code: backend.CodeInvalidToken, Message: "invalid token"}
	}
	s := f.session("s1")
	return &backend.AuthResponse{User: &s.User, Session: s}, nil
}

func (f *fakeAuth) VerifyRecovery(_ context.Context, token string) (*backend.AuthResponse, error) {
	if token != "recover" {
		return nil, &backend.Error{Code: backend.CodeInvalidToken, Message: "invalid token"}
	}
	s := f.session("s1")
	return &backend.AuthResponse{User: &s.User, Session: s}, nil
}

// OnAuthStateChange records the callback; tests deliver events with emit.
func (f *fakeAuth) OnAuthStateChange(cb func(backend.AuthChangeEvent)) *backend.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions = append(f.subscriptions, cb)
	return nil
}

func (f *fakeAuth) emit(ev backend.AuthChangeEvent) {
	f.mu.Lock()
	subs := make([]func(backend.AuthChangeEvent), len(f.subscriptions))
	copy(subs, f.subscriptions)
	f.mu.Unlock()
	for _, cb := range subs {
		cb(ev)
	}
}

// staticActor is an ActorSource with a fixed actor.
type staticActor Actor

func (s staticActor) Actor() Actor { return Actor(s) }

var (
	signedIn = staticActor{UserID: "user-1"}
	guest    = staticActor{UserID: GuestUserID, Guest: true}
	nobody   = staticActor{}
)
