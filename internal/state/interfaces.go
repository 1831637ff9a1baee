package state

import (
	"context"
	"sync"

	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/database"
	"github.com/questeded/quested/internal/entities"
)

// DataStore is the data-access API the stores persist through.
type DataStore interface {
	GetUserProfile(ctx context.Context, userID string) (*entities.UserProfile, error)
	CreateUserProfile(ctx context.Context, userID, displayName string) (*entities.UserProfile, error)
	UpdateUserProfile(ctx context.Context, userID string, update database.ProfileUpdate) (*entities.UserProfile, error)

	GetQuests(ctx context.Context) ([]entities.Quest, error)
	GetUserQuestProgress(ctx context.Context, userID string) ([]entities.UserQuestProgress, error)
	UpdateQuestProgress(ctx context.Context, userID, questID string, progress int) (*entities.UserQuestProgress, error)

	GetBadges(ctx context.Context) ([]entities.Badge, error)
	GetUserBadges(ctx context.Context, userID string) ([]entities.UserBadge, error)
	EarnBadge(ctx context.Context, userID, badgeID string) (*entities.UserBadge, error)

	GetAvatarItems(ctx context.Context) ([]entities.AvatarItem, error)
	GetUserAvatarItems(ctx context.Context, userID string) ([]entities.UserAvatarItem, error)
	UpdateAvatarItem(ctx context.Context, userID, itemID string, update database.AvatarItemUpdate) (*entities.UserAvatarItem, error)
	EquipAvatarItem(ctx context.Context, userID, itemID string, category entities.AvatarCategory) (*entities.UserAvatarItem, error)

	GetFlashcardSets(ctx context.Context, userID string) ([]entities.FlashcardSet, error)
	CreateFlashcardSet(ctx context.Context, userID string, input database.FlashcardSetInput) (*entities.FlashcardSet, error)
	CreateFlashcards(ctx context.Context, setID string, cards []database.FlashcardInput) ([]entities.Flashcard, error)
	DeleteFlashcardSet(ctx context.Context, setID string) error
}

// AuthService is the auth API the Auth store drives.
type AuthService interface {
	SignUp(ctx context.Context, email, password, fullName string) (*backend.AuthResponse, error)
	SignIn(ctx context.Context, email, password string) (*backend.AuthResponse, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
	GetSession(ctx context.Context, accessToken string) (*backend.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*backend.Session, error)
	ConfirmEmail(ctx context.Context, token string) (*backend.AuthResponse, error)
	VerifyRecovery(ctx context.Context, token string) (*backend.AuthResponse, error)
	OnAuthStateChange(cb func(backend.AuthChangeEvent)) *backend.Subscription
}

// Actor identifies who a store acts for.
type Actor struct {
	UserID string
	Guest  bool
}

// Persistent reports whether changes made for this actor are written to the
// backend.
func (a Actor) Persistent() bool {
	return a.UserID != "" && !a.Guest
}

// ActorSource yields the current actor. Auth implements it.
type ActorSource interface {
	Actor() Actor
}

// Routes the Auth store navigates to.
const (
	RouteHome          = "/home"
	RouteLogin         = "/login"
	RouteResetPassword = "/reset-password"
)

// Navigator moves the client to another view after an auth transition.
type Navigator interface {
	Navigate(ctx context.Context, route string)
}

// RouteRecorder is a Navigator that remembers the last requested route so a
// request handler can hand it back to the client.
type RouteRecorder struct {
	mu    sync.Mutex
	route string
}

func (r *RouteRecorder) Navigate(_ context.Context, route string) {
	r.mu.Lock()
	r.route = route
	r.mu.Unlock()
}

// Take returns the pending route and clears it.
func (r *RouteRecorder) Take() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	route := r.route
	r.route = ""
	return route
}

// Source tells where a store's data came from after a load.
type Source string

const (
	SourceBackend  Source = "backend"
	SourceGuest    Source = "guest"
	SourceFallback Source = "fallback"
)
