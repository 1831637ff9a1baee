package state

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/questeded/quested/internal/logger"
)

// Deps are the collaborators shared by every Session.
type Deps struct {
	Auth            AuthService
	Data            DataStore
	Log             *logger.Logger
	GenerationDelay time.Duration
}

// Session bundles the stores of one client.
type Session struct {
	ID         string
	Routes     *RouteRecorder
	Auth       *Auth
	Progress   *Progress
	Avatar     *Avatar
	Flashcards *Flashcards

	resume   sync.Once
	mu       sync.Mutex
	lastSeen time.Time
}

func NewSession(id string, deps Deps) *Session {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("state_id", id)

	routes := &RouteRecorder{}
	auth := NewAuth(deps.Auth, deps.Data, routes, log)
	return &Session{
		ID:         id,
		Routes:     routes,
		Auth:       auth,
		Progress:   NewProgress(deps.Data, auth, log),
		Avatar:     NewAvatar(deps.Data, auth, log),
		Flashcards: NewFlashcards(deps.Data, auth, deps.GenerationDelay, log),
		lastSeen:   time.Now(),
	}
}

// LoadReport tells where each store's data came from.
type LoadReport struct {
	Progress   Source `json:"progress"`
	Avatar     Source `json:"avatar"`
	Flashcards Source `json:"flashcards"`
}

// LoadAll loads progress, avatar and flashcard data concurrently.
func (s *Session) LoadAll(ctx context.Context) LoadReport {
	var report LoadReport
	var g errgroup.Group
	g.Go(func() error {
		report.Progress = s.Progress.Load(ctx)
		return nil
	})
	g.Go(func() error {
		report.Avatar = s.Avatar.Load(ctx)
		return nil
	})
	g.Go(func() error {
		report.Flashcards = s.Flashcards.LoadFlashcardSets(ctx)
		return nil
	})
	_ = g.Wait()
	return report
}

// AwardXP adds XP and unlocks any avatar items the new total reaches.
func (s *Session) AwardXP(ctx context.Context, amount int) (bool, []string, error) {
	leveledUp, err := s.Progress.AddXP(ctx, amount)
	if err != nil {
		return false, nil, err
	}
	return leveledUp, s.Avatar.CheckUnlocks(ctx, s.Progress.TotalXP()), nil
}

// UpdateQuestProgress records quest progress and, when the quest completes,
// runs the avatar unlock check against the new XP total.
func (s *Session) UpdateQuestProgress(ctx context.Context, questID string, progress int) (bool, []string, error) {
	completed, err := s.Progress.UpdateQuestProgress(ctx, questID, progress)
	if err != nil || !completed {
		return completed, nil, err
	}
	return true, s.Avatar.CheckUnlocks(ctx, s.Progress.TotalXP()), nil
}

// Resume rehydrates a new session from a persisted browser session: guest
// mode is re-entered, or the stored tokens are restored, and the data stores
// are loaded. Only the first call does anything; it reports true.
func (s *Session) Resume(ctx context.Context, accessToken, refreshToken string, guest bool) (bool, error) {
	first := false
	var err error
	s.resume.Do(func() {
		first = true
		switch {
		case guest:
			s.Auth.SignInAsGuest(ctx)
		case accessToken != "":
			err = s.Auth.Restore(ctx, accessToken, refreshToken)
		default:
			return
		}
		s.Routes.Take()
		if s.Auth.IsAuthenticated() {
			s.LoadAll(ctx)
		}
	})
	return first, err
}

// SignOut signs out and empties the data stores.
func (s *Session) SignOut(ctx context.Context) error {
	err := s.Auth.SignOut(ctx)
	s.Progress.Reset()
	s.Avatar.Reset()
	s.Flashcards.Reset()
	return err
}

func (s *Session) Close() {
	s.Auth.Close()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry owns the live sessions, keyed by state id.
type Registry struct {
	deps Deps
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:     deps,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for id, creating it on first use.
func (r *Registry) GetOrCreate(id string) *Session {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = NewSession(id, r.deps)
		r.sessions[id] = s
	}
	s.touch(now)
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove closes and forgets a session.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Sweep closes sessions idle for longer than maxIdle and returns how many
// were removed.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
