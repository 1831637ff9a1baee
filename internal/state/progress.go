package state

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/questeded/quested/internal/database"
	"github.com/questeded/quested/internal/entities"
	"github.com/questeded/quested/internal/logger"
)

// Quest is a catalog quest merged with the actor's progress.
type Quest struct {
	ID          string                   `json:"id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Category    string                   `json:"category"`
	Difficulty  entities.QuestDifficulty `json:"difficulty"`
	XPReward    int                      `json:"xp_reward"`
	Progress    int                      `json:"progress"`
	Completed   bool                     `json:"completed"`
	Icon        string                   `json:"icon"`
}

// Badge is a catalog badge merged with the actor's earned record.
type Badge struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Earned      bool       `json:"earned"`
	EarnedAt    *time.Time `json:"earned_at,omitempty"`
}

// ProgressSnapshot is a consistent copy of the progress store.
type ProgressSnapshot struct {
	TotalXP int `json:"total_xp"`
	LevelInfo
	Quests []Quest `json:"quests"`
	Badges []Badge `json:"badges"`
}

// Progress tracks XP, level, quests and badges.
type Progress struct {
	data   DataStore
	actors ActorSource
	log    *logger.Logger
	now    func() time.Time

	mu             sync.Mutex
	totalXP        int
	level          int
	currentLevelXP int
	nextLevelXP    int
	quests         []Quest
	badges         []Badge
	loading        bool
}

func NewProgress(data DataStore, actors ActorSource, log *logger.Logger) *Progress {
	if log == nil {
		log = logger.Nop()
	}
	return &Progress{
		data:        data,
		actors:      actors,
		log:         log.With("store", "progress"),
		now:         time.Now,
		level:       1,
		nextLevelXP: XPPerLevel,
	}
}

// Load fills the store for the current actor. Guests get the canned guest
// dataset; a failed backend load falls back to the same dataset rather than
// keeping partial results.
func (p *Progress) Load(ctx context.Context) Source {
	actor := p.actors.Actor()
	if !actor.Persistent() {
		p.mu.Lock()
		p.loadGuestLocked()
		p.mu.Unlock()
		return SourceGuest
	}

	p.mu.Lock()
	p.loading = true
	p.mu.Unlock()

	var (
		profile    *entities.UserProfile
		quests     []entities.Quest
		progress   []entities.UserQuestProgress
		badges     []entities.Badge
		userBadges []entities.UserBadge
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profile, err = p.data.GetUserProfile(gctx, actor.UserID)
		return err
	})
	g.Go(func() (err error) {
		quests, err = p.data.GetQuests(gctx)
		return err
	})
	g.Go(func() (err error) {
		progress, err = p.data.GetUserQuestProgress(gctx, actor.UserID)
		return err
	})
	g.Go(func() (err error) {
		badges, err = p.data.GetBadges(gctx)
		return err
	})
	g.Go(func() (err error) {
		userBadges, err = p.data.GetUserBadges(gctx, actor.UserID)
		return err
	})
	err := g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false

	if err != nil {
		p.log.Error("Failed to load user data", "user_id", actor.UserID, "error", err)
		p.loadGuestLocked()
		return SourceFallback
	}

	p.totalXP = 0
	if profile != nil {
		p.totalXP = profile.TotalXP
	}
	p.level = LevelFor(p.totalXP)
	p.recalcLocked()
	p.quests = mergeQuests(quests, progress)
	p.badges = mergeBadges(badges, userBadges)
	return SourceBackend
}

func mergeQuests(quests []entities.Quest, rows []entities.UserQuestProgress) []Quest {
	byQuest := make(map[string]entities.UserQuestProgress, len(rows))
	for _, r := range rows {
		byQuest[r.QuestID] = r
	}
	out := make([]Quest, 0, len(quests))
	for _, q := range quests {
		row := byQuest[q.ID]
		out = append(out, Quest{
			ID:          q.ID,
			Title:       q.Title,
			Description: q.Description,
			Category:    q.Category,
			Difficulty:  q.Difficulty,
			XPReward:    q.XPReward,
			Progress:    row.Progress,
			Completed:   row.Completed,
			Icon:        q.Icon,
		})
	}
	return out
}

func mergeBadges(badges []entities.Badge, rows []entities.UserBadge) []Badge {
	earned := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		earned[r.BadgeID] = r.EarnedAt
	}
	out := make([]Badge, 0, len(badges))
	for _, b := range badges {
		badge := Badge{ID: b.ID, Name: b.Name, Description: b.Description, Icon: b.Icon}
		if at, ok := earned[b.ID]; ok {
			badge.Earned = true
			if !at.IsZero() {
				badge.EarnedAt = &at
			}
		}
		out = append(out, badge)
	}
	return out
}

func (p *Progress) loadGuestLocked() {
	p.totalXP = guestTotalXP
	p.level = LevelFor(guestTotalXP)
	p.recalcLocked()
	p.quests = guestQuests()
	p.badges = guestBadges()
}

// Reset returns the store to its empty level-one state.
func (p *Progress) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.totalXP = 0
	p.level = 1
	p.recalcLocked()
	p.quests = nil
	p.badges = nil
}

func (p *Progress) recalcLocked() {
	base := (p.level - 1) * XPPerLevel
	p.currentLevelXP = p.totalXP - base
	p.nextLevelXP = p.level*XPPerLevel - base
}

// AddXP adds amount to the total and reports whether the level went up.
// The new total, and the level when it changed, are persisted for
// signed-in users; persistence failures are logged only.
func (p *Progress) AddXP(ctx context.Context, amount int) (bool, error) {
	if amount < 0 {
		return false, ErrNegativeXP
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addXPLocked(ctx, amount), nil
}

func (p *Progress) addXPLocked(ctx context.Context, amount int) bool {
	p.totalXP += amount
	newLevel := LevelFor(p.totalXP)
	leveledUp := newLevel > p.level
	if leveledUp {
		p.level = newLevel
	}
	p.recalcLocked()

	actor := p.actors.Actor()
	if !actor.Persistent() {
		return leveledUp
	}

	total := p.totalXP
	update := database.ProfileUpdate{TotalXP: &total}
	if leveledUp {
		level := p.level
		update.Level = &level
	}
	if _, err := p.data.UpdateUserProfile(ctx, actor.UserID, update); err != nil {
		p.log.Error("Failed to update user profile", "user_id", actor.UserID, "level_up", leveledUp, "error", err)
	}
	return leveledUp
}

// UpdateQuestProgress sets a quest's progress, clamped to [0, 100]. Reaching
// 100 completes the quest and awards its XP once. It reports whether this
// call completed the quest.
func (p *Progress) UpdateQuestProgress(ctx context.Context, questID string, progress int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := -1
	for i := range p.quests {
		if p.quests[i].ID == questID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, ErrQuestNotFound
	}

	quest := &p.quests[idx]
	quest.Progress = clampPercent(progress)

	completedNow := false
	if quest.Progress == 100 && !quest.Completed {
		quest.Completed = true
		completedNow = true
		p.addXPLocked(ctx, quest.XPReward)
	}

	actor := p.actors.Actor()
	if actor.Persistent() {
		if _, err := p.data.UpdateQuestProgress(ctx, actor.UserID, questID, quest.Progress); err != nil {
			p.log.Error("Failed to update quest progress", "quest_id", questID, "error", err)
		}
	}
	return completedNow, nil
}

// EarnBadge marks a badge earned. Earning it again is a no-op; the result
// tells whether this call earned it.
func (p *Progress) EarnBadge(ctx context.Context, badgeID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var badge *Badge
	for i := range p.badges {
		if p.badges[i].ID == badgeID {
			badge = &p.badges[i]
			break
		}
	}
	if badge == nil {
		return false, ErrBadgeNotFound
	}
	if badge.Earned {
		return false, nil
	}

	now := p.now()
	badge.Earned = true
	badge.EarnedAt = &now

	actor := p.actors.Actor()
	if actor.Persistent() {
		if _, err := p.data.EarnBadge(ctx, actor.UserID, badgeID); err != nil {
			p.log.Error("Failed to earn badge", "badge_id", badgeID, "error", err)
		}
	}
	return true, nil
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (p *Progress) TotalXP() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalXP
}

func (p *Progress) Level() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// LevelProgress is the percentage of the current level completed.
func (p *Progress) LevelProgress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return levelProgress(p.currentLevelXP, p.nextLevelXP)
}

func (p *Progress) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *Progress) Quests() []Quest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Quest(nil), p.quests...)
}

func (p *Progress) Badges() []Badge {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyBadges(p.badges)
}

func (p *Progress) CompletedQuests() []Quest {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Quest
	for _, q := range p.quests {
		if q.Completed {
			out = append(out, q)
		}
	}
	return out
}

func (p *Progress) EarnedBadges() []Badge {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Badge
	for _, b := range copyBadges(p.badges) {
		if b.Earned {
			out = append(out, b)
		}
	}
	return out
}

// CurrentQuest returns the first started but unfinished quest.
func (p *Progress) CurrentQuest() (Quest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, q := range p.quests {
		if !q.Completed && q.Progress > 0 {
			return q, true
		}
	}
	return Quest{}, false
}

func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProgressSnapshot{
		TotalXP: p.totalXP,
		LevelInfo: LevelInfo{
			Level:          p.level,
			CurrentLevelXP: p.currentLevelXP,
			NextLevelXP:    p.nextLevelXP,
			Progress:       levelProgress(p.currentLevelXP, p.nextLevelXP),
		},
		Quests: append([]Quest(nil), p.quests...),
		Badges: copyBadges(p.badges),
	}
}

func copyBadges(in []Badge) []Badge {
	out := make([]Badge, len(in))
	for i, b := range in {
		if b.EarnedAt != nil {
			at := *b.EarnedAt
			b.EarnedAt = &at
		}
		out[i] = b
	}
	return out
}
