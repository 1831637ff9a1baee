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

// AvatarItem is a catalog item merged with the actor's unlock and equip
// state.
type AvatarItem struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name"`
	Category   entities.AvatarCategory `json:"category"`
	Image      string                  `json:"image"`
	XPRequired int                     `json:"xp_required"`
	Unlocked   bool                    `json:"unlocked"`
	Equipped   bool                    `json:"equipped"`
}

// Avatar holds the wardrobe. At most one item per category is equipped.
type Avatar struct {
	data   DataStore
	actors ActorSource
	log    *logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	items   []AvatarItem
	loading bool
}

func NewAvatar(data DataStore, actors ActorSource, log *logger.Logger) *Avatar {
	if log == nil {
		log = logger.Nop()
	}
	return &Avatar{
		data:   data,
		actors: actors,
		log:    log.With("store", "avatar"),
		now:    time.Now,
	}
}

// Load merges the item catalog with the actor's item rows. Guests and
// failed loads get the guest wardrobe.
func (a *Avatar) Load(ctx context.Context) Source {
	actor := a.actors.Actor()
	if !actor.Persistent() {
		a.mu.Lock()
		a.items = guestAvatarItems()
		a.mu.Unlock()
		return SourceGuest
	}

	a.mu.Lock()
	a.loading = true
	a.mu.Unlock()

	var (
		catalogItems []entities.AvatarItem
		userItems    []entities.UserAvatarItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		catalogItems, err = a.data.GetAvatarItems(gctx)
		return err
	})
	g.Go(func() (err error) {
		userItems, err = a.data.GetUserAvatarItems(gctx, actor.UserID)
		return err
	})
	err := g.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false

	if err != nil {
		a.log.Error("Failed to load avatar data", "user_id", actor.UserID, "error", err)
		a.items = guestAvatarItems()
		return SourceFallback
	}
	a.items = mergeAvatarItems(catalogItems, userItems)
	return SourceBackend
}

func mergeAvatarItems(items []entities.AvatarItem, rows []entities.UserAvatarItem) []AvatarItem {
	byItem := make(map[string]entities.UserAvatarItem, len(rows))
	for _, r := range rows {
		byItem[r.ItemID] = r
	}
	out := make([]AvatarItem, 0, len(items))
	for _, it := range items {
		row := byItem[it.ID]
		out = append(out, AvatarItem{
			ID:         it.ID,
			Name:       it.Name,
			Category:   it.Category,
			Image:      it.Image,
			XPRequired: it.XPRequired,
			Unlocked:   row.Unlocked,
			Equipped:   row.Equipped,
		})
	}
	return out
}

// Reset empties the wardrobe.
func (a *Avatar) Reset() {
	a.mu.Lock()
	a.items = nil
	a.mu.Unlock()
}

// CheckUnlocks unlocks every item whose threshold currentXP meets and
// returns the ids unlocked by this call. When anything new was unlocked,
// an unlock record is written for every eligible item, not only the new
// ones. Write failures are logged only.
func (a *Avatar) CheckUnlocks(ctx context.Context, currentXP int) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var unlocked []string
	for i := range a.items {
		it := &a.items[i]
		if !it.Unlocked && currentXP >= it.XPRequired {
			it.Unlocked = true
			unlocked = append(unlocked, it.ID)
		}
	}

	actor := a.actors.Actor()
	if len(unlocked) == 0 || !actor.Persistent() {
		return unlocked
	}

	yes := true
	for _, it := range a.items {
		if !it.Unlocked || currentXP < it.XPRequired {
			continue
		}
		at := a.now().UTC()
		update := database.AvatarItemUpdate{Unlocked: &yes, UnlockedAt: &at}
		if _, err := a.data.UpdateAvatarItem(ctx, actor.UserID, it.ID, update); err != nil {
			a.log.Error("Failed to update avatar item unlock", "item_id", it.ID, "error", err)
		}
	}
	return unlocked
}

// EquipItem wears an unlocked item and takes off the rest of its category.
// Locked items return ErrItemLocked and change nothing.
func (a *Avatar) EquipItem(ctx context.Context, itemID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := -1
	for i := range a.items {
		if a.items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrItemNotFound
	}
	target := a.items[idx]
	if !target.Unlocked {
		return ErrItemLocked
	}

	for i := range a.items {
		if a.items[i].Category == target.Category {
			a.items[i].Equipped = i == idx
		}
	}

	actor := a.actors.Actor()
	if actor.Persistent() {
		if _, err := a.data.EquipAvatarItem(ctx, actor.UserID, itemID, target.Category); err != nil {
			a.log.Error("Failed to equip avatar item", "item_id", itemID, "error", err)
		}
	}
	return nil
}

// SaveAvatar returns the equipped outfit. Equipping already persists each
// change, so there is nothing further to write.
func (a *Avatar) SaveAvatar(ctx context.Context) []AvatarItem {
	equipped := a.EquippedItems()
	ids := make([]string, 0, len(equipped))
	for _, it := range equipped {
		ids = append(ids, it.ID)
	}
	a.log.Info("Avatar saved", "equipped", ids)
	return equipped
}

func (a *Avatar) filter(keep func(AvatarItem) bool) []AvatarItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []AvatarItem
	for _, it := range a.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func (a *Avatar) Items() []AvatarItem {
	return a.filter(func(AvatarItem) bool { return true })
}

func (a *Avatar) EquippedItems() []AvatarItem {
	return a.filter(func(it AvatarItem) bool { return it.Equipped })
}

func (a *Avatar) UnlockedItems() []AvatarItem {
	return a.filter(func(it AvatarItem) bool { return it.Unlocked })
}

func (a *Avatar) ItemsByCategory(category entities.AvatarCategory) []AvatarItem {
	return a.filter(func(it AvatarItem) bool { return it.Category == category })
}

func (a *Avatar) IsLoading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}
