package database

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/questeded/quested/internal/entities"
)

// AvatarItemUpdate lists the per-user item fields that may change. Nil
// fields are left untouched.
type AvatarItemUpdate struct {
	Unlocked   *bool
	UnlockedAt *time.Time
	Equipped   *bool
}

// GetAvatarItems returns the avatar catalog ordered by category.
func (s *Store) GetAvatarItems(ctx context.Context) ([]entities.AvatarItem, error) {
	items := []entities.AvatarItem{}
	if err := s.db(ctx).Order("category ASC, created_at ASC").Find(&items).Error; err != nil {
		return nil, s.fail("get avatar items", err)
	}
	return items, nil
}

// GetUserAvatarItems returns the user's unlock and equip rows.
func (s *Store) GetUserAvatarItems(ctx context.Context, userID string) ([]entities.UserAvatarItem, error) {
	rows := []entities.UserAvatarItem{}
	if err := s.db(ctx).Preload("Item").Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, s.fail("get user avatar items", err)
	}
	return rows, nil
}

// UpdateAvatarItem writes update to the (user, item) row, creating it when
// missing, and returns the stored row.
func (s *Store) UpdateAvatarItem(ctx context.Context, userID, itemID string, update AvatarItemUpdate) (*entities.UserAvatarItem, error) {
	row := &entities.UserAvatarItem{UserID: userID, ItemID: itemID}
	var set []string
	if update.Unlocked != nil {
		row.Unlocked = *update.Unlocked
		set = append(set, "unlocked")
	}
	if update.UnlockedAt != nil {
		at := *update.UnlockedAt
		row.UnlockedAt = &at
		set = append(set, "unlocked_at")
	}
	if update.Equipped != nil {
		row.Equipped = *update.Equipped
		set = append(set, "equipped")
	}
	set = append(set, "updated_at")

	db := s.db(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns(set),
	}).Create(row).Error
	if err != nil {
		return nil, s.fail("update avatar item", err)
	}
	return s.getUserAvatarItem(ctx, "update avatar item", userID, itemID)
}

// EquipAvatarItem clears equipped on every item of category owned by the
// user, then equips itemID. The two writes are separate requests; if the
// second fails the category is left with nothing equipped until the next
// successful equip.
func (s *Store) EquipAvatarItem(ctx context.Context, userID, itemID string, category entities.AvatarCategory) (*entities.UserAvatarItem, error) {
	db := s.db(ctx)
	sameCategory := db.Model(&entities.AvatarItem{}).Select("id").Where("category = ?", category)
	err := db.Model(&entities.UserAvatarItem{}).
		Where("user_id = ? AND item_id IN (?)", userID, sameCategory).
		Updates(map[string]interface{}{"equipped": false, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return nil, s.fail("equip avatar item", err)
	}

	now := time.Now().UTC()
	row := &entities.UserAvatarItem{
		UserID:     userID,
		ItemID:     itemID,
		Unlocked:   true,
		UnlockedAt: &now,
		Equipped:   true,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"unlocked", "equipped", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, s.fail("equip avatar item", err)
	}
	return s.getUserAvatarItem(ctx, "equip avatar item", userID, itemID)
}

func (s *Store) getUserAvatarItem(ctx context.Context, op, userID, itemID string) (*entities.UserAvatarItem, error) {
	var stored entities.UserAvatarItem
	if err := s.db(ctx).Where("user_id = ? AND item_id = ?", userID, itemID).First(&stored).Error; err != nil {
		return nil, s.fail(op, err)
	}
	return &stored, nil
}
