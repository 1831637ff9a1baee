package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/config"
	"github.com/questeded/quested/internal/entities"
	"github.com/questeded/quested/internal/logger"
)

// setupTestStore creates a store over a fresh, seeded backend.
func setupTestStore(t *testing.T) (*Store, *backend.Client) {
	t.Helper()
	client, err := backend.New(context.Background(), backend.Options{
		Backend: config.Backend{
			URL:             "sqlite://" + filepath.Join(t.TempDir(), "data.db") + "?_busy_timeout=5000",
			AnonKey:         "anon-key",
			AutoConfirm:     true,
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: time.Hour,
			BcryptCost:      bcrypt.MinCost,
		},
		Logger: logger.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, logger.Nop()), client
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestProfiles(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("missing profile is nil without error", func(t *testing.T) {
		profile, err := store.GetUserProfile(ctx, "user-1")
		assert.NoError(t, err)
		assert.Nil(t, profile)
	})

	t.Run("create starts at level 1 with no XP", func(t *testing.T) {
		profile, err := store.CreateUserProfile(ctx, "user-1", "Kid")
		require.NoError(t, err)
		assert.Equal(t, "Kid", profile.DisplayName)
		assert.Equal(t, 0, profile.TotalXP)
		assert.Equal(t, 1, profile.Level)
	})

	t.Run("duplicate create fails", func(t *testing.T) {
		_, err := store.CreateUserProfile(ctx, "user-1", "Kid")
		assert.ErrorIs(t, err, ErrOperation)
		assert.Equal(t, backend.CodeUniqueViolation, backend.CodeOf(err))
	})

	t.Run("partial update", func(t *testing.T) {
		profile, err := store.UpdateUserProfile(ctx, "user-1", ProfileUpdate{TotalXP: intPtr(250), Level: intPtr(2)})
		require.NoError(t, err)
		assert.Equal(t, 250, profile.TotalXP)
		assert.Equal(t, 2, profile.Level)
		assert.Equal(t, "Kid", profile.DisplayName)

		profile, err = store.UpdateUserProfile(ctx, "user-1", ProfileUpdate{DisplayName: strPtr("Ace")})
		require.NoError(t, err)
		assert.Equal(t, "Ace", profile.DisplayName)
		assert.Equal(t, 250, profile.TotalXP)
	})

	t.Run("update of unknown profile fails with no rows", func(t *testing.T) {
		_, err := store.UpdateUserProfile(ctx, "nobody", ProfileUpdate{TotalXP: intPtr(1)})
		assert.ErrorIs(t, err, ErrOperation)
		assert.Equal(t, backend.CodeNoRows, backend.CodeOf(err))
	})
}

func TestQuests(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	quests, err := store.GetQuests(ctx)
	require.NoError(t, err)
	require.Len(t, quests, 4)
	assert.Equal(t, "1", quests[0].ID)
	assert.Equal(t, 100, quests[3].XPReward)

	rows, err := store.GetUserQuestProgress(ctx, "user-1")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	t.Run("progress is clamped", func(t *testing.T) {
		row, err := store.UpdateQuestProgress(ctx, "user-1", "1", -5)
		require.NoError(t, err)
		assert.Equal(t, 0, row.Progress)
		assert.False(t, row.Completed)

		row, err = store.UpdateQuestProgress(ctx, "user-1", "2", 150)
		require.NoError(t, err)
		assert.Equal(t, 100, row.Progress)
		assert.True(t, row.Completed)
	})

	t.Run("completion never reverts", func(t *testing.T) {
		done, err := store.UpdateQuestProgress(ctx, "user-1", "3", 100)
		require.NoError(t, err)
		require.True(t, done.Completed)
		require.NotNil(t, done.CompletedAt)

		row, err := store.UpdateQuestProgress(ctx, "user-1", "3", 40)
		require.NoError(t, err)
		assert.Equal(t, 40, row.Progress)
		assert.True(t, row.Completed)
		require.NotNil(t, row.CompletedAt)
		assert.True(t, done.CompletedAt.Equal(*row.CompletedAt))
	})

	t.Run("rows carry their quest", func(t *testing.T) {
		rows, err := store.GetUserQuestProgress(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		for _, row := range rows {
			require.NotNil(t, row.Quest)
			assert.Equal(t, row.QuestID, row.Quest.ID)
		}
	})
}

func TestBadges(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	badges, err := store.GetBadges(ctx)
	require.NoError(t, err)
	require.Len(t, badges, 4)
	assert.Equal(t, "First Steps", badges[0].Name)

	earned, err := store.EarnBadge(ctx, "user-1", "1")
	require.NoError(t, err)
	require.NotNil(t, earned)
	assert.False(t, earned.EarnedAt.IsZero())

	again, err := store.EarnBadge(ctx, "user-1", "1")
	assert.NoError(t, err)
	assert.Nil(t, again)

	rows, err := store.GetUserBadges(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Badge)
	assert.Equal(t, "First Steps", rows[0].Badge.Name)
}

func TestAvatarItems(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	items, err := store.GetAvatarItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 11)
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, string(items[i-1].Category), string(items[i].Category))
	}

	t.Run("update creates the row", func(t *testing.T) {
		now := time.Now().UTC()
		row, err := store.UpdateAvatarItem(ctx, "user-1", "hair-2", AvatarItemUpdate{Unlocked: boolPtr(true), UnlockedAt: &now})
		require.NoError(t, err)
		assert.True(t, row.Unlocked)
		assert.False(t, row.Equipped)
		assert.NotNil(t, row.UnlockedAt)
	})

	t.Run("update leaves unset fields alone", func(t *testing.T) {
		row, err := store.UpdateAvatarItem(ctx, "user-1", "hair-2", AvatarItemUpdate{Equipped: boolPtr(true)})
		require.NoError(t, err)
		assert.True(t, row.Unlocked)
		assert.True(t, row.Equipped)
	})

	t.Run("equip keeps one item per category", func(t *testing.T) {
		_, err := store.EquipAvatarItem(ctx, "user-1", "outfit-1", entities.AvatarCategoryOutfit)
		require.NoError(t, err)
		_, err = store.UpdateAvatarItem(ctx, "user-1", "hair-1", AvatarItemUpdate{Unlocked: boolPtr(true)})
		require.NoError(t, err)

		row, err := store.EquipAvatarItem(ctx, "user-1", "hair-1", entities.AvatarCategoryHair)
		require.NoError(t, err)
		assert.True(t, row.Equipped)

		rows, err := store.GetUserAvatarItems(ctx, "user-1")
		require.NoError(t, err)
		equipped := map[entities.AvatarCategory][]string{}
		for _, r := range rows {
			require.NotNil(t, r.Item)
			if r.Equipped {
				equipped[r.Item.Category] = append(equipped[r.Item.Category], r.ItemID)
			}
		}
		assert.Equal(t, []string{"hair-1"}, equipped[entities.AvatarCategoryHair])
		assert.Equal(t, []string{"outfit-1"}, equipped[entities.AvatarCategoryOutfit])
	})

	t.Run("equip marks an existing locked row unlocked", func(t *testing.T) {
		_, err := store.UpdateAvatarItem(ctx, "user-2", "bg-2", AvatarItemUpdate{Unlocked: boolPtr(false)})
		require.NoError(t, err)

		row, err := store.EquipAvatarItem(ctx, "user-2", "bg-2", entities.AvatarCategoryBackground)
		require.NoError(t, err)
		assert.True(t, row.Unlocked)
		assert.True(t, row.Equipped)
	})
}

func TestFlashcardSets(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	older, err := store.CreateFlashcardSet(ctx, "user-1", FlashcardSetInput{Name: "Fruits", Category: "fruits", ArtStyle: "cartoon-animals"})
	require.NoError(t, err)
	assert.NotEmpty(t, older.ID)

	_, err = store.CreateFlashcards(ctx, older.ID, []FlashcardInput{
		{Front: "Apple", Back: "🍎", Image: "a.jpg"},
		{Front: "Banana", Back: "🍌", Image: "b.jpg"},
	})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	newer, err := store.CreateFlashcardSet(ctx, "user-1", FlashcardSetInput{
		Name: "Mine", Category: "custom", ArtStyle: "robot-helpers", CustomWords: []string{"Rocket", "Moon"},
	})
	require.NoError(t, err)

	cards, err := store.CreateFlashcards(ctx, newer.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, cards)

	sets, err := store.GetFlashcardSets(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, newer.ID, sets[0].ID)
	assert.Equal(t, []string{"Rocket", "Moon"}, []string(sets[0].CustomWords))

	require.Len(t, sets[1].Flashcards, 2)
	assert.Equal(t, "Apple", sets[1].Flashcards[0].Front)
	assert.Equal(t, 0, sets[1].Flashcards[0].OrderIndex)
	assert.Equal(t, "Banana", sets[1].Flashcards[1].Front)

	other, err := store.GetFlashcardSets(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, store.DeleteFlashcardSet(ctx, older.ID))
	sets, err = store.GetFlashcardSets(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, sets, 1)

	var orphans int64
	require.NoError(t, store.db(ctx).Model(&entities.Flashcard{}).Where("set_id = ?", older.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestOperationErrors(t *testing.T) {
	store, client := setupTestStore(t)
	require.NoError(t, client.Close())

	_, err := store.GetQuests(context.Background())
	assert.ErrorIs(t, err, ErrOperation)
}
