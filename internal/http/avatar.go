package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/questeded/quested/internal/entities"
	"github.com/questeded/quested/internal/logger"
	"github.com/questeded/quested/internal/state"
)

// AvatarController exposes the avatar wardrobe.
type AvatarController struct {
	log *logger.Logger
}

func NewAvatarController(log *logger.Logger) *AvatarController {
	return &AvatarController{log: log.With("controller", "avatar")}
}

type avatarResponse struct {
	Items    []state.AvatarItem `json:"items"`
	Equipped []state.AvatarItem `json:"equipped"`
	Unlocked []string           `json:"unlocked,omitempty"`
}

func avatarOf(s *state.Session) avatarResponse {
	return avatarResponse{
		Items:    s.Avatar.Items(),
		Equipped: s.Avatar.EquippedItems(),
	}
}

// GetAvatar lists items, optionally narrowed with ?category= or
// ?unlocked=true.
// GET /api/avatar
func (ac *AvatarController) GetAvatar(c *gin.Context) {
	s := currentState(c)
	resp := avatarOf(s)

	if raw := c.Query("category"); raw != "" {
		category := entities.AvatarCategory(raw)
		if !category.Valid() {
			respondBadRequest(c, "invalid category")
			return
		}
		resp.Items = s.Avatar.ItemsByCategory(category)
	} else if c.Query("unlocked") == "true" {
		resp.Items = s.Avatar.UnlockedItems()
	}
	c.JSON(http.StatusOK, resp)
}

// EquipItem wears an unlocked item.
// POST /api/avatar/items/:id/equip
func (ac *AvatarController) EquipItem(c *gin.Context) {
	s := currentState(c)
	if err := s.Avatar.EquipItem(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, ac.log, err, "equip avatar item")
		return
	}
	c.JSON(http.StatusOK, avatarOf(s))
}

// CheckUnlocks unlocks items reachable with the current XP.
// POST /api/avatar/unlocks
func (ac *AvatarController) CheckUnlocks(c *gin.Context) {
	s := currentState(c)
	unlocked := s.Avatar.CheckUnlocks(c.Request.Context(), s.Progress.TotalXP())
	resp := avatarOf(s)
	resp.Unlocked = unlocked
	c.JSON(http.StatusOK, resp)
}

// Save returns the equipped outfit.
// POST /api/avatar/save
func (ac *AvatarController) Save(c *gin.Context) {
	equipped := currentState(c).Avatar.SaveAvatar(c.Request.Context())
	respondSuccess(c, "avatar saved", equipped)
}
