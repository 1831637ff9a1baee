package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/questeded/quested/internal/logger"
	"github.com/questeded/quested/internal/state"
)

// ProgressController exposes XP, quests and badges.
type ProgressController struct {
	log *logger.Logger
}

func NewProgressController(log *logger.Logger) *ProgressController {
	return &ProgressController{log: log.With("controller", "progress")}
}

type questProgressRequest struct {
	Progress *int `json:"progress" binding:"required"`
}

type xpRequest struct {
	Amount int `json:"amount"`
}

// ProgressResponse is the progress snapshot plus the effects of a change.
type ProgressResponse struct {
	state.ProgressSnapshot
	CurrentQuest *state.Quest `json:"current_quest,omitempty"`
	LeveledUp    bool         `json:"leveled_up,omitempty"`
	Completed    bool         `json:"completed,omitempty"`
	Unlocked     []string     `json:"unlocked,omitempty"`
}

func progressOf(s *state.Session) ProgressResponse {
	resp := ProgressResponse{ProgressSnapshot: s.Progress.Snapshot()}
	if q, ok := s.Progress.CurrentQuest(); ok {
		resp.CurrentQuest = &q
	}
	return resp
}

// GetProgress returns the progress snapshot.
// GET /api/progress
func (pc *ProgressController) GetProgress(c *gin.Context) {
	c.JSON(http.StatusOK, progressOf(currentState(c)))
}

// Reload refetches every store from the backend.
// POST /api/progress/reload
func (pc *ProgressController) Reload(c *gin.Context) {
	report := currentState(c).LoadAll(c.Request.Context())
	c.JSON(http.StatusOK, report)
}

// UpdateQuestProgress records progress on a quest. Completing it awards the
// quest's XP and may unlock avatar items.
// POST /api/quests/:id/progress
func (pc *ProgressController) UpdateQuestProgress(c *gin.Context) {
	var req questProgressRequest
	if !bindJSON(c, &req) {
		return
	}
	s := currentState(c)
	completed, unlocked, err := s.UpdateQuestProgress(c.Request.Context(), c.Param("id"), *req.Progress)
	if err != nil {
		respondStoreError(c, pc.log, err, "update quest progress")
		return
	}
	resp := progressOf(s)
	resp.Completed = completed
	resp.Unlocked = unlocked
	c.JSON(http.StatusOK, resp)
}

// EarnBadge awards a badge.
// POST /api/badges/:id/earn
func (pc *ProgressController) EarnBadge(c *gin.Context) {
	s := currentState(c)
	earned, err := s.Progress.EarnBadge(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, pc.log, err, "earn badge")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"earned": earned,
		"badges": s.Progress.EarnedBadges(),
	})
}

// AwardXP adds XP and unlocks any avatar items the new total reaches.
// POST /api/xp
func (pc *ProgressController) AwardXP(c *gin.Context) {
	var req xpRequest
	if !bindJSON(c, &req) {
		return
	}
	s := currentState(c)
	leveledUp, unlocked, err := s.AwardXP(c.Request.Context(), req.Amount)
	if err != nil {
		respondStoreError(c, pc.log, err, "award xp")
		return
	}
	resp := progressOf(s)
	resp.LeveledUp = leveledUp
	resp.Unlocked = unlocked
	c.JSON(http.StatusOK, resp)
}
