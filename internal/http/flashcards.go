package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/questeded/quested/internal/catalog"
	"github.com/questeded/quested/internal/logger"
)

// FlashcardsController generates and manages flashcard sets.
type FlashcardsController struct {
	log *logger.Logger
}

func NewFlashcardsController(log *logger.Logger) *FlashcardsController {
	return &FlashcardsController{log: log.With("controller", "flashcards")}
}

type generateRequest struct {
	Category    string   `json:"category" binding:"required"`
	ArtStyle    string   `json:"art_style" binding:"required"`
	CustomWords []string `json:"custom_words"`
}

type currentSetRequest struct {
	SetID string `json:"set_id" binding:"required"`
}

// Catalog lists the categories and art styles to generate from.
// GET /api/flashcards/catalog
func (fc *FlashcardsController) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": catalog.Categories(),
		"art_styles": catalog.ArtStyles(),
	})
}

// ListSets returns the client's sets and the current one.
// GET /api/flashcards/sets
func (fc *FlashcardsController) ListSets(c *gin.Context) {
	f := currentState(c).Flashcards
	c.JSON(http.StatusOK, gin.H{
		"sets":       f.Sets(),
		"current":    f.CurrentSet(),
		"generating": f.IsGenerating(),
	})
}

// Generate builds a new set and makes it current.
// POST /api/flashcards/sets
func (fc *FlashcardsController) Generate(c *gin.Context) {
	var req generateRequest
	if !bindJSON(c, &req) {
		return
	}
	f := currentState(c).Flashcards
	set, err := f.GenerateFlashcards(c.Request.Context(), req.Category, req.ArtStyle, req.CustomWords)
	if err != nil {
		respondStoreError(c, fc.log, err, "generate flashcards")
		return
	}
	respondCreated(c, set)
}

// DeleteSet removes a set.
// DELETE /api/flashcards/sets/:id
func (fc *FlashcardsController) DeleteSet(c *gin.Context) {
	f := currentState(c).Flashcards
	if err := f.DeleteFlashcardSet(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, fc.log, err, "delete flashcard set")
		return
	}
	respondSuccess(c, "flashcard set deleted", nil)
}

// GetCurrent returns the set being studied.
// GET /api/flashcards/current
func (fc *FlashcardsController) GetCurrent(c *gin.Context) {
	set := currentState(c).Flashcards.CurrentSet()
	if set == nil {
		respondError(c, http.StatusNotFound, "no current flashcard set")
		return
	}
	c.JSON(http.StatusOK, set)
}

// SetCurrent picks the set to study.
// PUT /api/flashcards/current
func (fc *FlashcardsController) SetCurrent(c *gin.Context) {
	var req currentSetRequest
	if !bindJSON(c, &req) {
		return
	}
	f := currentState(c).Flashcards
	if err := f.SetCurrentSet(req.SetID); err != nil {
		respondStoreError(c, fc.log, err, "set current flashcard set")
		return
	}
	c.JSON(http.StatusOK, f.CurrentSet())
}
