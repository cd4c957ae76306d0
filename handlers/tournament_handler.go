package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"quipcup/models"
	"quipcup/services"
)

// TournamentHandler serves the admin's live-document operations.
type TournamentHandler struct {
	tournament *services.TournamentService
	drafts     *services.DraftService
}

func NewTournamentHandler(tournament *services.TournamentService, drafts *services.DraftService) *TournamentHandler {
	return &TournamentHandler{tournament: tournament, drafts: drafts}
}

func (h *TournamentHandler) GetDocument(c *gin.Context) {
	c.JSON(http.StatusOK, h.tournament.Document())
}

func (h *TournamentHandler) GoToPhase(c *gin.Context) {
	var req services.PhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(h.tournament.GoToPhase(c.Request.Context(), req.PhaseID))
}

func (h *TournamentHandler) NextPhase(c *gin.Context) {
	h.respond(c)(h.tournament.NextPhase(c.Request.Context()))
}

func (h *TournamentHandler) PrevPhase(c *gin.Context) {
	h.respond(c)(h.tournament.PrevPhase(c.Request.Context()))
}

func (h *TournamentHandler) SetCurrentGame(c *gin.Context) {
	var req services.GameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(h.tournament.SetCurrentGame(c.Request.Context(), req.Game))
}

func (h *TournamentHandler) ApplyResults(c *gin.Context) {
	game, ok := intParam(c, "game")
	if !ok {
		return
	}
	var req services.ResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(h.tournament.ApplyResults(c.Request.Context(), game, req.Order))
}

// PreviewResults shows what an order would score without saving it.
func (h *TournamentHandler) PreviewResults(c *gin.Context) {
	game, ok := intParam(c, "game")
	if !ok {
		return
	}
	var req services.ResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	preview, err := h.tournament.PreviewResults(game, req.Order)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *TournamentHandler) AdjustStrikes(c *gin.Context) {
	h.adjust(c, h.tournament.AdjustStrikes)
}

func (h *TournamentHandler) AdjustBonus(c *gin.Context) {
	h.adjust(c, h.tournament.AdjustBonus)
}

func (h *TournamentHandler) adjust(c *gin.Context, fn func(context.Context, int, services.AdjustRequest) (models.Tournament, error)) {
	teamID, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req services.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(fn(c.Request.Context(), teamID, req))
}

func (h *TournamentHandler) UpdateSettings(c *gin.Context) {
	var req services.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(h.tournament.UpdateSettings(c.Request.Context(), &req))
}

// Reset soft-resets the tournament and drops every unpublished draft.
func (h *TournamentHandler) Reset(c *gin.Context) {
	doc, err := h.tournament.Reset(c.Request.Context())
	if err == nil {
		h.drafts.Reset()
	}
	h.respond(c)(doc, err)
}

func (h *TournamentHandler) respond(c *gin.Context) func(models.Tournament, error) {
	return func(doc models.Tournament, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}
