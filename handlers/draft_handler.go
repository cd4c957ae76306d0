package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quipcup/draft"
	"quipcup/services"
)

// DraftHandler serves the admin's unpublished roster and word edits.
type DraftHandler struct {
	drafts *services.DraftService
}

func NewDraftHandler(drafts *services.DraftService) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

func (h *DraftHandler) GetRoster(c *gin.Context) {
	roster, err := h.drafts.Roster()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": roster, "pending": h.drafts.RosterPending()})
}

func (h *DraftHandler) UpdateTeam(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req services.TeamUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	team, err := h.drafts.EditTeam(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (h *DraftHandler) PublishRoster(c *gin.Context) {
	if err := h.drafts.PublishRoster(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Roster published"})
}

func (h *DraftHandler) DiscardRoster(c *gin.Context) {
	h.drafts.DiscardRoster()
	c.Status(http.StatusNoContent)
}

func (h *DraftHandler) GetSheet(c *gin.Context) {
	game, ok := intParam(c, "game")
	if !ok {
		return
	}
	h.respondSheet(c)(h.drafts.Sheet(game))
}

func (h *DraftHandler) AddWord(c *gin.Context) {
	game, ok := intParam(c, "game")
	if !ok {
		return
	}
	var req services.WordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondSheet(c)(h.drafts.AddWord(game, req.Word))
}

func (h *DraftHandler) RemoveWord(c *gin.Context) {
	game, ok := intParam(c, "game")
	if !ok {
		return
	}
	h.respondSheet(c)(h.drafts.RemoveWord(game, c.Param("word")))
}

func (h *DraftHandler) ToggleBan(c *gin.Context) {
	game, ok := intParam(c, "game")
	if !ok {
		return
	}
	h.respondSheet(c)(h.drafts.ToggleBan(game, c.Param("word")))
}

func (h *DraftHandler) Assign(c *gin.Context) {
	game, ok := intParam(c, "game")
	if !ok {
		return
	}
	teamID, ok := intParam(c, "teamId")
	if !ok {
		return
	}
	var req services.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondSheet(c)(h.drafts.Assign(game, teamID, req.Word))
}

func (h *DraftHandler) PublishWords(c *gin.Context) {
	game, ok := intParam(c, "game")
	if !ok {
		return
	}
	if err := h.drafts.PublishWords(c.Request.Context(), game); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Words published"})
}

func (h *DraftHandler) DiscardWords(c *gin.Context) {
	game, ok := intParam(c, "game")
	if !ok {
		return
	}
	if err := h.drafts.DiscardWords(game); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type sheetResponse struct {
	draft.Sheet
	Available []string `json:"available"`
	BanLimit  int      `json:"banLimit"`
}

func (h *DraftHandler) respondSheet(c *gin.Context) func(draft.Sheet, error) {
	return func(sheet draft.Sheet, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sheetResponse{
			Sheet:     sheet,
			Available: sheet.Available(),
			BanLimit:  draft.BanLimit(sheet.System),
		})
	}
}
