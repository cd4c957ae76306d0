package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quipcup/export"
	"quipcup/phases"
	"quipcup/scoring"
	"quipcup/syncer"
	"quipcup/views"
)

// PublicHandler serves read-only projections of whatever document the
// process currently holds.
type PublicHandler struct {
	reader syncer.Reader
	rules  scoring.Rules
	logger *zap.Logger
}

func NewPublicHandler(reader syncer.Reader, rules scoring.Rules, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{reader: reader, rules: rules, logger: logger.Named("public")}
}

func (h *PublicHandler) GetDocument(c *gin.Context) {
	c.JSON(http.StatusOK, h.reader.Current())
}

func (h *PublicHandler) GetPhases(c *gin.Context) {
	doc := h.reader.Current()
	seq := phases.For(doc)
	c.JSON(http.StatusOK, gin.H{
		"phases": seq,
		"live":   phases.Current(seq, doc.CurrentPhase).ID,
	})
}

func (h *PublicHandler) GetStandings(c *gin.Context) {
	doc := h.reader.Current()
	asOf, ok := asOfQuery(c, doc.NumGames())
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"asOf": asOf, "standings": views.Standings(doc, h.rules, asOf)})
}

func (h *PublicHandler) GetCoaches(c *gin.Context) {
	doc := h.reader.Current()
	asOf, ok := asOfQuery(c, doc.NumGames())
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"asOf": asOf, "coaches": views.Coaches(doc, h.rules, asOf)})
}

// GetLiveView renders the live phase.
func (h *PublicHandler) GetLiveView(c *gin.Context) {
	v, err := views.Project(h.reader.Current(), h.rules, "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GetView renders an earlier phase. Phases past the live one are locked.
func (h *PublicHandler) GetView(c *gin.Context) {
	doc := h.reader.Current()
	id := c.Param("phaseId")
	if err := phases.Visible(phases.For(doc), doc.CurrentPhase, id); err != nil {
		respondError(c, err)
		return
	}
	v, err := views.Project(doc, h.rules, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *PublicHandler) GetStandingsChart(c *gin.Context) {
	png, err := export.StandingsChart(h.reader.Current(), h.rules)
	if err != nil {
		h.logger.Error("render standings chart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render chart"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *PublicHandler) GetStandingsWorkbook(c *gin.Context) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="standings.xlsx"`)
	if err := export.WriteWorkbook(c.Writer, h.reader.Current(), h.rules); err != nil {
		h.logger.Error("write standings workbook", zap.Error(err))
		c.Status(http.StatusInternalServerError)
	}
}

// asOfQuery reads ?asOf=N, defaulting to every game.
func asOfQuery(c *gin.Context, games int) (int, bool) {
	raw := c.Query("asOf")
	if raw == "" {
		return games, true
	}
	asOf, err := strconv.Atoi(raw)
	if err != nil || asOf < 0 || asOf > games {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asOf must be between 0 and the number of games"})
		return 0, false
	}
	return asOf, true
}
