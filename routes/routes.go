package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quipcup/handlers"
	"quipcup/metrics"
	"quipcup/middleware"
	"quipcup/services"
)

// Admin holds what only the writer process serves. Viewer processes pass nil.
type Admin struct {
	Auth        *handlers.AuthHandler
	Tournament  *handlers.TournamentHandler
	Drafts      *handlers.DraftHandler
	AuthService *services.AuthService
}

func SetupRoutes(
	router *gin.Engine,
	publicHandler *handlers.PublicHandler,
	wsHandler *handlers.WebSocketHandler,
	m *metrics.Metrics,
	admin *Admin,
) {
	api := router.Group("/api")
	{
		api.GET("/document", publicHandler.GetDocument)
		api.GET("/phases", publicHandler.GetPhases)
		api.GET("/standings", publicHandler.GetStandings)
		api.GET("/standings/chart.png", publicHandler.GetStandingsChart)
		api.GET("/standings.xlsx", publicHandler.GetStandingsWorkbook)
		api.GET("/coaches", publicHandler.GetCoaches)
		api.GET("/view", publicHandler.GetLiveView)
		api.GET("/view/:phaseId", publicHandler.GetView)
	}

	if admin != nil {
		setupAdminRoutes(api, admin)
	}

	router.GET("/ws", wsHandler.Connect)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))
}

func setupAdminRoutes(api *gin.RouterGroup, admin *Admin) {
	api.POST("/auth/login", admin.Auth.Login)

	protected := api.Group("/admin")
	protected.Use(middleware.AuthMiddleware(admin.AuthService))
	{
		t := admin.Tournament
		protected.GET("/document", t.GetDocument)
		protected.POST("/phase", t.GoToPhase)
		protected.POST("/phase/next", t.NextPhase)
		protected.POST("/phase/prev", t.PrevPhase)
		protected.POST("/game", t.SetCurrentGame)
		protected.POST("/games/:game/results", t.ApplyResults)
		protected.POST("/games/:game/results/preview", t.PreviewResults)
		protected.POST("/teams/:id/strikes", t.AdjustStrikes)
		protected.POST("/teams/:id/bonus", t.AdjustBonus)
		protected.PATCH("/settings", t.UpdateSettings)
		protected.POST("/reset", t.Reset)

		d := admin.Drafts
		roster := protected.Group("/roster")
		{
			roster.GET("", d.GetRoster)
			roster.PATCH("/:id", d.UpdateTeam)
			roster.POST("/publish", d.PublishRoster)
			roster.DELETE("/draft", d.DiscardRoster)
		}

		words := protected.Group("/words/:game")
		{
			words.GET("/draft", d.GetSheet)
			words.POST("/words", d.AddWord)
			words.DELETE("/words/:word", d.RemoveWord)
			words.POST("/bans/:word", d.ToggleBan)
			words.PUT("/assignments/:teamId", d.Assign)
			words.POST("/publish", d.PublishWords)
			words.DELETE("/draft", d.DiscardWords)
		}
	}
}
