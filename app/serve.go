package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quipcup/config"
	"quipcup/handlers"
	"quipcup/middleware"
	"quipcup/routes"
	"quipcup/services"
	"quipcup/syncer"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the HTTP server for the configured role until ctx ends.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	router, err := a.Router(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: a.cfg.Addr(), Handler: router}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("role", a.cfg.Role))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	a.logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Router wires the sync layer, services and handlers for the configured
// role. Background loops stop with ctx.
func (a *App) Router(ctx context.Context) (*gin.Engine, error) {
	doc := a.Load(ctx)

	var (
		reader syncer.Reader
		admin  *routes.Admin
	)
	if a.cfg.Role == config.RoleAdmin {
		broadcast := syncer.NewBroadcast(a.logger)
		go func() {
			<-ctx.Done()
			_ = broadcast.Close()
		}()
		publisher := a.publisher(broadcast)
		go publisher.Run(ctx)

		viewer := syncer.NewViewer(doc, a.logger, a.metrics)
		go viewer.Run(ctx)
		if err := viewer.AttachBroadcast(ctx, broadcast); err != nil {
			return nil, fmt.Errorf("subscribe to broadcast: %w", err)
		}
		reader = viewer

		tournament := services.NewTournamentService(doc, a.rules, publisher, a.logger, a.metrics)
		drafts := services.NewDraftService(tournament)
		authService, err := services.NewAuthService(a.cfg.AdminPassword, a.cfg.JWTSecret, a.cfg.TokenTTL)
		if err != nil {
			return nil, err
		}
		if a.cfg.AdminPassword == "" {
			a.logger.Warn("ADMIN_PASSWORD is empty, admin login is disabled")
		}
		admin = &routes.Admin{
			Auth:        handlers.NewAuthHandler(authService),
			Tournament:  handlers.NewTournamentHandler(tournament, drafts),
			Drafts:      handlers.NewDraftHandler(drafts),
			AuthService: authService,
		}
	} else {
		viewer, stop := a.follow(ctx, doc)
		go func() {
			<-ctx.Done()
			stop()
		}()
		reader = viewer
	}

	hub := services.NewHub(reader, a.logger, a.metrics)
	go hub.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(a.logger), middleware.CORS())
	routes.SetupRoutes(
		router,
		handlers.NewPublicHandler(reader, a.rules, a.logger),
		handlers.NewWebSocketHandler(hub, a.logger),
		a.metrics,
		admin,
	)
	return router, nil
}
