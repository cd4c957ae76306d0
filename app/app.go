package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quipcup/config"
	"quipcup/metrics"
	"quipcup/models"
	"quipcup/scoring"
	"quipcup/store"
	"quipcup/syncer"
)

// App holds the connections shared by every command.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	rules   scoring.Rules

	cache       store.Cache
	remote      store.Remote
	redisRemote *store.RedisRemote
	natsRemote  *store.NATSRemote
	natsConn    *nats.Conn

	// cacheStamp is the cache row's stamp seen by the last Load.
	cacheStamp time.Time

	closers []func() error
}

// New opens the cache and the remote store selected by cfg. A remote that
// cannot be reached is logged and left out; the process then runs on the
// cache alone.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		rules:   cfg.Rules(),
	}

	db, err := config.InitCache(cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		gc := store.NewGormCache(db)
		if err := gc.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate cache: %w", err)
		}
		a.cache = gc
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
	}

	switch cfg.SyncBackend {
	case config.BackendRedis:
		client := config.InitRedis(cfg)
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, continuing without remote store", zap.Error(err))
		}
		a.redisRemote = store.NewRedisRemote(client)
		a.remote = a.redisRemote
	case config.BackendNATS:
		nc, kv, err := config.InitNATS(ctx, cfg)
		if err != nil {
			logger.Warn("nats unavailable, continuing without remote store", zap.Error(err))
			break
		}
		a.natsConn = nc
		a.closers = append(a.closers, func() error { nc.Close(); return nil })
		a.natsRemote = store.NewNATSRemote(kv)
		a.remote = a.natsRemote
	}
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && !errors.Is(err, redis.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

func (a *App) Rules() scoring.Rules {
	return a.rules
}

// Load reads the starting document: remote layered over cache layered over
// defaults.
func (a *App) Load(ctx context.Context) models.Tournament {
	snap := syncer.LoadWithTimeout(ctx, a.remote, a.cache, a.logger)
	a.cacheStamp = snap.CacheUpdatedAt
	a.logger.Info("document loaded", zap.String("origin", string(snap.Origin)), zap.String("phase", snap.Doc.CurrentPhase))
	return snap.Doc
}

// source returns the change feed transport viewers follow, or nil.
func (a *App) source() syncer.Source {
	switch {
	case a.redisRemote != nil:
		return syncer.NewRedisSource(a.redisRemote)
	case a.natsRemote != nil:
		return syncer.NewNATSSource(a.natsConn, a.natsRemote)
	case a.cfg.SyncBackend == config.BackendWebSocket && a.cfg.UpstreamWSURL != "":
		return syncer.NewWebSocketSource(a.cfg.UpstreamWSURL)
	}
	return nil
}

// follow starts a viewer fed by the change feed or, when there is no
// remote to follow, by polling the cache. The returned function stops the
// feed.
func (a *App) follow(ctx context.Context, initial models.Tournament) (*syncer.Viewer, func()) {
	viewer := syncer.NewViewer(initial, a.logger, a.metrics)
	go viewer.Run(ctx)

	if src := a.source(); src != nil {
		feed := syncer.NewFeed(src, a.logger,
			syncer.WithRetry(syncer.FixedDelay{Delay: a.cfg.FeedRetryDelay}),
			syncer.WithHeartbeat(a.cfg.FeedHeartbeat),
			syncer.WithFeedMetrics(a.metrics),
		)
		return viewer, viewer.AttachFeed(ctx, feed)
	}
	if a.cache != nil {
		poller := syncer.NewPoller(a.cache, a.cfg.PollInterval, a.logger).Since(a.cacheStamp)
		viewer.AttachPoller(ctx, poller)
	}
	return viewer, func() {}
}

// publisher builds the single writer. broadcast may be nil.
func (a *App) publisher(broadcast *syncer.Broadcast) *syncer.Publisher {
	return syncer.NewPublisher(a.cache, broadcast, a.remote, a.logger, a.metrics)
}
