package syncer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"quipcup/store"
)

const DefaultPollInterval = time.Second

// Poller rereads the local cache on an interval. Viewers use it only when
// no remote store is configured and the admin shares their cache.
type Poller struct {
	cache    store.Cache
	interval time.Duration
	logger   *zap.Logger
	last     time.Time
}

func NewPoller(cache store.Cache, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{cache: cache, interval: interval, logger: logger.Named("poller")}
}

// Since skips cache rows stamped at or before t, typically the row the
// viewer already loaded at startup.
func (p *Poller) Since(t time.Time) *Poller {
	p.last = t
	return p
}

func (p *Poller) Run(ctx context.Context, fn func([]byte)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, fn)
		}
	}
}

func (p *Poller) poll(ctx context.Context, fn func([]byte)) {
	raw, updatedAt, err := p.cache.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		p.logger.Debug("cache poll failed", zap.Error(err))
		return
	}
	if !updatedAt.After(p.last) {
		return
	}
	p.last = updatedAt
	fn(raw)
}
