package syncer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"quipcup/metrics"
	"quipcup/models"
	"quipcup/store"
)

const remotePushTimeout = 10 * time.Second

// Writer is the admin side of the sync layer. There is exactly one.
type Writer interface {
	Publish(ctx context.Context, doc models.Tournament)
}

// Publisher writes every document to the local cache, then the
// same-process broadcast, then hands it to a background pusher for the
// remote store. No step waits on a later one and failures are only logged.
type Publisher struct {
	cache     store.Cache
	broadcast *Broadcast
	remote    store.Remote
	logger    *zap.Logger
	metrics   *metrics.Metrics

	// pending holds at most the newest unpushed document.
	pending chan []byte
	pushed  func([]byte)
}

// NewPublisher builds a publisher; any of cache, broadcast and remote may
// be nil.
func NewPublisher(cache store.Cache, broadcast *Broadcast, remote store.Remote, logger *zap.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{
		cache:     cache,
		broadcast: broadcast,
		remote:    remote,
		logger:    logger.Named("publisher"),
		metrics:   m,
		pending:   make(chan []byte, 1),
	}
}

func (p *Publisher) Publish(ctx context.Context, doc models.Tournament) {
	raw, err := store.Encode(doc)
	if err != nil {
		p.logger.Error("encode document", zap.Error(err))
		return
	}
	p.metrics.DocumentPublished()

	if p.cache != nil {
		if err := p.cache.Save(ctx, raw); err != nil {
			p.metrics.CacheWriteFailed()
			p.logger.Warn("cache write failed", zap.Error(err))
		}
	}
	if p.broadcast != nil {
		if err := p.broadcast.Publish(raw); err != nil {
			p.logger.Warn("broadcast failed", zap.Error(err))
		}
	}
	if p.remote != nil {
		p.offer(raw)
	}
}

// offer replaces any unpushed document with raw. Only the latest matters
// because every document is complete.
func (p *Publisher) offer(raw []byte) {
	for {
		select {
		case p.pending <- raw:
			return
		default:
		}
		select {
		case <-p.pending:
		default:
		}
	}
}

// Run pushes pending documents to the remote store until ctx ends.
func (p *Publisher) Run(ctx context.Context) {
	if p.remote == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-p.pending:
			_ = p.push(ctx, raw)
		}
	}
}

// Flush pushes the pending document, if there is one, before returning.
// One-shot commands call it in place of Run.
func (p *Publisher) Flush(ctx context.Context) error {
	if p.remote == nil {
		return nil
	}
	select {
	case raw := <-p.pending:
		return p.push(ctx, raw)
	default:
		return nil
	}
}

func (p *Publisher) push(ctx context.Context, raw []byte) error {
	pushCtx, cancel := context.WithTimeout(ctx, remotePushTimeout)
	defer cancel()
	if err := p.remote.Write(pushCtx, raw); err != nil {
		p.metrics.RemotePushFailed()
		p.logger.Warn("remote push failed", zap.Error(err))
		return err
	}
	if p.pushed != nil {
		p.pushed(raw)
	}
	return nil
}
