package syncer

import (
	"bytes"
	"context"
	"sync"

	"go.uber.org/zap"

	"quipcup/metrics"
	"quipcup/models"
	"quipcup/store"
)

// Upstream names used for logs and metrics.
const (
	SourceFeed      = "feed"
	SourceBroadcast = "broadcast"
	SourcePoll      = "poll"
)

// Reader is the viewer side of the sync layer.
type Reader interface {
	Current() models.Tournament
	Watch() (<-chan models.Tournament, func())
}

type inbound struct {
	source string
	raw    []byte
}

// Viewer merges every upstream into one ordered stream of documents. Each
// payload is decoded over the defaults and replaces the local document
// wholesale; the last one delivered wins.
type Viewer struct {
	in      chan inbound
	done    chan struct{}
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	current models.Tournament
	lastRaw []byte
	subs    map[int]chan models.Tournament
	nextSub int
}

func NewViewer(initial models.Tournament, logger *zap.Logger, m *metrics.Metrics) *Viewer {
	return &Viewer{
		in:      make(chan inbound, 64),
		done:    make(chan struct{}),
		logger:  logger.Named("viewer"),
		metrics: m,
		current: initial,
		subs:    make(map[int]chan models.Tournament),
	}
}

func (v *Viewer) Current() models.Tournament {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current.Clone()
}

// Watch returns a channel that always holds the newest document not yet
// received. Call the returned function to stop watching.
func (v *Viewer) Watch() (<-chan models.Tournament, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextSub
	v.nextSub++
	ch := make(chan models.Tournament, 1)
	v.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subs, id)
			close(ch)
		})
	}
}

// Push queues a payload from an upstream. It returns without queueing once
// the viewer has stopped.
func (v *Viewer) Push(source string, raw []byte) {
	select {
	case v.in <- inbound{source: source, raw: raw}:
	case <-v.done:
	}
}

// Run applies queued payloads in arrival order until ctx ends.
func (v *Viewer) Run(ctx context.Context) {
	defer close(v.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-v.in:
			v.apply(msg)
		}
	}
}

func (v *Viewer) apply(msg inbound) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.lastRaw != nil && bytes.Equal(v.lastRaw, msg.raw) {
		v.metrics.InboundDropped("duplicate")
		return
	}
	doc, err := store.Decode(msg.raw)
	if err != nil {
		v.metrics.InboundDropped("malformed")
		v.logger.Debug("ignoring unreadable update", zap.String("source", msg.source), zap.Error(err))
		return
	}
	v.current = doc
	v.lastRaw = msg.raw
	v.metrics.InboundApplied(msg.source)
	for _, ch := range v.subs {
		deliverLatest(ch, doc.Clone())
	}
}

func deliverLatest(ch chan models.Tournament, doc models.Tournament) {
	for {
		select {
		case ch <- doc:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// AttachFeed follows a change feed. The returned function unsubscribes.
func (v *Viewer) AttachFeed(ctx context.Context, f *Feed) func() {
	return f.Subscribe(ctx, func(raw []byte) { v.Push(SourceFeed, raw) })
}

func (v *Viewer) AttachBroadcast(ctx context.Context, b *Broadcast) error {
	return b.Subscribe(ctx, func(raw []byte) { v.Push(SourceBroadcast, raw) })
}

func (v *Viewer) AttachPoller(ctx context.Context, p *Poller) {
	go p.Run(ctx, func(raw []byte) { v.Push(SourcePoll, raw) })
}
