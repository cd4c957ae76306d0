package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"quipcup/metrics"
	"quipcup/store"
)

// ConnState is the change feed's connection state.
type ConnState int32

const (
	Disconnected ConnState = iota
	Connecting
	Open
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	default:
		return "disconnected"
	}
}

// RetryPolicy decides how long to wait before reconnect attempt n (0-based).
// Returning false stops the feed.
type RetryPolicy interface {
	Next(attempt int) (time.Duration, bool)
}

// FixedDelay waits Delay between attempts. MaxAttempts 0 retries forever.
type FixedDelay struct {
	Delay       time.Duration
	MaxAttempts int
}

func (f FixedDelay) Next(attempt int) (time.Duration, bool) {
	if f.MaxAttempts > 0 && attempt >= f.MaxAttempts {
		return 0, false
	}
	return f.Delay, true
}

const (
	DefaultRetryDelay = 2 * time.Second
	DefaultHeartbeat  = 25 * time.Second
)

var ErrStreamClosed = errors.New("stream closed")

// Stream is one open connection to a change feed. Recv returns the next
// document payload.
type Stream interface {
	Recv(ctx context.Context) ([]byte, error)
	Ping(ctx context.Context) error
	Close() error
}

// Source opens streams for a transport.
type Source interface {
	Name() string
	Open(ctx context.Context) (Stream, error)
}

// Snapshotter is a Source that can also read the current document. The feed
// reads it on every open so writes made while disconnected are not missed.
type Snapshotter interface {
	Latest(ctx context.Context) ([]byte, error)
}

type FeedOption func(*Feed)

func WithRetry(p RetryPolicy) FeedOption {
	return func(f *Feed) { f.retry = p }
}

func WithHeartbeat(d time.Duration) FeedOption {
	return func(f *Feed) { f.heartbeat = d }
}

func WithStateHook(fn func(ConnState)) FeedOption {
	return func(f *Feed) { f.onState = fn }
}

func WithFeedMetrics(m *metrics.Metrics) FeedOption {
	return func(f *Feed) { f.metrics = m }
}

// Feed keeps a subscription to a Source alive: it reconnects per the retry
// policy and pings the open stream every heartbeat.
type Feed struct {
	source    Source
	retry     RetryPolicy
	heartbeat time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
	onState   func(ConnState)
	state     atomic.Int32

	// after is swapped in tests to avoid real sleeps.
	after func(time.Duration) <-chan time.Time
}

func NewFeed(source Source, logger *zap.Logger, opts ...FeedOption) *Feed {
	f := &Feed{
		source:    source,
		retry:     FixedDelay{Delay: DefaultRetryDelay},
		heartbeat: DefaultHeartbeat,
		logger:    logger.With(zap.String("transport", source.Name())),
		after:     time.After,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Feed) State() ConnState {
	return ConnState(f.state.Load())
}

func (f *Feed) setState(s ConnState) {
	if ConnState(f.state.Swap(int32(s))) == s {
		return
	}
	f.logger.Debug("feed state", zap.Stringer("state", s))
	f.metrics.FeedState(f.source.Name(), int(s))
	if f.onState != nil {
		f.onState(s)
	}
}

// Subscribe starts delivering payloads to fn from a background loop. The
// returned function stops the loop and waits for it to exit.
func (f *Feed) Subscribe(ctx context.Context, fn func([]byte)) (unsubscribe func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.run(ctx, fn)
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func (f *Feed) run(ctx context.Context, fn func([]byte)) {
	defer f.setState(Disconnected)
	attempt := 0
	for {
		f.setState(Connecting)
		stream, err := f.source.Open(ctx)
		if err == nil {
			f.setState(Open)
			attempt = 0
			f.catchUp(ctx, fn)
			err = f.pump(ctx, stream, fn)
		}
		f.setState(Disconnected)
		if ctx.Err() != nil {
			return
		}
		f.logger.Warn("change feed dropped", zap.Error(err), zap.Int("attempt", attempt))

		delay, ok := f.retry.Next(attempt)
		if !ok {
			f.logger.Error("change feed giving up", zap.Int("attempts", attempt))
			return
		}
		attempt++
		f.metrics.FeedReconnect(f.source.Name())
		select {
		case <-ctx.Done():
			return
		case <-f.after(delay):
		}
	}
}

func (f *Feed) catchUp(ctx context.Context, fn func([]byte)) {
	snap, ok := f.source.(Snapshotter)
	if !ok {
		return
	}
	raw, err := snap.Latest(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			f.logger.Debug("catch-up read failed", zap.Error(err))
		}
		return
	}
	fn(raw)
}

func (f *Feed) pump(ctx context.Context, stream Stream, fn func([]byte)) error {
	ctx, cancel := context.WithCancel(ctx)
	var closeOnce sync.Once
	closeStream := func() { closeOnce.Do(func() { _ = stream.Close() }) }
	defer closeStream()
	defer cancel()

	go func() {
		<-ctx.Done()
		closeStream()
	}()

	if f.heartbeat > 0 {
		go func() {
			ticker := time.NewTicker(f.heartbeat)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := stream.Ping(ctx); err != nil {
						f.logger.Debug("heartbeat failed", zap.Error(err))
						cancel()
						return
					}
				}
			}
		}()
	}

	for {
		payload, err := stream.Recv(ctx)
		if err != nil {
			return err
		}
		fn(payload)
	}
}
