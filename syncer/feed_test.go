package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quipcup/store"
)

type fakeStream struct {
	msgs    chan []byte
	closed  chan struct{}
	once    sync.Once
	mu      sync.Mutex
	pingErr error
	pings   int
}

func newFakeStream() *fakeStream {
	return &fakeStream{msgs: make(chan []byte, 8), closed: make(chan struct{})}
}

func (s *fakeStream) Recv(ctx context.Context) ([]byte, error) {
	select {
	case m := <-s.msgs:
		return m, nil
	case <-s.closed:
		return nil, ErrStreamClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeStream) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pings++
	return s.pingErr
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

type fakeSource struct {
	mu      sync.Mutex
	opens   int
	openErr error
	streams chan *fakeStream
}

func newFakeSource() *fakeSource {
	return &fakeSource{streams: make(chan *fakeStream, 8)}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Open(ctx context.Context) (Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	s := newFakeStream()
	f.streams <- s
	return s, nil
}

func (f *fakeSource) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

func immediately(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

type stateLog struct {
	mu     sync.Mutex
	states []ConnState
}

func (l *stateLog) record(s ConnState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *stateLog) snapshot() []ConnState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ConnState(nil), l.states...)
}

func nextStream(t *testing.T, src *fakeSource) *fakeStream {
	t.Helper()
	select {
	case s := <-src.streams:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no stream opened")
		return nil
	}
}

func receive(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	select {
	case b := <-ch:
		return string(b)
	case <-time.After(2 * time.Second):
		t.Fatal("nothing received")
		return ""
	}
}

type snapshotSource struct {
	*fakeSource
	latest chan []byte
}

func (s *snapshotSource) Latest(ctx context.Context) ([]byte, error) {
	select {
	case raw := <-s.latest:
		return raw, nil
	default:
		return nil, store.ErrNotFound
	}
}

func TestFeedCatchesUpOnEveryOpen(t *testing.T) {
	src := &snapshotSource{fakeSource: newFakeSource(), latest: make(chan []byte, 2)}
	src.latest <- []byte("stored")
	feed := NewFeed(src, zap.NewNop(), WithHeartbeat(0))
	feed.after = immediately

	got := make(chan []byte, 4)
	unsubscribe := feed.Subscribe(context.Background(), func(b []byte) { got <- b })
	defer unsubscribe()

	first := nextStream(t, src.fakeSource)
	assert.Equal(t, "stored", receive(t, got))

	src.latest <- []byte("written during outage")
	first.Close()
	nextStream(t, src.fakeSource)
	assert.Equal(t, "written during outage", receive(t, got))
}

func TestFeedReconnectsAfterDrop(t *testing.T) {
	src := newFakeSource()
	var log stateLog
	feed := NewFeed(src, zap.NewNop(), WithHeartbeat(0), WithStateHook(log.record))
	feed.after = immediately

	got := make(chan []byte, 8)
	unsubscribe := feed.Subscribe(context.Background(), func(b []byte) { got <- b })

	first := nextStream(t, src)
	first.msgs <- []byte("a")
	assert.Equal(t, "a", receive(t, got))
	assert.Equal(t, Open, feed.State())

	first.Close()
	second := nextStream(t, src)
	second.msgs <- []byte("b")
	assert.Equal(t, "b", receive(t, got))

	unsubscribe()
	assert.Equal(t, Disconnected, feed.State())
	assert.True(t, second.isClosed())
	assert.Equal(t, []ConnState{Connecting, Open, Disconnected, Connecting, Open, Disconnected}, log.snapshot())

	// a second call is harmless
	unsubscribe()
}

func TestFeedStopsWhenRetriesExhausted(t *testing.T) {
	src := newFakeSource()
	src.openErr = errors.New("refused")
	feed := NewFeed(src, zap.NewNop(), WithRetry(FixedDelay{MaxAttempts: 2}))
	feed.after = immediately

	unsubscribe := feed.Subscribe(context.Background(), func([]byte) {})
	defer unsubscribe()

	require.Eventually(t, func() bool { return src.openCount() == 3 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return feed.State() == Disconnected }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 3, src.openCount())
}

func TestFeedHeartbeatFailureReconnects(t *testing.T) {
	src := newFakeSource()
	feed := NewFeed(src, zap.NewNop(), WithHeartbeat(5*time.Millisecond))
	feed.after = immediately

	unsubscribe := feed.Subscribe(context.Background(), func([]byte) {})
	defer unsubscribe()

	first := nextStream(t, src)
	first.mu.Lock()
	first.pingErr = errors.New("no pong")
	first.mu.Unlock()

	second := nextStream(t, src)
	assert.True(t, first.isClosed())
	assert.False(t, second.isClosed())
}

func TestFeedUnsubscribeWhileWaitingToRetry(t *testing.T) {
	src := newFakeSource()
	src.openErr = errors.New("refused")
	feed := NewFeed(src, zap.NewNop())
	feed.after = func(time.Duration) <-chan time.Time { return make(chan time.Time) }

	unsubscribe := feed.Subscribe(context.Background(), func([]byte) {})
	require.Eventually(t, func() bool { return src.openCount() == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() { unsubscribe(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unsubscribe blocked")
	}
}

func TestFixedDelay(t *testing.T) {
	d, ok := FixedDelay{Delay: time.Second}.Next(1000)
	assert.True(t, ok)
	assert.Equal(t, time.Second, d)

	_, ok = FixedDelay{MaxAttempts: 1}.Next(1)
	assert.False(t, ok)
}
