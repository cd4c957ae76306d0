package syncer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quipcup/models"
	"quipcup/store"
)

func TestRedisFeedEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	remote := store.NewRedisRemote(client)

	feed := NewFeed(NewRedisSource(remote), zap.NewNop(), WithHeartbeat(0))
	v := NewViewer(models.NewTournament(), zap.NewNop(), nil)
	go v.Run(ctx)
	unsubscribe := v.AttachFeed(ctx, feed)
	defer unsubscribe()

	require.Eventually(t, func() bool { return feed.State() == Open }, 2*time.Second, 5*time.Millisecond)

	p := NewPublisher(nil, nil, remote, zap.NewNop(), nil)
	go p.Run(ctx)
	p.Publish(ctx, named("Over Redis"))

	require.Eventually(t, func() bool { return v.Current().TournamentName == "Over Redis" }, 2*time.Second, 10*time.Millisecond)

	snap := Load(ctx, remote, nil, zap.NewNop())
	assert.Equal(t, FromRemote, snap.Origin)
	assert.Equal(t, "Over Redis", snap.Doc.TournamentName)
}

func TestRedisFeedReadsStoredDocumentOnOpen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	remote := store.NewRedisRemote(client)
	require.NoError(t, remote.Write(ctx, encoded(t, named("Written while away"))))

	feed := NewFeed(NewRedisSource(remote), zap.NewNop(), WithHeartbeat(0))
	v := NewViewer(models.NewTournament(), zap.NewNop(), nil)
	go v.Run(ctx)
	unsubscribe := v.AttachFeed(ctx, feed)
	defer unsubscribe()

	require.Eventually(t, func() bool { return v.Current().TournamentName == "Written while away" }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketFeed(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(Message{Type: MessagePong})
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"state","payload":{"tournamentName":"Relayed"}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	feed := NewFeed(NewWebSocketSource("ws"+strings.TrimPrefix(srv.URL, "http")), zap.NewNop(), WithHeartbeat(0))
	got := make(chan []byte, 1)
	unsubscribe := feed.Subscribe(context.Background(), func(b []byte) { got <- b })
	defer unsubscribe()

	doc, err := store.Decode([]byte(receive(t, got)))
	require.NoError(t, err)
	assert.Equal(t, "Relayed", doc.TournamentName)
}

type fakeWatcher struct {
	jetstream.KeyWatcher
	updates chan jetstream.KeyValueEntry
	stopped bool
}

func (w *fakeWatcher) Updates() <-chan jetstream.KeyValueEntry { return w.updates }

func (w *fakeWatcher) Stop() error {
	w.stopped = true
	return nil
}

type fakeEntry struct {
	jetstream.KeyValueEntry
	op    jetstream.KeyValueOp
	value []byte
}

func (e *fakeEntry) Operation() jetstream.KeyValueOp { return e.op }
func (e *fakeEntry) Value() []byte                   { return e.value }

type watchKV struct {
	jetstream.KeyValue
	watcher *fakeWatcher
	key     string
}

func (k *watchKV) Watch(ctx context.Context, key string, opts ...jetstream.WatchOpt) (jetstream.KeyWatcher, error) {
	k.key = key
	return k.watcher, nil
}

func TestNATSStreamSkipsMarkersAndDeletes(t *testing.T) {
	w := &fakeWatcher{updates: make(chan jetstream.KeyValueEntry, 4)}
	kv := &watchKV{watcher: w}
	src := NewNATSSource(nil, store.NewNATSRemote(kv))

	stream, err := src.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StorageKey, kv.key)

	wrapped, err := store.Wrap([]byte(`{"tournamentName":"KV"}`))
	require.NoError(t, err)
	w.updates <- nil
	w.updates <- &fakeEntry{op: jetstream.KeyValueDelete}
	w.updates <- &fakeEntry{op: jetstream.KeyValuePut, value: wrapped}

	raw, err := stream.Recv(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"tournamentName":"KV"}`, string(raw))
	assert.NoError(t, stream.Ping(context.Background()))

	require.NoError(t, stream.Close())
	assert.True(t, w.stopped)

	close(w.updates)
	_, err = stream.Recv(context.Background())
	assert.ErrorIs(t, err, ErrStreamClosed)
}
