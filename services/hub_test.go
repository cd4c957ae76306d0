package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quipcup/models"
	"quipcup/store"
	"quipcup/syncer"
)

type fakeReader struct {
	mu      sync.Mutex
	current models.Tournament
	updates chan models.Tournament
}

func newFakeReader() *fakeReader {
	return &fakeReader{current: models.NewTournament(), updates: make(chan models.Tournament, 1)}
}

func (f *fakeReader) Current() models.Tournament {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current.Clone()
}

func (f *fakeReader) Watch() (<-chan models.Tournament, func()) {
	return f.updates, func() {}
}

func (f *fakeReader) set(doc models.Tournament) {
	f.mu.Lock()
	f.current = doc
	f.mu.Unlock()
	f.updates <- doc
}

func startHub(t *testing.T, reader syncer.Reader) (*Hub, string) {
	t.Helper()
	hub := NewHub(reader, zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.RegisterClient(conn)
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) syncer.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg syncer.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func readState(t *testing.T, conn *websocket.Conn) models.Tournament {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, syncer.MessageState, msg.Type)
	doc, err := store.Decode(msg.Payload)
	require.NoError(t, err)
	return doc
}

func TestHubSendsStateOnConnect(t *testing.T) {
	reader := newFakeReader()
	hub, url := startHub(t, reader)
	conn := dial(t, url)

	doc := readState(t, conn)
	assert.Equal(t, models.DefaultTournamentName, doc.TournamentName)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestHubBroadcastsUpdates(t *testing.T) {
	reader := newFakeReader()
	hub, url := startHub(t, reader)
	first := dial(t, url)
	second := dial(t, url)
	readState(t, first)
	readState(t, second)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	next := models.NewTournament()
	next.CurrentPhase = "game_1"
	reader.set(next)

	assert.Equal(t, "game_1", readState(t, first).CurrentPhase)
	assert.Equal(t, "game_1", readState(t, second).CurrentPhase)
}

func TestHubAnswersPingAndStateRequests(t *testing.T) {
	reader := newFakeReader()
	_, url := startHub(t, reader)
	conn := dial(t, url)
	readState(t, conn)

	require.NoError(t, conn.WriteJSON(syncer.Message{Type: syncer.MessagePing}))
	assert.Equal(t, syncer.MessagePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(syncer.Message{Type: syncer.MessageRequestState}))
	assert.Equal(t, syncer.MessageState, readMessage(t, conn).Type)
}

func TestHubDropsClosedClients(t *testing.T) {
	reader := newFakeReader()
	hub, url := startHub(t, reader)
	conn := dial(t, url)
	readState(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
