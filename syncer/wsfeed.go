package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

// Message is the frame format of the viewer socket.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	MessageState = "state"
	MessagePing  = "ping"
	MessagePong  = "pong"

	MessageRequestState = "request_state"
)

// WebSocketSource follows another instance's /ws endpoint, so a viewer can
// chain off an admin without a shared store.
type WebSocketSource struct {
	url    string
	dialer *websocket.Dialer
}

func NewWebSocketSource(url string) *WebSocketSource {
	return &WebSocketSource{url: url, dialer: websocket.DefaultDialer}
}

func (s *WebSocketSource) Name() string { return "websocket" }

func (s *WebSocketSource) Open(ctx context.Context) (Stream, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.url, err)
	}
	return &wsStream{conn: conn}, nil
}

type wsStream struct {
	conn *websocket.Conn
}

func (w *wsStream) Recv(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MessageState {
			continue
		}
		return msg.Payload, nil
	}
}

func (w *wsStream) Ping(ctx context.Context) error {
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

func (w *wsStream) Close() error {
	return w.conn.Close()
}
