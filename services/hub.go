package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quipcup/metrics"
	"quipcup/models"
	"quipcup/store"
	"quipcup/syncer"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Hub pushes the current document to every connected viewer socket.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	reader     syncer.Reader
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

type Client struct {
	hub    *Hub
	id     string
	socket *websocket.Conn
	send   chan []byte
}

func NewHub(reader syncer.Reader, logger *zap.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		reader:     reader,
		logger:     logger.Named("hub"),
		metrics:    m,
	}
}

// Run serves registrations and broadcasts until ctx ends, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	updates, stop := h.reader.Watch()
	defer stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.metrics.ViewerConnected()
			h.logger.Debug("client registered", zap.String("client", client.id), zap.Int("clients", total))
			h.sendState(client, h.reader.Current())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug("client unregistered", zap.String("client", client.id), zap.Int("clients", total))

		case doc, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			data, err := stateMessage(doc)
			if err != nil {
				h.logger.Error("encode state message", zap.Error(err))
				continue
			}
			h.fanOut(data)
		}
	}
}

// drop removes client; the caller holds the write lock.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.metrics.ViewerDisconnected()
}

func (h *Hub) fanOut(data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.logger.Debug("client too slow, dropping", zap.String("client", client.id))
			h.drop(client)
		}
	}
}

func (h *Hub) sendState(client *Client, doc models.Tournament) {
	data, err := stateMessage(doc)
	if err != nil {
		h.logger.Error("encode state message", zap.Error(err))
		return
	}
	h.deliver(client, data)
}

// deliver queues data for one client, dropping it if its buffer is full.
func (h *Hub) deliver(client *Client, data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- data:
	default:
		h.drop(client)
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) RegisterClient(conn *websocket.Conn) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return client
	}

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func stateMessage(doc models.Tournament) ([]byte, error) {
	raw, err := store.Encode(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(syncer.Message{Type: syncer.MessageState, Payload: raw})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", zap.Error(err))
			}
			break
		}

		var msg syncer.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg syncer.Message) {
	switch msg.Type {
	case syncer.MessagePing:
		data, _ := json.Marshal(syncer.Message{Type: syncer.MessagePong})
		c.hub.deliver(c, data)

	case syncer.MessageRequestState:
		c.hub.sendState(c, c.hub.reader.Current())
	}
}
