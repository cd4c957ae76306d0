package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quipcup/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // scoreboards are served from anywhere
	},
}

type WebSocketHandler struct {
	hub    *services.Hub
	logger *zap.Logger
}

func NewWebSocketHandler(hub *services.Hub, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger.Named("ws")}
}

// Connect upgrades to a viewer socket. The hub sends the current document
// first and every update after it.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.RegisterClient(conn)
}
