package handlers

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/termhost/backend/internal/ws"
)

// WebSocketHandler handles WebSocket upgrade requests for terminal event
// streams.
type WebSocketHandler struct {
	wsHandler *ws.Handler
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(wsHandler *ws.Handler) *WebSocketHandler {
	return &WebSocketHandler{
		wsHandler: wsHandler,
	}
}

// RegisterRoutes registers WebSocket routes on the given router group.
func (h *WebSocketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/terminals/:id/events", h.Events)
}

// Events handles GET /api/terminals/:id/events - upgrades to a WebSocket
// carrying the session's event stream.
func (h *WebSocketHandler) Events(c *gin.Context) {
	sessionID := c.Param("id")

	if err := h.wsHandler.HandleConnection(c.Writer, c.Request, sessionID); err != nil {
		log.Printf("session %s: websocket upgrade failed: %v", sessionID, err)
	}
}
