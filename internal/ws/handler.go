package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/termhost/backend/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP connections and bridges WebSocket clients to
// terminal sessions.
type Handler struct {
	service *Service
	manager *session.Manager
}

// NewHandler creates a new WebSocket handler.
func NewHandler(service *Service, manager *session.Manager) *Handler {
	return &Handler{
		service: service,
		manager: manager,
	}
}

// HandleConnection handles a new WebSocket connection for a session. The
// client first receives the cached output history, then the live event
// stream. Incoming stdin and resize messages are forwarded to the session.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request, sessionID string) error {
	if !h.manager.Has(sessionID) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	hub := h.service.Hub(sessionID)
	client := NewClient(conn, sessionID)
	hub.Register(client)

	h.sendHistory(client, sessionID)

	go h.writePump(client)
	go h.readPump(client, hub)

	return nil
}

// sendHistory sends the buffered output to the client for hot restore.
func (h *Handler) sendHistory(client *Client, sessionID string) {
	history := h.service.History(sessionID)
	if len(history) == 0 {
		return
	}

	msg := &Message{
		Type: MessageTypeHistory,
		Data: string(history),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal history message: %v", err)
		return
	}

	client.Send(data)
}

// handleMessage routes one incoming message from a client.
func (h *Handler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case MessageTypeStdin:
		if msg.Data == "" {
			return
		}
		if err := h.manager.Write(client.SessionID(), []byte(msg.Data)); err != nil {
			log.Printf("session %s: stdin write failed: %v", client.SessionID(), err)
		}

	case MessageTypeResize:
		if msg.Cols == 0 || msg.Rows == 0 {
			return
		}
		if err := h.manager.Resize(client.SessionID(), msg.Cols, msg.Rows); err != nil {
			log.Printf("session %s: resize failed: %v", client.SessionID(), err)
		}

	case MessageTypePing:
		data, err := json.Marshal(&Message{Type: MessageTypePong})
		if err != nil {
			return
		}
		client.Send(data)
	}
}

// readPump pumps messages from the WebSocket connection to the session.
func (h *Handler) readPump(client *Client, hub *Hub) {
	defer func() {
		hub.Unregister(client)
		client.Conn().Close()
	}()

	client.Conn().SetReadLimit(maxMessageSize)
	client.Conn().SetReadDeadline(time.Now().Add(pongWait))
	client.Conn().SetPongHandler(func(string) error {
		client.Conn().SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn().ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Failed to unmarshal message: %v", err)
			continue
		}

		h.handleMessage(client, &msg)
	}
}

// writePump pumps queued messages to the WebSocket connection. Each message
// goes in its own text frame so the peer can parse them independently.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn().Close()
	}()

	for {
		select {
		case message, ok := <-client.SendChan():
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn().WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn().WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(client.SendChan())
			for i := 0; i < n; i++ {
				queuedMsg, ok := <-client.SendChan()
				if !ok {
					return
				}
				client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.Conn().WriteMessage(websocket.TextMessage, queuedMsg); err != nil {
					return
				}
			}
		case <-ticker.C:
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn().WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
