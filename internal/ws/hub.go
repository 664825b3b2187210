// Package ws streams terminal session events to WebSocket subscribers.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// MessageType represents the type of WebSocket message.
type MessageType string

const (
	// Client -> Server message types
	MessageTypeStdin  MessageType = "stdin"
	MessageTypeResize MessageType = "resize"
	MessageTypePing   MessageType = "ping"

	// Server -> Client message types
	MessageTypeData    MessageType = "data"
	MessageTypeExit    MessageType = "exit"
	MessageTypeHistory MessageType = "history"
	MessageTypePong    MessageType = "pong"
)

// Message represents a WebSocket message.
type Message struct {
	Type     MessageType `json:"type"`
	Data     string      `json:"data,omitempty"`
	Cols     uint16      `json:"cols,omitempty"`
	Rows     uint16      `json:"rows,omitempty"`
	ExitCode *int        `json:"exitCode,omitempty"`
	Signal   string      `json:"signal,omitempty"`
}

// Client represents a WebSocket client connection.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	mu        sync.Mutex
	closed    bool
}

// NewClient creates a new WebSocket client.
func NewClient(conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

// Send queues a message to be sent to the client. A client too slow to drain
// its queue is closed rather than allowed to stall the session's output.
func (c *Client) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		c.closeLocked()
	}
}

// Close closes the client connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// SessionID returns the session ID associated with this client.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// SendChan returns the send channel for the client.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}

// Hub fans session events out to the WebSocket clients of one session.
type Hub struct {
	sessionID string
	clients   map[*Client]bool
	mu        sync.RWMutex
}

// NewHub creates a new Hub for the given session.
func NewHub(sessionID string) *Hub {
	return &Hub{
		sessionID: sessionID,
		clients:   make(map[*Client]bool),
	}
}

// SessionID returns the session ID for this hub.
func (h *Hub) SessionID() string {
	return h.sessionID
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// Unregister removes a client from the hub and closes it.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()

	client.Close()
}

// Broadcast sends raw bytes to all connected clients.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.Send(data)
	}
}

// BroadcastMessage sends a Message to all connected clients.
func (h *Hub) BroadcastMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections and the hub.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]bool)
	h.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}

// HubManager manages the hubs of all live sessions.
type HubManager struct {
	hubs map[string]*Hub
	mu   sync.RWMutex
}

// NewHubManager creates a new HubManager.
func NewHubManager() *HubManager {
	return &HubManager{
		hubs: make(map[string]*Hub),
	}
}

// GetOrCreate returns an existing hub or creates a new one for the session.
func (m *HubManager) GetOrCreate(sessionID string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[sessionID]; ok {
		return hub
	}

	hub := NewHub(sessionID)
	m.hubs[sessionID] = hub
	return hub
}

// Get returns the hub for the session, or nil if not found.
func (m *HubManager) Get(sessionID string) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[sessionID]
}

// Remove closes and removes the hub for the session.
func (m *HubManager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[sessionID]; ok {
		hub.Close()
		delete(m.hubs, sessionID)
	}
}

// Close closes all hubs.
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, hub := range m.hubs {
		hub.Close()
	}
	m.hubs = make(map[string]*Hub)
}
