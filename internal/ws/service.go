package ws

import (
	"errors"
	"log"
	"sync"

	"github.com/termhost/backend/internal/buffer"
	"github.com/termhost/backend/internal/session"
)

// historyCapacity bounds the per-session output cache used to bring a client
// that connects mid-stream up to date.
const historyCapacity = 64 * 1024

// ErrServiceClosed is returned from Emit after the service has shut down.
// The output pumps treat it as any other delivery failure and stop.
var ErrServiceClosed = errors.New("event service closed")

// Service delivers session events to WebSocket subscribers. It implements
// session.Host: the output pumps and exit watchers call Emit, and connected
// clients receive the events through their session's hub.
type Service struct {
	hubs *HubManager

	mu      sync.Mutex
	history map[string]*buffer.RingBuffer
	ended   map[string]struct{}
	closed  bool
}

// NewService creates a new event delivery service.
func NewService() *Service {
	return &Service{
		hubs:    NewHubManager(),
		history: make(map[string]*buffer.RingBuffer),
		ended:   make(map[string]struct{}),
	}
}

// Emit broadcasts a session event to the session's subscribers. Output data
// is also appended to the session's history cache; an exit event releases the
// hub and the cache after delivery. The output pump and the exit watcher run
// independently, so a final data batch may arrive after the exit event; such
// data is discarded rather than allowed to recreate torn-down session state.
func (s *Service) Emit(sessionID string, ev session.Event) error {
	switch ev.Type {
	case session.EventTypeData:
		hist, ok, err := s.historyFor(sessionID)
		if err != nil {
			return err
		}
		if !ok {
			// Session already exited; the stream is over.
			return nil
		}
		hist.Write([]byte(ev.Data))

		hub := s.hubs.GetOrCreate(sessionID)
		if err := hub.BroadcastMessage(&Message{Type: MessageTypeData, Data: ev.Data}); err != nil {
			return err
		}
		return nil

	case session.EventTypeExit:
		if hub := s.hubs.Get(sessionID); hub != nil {
			msg := &Message{Type: MessageTypeExit, ExitCode: ev.ExitCode, Signal: ev.Signal}
			if err := hub.BroadcastMessage(msg); err != nil {
				log.Printf("session %s: exit broadcast failed: %v", sessionID, err)
			}
		}
		s.DropSession(sessionID)
		return nil

	default:
		return nil
	}
}

// historyFor returns the session's history buffer, creating it on first use.
// The second return is false when the session has already exited.
func (s *Service) historyFor(sessionID string) (*buffer.RingBuffer, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, ErrServiceClosed
	}
	if _, gone := s.ended[sessionID]; gone {
		return nil, false, nil
	}

	hist, ok := s.history[sessionID]
	if !ok {
		hist = buffer.NewRingBuffer(historyCapacity)
		s.history[sessionID] = hist
	}
	return hist, true, nil
}

// History returns the cached output of the session, or nil when none exists.
func (s *Service) History(sessionID string) []byte {
	s.mu.Lock()
	hist := s.history[sessionID]
	s.mu.Unlock()

	if hist == nil {
		return nil
	}
	return hist.ReadAll()
}

// Hub returns the hub for the session, creating it if needed.
func (s *Service) Hub(sessionID string) *Hub {
	return s.hubs.GetOrCreate(sessionID)
}

// DropSession releases the hub and history of a session and tombstones the
// id so a late data event cannot recreate them. Ids are never reused, so the
// tombstone stays valid forever.
func (s *Service) DropSession(sessionID string) {
	s.mu.Lock()
	delete(s.history, sessionID)
	s.ended[sessionID] = struct{}{}
	s.mu.Unlock()

	s.hubs.Remove(sessionID)
}

// Close shuts down the service. Subsequent Emit calls fail and all connected
// clients are disconnected.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.history = make(map[string]*buffer.RingBuffer)
	s.mu.Unlock()

	s.hubs.Close()
}
