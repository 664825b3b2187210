package session

import (
	"context"
	"log"
)

// watchExit blocks until the child terminates, reports the exit exactly once
// and removes the session. This is the only path by which a session
// disappears due to natural process death; explicit close/kill go through
// the manager directly.
func (m *Manager) watchExit(id string, child *SharedChild) {
	status, err := child.Wait()
	if err != nil {
		// The wait primitive is not expected to fail; degrade to a generic
		// crash report rather than dropping the exit event.
		log.Printf("session %s: failed to wait for terminal exit: %v", id, err)
		status.Code = 1
		status.Signal = "terminal crashed"
	}

	if emitErr := m.host.Emit(id, ExitEvent(status.Code, status.Signal)); emitErr != nil {
		log.Printf("session %s: failed to emit exit event: %v", id, emitErr)
	}

	// Removal is unconditional: the process is gone, so the registry entry
	// must not outlive it.
	if s, ok := m.registry.Remove(id); ok {
		m.releaseSession(s)
	}

	if m.repo != nil {
		code := status.Code
		if dbErr := m.repo.UpdateExit(context.Background(), id, code, status.Signal); dbErr != nil {
			log.Printf("session %s: failed to record exit: %v", id, dbErr)
		}
	}
}
