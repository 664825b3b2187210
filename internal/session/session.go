// Package session implements the terminal session core: a registry of live
// sessions, the manager that drives their lifecycle, and the per-session
// background workers that stream output and watch for process exit.
package session

import (
	"io"
	"sync"

	"github.com/termhost/backend/internal/logger"
	"github.com/termhost/backend/internal/pty"
)

// Session is one live shell process bound to one PTY. The id is generated at
// creation, never mutated and never reused. A session present in the
// registry always holds valid master, writer and child handles; removal from
// the registry is the single point where resources are torn down.
type Session struct {
	ID string

	master   pty.PTY
	writer   *SharedWriter
	child    *SharedChild
	recorder *logger.AsciinemaLogger // nil when recording is disabled
}

// SharedWriter serializes writes to the PTY input. It is shared between the
// manager's Write operation and any other in-flight caller.
type SharedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSharedWriter wraps w with interior mutual exclusion.
func NewSharedWriter(w io.Writer) *SharedWriter {
	return &SharedWriter{w: w}
}

// Write writes p to the PTY input under the writer lock. Callers may block
// waiting for the lock but not beyond the OS write call.
func (s *SharedWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// SharedChild is the child-process handle shared between the manager and the
// exit watcher. Kill is guarded by the interior lock. Wait is called exactly
// once, by the exit watcher, and does not take the lock: a blocking wait
// holding the lock would deadlock any concurrent kill.
type SharedChild struct {
	mu    sync.Mutex
	child pty.Child
}

// NewSharedChild wraps child with interior mutual exclusion for Kill.
func NewSharedChild(child pty.Child) *SharedChild {
	return &SharedChild{child: child}
}

// Wait blocks until the process terminates. Exit-watcher use only.
func (s *SharedChild) Wait() (pty.ExitStatus, error) {
	return s.child.Wait()
}

// Kill terminates the process, best effort. Killing an already-dead process
// is not an error.
func (s *SharedChild) Kill() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.child.Kill()
}

// PID returns the process id.
func (s *SharedChild) PID() int {
	return s.child.PID()
}
