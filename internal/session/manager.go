package session

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/termhost/backend/internal/logger"
	"github.com/termhost/backend/internal/model"
	"github.com/termhost/backend/internal/pty"
	"github.com/termhost/backend/internal/repository"
)

const (
	defaultCols uint16 = 80
	defaultRows uint16 = 24
)

// Manager is the public-facing orchestrator of terminal sessions. Every
// operation composes the PTY transport, the registry and the per-session
// background workers.
type Manager struct {
	registry  *Registry
	host      Host
	repo      *repository.SessionRepository // optional
	start     pty.StartFunc
	recordDir string // optional, .cast recordings
}

// Config holds configuration for the session manager.
type Config struct {
	// Start is the PTY transport entry point. Defaults to pty.Start.
	Start pty.StartFunc

	// RecordDir, when set, enables asciinema recording of each session to
	// <RecordDir>/<session-id>.cast.
	RecordDir string
}

// NewManager creates a session manager emitting events to host. repo may be
// nil to disable persistence.
func NewManager(host Host, repo *repository.SessionRepository, config Config) *Manager {
	start := config.Start
	if start == nil {
		start = pty.Start
	}
	return &Manager{
		registry:  NewRegistry(),
		host:      host,
		repo:      repo,
		start:     start,
		recordDir: config.RecordDir,
	}
}

// Create resolves the working directory and shell, spawns the shell on a
// fresh PTY sized to the request, registers the session under a new id and
// starts its output pump and exit watcher. No partial session is left
// registered on failure.
func (m *Manager) Create(ctx context.Context, req model.CreateTerminalRequest) (string, error) {
	cols, rows := req.Cols, req.Rows
	if cols == 0 {
		cols = defaultCols
	}
	if rows == 0 {
		rows = defaultRows
	}

	workdir, err := resolveWorkingDirectory(req.Cwd)
	if err != nil {
		return "", err
	}

	shellPath := resolveShell()
	var args []string
	if shellAcceptsLoginFlag(shellPath) {
		args = append(args, "-l")
	}

	master, child, err := m.start(pty.StartOptions{
		Command:     shellPath,
		Args:        args,
		Env:         terminalEnvironment(shellPath),
		Dir:         workdir,
		InitialCols: cols,
		InitialRows: rows,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrSpawnFailed, err)
	}

	sharedChild := NewSharedChild(child)

	reader, err := master.CloneReader()
	if err != nil {
		sharedChild.Kill()
		master.Close()
		return "", fmt.Errorf("%w: %v", model.ErrTransportFailed, err)
	}

	writer, err := master.TakeWriter()
	if err != nil {
		reader.Close()
		sharedChild.Kill()
		master.Close()
		return "", fmt.Errorf("%w: %v", model.ErrTransportFailed, err)
	}

	id := uuid.New().String()

	var recorder *logger.AsciinemaLogger
	var recordingPath string
	if m.recordDir != "" {
		recordingPath = filepath.Join(m.recordDir, id+".cast")
		recorder, err = logger.NewAsciinemaLogger(recordingPath)
		if err != nil {
			log.Printf("session %s: recording disabled: %v", id, err)
			recorder = nil
			recordingPath = ""
		} else if err := recorder.WriteHeader(int(cols), int(rows)); err != nil {
			log.Printf("session %s: recording disabled: %v", id, err)
			recorder.Close()
			recorder = nil
			recordingPath = ""
		}
	}

	s := &Session{
		ID:       id,
		master:   master,
		writer:   NewSharedWriter(writer),
		child:    sharedChild,
		recorder: recorder,
	}

	if m.repo != nil {
		now := time.Now()
		pid := child.PID()
		record := &model.Session{
			ID:            id,
			Shell:         shellPath,
			Workdir:       workdir,
			Cols:          cols,
			Rows:          rows,
			Status:        model.SessionStatusRunning,
			PID:           &pid,
			RecordingPath: recordingPath,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := m.repo.Create(ctx, record); err != nil {
			reader.Close()
			sharedChild.Kill()
			m.releaseSession(s)
			return "", fmt.Errorf("failed to persist session: %w", err)
		}
	}

	m.registry.Insert(s)

	go newOutputPump(id, reader, m.host, recorder).run()
	go m.watchExit(id, sharedChild)

	return id, nil
}

// Write writes raw bytes to the session's PTY input. A write failure leaves
// the session registered; the exit watcher is the sole authority on session
// death.
func (m *Manager) Write(id string, data []byte) error {
	s, ok := m.registry.Lookup(id)
	if !ok {
		return model.ErrSessionNotFound
	}

	if _, err := s.writer.Write(data); err != nil {
		return fmt.Errorf("%w: %v", model.ErrWriteFailed, err)
	}

	if s.recorder != nil {
		if err := s.recorder.WriteInput(data); err != nil {
			log.Printf("session %s: recording write failed: %v", id, err)
		}
	}
	return nil
}

// Resize changes the session's PTY window size. Output buffering state is
// unaffected.
func (m *Manager) Resize(id string, cols, rows uint16) error {
	s, ok := m.registry.Lookup(id)
	if !ok {
		return model.ErrSessionNotFound
	}

	if err := s.master.Resize(cols, rows); err != nil {
		return fmt.Errorf("%w: %v", model.ErrResizeFailed, err)
	}
	return nil
}

// Close removes the session from the registry and kills the child, best
// effort. Closing an unknown or already-removed session is a no-op.
func (m *Manager) Close(id string) error {
	if s, ok := m.registry.Remove(id); ok {
		if err := s.child.Kill(); err != nil {
			log.Printf("session %s: kill failed: %v", id, err)
		}
		m.releaseSession(s)
	}
	return nil
}

// Restart closes the session and creates a fresh one. The old id is
// invalidated; callers must resubscribe to events under the returned id.
func (m *Manager) Restart(ctx context.Context, id string, req model.CreateTerminalRequest) (string, error) {
	m.Close(id)
	return m.Create(ctx, req)
}

// ForceKill closes one session when id is given, or every currently
// registered session when id is empty. Sessions created after the snapshot
// is taken are not guaranteed to be included.
func (m *Manager) ForceKill(id string) error {
	if id != "" {
		return m.Close(id)
	}
	for _, sid := range m.registry.IDs() {
		m.Close(sid)
	}
	return nil
}

// Has reports whether id is currently registered.
func (m *Manager) Has(id string) bool {
	_, ok := m.registry.Lookup(id)
	return ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.registry.Len()
}

// releaseSession tears down the resources of a session already removed from
// the registry. The cloned reader is owned and closed by the pump.
func (m *Manager) releaseSession(s *Session) {
	s.master.Close()
	if s.recorder != nil {
		s.recorder.Close()
	}
}
