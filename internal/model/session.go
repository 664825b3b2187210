package model

import "time"

// SessionStatus represents the lifecycle state of a terminal session record.
type SessionStatus string

const (
	SessionStatusRunning SessionStatus = "running"
	SessionStatusExited  SessionStatus = "exited"
)

// Session is the persisted record of a terminal session. The in-memory
// registry is the runtime authority; these records exist for listing and
// post-mortem inspection.
type Session struct {
	ID            string        `json:"id"`
	Shell         string        `json:"shell"`
	Workdir       string        `json:"workdir"`
	Cols          uint16        `json:"cols"`
	Rows          uint16        `json:"rows"`
	Status        SessionStatus `json:"status"`
	ExitCode      *int          `json:"exitCode,omitempty"`
	Signal        string        `json:"signal,omitempty"`
	PID           *int          `json:"pid,omitempty"`
	RecordingPath string        `json:"recordingPath,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// CreateTerminalRequest carries the parameters for creating (or restarting)
// a terminal session.
type CreateTerminalRequest struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
	Cwd  string `json:"cwd"`
}
