package session

// EventType discriminates the messages on a session's event stream.
type EventType string

const (
	// EventTypeData carries a batch of decoded terminal output.
	EventTypeData EventType = "data"

	// EventTypeExit is the final event of a stream, emitted exactly once.
	EventTypeExit EventType = "exit"
)

// Event is one message on a session's event stream.
type Event struct {
	Type     EventType `json:"type"`
	Data     string    `json:"data,omitempty"`
	ExitCode *int      `json:"exitCode,omitempty"`
	Signal   string    `json:"signal,omitempty"`
}

// DataEvent builds an output batch event.
func DataEvent(data string) Event {
	return Event{Type: EventTypeData, Data: data}
}

// ExitEvent builds the terminal exit event. signal is empty when the process
// exited normally.
func ExitEvent(exitCode int, signal string) Event {
	return Event{Type: EventTypeExit, ExitCode: &exitCode, Signal: signal}
}

// Host is the consumer of session events: each session has a uniquely named
// stream keyed by its id. Emit returns an error when the host has gone away;
// background workers stop on the first failed emit instead of retrying.
type Host interface {
	Emit(sessionID string, ev Event) error
}
