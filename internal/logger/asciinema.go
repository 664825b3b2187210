// Package logger records terminal sessions in asciinema v2 JSON-Lines format.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// header is the first line of an asciinema v2 recording.
type header struct {
	Version   int   `json:"version"`
	Width     int   `json:"width"`
	Height    int   `json:"height"`
	Timestamp int64 `json:"timestamp"`
}

// event is one recorded line: [time_offset, event_type, data].
type event struct {
	offset float64
	kind   string // "o" for output, "i" for input
	data   string
}

func (e event) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.offset, e.kind, e.data})
}

// AsciinemaLogger writes an asciinema v2 recording of one session. Safe for
// concurrent use; the output pump and the input path both write to it.
type AsciinemaLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	file      *os.File // set only when the logger owns the file
	startTime time.Time
}

// NewAsciinemaLogger creates a recorder writing to filePath.
func NewAsciinemaLogger(filePath string) (*AsciinemaLogger, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}
	return &AsciinemaLogger{
		writer:    file,
		file:      file,
		startTime: time.Now(),
	}, nil
}

// NewAsciinemaLoggerWithWriter creates a recorder writing to w. Used in tests.
func NewAsciinemaLoggerWithWriter(w io.Writer) *AsciinemaLogger {
	return &AsciinemaLogger{writer: w, startTime: time.Now()}
}

// WriteHeader writes the recording header. Call once, before any event.
func (l *AsciinemaLogger) WriteHeader(cols, rows int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(header{
		Version:   2,
		Width:     cols,
		Height:    rows,
		Timestamp: l.startTime.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// WriteOutput records a batch of terminal output.
func (l *AsciinemaLogger) WriteOutput(data []byte) error {
	return l.writeEvent("o", data)
}

// WriteInput records bytes written to the terminal.
func (l *AsciinemaLogger) WriteInput(data []byte) error {
	return l.writeEvent("i", data)
}

func (l *AsciinemaLogger) writeEvent(kind string, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(event{
		offset: time.Since(l.startTime).Seconds(),
		kind:   kind,
		data:   string(data),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := l.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// Close closes the recording file when the logger owns one.
func (l *AsciinemaLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}
