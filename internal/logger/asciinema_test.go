package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAsciinemaHeader(t *testing.T) {
	var buf bytes.Buffer
	l := NewAsciinemaLoggerWithWriter(&buf)

	if err := l.WriteHeader(120, 40); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}

	var h map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &h); err != nil {
		t.Fatalf("Header is not valid JSON: %v", err)
	}
	if h["version"] != float64(2) {
		t.Errorf("Expected version 2, got %v", h["version"])
	}
	if h["width"] != float64(120) || h["height"] != float64(40) {
		t.Errorf("Expected 120x40, got %vx%v", h["width"], h["height"])
	}
}

func TestAsciinemaEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewAsciinemaLoggerWithWriter(&buf)

	if err := l.WriteHeader(80, 24); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := l.WriteOutput([]byte("hello\r\n")); err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}
	if err := l.WriteInput([]byte("ls\n")); err != nil {
		t.Fatalf("WriteInput failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}

	checkEvent := func(line, wantKind, wantData string) {
		var ev []interface{}
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("Event line is not valid JSON: %v", err)
		}
		if len(ev) != 3 {
			t.Fatalf("Expected 3-element event, got %d", len(ev))
		}
		if _, ok := ev[0].(float64); !ok {
			t.Errorf("Expected numeric offset, got %T", ev[0])
		}
		if ev[1] != wantKind {
			t.Errorf("Expected kind %q, got %v", wantKind, ev[1])
		}
		if ev[2] != wantData {
			t.Errorf("Expected data %q, got %v", wantData, ev[2])
		}
	}

	checkEvent(lines[1], "o", "hello\r\n")
	checkEvent(lines[2], "i", "ls\n")
}

func TestAsciinemaFileLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cast")

	l, err := NewAsciinemaLogger(path)
	if err != nil {
		t.Fatalf("NewAsciinemaLogger failed: %v", err)
	}
	if err := l.WriteHeader(80, 24); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := l.WriteOutput([]byte("x")); err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Closing twice is fine.
	if err := l.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read recording: %v", err)
	}
	if len(strings.Split(strings.TrimSpace(string(data)), "\n")) != 2 {
		t.Error("Expected header plus one event in recording file")
	}
}
