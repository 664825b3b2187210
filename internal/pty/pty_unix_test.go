//go:build !windows
// +build !windows

package pty

import (
	"strings"
	"testing"
	"time"
)

// readAll drains the reader until the stream ends. A PTY master read reports
// an error once the slave side is gone, which counts as end of stream here.
func readAll(t *testing.T, p PTY) string {
	t.Helper()
	r, err := p.CloneReader()
	if err != nil {
		t.Fatalf("CloneReader failed: %v", err)
	}
	defer r.Close()

	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if err != nil || n == 0 {
			return sb.String()
		}
	}
}

func TestStartRunsCommand(t *testing.T) {
	p, child, err := Start(StartOptions{
		Command:     "/bin/sh",
		Args:        []string{"-c", "printf terminal-ok"},
		InitialCols: 80,
		InitialRows: 24,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Close()

	if child.PID() <= 0 {
		t.Errorf("Expected positive pid, got %d", child.PID())
	}

	output := readAll(t, p)
	if !strings.Contains(output, "terminal-ok") {
		t.Errorf("Expected output to contain %q, got %q", "terminal-ok", output)
	}

	status, err := child.Wait()
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if status.Code != 0 {
		t.Errorf("Expected exit code 0, got %d", status.Code)
	}
	if status.Signal != "" {
		t.Errorf("Expected no signal, got %q", status.Signal)
	}
}

func TestStartNonZeroExit(t *testing.T) {
	p, child, err := Start(StartOptions{
		Command: "/bin/sh",
		Args:    []string{"-c", "exit 3"},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Close()

	status, err := child.Wait()
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if status.Code != 3 {
		t.Errorf("Expected exit code 3, got %d", status.Code)
	}
}

func TestStartSignalExit(t *testing.T) {
	p, child, err := Start(StartOptions{
		Command: "/bin/sh",
		Args:    []string{"-c", "kill -KILL $$"},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Close()

	status, err := child.Wait()
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if status.Code != 137 {
		t.Errorf("Expected exit code 137, got %d", status.Code)
	}
	if status.Signal != "SIGKILL" {
		t.Errorf("Expected signal SIGKILL, got %q", status.Signal)
	}
}

func TestKillTerminatesProcess(t *testing.T) {
	p, child, err := Start(StartOptions{
		Command: "/bin/sh",
		Args:    []string{"-c", "sleep 30"},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Close()

	// Give the shell a moment to start before killing it.
	time.Sleep(50 * time.Millisecond)

	if err := child.Kill(); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}

	status, err := child.Wait()
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if status.Signal != "SIGKILL" {
		t.Errorf("Expected signal SIGKILL, got %q", status.Signal)
	}

	// Killing an already-dead process is not an error.
	if err := child.Kill(); err != nil {
		t.Errorf("Second kill failed: %v", err)
	}
}

func TestStartUnknownCommand(t *testing.T) {
	_, _, err := Start(StartOptions{Command: "/no/such/binary"})
	if err == nil {
		t.Fatal("Expected error for unknown command")
	}
}

func TestResize(t *testing.T) {
	p, child, err := Start(StartOptions{
		Command:     "/bin/sh",
		Args:        []string{"-c", "sleep 30"},
		InitialCols: 80,
		InitialRows: 24,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Close()
	defer child.Kill()

	if err := p.Resize(132, 43); err != nil {
		t.Errorf("Resize failed: %v", err)
	}
}
