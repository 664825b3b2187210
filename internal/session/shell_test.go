package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/termhost/backend/internal/model"
)

func TestShellAcceptsLoginFlag(t *testing.T) {
	tests := []struct {
		shell string
		want  bool
	}{
		{"/bin/bash", true},
		{"/bin/zsh", true},
		{"/usr/bin/fish", true},
		{"/bin/ksh", true},
		{"/bin/sh", true},
		{"/usr/local/bin/ZSH", true},
		{"/opt/homebrew/bin/bash-5.2", true},
		{"/usr/bin/nu", false},
		{"/usr/bin/pwsh", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := shellAcceptsLoginFlag(tt.shell); got != tt.want {
			t.Errorf("shellAcceptsLoginFlag(%q) = %v, want %v", tt.shell, got, tt.want)
		}
	}
}

func TestResolveShell(t *testing.T) {
	t.Run("SHELL environment wins", func(t *testing.T) {
		t.Setenv("SHELL", "/opt/shells/mysh")
		if got := resolveShell(); got != "/opt/shells/mysh" {
			t.Errorf("Expected /opt/shells/mysh, got %s", got)
		}
	})

	t.Run("falls back to platform default", func(t *testing.T) {
		t.Setenv("SHELL", "")
		got := resolveShell()
		if got != "/bin/bash" && got != "/bin/zsh" {
			t.Errorf("Expected a platform default shell, got %s", got)
		}
	})

	t.Run("whitespace-only SHELL is ignored", func(t *testing.T) {
		t.Setenv("SHELL", "   ")
		got := resolveShell()
		if got != "/bin/bash" && got != "/bin/zsh" {
			t.Errorf("Expected a platform default shell, got %s", got)
		}
	})
}

func TestResolveWorkingDirectory(t *testing.T) {
	t.Run("explicit directory", func(t *testing.T) {
		dir := t.TempDir()
		got, err := resolveWorkingDirectory(dir)
		if err != nil {
			t.Fatalf("resolveWorkingDirectory failed: %v", err)
		}
		if got != dir {
			t.Errorf("Expected %s, got %s", dir, got)
		}
	})

	t.Run("empty falls back to home", func(t *testing.T) {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skipf("No home directory: %v", err)
		}
		got, err := resolveWorkingDirectory("")
		if err != nil {
			t.Fatalf("resolveWorkingDirectory failed: %v", err)
		}
		if got != home {
			t.Errorf("Expected %s, got %s", home, got)
		}
	})

	t.Run("missing directory rejected", func(t *testing.T) {
		_, err := resolveWorkingDirectory("/no/such/directory")
		if !errors.Is(err, model.ErrInvalidWorkingDirectory) {
			t.Errorf("Expected ErrInvalidWorkingDirectory, got %v", err)
		}
	})

	t.Run("regular file rejected", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
		_, err := resolveWorkingDirectory(file)
		if !errors.Is(err, model.ErrInvalidWorkingDirectory) {
			t.Errorf("Expected ErrInvalidWorkingDirectory, got %v", err)
		}
	})
}

func envValue(env []string, key string) (string, bool) {
	prefix := key + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			return kv[len(prefix):], true
		}
	}
	return "", false
}

func TestTerminalEnvironment(t *testing.T) {
	t.Run("markers always applied", func(t *testing.T) {
		env := terminalEnvironment("/bin/bash")

		for key, want := range map[string]string{
			"TERM_PROGRAM":         termProgram,
			"TERM_PROGRAM_VERSION": termProgramVersion,
			"TERMHOST_DESKTOP":     "1",
			"SHELL":                "/bin/bash",
		} {
			if got, ok := envValue(env, key); !ok || got != want {
				t.Errorf("Expected %s=%s, got %q (present=%v)", key, want, got, ok)
			}
		}
	})

	t.Run("terminal defaults filled when unset", func(t *testing.T) {
		t.Setenv("TERM", "")
		t.Setenv("COLORTERM", "")
		env := terminalEnvironment("/bin/bash")

		if got, _ := envValue(env, "TERM"); got != defaultTerm {
			t.Errorf("Expected TERM=%s, got %q", defaultTerm, got)
		}
		if got, _ := envValue(env, "COLORTERM"); got != defaultColorTerm {
			t.Errorf("Expected COLORTERM=%s, got %q", defaultColorTerm, got)
		}
	})

	t.Run("existing TERM survives", func(t *testing.T) {
		t.Setenv("TERM", "screen-256color")
		env := terminalEnvironment("/bin/bash")

		if got, _ := envValue(env, "TERM"); got != "screen-256color" {
			t.Errorf("Expected TERM=screen-256color, got %q", got)
		}
	})

	t.Run("SHELL override replaces inherited value", func(t *testing.T) {
		t.Setenv("SHELL", "/bin/old-shell")
		env := terminalEnvironment("/usr/bin/fish")

		if got, _ := envValue(env, "SHELL"); got != "/usr/bin/fish" {
			t.Errorf("Expected SHELL=/usr/bin/fish, got %q", got)
		}
		// No duplicate entry for the replaced key.
		count := 0
		for _, kv := range env {
			if strings.HasPrefix(kv, "SHELL=") {
				count++
			}
		}
		if count != 1 {
			t.Errorf("Expected exactly one SHELL entry, got %d", count)
		}
	})
}
