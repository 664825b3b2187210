package session

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/termhost/backend/internal/model"
)

const (
	defaultTerm      = "xterm-256color"
	defaultColorTerm = "truecolor"
	defaultLocale    = "en_US.UTF-8"

	termProgram        = "TermHost"
	termProgramVersion = "1.0.0"
)

// resolveShell returns the shell to spawn: the SHELL environment variable
// when set, otherwise a platform default.
func resolveShell() string {
	if shell := strings.TrimSpace(os.Getenv("SHELL")); shell != "" {
		return shell
	}
	if runtime.GOOS == "darwin" {
		return "/bin/zsh"
	}
	return "/bin/bash"
}

// shellAcceptsLoginFlag reports whether the shell understands -l. Matched by
// executable basename, case-insensitive, covering the bash/zsh/sh/fish/ksh
// family.
func shellAcceptsLoginFlag(shellPath string) bool {
	name := strings.ToLower(filepath.Base(shellPath))
	for _, known := range []string{"zsh", "bash", "fish", "ksh", "sh"} {
		if strings.Contains(name, known) {
			return true
		}
	}
	return false
}

// resolveWorkingDirectory picks the directory the shell starts in: the
// explicit request when given, otherwise the user's home directory. The
// result must exist and be a directory.
func resolveWorkingDirectory(requested string) (string, error) {
	path := requested
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: unable to determine home directory", model.ErrInvalidWorkingDirectory)
		}
		path = home
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: not accessible: %s", model.ErrInvalidWorkingDirectory, path)
	}

	return path, nil
}

// terminalEnvironment builds the child environment: the current process
// environment with terminal defaults filled in where unset and the fixed
// program markers applied on top. Caller-visible overrides of TERM,
// COLORTERM and the locale variables survive.
func terminalEnvironment(shellPath string) []string {
	env := os.Environ()
	env = setDefaultEnv(env, "TERM", defaultTerm)
	env = setDefaultEnv(env, "COLORTERM", defaultColorTerm)
	env = setDefaultEnv(env, "LC_ALL", defaultLocale)
	env = setDefaultEnv(env, "LANG", defaultLocale)
	env = setEnv(env, "TERM_PROGRAM", termProgram)
	env = setEnv(env, "TERM_PROGRAM_VERSION", termProgramVersion)
	env = setEnv(env, "TERMHOST_DESKTOP", "1")
	env = setEnv(env, "SHELL", shellPath)
	return env
}

// setEnv sets key=value, replacing an existing entry.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}

// setDefaultEnv sets key=value only when the key is unset or empty.
func setDefaultEnv(env []string, key, value string) []string {
	prefix := key + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) && len(kv) > len(prefix) {
			return env
		}
	}
	return setEnv(env, key, value)
}
