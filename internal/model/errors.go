package model

import "errors"

var (
	// ErrSessionNotFound is returned when an operation references an unknown
	// or already-removed session id.
	ErrSessionNotFound = errors.New("terminal session not found")

	// ErrInvalidWorkingDirectory is returned when neither the requested
	// working directory nor the home directory resolves to an accessible
	// directory.
	ErrInvalidWorkingDirectory = errors.New("invalid working directory")

	// ErrSpawnFailed is returned when the shell process could not be started.
	ErrSpawnFailed = errors.New("failed to spawn shell")

	// ErrTransportFailed is returned when PTY allocation, reader cloning or
	// writer acquisition fails.
	ErrTransportFailed = errors.New("pty transport failure")

	// ErrWriteFailed is returned on an I/O error while writing to a live
	// session. The session stays registered; only the exit watcher removes a
	// session when its process dies.
	ErrWriteFailed = errors.New("failed to write to terminal")

	// ErrResizeFailed is returned when the PTY window size could not be changed.
	ErrResizeFailed = errors.New("failed to resize terminal")

	// ErrUnsupportedPlatform is returned by the PTY transport on platforms
	// without PTY support.
	ErrUnsupportedPlatform = errors.New("platform does not support pseudo-terminals")
)
