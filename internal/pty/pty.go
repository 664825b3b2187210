// Package pty provides the pseudo-terminal transport: it allocates a PTY
// pair, spawns a command attached to the slave side and hands back the
// master-side primitives (reader clone, writer, resize) plus a waitable
// child handle.
package pty

import "io"

// StartOptions contains options for starting a command on a fresh PTY.
type StartOptions struct {
	// Command is the executable to run.
	Command string

	// Args are the arguments to pass to the command.
	Args []string

	// Env is the environment for the process. If nil, the current process
	// environment is used.
	Env []string

	// Dir is the working directory for the process.
	Dir string

	// InitialCols and InitialRows set the PTY window size at allocation time.
	InitialCols uint16
	InitialRows uint16
}

// PTY is the master side of an allocated pseudo-terminal pair.
type PTY interface {
	// CloneReader returns an independent reader for the PTY output. The
	// clone has its own file descriptor, so closing the master does not
	// invalidate an in-flight read and vice versa.
	CloneReader() (io.ReadCloser, error)

	// TakeWriter returns the writer for the PTY input. The writer shares
	// the master descriptor; callers serialize access themselves.
	TakeWriter() (io.Writer, error)

	// Resize changes the PTY window size.
	Resize(cols, rows uint16) error

	// Close releases the master descriptor.
	io.Closer
}

// ExitStatus describes how a child process terminated.
type ExitStatus struct {
	// Code is the process exit code. When the process was terminated by a
	// signal the code follows the shell convention 128+signo.
	Code int

	// Signal names the terminating signal, empty for a normal exit.
	Signal string
}

// Child is a handle on the spawned process.
type Child interface {
	// Wait blocks until the process terminates. It must be called exactly
	// once; the session's exit watcher is the sole caller.
	Wait() (ExitStatus, error)

	// Kill terminates the process. Killing an already-finished process is
	// not an error.
	Kill() error

	// PID returns the process id.
	PID() int
}

// StartFunc is the signature of the transport entry point. The session
// manager takes it as a dependency so tests can substitute a fake transport.
type StartFunc func(opts StartOptions) (PTY, Child, error)
