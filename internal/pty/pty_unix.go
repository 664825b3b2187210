//go:build !windows
// +build !windows

package pty

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	creackpty "github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// unixPTY wraps the master side of a PTY pair.
type unixPTY struct {
	master *os.File
}

// CloneReader duplicates the master descriptor so the read loop owns its own
// fd independently of resize and close on the master.
func (p *unixPTY) CloneReader() (io.ReadCloser, error) {
	fd, err := unix.Dup(int(p.master.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to clone PTY reader: %w", err)
	}
	unix.CloseOnExec(fd)
	return os.NewFile(uintptr(fd), p.master.Name()), nil
}

// TakeWriter returns the master as the PTY input writer.
func (p *unixPTY) TakeWriter() (io.Writer, error) {
	return p.master, nil
}

// Resize changes the PTY window size.
func (p *unixPTY) Resize(cols, rows uint16) error {
	return creackpty.Setsize(p.master, &creackpty.Winsize{Rows: rows, Cols: cols})
}

// Close releases the master descriptor.
func (p *unixPTY) Close() error {
	return p.master.Close()
}

// unixChild is a waitable handle on the spawned process.
type unixChild struct {
	cmd *exec.Cmd
}

// Wait blocks until the process exits and reports its status. A signal
// termination is mapped to 128+signo with the signal name attached.
func (c *unixChild) Wait() (ExitStatus, error) {
	err := c.cmd.Wait()
	if err == nil {
		return ExitStatus{Code: 0}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		status := ExitStatus{Code: exitErr.ExitCode()}
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			status.Code = 128 + int(ws.Signal())
			status.Signal = unix.SignalName(ws.Signal())
		}
		return status, nil
	}

	return ExitStatus{}, err
}

// Kill terminates the process. A process that already exited is not an error.
func (c *unixChild) Kill() error {
	if c.cmd.Process == nil {
		return nil
	}
	err := c.cmd.Process.Kill()
	if err == nil || errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// PID returns the process id.
func (c *unixChild) PID() int {
	if c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// Start allocates a PTY pair, spawns the command attached to the slave side
// and returns the master plus a waitable child handle. The slave descriptor
// is closed in the parent once the child holds it.
func Start(opts StartOptions) (PTY, Child, error) {
	master, slave, err := creackpty.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open PTY pair: %w", err)
	}

	if opts.InitialCols > 0 && opts.InitialRows > 0 {
		ws := &creackpty.Winsize{Rows: opts.InitialRows, Cols: opts.InitialCols}
		if err := creackpty.Setsize(master, ws); err != nil {
			master.Close()
			slave.Close()
			return nil, nil, fmt.Errorf("failed to set window size: %w", err)
		}
	}

	cmd := exec.Command(opts.Command, opts.Args...)
	cmd.Env = opts.Env
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave

	// New session with the slave as controlling terminal.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}

	if err := cmd.Start(); err != nil {
		master.Close()
		slave.Close()
		return nil, nil, fmt.Errorf("failed to start process: %w", err)
	}

	slave.Close()

	return &unixPTY{master: master}, &unixChild{cmd: cmd}, nil
}
