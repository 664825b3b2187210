//go:build windows
// +build windows

package pty

import "github.com/termhost/backend/internal/model"

// Start is not supported on Windows. The session host targets Unix-like
// systems where a controlling terminal can be attached to the child.
func Start(opts StartOptions) (PTY, Child, error) {
	return nil, nil, model.ErrUnsupportedPlatform
}
