// Package buffer provides a bounded byte buffer for output history replay.
package buffer

import "sync"

// RingBuffer keeps the most recent bytes up to a fixed capacity, discarding
// the oldest data on overflow. It caches terminal output so a consumer that
// subscribes to a session mid-stream can be brought up to date.
type RingBuffer struct {
	mu       sync.RWMutex
	data     []byte
	capacity int
}

// NewRingBuffer creates a buffer holding at most capacity bytes.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer{
		data:     make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// Write appends p, evicting the oldest bytes when the buffer would overflow.
// Implements io.Writer; the write never fails.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	if len(p) >= rb.capacity {
		rb.data = append(rb.data[:0], p[len(p)-rb.capacity:]...)
		return len(p), nil
	}

	if overflow := len(rb.data) + len(p) - rb.capacity; overflow > 0 {
		rb.data = append(rb.data[:0], rb.data[overflow:]...)
	}
	rb.data = append(rb.data, p...)

	return len(p), nil
}

// ReadAll returns a copy of the buffered bytes.
func (rb *RingBuffer) ReadAll() []byte {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if len(rb.data) == 0 {
		return nil
	}
	out := make([]byte, len(rb.data))
	copy(out, rb.data)
	return out
}

// Len returns the number of buffered bytes.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return len(rb.data)
}

// Cap returns the buffer capacity.
func (rb *RingBuffer) Cap() int {
	return rb.capacity
}
