package domain

import "sync"

// OutputTailSize is how much captured process output is kept for failure
// diagnostics.
const OutputTailSize = 4 * 1024

// TailBuffer is an io.Writer keeping only the last N bytes written. It is
// safe for concurrent writes, since stdout and stderr are drained by
// separate goroutines.
type TailBuffer struct {
	mu   sync.Mutex
	buf  []byte
	max  int
	full bool
}

// NewTailBuffer creates a TailBuffer retaining up to max bytes.
func NewTailBuffer(max int) *TailBuffer {
	return &TailBuffer{max: max}
}

// Write appends p, discarding the oldest bytes beyond the retention limit.
func (t *TailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(p) >= t.max {
		t.buf = append(t.buf[:0], p[len(p)-t.max:]...)
		t.full = true
		return len(p), nil
	}

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
		t.full = true
	}
	return len(p), nil
}

// String returns the retained tail.
func (t *TailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
