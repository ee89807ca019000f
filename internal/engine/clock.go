package engine

import (
	"sync/atomic"
	"time"
)

// Clock is the monotonic logical clock stamping trace entries.
//
// Trace entries carry seq numbers rather than timestamps so recorded
// timelines compare byte-for-byte across runs.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// WallClock supplies wall-clock time for absolute timers, content
// timeouts and the boot search.
type WallClock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
