package engine

import (
	"sync"

	"github.com/roach88/mheg/internal/ir"
)

type stimulusKind int

const (
	// stimulusKey is a key press from the input source.
	stimulusKey stimulusKind = iota + 1
	// stimulusTimer is a firing reported by the timer service.
	stimulusTimer
	// stimulusRedraw asks for the whole scene to be repainted.
	stimulusRedraw
)

// stimulus is one external occurrence waiting to be applied on the loop
// goroutine.
type stimulus struct {
	kind    stimulusKind
	key     ir.Key
	owner   ir.ObjectID
	group   *Group // instance the timer was set on; compared, never read off the loop
	timerID int
	handle  ir.TimerHandle
}

// inbox is a thread-safe FIFO of stimuli.
//
// Input sources and timer callbacks post from their own goroutines; only
// the run loop takes. The signal channel lets the loop block on the inbox
// and its context at once.
type inbox struct {
	mu     sync.Mutex
	items  []stimulus
	closed bool
	signal chan struct{} // Signals availability (buffered, size 1)
}

func newInbox() *inbox {
	return &inbox{
		items:  make([]stimulus, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Post appends s. Safe from any goroutine.
// Returns false if the inbox is closed.
func (q *inbox) Post(s stimulus) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, s)

	// Non-blocking; the buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryTake removes the oldest stimulus without blocking.
func (q *inbox) TryTake() (stimulus, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return stimulus{}, false
	}

	s := q.items[0]
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return s, true
}

// Wait returns a channel that signals when stimuli may be available.
func (q *inbox) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued stimuli.
func (q *inbox) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting stimuli and wakes any waiter.
func (q *inbox) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Closed reports whether Close has been called.
func (q *inbox) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
