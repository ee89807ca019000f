package testutil

import (
	"slices"
	"sync"
	"time"

	"github.com/roach88/mheg/internal/ir"
)

// ScheduledTimer is one timer handed to a FakeTimers.
type ScheduledTimer struct {
	Handle    ir.TimerHandle
	Delay     time.Duration
	Due       time.Time
	Cancelled bool
	Fired     bool
	fire      func(ir.TimerHandle)
}

// FakeTimers is a timer service that fires only when told to.
//
// Timers are due at clock.Now() + delay when scheduled; FireDue fires every
// due timer in due order, Fire fires one handle regardless of time.
//
// Thread-safety: All methods are safe for concurrent use. Callbacks run on
// the caller's goroutine without the lock held.
type FakeTimers struct {
	mu     sync.Mutex
	clock  *ManualClock
	next   ir.TimerHandle
	timers []*ScheduledTimer
}

// NewFakeTimers creates a timer service reading clock.
func NewFakeTimers(clock *ManualClock) *FakeTimers {
	return &FakeTimers{clock: clock}
}

// Schedule records a timer and returns its handle.
func (f *FakeTimers) Schedule(delay time.Duration, fire func(ir.TimerHandle)) ir.TimerHandle {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	f.timers = append(f.timers, &ScheduledTimer{
		Handle: f.next,
		Delay:  delay,
		Due:    f.clock.Now().Add(delay),
		fire:   fire,
	})
	return f.next
}

// Cancel marks a timer cancelled so it never fires.
func (f *FakeTimers) Cancel(h ir.TimerHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t := f.find(h); t != nil && !t.Fired {
		t.Cancelled = true
	}
}

// Fire fires one live timer. Returns false if h is unknown, cancelled or
// already fired.
func (f *FakeTimers) Fire(h ir.TimerHandle) bool {
	f.mu.Lock()
	t := f.find(h)
	if t == nil || t.Cancelled || t.Fired {
		f.mu.Unlock()
		return false
	}
	t.Fired = true
	f.mu.Unlock()

	t.fire(h)
	return true
}

// FireDue fires every live timer due at or before the clock's reading, in
// due order. Returns the number fired.
func (f *FakeTimers) FireDue() int {
	now := f.clock.Now()

	f.mu.Lock()
	var due []*ScheduledTimer
	for _, t := range f.timers {
		if !t.Cancelled && !t.Fired && !t.Due.After(now) {
			due = append(due, t)
		}
	}
	slices.SortStableFunc(due, func(a, b *ScheduledTimer) int { return a.Due.Compare(b.Due) })
	for _, t := range due {
		t.Fired = true
	}
	f.mu.Unlock()

	for _, t := range due {
		t.fire(t.Handle)
	}
	return len(due)
}

// Live returns the timers that are neither cancelled nor fired.
func (f *FakeTimers) Live() []ScheduledTimer {
	f.mu.Lock()
	defer f.mu.Unlock()

	var live []ScheduledTimer
	for _, t := range f.timers {
		if !t.Cancelled && !t.Fired {
			live = append(live, *t)
		}
	}
	return live
}

// All returns every timer ever scheduled, in schedule order.
func (f *FakeTimers) All() []ScheduledTimer {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := make([]ScheduledTimer, len(f.timers))
	for i, t := range f.timers {
		all[i] = *t
	}
	return all
}

func (f *FakeTimers) find(h ir.TimerHandle) *ScheduledTimer {
	for _, t := range f.timers {
		if t.Handle == h {
			return t
		}
	}
	return nil
}
