package engine

import (
	"sync"
	"time"

	"github.com/roach88/mheg/internal/ir"
)

// TimerService schedules one-shot callbacks. fire runs on an arbitrary
// goroutine with the handle Schedule returned.
type TimerService interface {
	Schedule(delay time.Duration, fire func(ir.TimerHandle)) ir.TimerHandle
	Cancel(h ir.TimerHandle)
}

// SystemTimers is a TimerService backed by time.AfterFunc.
//
// Thread-safety: all methods are safe for concurrent use.
type SystemTimers struct {
	mu     sync.Mutex
	next   ir.TimerHandle
	timers map[ir.TimerHandle]*time.Timer
}

// NewSystemTimers creates an empty SystemTimers.
func NewSystemTimers() *SystemTimers {
	return &SystemTimers{timers: make(map[ir.TimerHandle]*time.Timer)}
}

// Schedule implements TimerService.
func (s *SystemTimers) Schedule(delay time.Duration, fire func(ir.TimerHandle)) ir.TimerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	h := s.next
	s.timers[h] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, h)
		s.mu.Unlock()
		fire(h)
	})
	return h
}

// Cancel implements TimerService. Cancelling a fired or unknown handle is a
// no-op.
func (s *SystemTimers) Cancel(h ir.TimerHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[h]; ok {
		t.Stop()
		delete(s.timers, h)
	}
}

// Pending returns the number of scheduled, unfired timers.
func (s *SystemTimers) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
