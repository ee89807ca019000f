package engine

import (
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/mheg/internal/ir"
)

// timerRecord is one named timer of a group.
type timerRecord struct {
	id       int
	value    int64 // milliseconds as requested
	absolute bool
	handle   ir.TimerHandle
}

// SetTimer sets, resets or cancels timer id of the group owner.
//
// A nil value cancels and removes the timer (no-op if absent); an event
// already in flight is still delivered. Otherwise the delay is value
// milliseconds, or for absolute timers value minus the time elapsed since
// the group was activated, clamped at zero. Resetting an existing timer
// keeps its old handle live in the removed list instead of cancelling it.
func (e *Engine) SetTimer(owner ir.ObjectID, id int, value *int64, absolute bool) error {
	g, err := e.group(owner)
	if err != nil {
		return err
	}

	if value == nil {
		if rec, ok := g.timers[id]; ok {
			e.timers.Cancel(rec.handle)
			delete(g.timers, id)
			slog.Debug("timer cancelled", "group", g.id.Group, "timer", id)
		}
		return nil
	}

	delay := time.Duration(*value) * time.Millisecond
	if absolute {
		delay -= e.wall.Now().Sub(g.activatedAt)
		delay = max(delay, 0)
	}

	rec, exists := g.timers[id]
	if exists {
		g.removed = append(g.removed, rec.handle)
	} else {
		rec = &timerRecord{id: id}
		g.timers[id] = rec
	}
	rec.value = *value
	rec.absolute = absolute
	rec.handle = e.timers.Schedule(delay, e.timerCallback(g, id))

	timersScheduled.Inc()
	slog.Debug("timer set",
		"group", g.id.Group,
		"timer", id,
		"delay", delay,
		"reset", exists,
	)
	return nil
}

// timerCallback posts a firing to the inbox; it runs on the timer
// service's goroutine.
func (e *Engine) timerCallback(g *Group, id int) func(ir.TimerHandle) {
	owner := g.id
	return func(h ir.TimerHandle) {
		e.inbox.Post(stimulus{kind: stimulusTimer, owner: owner, group: g, timerID: id, handle: h})
	}
}

// timerFired applies a firing on the loop goroutine. Firings for a group
// instance that has since been unloaded are dropped, even when the same
// group has been loaded again. The record is removed only if the firing
// handle is the current one; TimerFired is raised either way.
func (e *Engine) timerFired(s stimulus) {
	o, ok := e.registry.lookup(s.owner)
	g, isGroup := o.(*Group)
	if !ok || !isGroup || g != s.group || !g.available {
		slog.Debug("timer fired for unloaded group", "group", s.owner.Group, "timer", s.timerID)
		return
	}

	g.removed = slices.DeleteFunc(g.removed, func(h ir.TimerHandle) bool { return h == s.handle })
	if rec, ok := g.timers[s.timerID]; ok && rec.handle == s.handle {
		delete(g.timers, s.timerID)
	}
	e.GenerateAsyncEvent(g.id, ir.TimerFired, ir.Int(s.timerID))
}

// releaseTimers cancels every live and superseded handle of g.
func (e *Engine) releaseTimers(g *Group) {
	for _, rec := range g.timers {
		e.timers.Cancel(rec.handle)
	}
	for _, h := range g.removed {
		e.timers.Cancel(h)
	}
	clear(g.timers)
	g.removed = nil
}

// TimerCount returns the number of live timer records of group owner.
func (e *Engine) TimerCount(owner ir.ObjectID) int {
	g, err := e.group(owner)
	if err != nil {
		return 0
	}
	return len(g.timers)
}
