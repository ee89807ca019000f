package engine

import (
	"log/slog"
	"slices"

	"github.com/roach88/mheg/internal/ir"
)

// AsyncEvent is one queued asynchronous event.
type AsyncEvent struct {
	Source ir.ObjectID
	Type   ir.EventType
	Data   ir.Value
}

// queuedAction is a handle to one action of a group's action arena.
// group is both the arena owner and the context internal references
// resolve against.
type queuedAction struct {
	group ir.GroupID
	list  int
	index int
}

// GenerateEvent matches an event against every active link now. Each
// matching link appends its whole effect list, in order, to the temp
// queue, tagged with the link's own group.
func (e *Engine) GenerateEvent(source ir.ObjectID, t ir.EventType, data ir.Value) {
	mode := "sync"
	if t.IsAsync() {
		mode = "async"
	}
	eventsGenerated.WithLabelValues(t.String(), mode).Inc()
	e.record(ir.TraceEvent{
		Kind:      ir.TraceKindEvent,
		Source:    source,
		EventType: t,
		Async:     t.IsAsync(),
		Data:      data,
	})

	for _, l := range e.links {
		if !e.matches(l, source, t, data) {
			continue
		}
		linksFired.Inc()
		slog.Debug("link matched",
			"link", l.id,
			"event", t,
			"source", source,
			"actions", len(e.effect(l)),
		)
		for i := range e.effect(l) {
			e.temp = append(e.temp, queuedAction{group: l.id.Group, list: l.effect, index: i})
		}
	}
}

// GenerateAsyncEvent appends an event to the async queue tail.
// Values are immutable, so the queue owns its copy of source and data.
func (e *Engine) GenerateAsyncEvent(source ir.ObjectID, t ir.EventType, data ir.Value) {
	e.async = append(e.async, AsyncEvent{Source: source, Type: t, Data: data})
	asyncQueueDepth.Set(float64(len(e.async)))
}

// Emit routes an event by the fixed sync/async classification.
func (e *Engine) Emit(source ir.ObjectID, t ir.EventType, data ir.Value) {
	if t.IsAsync() {
		e.GenerateAsyncEvent(source, t, data)
		return
	}
	e.GenerateEvent(source, t, data)
}

// ProcessEvents is the dispatch step. Actions already in the temp queue
// drain first; then each async event is matched and everything it
// triggers runs before the next event is taken.
//
// The main queue must be empty on entry.
func (e *Engine) ProcessEvents() {
	if len(e.main) != 0 {
		violation("main action queue holds %d entries at dispatch start", len(e.main))
	}

	e.drainActions()
	for len(e.async) > 0 {
		ev := e.async[0]
		e.async[0] = AsyncEvent{}
		e.async = e.async[1:]
		asyncQueueDepth.Set(float64(len(e.async)))

		e.GenerateEvent(ev.Source, ev.Type, ev.Data)
		e.drainActions()
	}
}

// drainActions moves temp into main and executes until main is empty.
// After each action, whatever it queued goes in front of the rest.
func (e *Engine) drainActions() {
	e.main, e.temp = e.temp, nil
	for len(e.main) > 0 {
		head := e.main[0]
		e.main = e.main[1:]

		e.executeAction(head)

		if len(e.temp) > 0 {
			e.main = append(e.temp, e.main...)
			e.temp = nil
		}
	}
	e.main = nil
}

// queueList appends every action of one of g's lists to the temp queue.
func (e *Engine) queueList(g *Group, list int) {
	for i := range g.actions[list] {
		e.temp = append(e.temp, queuedAction{group: g.id.Group, list: list, index: i})
	}
}

// executeList runs every action of one of g's lists immediately.
func (e *Engine) executeList(g *Group, list int) {
	for i := range g.actions[list] {
		e.executeAction(queuedAction{group: g.id.Group, list: list, index: i})
	}
}

// resolveAction finds the action a handle points at. The handle is stale
// if its group was torn down since it was queued.
func (e *Engine) resolveAction(qa queuedAction) (ir.Action, bool) {
	o, ok := e.registry.lookup(ir.ObjectID{Group: qa.group})
	if !ok {
		return ir.Action{}, false
	}
	g, ok := o.(*Group)
	if !ok || qa.list >= len(g.actions) || qa.index >= len(g.actions[qa.list]) {
		return ir.Action{}, false
	}
	return g.actions[qa.list][qa.index], true
}

func (e *Engine) executeAction(qa queuedAction) {
	a, ok := e.resolveAction(qa)
	if !ok {
		slog.Debug("dropping action of unloaded group", "group", qa.group)
		return
	}

	actionsExecuted.WithLabelValues(a.Name).Inc()
	e.record(ir.TraceEvent{
		Kind:   ir.TraceKindAction,
		Action: a.Name,
		Group:  qa.group,
	})

	if err := e.executor.Execute(e, a, qa.group); err != nil {
		slog.Warn("action failed",
			"action", a.Name,
			"group", qa.group,
			"error", err,
		)
	}
}

func (e *Engine) effect(l *Link) []ir.Action {
	if g := l.owner; g != nil && l.effect < len(g.actions) {
		return g.actions[l.effect]
	}
	return nil
}

// flushAll discards every queued event and action.
func (e *Engine) flushAll() {
	e.async = nil
	e.main = nil
	e.temp = nil
	asyncQueueDepth.Set(0)
}

// flushForeign discards queued events and actions of every group but keep.
func (e *Engine) flushForeign(keep ir.GroupID) {
	e.async = slices.DeleteFunc(e.async, func(ev AsyncEvent) bool {
		return ev.Source.Group != keep
	})
	foreign := func(qa queuedAction) bool { return qa.group != keep }
	e.main = slices.DeleteFunc(e.main, foreign)
	e.temp = slices.DeleteFunc(e.temp, foreign)
	asyncQueueDepth.Set(float64(len(e.async)))
}

func (e *Engine) record(ev ir.TraceEvent) {
	ev.Seq = e.clock.Next()
	if e.trace != nil {
		e.trace.Record(ev)
	}
}
