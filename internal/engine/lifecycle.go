package engine

import (
	"log/slog"

	"github.com/roach88/mheg/internal/ir"
)

// Prepare moves o from Unavailable to Available.
// Groups first prepare their initially active ingredients in order.
// No-op if o is already available.
func (e *Engine) Prepare(o Object) {
	b := o.core()
	if b.available {
		return
	}

	if g, ok := o.(*Group); ok {
		for _, ing := range g.ingredients {
			if ing.core().initiallyActive {
				e.Prepare(ing)
			}
		}
	}

	switch obj := o.(type) {
	case *Variable:
		obj.value = obj.original
	case *Visible:
		obj.setPosition(obj.spec.Position)
		obj.setSize(obj.spec.Size)
	}

	b.available = true
	if b.contentName != "" && b.content == nil {
		b.needsContent = true
		e.requestContent(o, b.contentName)
	}
	e.GenerateEvent(b.id, ir.IsAvailable, nil)
}

// Activate moves o to Running, preparing it first if needed.
// Groups queue their on_start_up actions and activate initially active
// ingredients in order. No-op if o is already running.
func (e *Engine) Activate(o Object) {
	b := o.core()
	if !b.available {
		e.Prepare(o)
	}
	if b.running {
		return
	}

	switch obj := o.(type) {
	case *Group:
		obj.activatedAt = e.wall.Now()
		e.queueList(obj, listStartUp)
		for _, ing := range obj.ingredients {
			if ing.core().initiallyActive {
				e.Activate(ing)
			}
		}
	case *Link:
		e.links = append(e.links, obj)
	case *Visible:
		e.pushVisible(obj)
	}

	b.running = true
	e.GenerateEvent(b.id, ir.IsRunning, nil)
}

// Deactivate moves o from Running back to Available.
// Groups run on_close_down, then deactivate running ingredients in reverse
// order. No-op if o is not running or is already being deactivated.
func (e *Engine) Deactivate(o Object) {
	b := o.core()
	if !b.running || b.stopping {
		return
	}
	b.stopping = true
	defer func() { b.stopping = false }()

	if g, ok := o.(*Group); ok {
		e.executeList(g, listCloseDown)
	}
	e.stop(o)
}

// stop finishes deactivating o after its close-down actions. No-op if one
// of those actions already stopped it.
func (e *Engine) stop(o Object) {
	b := o.core()
	if !b.running {
		return
	}

	switch obj := o.(type) {
	case *Group:
		for i := len(obj.ingredients) - 1; i >= 0; i-- {
			if obj.ingredients[i].Running() {
				e.Deactivate(obj.ingredients[i])
			}
		}
	case *Link:
		e.removeLink(obj)
	case *Visible:
		e.removeVisible(obj)
	}

	b.running = false
	e.GenerateEvent(b.id, ir.IsStopped, nil)
}

// Destroy moves o to Unavailable, deactivating it first if needed.
// Groups destroy available ingredients in reverse order and release their
// timers and display stack. No-op if o is unavailable or is already being
// destroyed.
func (e *Engine) Destroy(o Object) {
	b := o.core()
	if !b.available || b.deleting {
		return
	}
	b.deleting = true
	defer func() { b.deleting = false }()

	switch {
	case b.running && b.stopping:
		e.stop(o)
	case b.running:
		e.Deactivate(o)
	}

	if g, ok := o.(*Group); ok {
		for i := len(g.ingredients) - 1; i >= 0; i-- {
			if g.ingredients[i].Available() {
				e.Destroy(g.ingredients[i])
			}
		}
		e.releaseTimers(g)
		g.display = nil
	}

	e.dropPendingContent(o)
	if b.contentName != "" {
		b.content = nil
	}
	b.needsContent = false
	b.available = false
	e.GenerateEvent(b.id, ir.IsDeleted, nil)
}

func (e *Engine) removeLink(l *Link) {
	for i, x := range e.links {
		if x == l {
			e.links = append(e.links[:i], e.links[i+1:]...)
			return
		}
	}
	slog.Debug("link not in active set", "link", l.id)
}
