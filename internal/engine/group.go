package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/mheg/internal/ir"
)

// Action arena slots every group reserves before its link effects.
const (
	listStartUp   = 0
	listCloseDown = 1
)

// Group is a live Application or Scene.
type Group struct {
	base
	kind        ir.GroupKind
	ingredients []Object

	// actions is the arena of action lists owned by this group; queue
	// entries point into it by index and never copy actions.
	actions [][]ir.Action

	timers  map[int]*timerRecord
	removed []ir.TimerHandle // superseded handles still able to fire

	display []*Visible // Application only, back to front

	register     int
	cloneCounter int
	activatedAt  time.Time
}

// Kind reports whether g is an Application or a Scene.
func (g *Group) Kind() ir.GroupKind { return g.kind }

// Ingredients returns g's objects in construction order.
func (g *Group) Ingredients() []Object {
	return slices.Clone(g.ingredients)
}

// InputEventRegister returns the Scene's key register.
func (g *Group) InputEventRegister() int { return g.register }

// Materialize builds the live objects of a decoded group and registers
// them. Nothing is registered unless every ingredient was built.
func (e *Engine) Materialize(spec *ir.Group) (*Group, error) {
	if !spec.ID.IsAbsolute() {
		return nil, &RuntimeError{
			Code:    ErrCodeInvalidGroup,
			Message: "group id is not canonical",
			Object:  string(spec.ID),
		}
	}
	if errs := spec.Validate(); len(errs) > 0 {
		return nil, &RuntimeError{
			Code:    ErrCodeInvalidGroup,
			Message: errs[0].Error(),
			Object:  string(spec.ID),
		}
	}
	if _, ok := e.registry.lookup(ir.ObjectID{Group: spec.ID}); ok {
		return nil, &RuntimeError{
			Code:    ErrCodeInvalidGroup,
			Message: "group already loaded",
			Object:  string(spec.ID),
		}
	}

	g := &Group{
		base: base{
			id:              ir.ObjectID{Group: spec.ID},
			class:           ir.Class(spec.Kind),
			initiallyActive: true,
		},
		kind:     spec.Kind,
		actions:  [][]ir.Action{spec.OnStartUp, spec.OnCloseDown},
		timers:   make(map[int]*timerRecord),
		register: spec.InputEventRegister,
	}
	if g.register == 0 {
		g.register = ir.RegisterAllKeys
	}

	for _, ing := range spec.Ingredients {
		g.ingredients = append(g.ingredients, newObject(g, ing))
		g.cloneCounter = max(g.cloneCounter, ing.Number)
	}

	e.registry.add(g)
	for _, o := range g.ingredients {
		e.registry.add(o)
	}

	slog.Debug("group materialized",
		"group", spec.ID,
		"kind", spec.Kind,
		"ingredients", len(g.ingredients),
	)
	return g, nil
}

// unloadGroup removes every object of group id from the registry and
// forgets any pending content they requested.
func (e *Engine) unloadGroup(id ir.GroupID) {
	e.content = slices.DeleteFunc(e.content, func(p pendingContent) bool {
		return p.obj.ID().Group == id
	})
	e.registry.removeGroup(id)
}

// Clone copies ingredient o into its own group under the next clone number,
// registers and prepares it.
func (e *Engine) Clone(o Object) (ir.ObjectID, error) {
	b := o.core()
	g := b.owner
	if g == nil {
		return ir.ObjectID{}, NewTypeMismatch(b.id, "ingredient", string(b.class))
	}
	if g != e.app && g != e.scene {
		return ir.ObjectID{}, &RuntimeError{
			Code:    ErrCodeInvalidArgument,
			Message: "clone source is not in an active group",
			Object:  b.id.String(),
		}
	}
	if b.class == ir.ClassLink {
		return ir.ObjectID{}, NewTypeMismatch(b.id, "clonable ingredient", string(b.class))
	}

	g.cloneCounter++
	spec := b.spec
	spec.Number = g.cloneCounter
	if v, ok := o.(*Variable); ok {
		spec.Value = v.value
	}
	if vis, ok := o.(*Visible); ok {
		spec.Position, spec.Size = vis.Geometry()
	}

	clone := newObject(g, spec)
	g.ingredients = append(g.ingredients, clone)
	e.registry.add(clone)
	e.Prepare(clone)

	slog.Debug("object cloned", "source", b.id, "clone", clone.ID())
	return clone.ID(), nil
}

// String identifies the group in logs.
func (g *Group) String() string {
	return fmt.Sprintf("%s(%s)", g.kind, g.id.Group)
}
