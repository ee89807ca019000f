package engine

import (
	"sync"

	"github.com/roach88/mheg/internal/ir"
)

// Object is a live MHEG object in the registry.
//
// Objects are never freed individually: they stay registered until their
// whole group is torn down.
type Object interface {
	ID() ir.ObjectID
	Class() ir.Class
	Available() bool
	Running() bool
	core() *base
}

// base carries identity and lifecycle flags shared by every object.
// Invariant: available == false implies running == false.
type base struct {
	id              ir.ObjectID
	class           ir.Class
	owner           *Group // nil for groups
	spec            ir.Ingredient
	initiallyActive bool
	shared          bool

	available    bool
	running      bool
	needsContent bool

	// set while Deactivate or Destroy is running close-down actions and
	// ingredients, so re-entry from those actions is a no-op
	stopping bool
	deleting bool

	contentName string // referenced content, "" when included or none
	content     []byte
}

func (b *base) ID() ir.ObjectID    { return b.id }
func (b *base) Class() ir.Class    { return b.class }
func (b *base) Available() bool    { return b.available }
func (b *base) Running() bool      { return b.running }
func (b *base) NeedsContent() bool { return b.needsContent }
func (b *base) Content() []byte    { return b.content }
func (b *base) core() *base        { return b }

// Link watches for one event pattern and queues its effect on a match.
type Link struct {
	base
	cond   ir.LinkCondition
	effect int // index into the owning group's action arena
}

// Variable holds one typed value, reset to its original on Preparation.
type Variable struct {
	base
	kind     ir.Kind
	original ir.Value
	value    ir.Value
}

// Value returns the variable's current value.
func (v *Variable) Value() ir.Value { return v.value }

// Kind returns the value kind the variable accepts.
func (v *Variable) Kind() ir.Kind { return v.kind }

// Visible is an object that takes part in the DisplayStack.
//
// Position and size may be written by a render or decode worker while the
// loop reads them, so they are the one piece of object state behind a
// mutex.
type Visible struct {
	base

	mu   sync.Mutex
	pos  ir.Point
	size ir.Size
}

// Geometry returns the current position and box size.
func (v *Visible) Geometry() (ir.Point, ir.Size) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pos, v.size
}

func (v *Visible) setPosition(p ir.Point) {
	v.mu.Lock()
	v.pos = p
	v.mu.Unlock()
}

func (v *Visible) setSize(s ir.Size) {
	v.mu.Lock()
	v.size = s
	v.mu.Unlock()
}

// Ingredient is any other object: streams, palettes and the like. It has
// lifecycle and content but no class-specific behavior.
type Ingredient struct {
	base
}

// newObject builds the runtime object for one ingredient of owner.
// Link effects are appended to the owner's action arena.
func newObject(owner *Group, spec ir.Ingredient) Object {
	b := base{
		id:              ir.ObjectID{Group: owner.id.Group, Number: spec.Number},
		class:           spec.Class,
		owner:           owner,
		spec:            spec,
		initiallyActive: spec.InitiallyActive,
		shared:          spec.Shared,
	}
	if spec.Content != nil {
		if spec.Content.Referenced != "" {
			b.contentName = spec.Content.Referenced
		} else {
			b.content = []byte(spec.Content.Included)
		}
	}

	if spec.Class == ir.ClassLink {
		owner.actions = append(owner.actions, spec.Link.Effect)
		return &Link{base: b, cond: spec.Link.Condition, effect: len(owner.actions) - 1}
	}
	if kind, ok := spec.Class.VariableKind(); ok {
		orig := spec.Value
		if orig == nil {
			orig = ir.Zero(kind)
		}
		return &Variable{base: b, kind: kind, original: orig, value: orig}
	}
	if spec.Class.IsVisible() {
		return &Visible{base: b, pos: spec.Position, size: spec.Size}
	}
	return &Ingredient{base: b}
}
