package engine

import (
	"slices"

	"github.com/roach88/mheg/internal/ir"
)

// pushVisible puts v on top of the Application's DisplayStack.
func (e *Engine) pushVisible(v *Visible) {
	if e.app == nil {
		return
	}
	e.app.display = append(e.app.display, v)
	e.surface.AddVisible(v)
	e.redraw(v)
}

func (e *Engine) removeVisible(v *Visible) {
	if e.app == nil {
		return
	}
	i := slices.Index(e.app.display, v)
	if i < 0 {
		return
	}
	e.app.display = slices.Delete(e.app.display, i, i+1)
	e.surface.RemoveVisible(v)
	e.redraw(v)
}

func (e *Engine) redraw(v *Visible) {
	pos, size := v.Geometry()
	e.surface.RedrawArea(pos, size)
}

// stackIndex finds o on the DisplayStack.
func (e *Engine) stackIndex(o Object) (*Visible, int, error) {
	v, ok := o.(*Visible)
	if !ok {
		return nil, -1, NewTypeMismatch(o.ID(), "visible", string(o.Class()))
	}
	if e.app == nil {
		return v, -1, nil
	}
	return v, slices.Index(e.app.display, v), nil
}

// BringToFront moves o to the top of the DisplayStack.
func (e *Engine) BringToFront(o Object) error {
	v, i, err := e.stackIndex(o)
	if err != nil || i < 0 {
		return err
	}
	e.app.display = append(slices.Delete(e.app.display, i, i+1), v)
	e.surface.BringToFront(v)
	e.redraw(v)
	return nil
}

// SendToBack moves o to the bottom of the DisplayStack.
func (e *Engine) SendToBack(o Object) error {
	v, i, err := e.stackIndex(o)
	if err != nil || i < 0 {
		return err
	}
	e.app.display = slices.Insert(slices.Delete(e.app.display, i, i+1), 0, v)
	e.surface.SendToBack(v)
	e.redraw(v)
	return nil
}

// PutBefore places o directly in front of ref.
func (e *Engine) PutBefore(o, ref Object) error {
	return e.restack(o, ref, 1)
}

// PutBehind places o directly behind ref.
func (e *Engine) PutBehind(o, ref Object) error {
	return e.restack(o, ref, 0)
}

func (e *Engine) restack(o, ref Object, offset int) error {
	v, i, err := e.stackIndex(o)
	if err != nil || i < 0 {
		return err
	}
	r, j, err := e.stackIndex(ref)
	if err != nil || j < 0 || r == v {
		return err
	}

	stack := slices.Delete(e.app.display, i, i+1)
	j = slices.Index(stack, r)
	e.app.display = slices.Insert(stack, j+offset, v)

	if offset == 1 {
		e.surface.PutBefore(v, r)
	} else {
		e.surface.PutBehind(v, r)
	}
	e.redraw(v)
	return nil
}

// SetPosition moves o and repaints both the old and the new area.
func (e *Engine) SetPosition(o Object, p ir.Point) error {
	v, ok := o.(*Visible)
	if !ok {
		return NewTypeMismatch(o.ID(), "visible", string(o.Class()))
	}
	oldPos, size := v.Geometry()
	v.setPosition(p)
	if v.running {
		e.surface.RedrawArea(oldPos, size)
		e.redraw(v)
	}
	return nil
}

// SetBoxSize resizes o and repaints the union of both boxes.
func (e *Engine) SetBoxSize(o Object, s ir.Size) error {
	v, ok := o.(*Visible)
	if !ok {
		return NewTypeMismatch(o.ID(), "visible", string(o.Class()))
	}
	pos, oldSize := v.Geometry()
	v.setSize(s)
	if v.running {
		e.surface.RedrawArea(pos, ir.Size{W: max(oldSize.W, s.W), H: max(oldSize.H, s.H)})
	}
	return nil
}

// DisplayStack returns the ids on the DisplayStack, back to front.
func (e *Engine) DisplayStack() []ir.ObjectID {
	if e.app == nil {
		return nil
	}
	ids := make([]ir.ObjectID, len(e.app.display))
	for i, v := range e.app.display {
		ids[i] = v.id
	}
	return ids
}
