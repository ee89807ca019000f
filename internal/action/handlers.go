package action

import (
	"github.com/roach88/mheg/internal/engine"
	"github.com/roach88/mheg/internal/ir"
)

// TestVariable comparison operators.
const (
	TestEqual          = 1
	TestNotEqual       = 2
	TestLess           = 3
	TestLessOrEqual    = 4
	TestGreater        = 5
	TestGreaterOrEqual = 6
)

// setTimer: target group; args timer id, optional value in ms, optional
// absolute flag. Without a value the timer is cancelled.
func setTimer(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	owner, err := e.ResolveRef(a.Target, group)
	if err != nil {
		return err
	}
	id, err := intArg(e, a, 0, group)
	if err != nil {
		return err
	}
	if len(a.Args) < 2 {
		return e.SetTimer(owner, int(id), nil, false)
	}

	ms, err := intArg(e, a, 1, group)
	if err != nil {
		return err
	}
	absolute := false
	if len(a.Args) > 2 {
		if absolute, err = boolArg(e, a, 2, group); err != nil {
			return err
		}
	}
	return e.SetTimer(owner, int(id), &ms, absolute)
}

func transitionTo(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	id, err := e.ResolveRef(a.Target, group)
	if err != nil {
		return err
	}
	return e.TransitionTo(id.Ref(), group)
}

func quit(e *engine.Engine, _ ir.Action, _ ir.GroupID) error {
	e.Quit()
	return nil
}

func launch(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	id, err := e.ResolveRef(a.Target, group)
	if err != nil {
		return err
	}
	return e.Launch(id.Ref(), group)
}

func spawn(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	id, err := e.ResolveRef(a.Target, group)
	if err != nil {
		return err
	}
	return e.Spawn(id.Ref(), group)
}

// retune: args service locator.
func retune(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	service, err := octetsArg(e, a, 0, group)
	if err != nil {
		return err
	}
	e.Retune(service)
	return nil
}

// onTarget adapts a lifecycle operation to a Handler.
func onTarget(op func(*engine.Engine, engine.Object)) Handler {
	return func(e *engine.Engine, a ir.Action, group ir.GroupID) error {
		o, err := e.Target(a.Target, group)
		if err != nil {
			return err
		}
		op(e, o)
		return nil
	}
}

// sendEvent: target source object; args event type (name or number),
// optional event data.
func sendEvent(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	o, err := e.Target(a.Target, group)
	if err != nil {
		return err
	}
	v, err := value(e, a, 0, group)
	if err != nil {
		return err
	}

	var t ir.EventType
	switch ev := v.(type) {
	case ir.OctetString:
		if t, err = ir.ParseEventType(string(ev)); err != nil {
			return invalidArg(a, "%v", err)
		}
	case ir.Int:
		t = ir.EventType(ev)
	}
	if !t.Valid() {
		return invalidArg(a, "unknown event type %s", ir.FormatValue(v))
	}

	var data ir.Value
	if len(a.Args) > 1 {
		if data, err = value(e, a, 1, group); err != nil {
			return err
		}
	}
	e.Emit(o.ID(), t, data)
	return nil
}

func setVariable(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	o, err := e.Target(a.Target, group)
	if err != nil {
		return err
	}
	v, err := value(e, a, 0, group)
	if err != nil {
		return err
	}
	return e.SetVariable(o, v)
}

// testVariable: args operator, comparison value. Raises a synchronous
// TestEvent carrying the result. Only integers are ordered.
func testVariable(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	o, err := e.Target(a.Target, group)
	if err != nil {
		return err
	}
	v, ok := o.(*engine.Variable)
	if !ok {
		return engine.NewTypeMismatch(o.ID(), "variable", string(o.Class()))
	}
	op, err := intArg(e, a, 0, group)
	if err != nil {
		return err
	}
	other, err := value(e, a, 1, group)
	if err != nil {
		return err
	}
	if other.Kind() != v.Kind() {
		return engine.NewTypeMismatch(o.ID(), v.Kind().String(), other.Kind().String())
	}

	var result bool
	switch op {
	case TestEqual:
		result = ir.Equal(v.Value(), other)
	case TestNotEqual:
		result = !ir.Equal(v.Value(), other)
	default:
		x, xok := v.Value().(ir.Int)
		y, yok := other.(ir.Int)
		if !xok || !yok {
			return invalidArg(a, "operator %d needs integers", op)
		}
		switch op {
		case TestLess:
			result = x < y
		case TestLessOrEqual:
			result = x <= y
		case TestGreater:
			result = x > y
		case TestGreaterOrEqual:
			result = x >= y
		default:
			return invalidArg(a, "unknown operator %d", op)
		}
	}

	e.GenerateEvent(o.ID(), ir.TestEvent, ir.Bool(result))
	return nil
}

// arithmetic builds an integer variable update. op reports false on
// division by zero.
func arithmetic(op func(a, b int64) (int64, bool)) Handler {
	return func(e *engine.Engine, a ir.Action, group ir.GroupID) error {
		v, err := variable(e, a, group, ir.KindInt)
		if err != nil {
			return err
		}
		operand, err := intArg(e, a, 0, group)
		if err != nil {
			return err
		}
		result, ok := op(int64(v.Value().(ir.Int)), operand)
		if !ok {
			return invalidArg(a, "division by zero")
		}
		return e.SetVariable(v, ir.Int(result))
	}
}

func appendOctets(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	v, err := variable(e, a, group, ir.KindOctetString)
	if err != nil {
		return err
	}
	suffix, err := octetsArg(e, a, 0, group)
	if err != nil {
		return err
	}
	return e.SetVariable(v, v.Value().(ir.OctetString)+ir.OctetString(suffix))
}

// storePersistent: target boolean result variable; args file name, then
// the values to store.
func storePersistent(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	result, err := variable(e, a, group, ir.KindBool)
	if err != nil {
		return err
	}
	name, err := octetsArg(e, a, 0, group)
	if err != nil {
		return err
	}

	vals := make([]ir.Value, 0, len(a.Args)-1)
	for i := 1; i < len(a.Args); i++ {
		v, err := value(e, a, i, group)
		if err != nil {
			return err
		}
		vals = append(vals, v)
	}

	e.StorePersistent(e.Context(), name, vals)
	return e.SetVariable(result, ir.Bool(true))
}

// readPersistent: target boolean result variable; args file name, then
// one variable reference per stored value. The result is false when the
// record is missing or does not fit the variables.
func readPersistent(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	result, err := variable(e, a, group, ir.KindBool)
	if err != nil {
		return err
	}
	name, err := octetsArg(e, a, 0, group)
	if err != nil {
		return err
	}

	vals, ok := e.ReadPersistent(name)
	if !ok || len(vals) != len(a.Args)-1 {
		return e.SetVariable(result, ir.Bool(false))
	}
	for i, v := range vals {
		dest, err := destArg(e, a, i+1, group)
		if err != nil {
			return err
		}
		if err := e.SetVariable(dest, v); err != nil {
			return e.SetVariable(result, ir.Bool(false))
		}
	}
	return e.SetVariable(result, ir.Bool(true))
}

func onVisible(op func(*engine.Engine, engine.Object) error) Handler {
	return func(e *engine.Engine, a ir.Action, group ir.GroupID) error {
		o, err := e.Target(a.Target, group)
		if err != nil {
			return err
		}
		return op(e, o)
	}
}

// relative: args the reference visible.
func relative(op func(e *engine.Engine, o, ref engine.Object) error) Handler {
	return func(e *engine.Engine, a ir.Action, group ir.GroupID) error {
		o, err := e.Target(a.Target, group)
		if err != nil {
			return err
		}
		ref, err := objectArg(e, a, 0, group)
		if err != nil {
			return err
		}
		return op(e, o, ref)
	}
}

func setPosition(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	o, err := e.Target(a.Target, group)
	if err != nil {
		return err
	}
	x, err := intArg(e, a, 0, group)
	if err != nil {
		return err
	}
	y, err := intArg(e, a, 1, group)
	if err != nil {
		return err
	}
	return e.SetPosition(o, ir.Point{X: int(x), Y: int(y)})
}

func setBoxSize(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	o, err := e.Target(a.Target, group)
	if err != nil {
		return err
	}
	w, err := intArg(e, a, 0, group)
	if err != nil {
		return err
	}
	h, err := intArg(e, a, 1, group)
	if err != nil {
		return err
	}
	if w < 0 || h < 0 {
		return invalidArg(a, "negative box size %dx%d", w, h)
	}
	return e.SetBoxSize(o, ir.Size{W: int(w), H: int(h)})
}

func setData(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	o, err := e.Target(a.Target, group)
	if err != nil {
		return err
	}
	v, err := value(e, a, 0, group)
	if err != nil {
		return err
	}
	return e.SetData(o, v)
}

// clone: args the ObjectRef variable receiving the clone's reference.
func clone(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	o, err := e.Target(a.Target, group)
	if err != nil {
		return err
	}
	dest, err := destArg(e, a, 0, group)
	if err != nil {
		return err
	}
	id, err := e.Clone(o)
	if err != nil {
		return err
	}
	return e.SetVariable(dest, ir.ObjectRef(id.Ref()))
}
