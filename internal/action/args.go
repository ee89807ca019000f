package action

import (
	"fmt"

	"github.com/roach88/mheg/internal/engine"
	"github.com/roach88/mheg/internal/ir"
)

func invalidArg(a ir.Action, format string, args ...any) error {
	return &engine.RuntimeError{
		Code:    engine.ErrCodeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
		Action:  a.Name,
	}
}

func param(a ir.Action, i int) (ir.Param, error) {
	if i >= len(a.Args) {
		return ir.Param{}, invalidArg(a, "missing argument %d", i)
	}
	return a.Args[i], nil
}

// value evaluates argument i.
func value(e *engine.Engine, a ir.Action, i int, group ir.GroupID) (ir.Value, error) {
	p, err := param(a, i)
	if err != nil {
		return nil, err
	}
	v, err := e.ParamValue(p, group)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, invalidArg(a, "argument %d has no value", i)
	}
	return v, nil
}

func intArg(e *engine.Engine, a ir.Action, i int, group ir.GroupID) (int64, error) {
	v, err := value(e, a, i, group)
	if err != nil {
		return 0, err
	}
	n, ok := v.(ir.Int)
	if !ok {
		return 0, invalidArg(a, "argument %d: expected integer, got %s", i, v.Kind())
	}
	return int64(n), nil
}

func boolArg(e *engine.Engine, a ir.Action, i int, group ir.GroupID) (bool, error) {
	v, err := value(e, a, i, group)
	if err != nil {
		return false, err
	}
	b, ok := v.(ir.Bool)
	if !ok {
		return false, invalidArg(a, "argument %d: expected boolean, got %s", i, v.Kind())
	}
	return bool(b), nil
}

func octetsArg(e *engine.Engine, a ir.Action, i int, group ir.GroupID) (string, error) {
	v, err := value(e, a, i, group)
	if err != nil {
		return "", err
	}
	s, ok := v.(ir.OctetString)
	if !ok {
		return "", invalidArg(a, "argument %d: expected octet string, got %s", i, v.Kind())
	}
	return string(s), nil
}

// objectArg looks up the object argument i refers to. A literal is an
// object reference; an indirect argument names an ObjectRef variable.
func objectArg(e *engine.Engine, a ir.Action, i int, group ir.GroupID) (engine.Object, error) {
	p, err := param(a, i)
	if err != nil {
		return nil, err
	}
	if p.Indirect != nil && !p.Indirect.Indirect {
		return e.Target(ir.GenericRef{Ref: p.Indirect.Ref, Indirect: true}, group)
	}

	v, err := value(e, a, i, group)
	if err != nil {
		return nil, err
	}
	r, ok := v.(ir.ObjectRef)
	if !ok {
		return nil, invalidArg(a, "argument %d: expected object reference, got %s", i, v.Kind())
	}
	return e.Lookup(ir.ObjectReference(r), group)
}

// destArg returns the variable an output argument names. Output arguments
// must be indirect.
func destArg(e *engine.Engine, a ir.Action, i int, group ir.GroupID) (engine.Object, error) {
	p, err := param(a, i)
	if err != nil {
		return nil, err
	}
	if p.Indirect == nil {
		return nil, invalidArg(a, "argument %d: expected a variable reference", i)
	}
	return e.Target(*p.Indirect, group)
}

// variable resolves the action target and checks it is a variable of kind.
func variable(e *engine.Engine, a ir.Action, group ir.GroupID, kind ir.Kind) (*engine.Variable, error) {
	o, err := e.Target(a.Target, group)
	if err != nil {
		return nil, err
	}
	v, ok := o.(*engine.Variable)
	if !ok || v.Kind() != kind {
		return nil, engine.NewTypeMismatch(o.ID(), kind.String()+" variable", string(o.Class()))
	}
	return v, nil
}
