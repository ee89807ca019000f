package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/mheg/internal/ir"
)

// parseRef reads an object reference:
//
//	1                          object 1 of the enclosing group
//	"~//menu"                  the group itself (object 0)
//	{group: "menu", number: 3}
func parseRef(v cue.Value) (ir.ObjectReference, error) {
	var r ir.ObjectReference
	switch v.IncompleteKind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return r, formatCUEError(err)
		}
		r.Number = int(n)
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return r, formatCUEError(err)
		}
		r.Group = ir.GroupID(s)
	case cue.StructKind:
		if g := v.LookupPath(cue.ParsePath("group")); g.Exists() {
			s, err := g.String()
			if err != nil {
				return r, formatCUEError(err)
			}
			r.Group = ir.GroupID(s)
		}
		if n := v.LookupPath(cue.ParsePath("number")); n.Exists() {
			num, err := n.Int64()
			if err != nil {
				return r, formatCUEError(err)
			}
			r.Number = int(num)
		}
	default:
		return r, &CompileError{
			Field:   "ref",
			Message: fmt.Sprintf("expected int, string or {group, number}, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
	if r.Number < 0 {
		return r, &CompileError{Field: "ref", Message: "object number must not be negative", Pos: v.Pos()}
	}
	return r, nil
}

// parseGenericRef reads a reference that may be {indirect: ref}.
func parseGenericRef(v cue.Value) (ir.GenericRef, error) {
	if in := v.LookupPath(cue.ParsePath("indirect")); in.Exists() {
		r, err := parseRef(in)
		if err != nil {
			return ir.GenericRef{}, err
		}
		return ir.GenericRef{Ref: r, Indirect: true}, nil
	}
	r, err := parseRef(v)
	if err != nil {
		return ir.GenericRef{}, err
	}
	return ir.Direct(r), nil
}

// parseParam reads an action argument: a literal, {ref: ref} for an
// object reference literal, {content: name} for a content reference
// literal or {indirect: ref} for the value of a variable.
func parseParam(v cue.Value) (ir.Param, error) {
	if v.IncompleteKind() == cue.StructKind {
		if r := v.LookupPath(cue.ParsePath("ref")); r.Exists() {
			ref, err := parseRef(r)
			if err != nil {
				return ir.Param{}, err
			}
			return ir.Lit(ir.ObjectRef(ref)), nil
		}
		if c := v.LookupPath(cue.ParsePath("content")); c.Exists() {
			s, err := c.String()
			if err != nil {
				return ir.Param{}, formatCUEError(err)
			}
			return ir.Lit(ir.ContentRef(s)), nil
		}
		if in := v.LookupPath(cue.ParsePath("indirect")); in.Exists() {
			ref, err := parseRef(in)
			if err != nil {
				return ir.Param{}, err
			}
			g := ir.Direct(ref)
			return ir.Param{Indirect: &g}, nil
		}
		return ir.Param{}, &CompileError{
			Field:   "args",
			Message: "argument struct needs ref, content or indirect",
			Pos:     v.Pos(),
		}
	}

	lit, err := parseLiteral(v)
	if err != nil {
		return ir.Param{}, err
	}
	return ir.Lit(lit), nil
}

// parseLiteral reads a bool, int or string. Floats are rejected.
func parseLiteral(v cue.Value) (ir.Value, error) {
	switch k := v.IncompleteKind(); k {
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Int(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.OctetString(s), nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   "value",
			Message: "float values are forbidden, use int instead",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("unsupported value kind: %v", k),
			Pos:     v.Pos(),
		}
	}
}

// parseTypedValue reads a variable's original value.
func parseTypedValue(v cue.Value, kind ir.Kind) (ir.Value, error) {
	switch kind {
	case ir.KindObjectRef:
		r, err := parseRef(v)
		if err != nil {
			return nil, err
		}
		return ir.ObjectRef(r), nil
	case ir.KindContentRef:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.ContentRef(s), nil
	}

	lit, err := parseLiteral(v)
	if err != nil {
		return nil, err
	}
	if lit.Kind() != kind {
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("expected %s, got %s", kind, lit.Kind()),
			Pos:     v.Pos(),
		}
	}
	return lit, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredInt(v cue.Value, field string) (int64, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return 0, &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	n, err := f.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

func optionalBool(v cue.Value, field string, def bool) (bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return def, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}
