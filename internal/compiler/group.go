package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/mheg/internal/ir"
)

// Decoder compiles carousel group files written in CUE. It implements the
// engine's Decoder interface.
//
// A cue.Context is not safe for concurrent use; neither is Decoder.
type Decoder struct {
	ctx *cue.Context
}

// NewDecoder returns a Decoder with a fresh CUE context.
func NewDecoder() *Decoder {
	return &Decoder{ctx: cuecontext.New()}
}

// Decode compiles data, the contents of the file for group id.
func (d *Decoder) Decode(id ir.GroupID, data []byte) (*ir.Group, error) {
	v := d.ctx.CompileBytes(data, cue.Filename(string(id)))
	g, err := CompileGroup(v)
	if err != nil {
		return nil, err
	}
	g.ID = id
	return g, nil
}

// CompileGroup parses a CUE value holding exactly one of the top-level
// fields application or scene:
//
//	scene: {
//		input_event_register: 4
//		ingredients: [
//			{number: 1, class: "integer", value: 0},
//			{number: 2, class: "link", link: {event: "UserInput", data: 15, effect: [
//				{action: "Add", target: 1, args: [1]},
//			]}},
//		]
//	}
func CompileGroup(v cue.Value) (*ir.Group, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	app := v.LookupPath(cue.ParsePath("application"))
	scene := v.LookupPath(cue.ParsePath("scene"))

	g := &ir.Group{}
	var body cue.Value
	switch {
	case app.Exists() && scene.Exists():
		return nil, &CompileError{
			Field:   "group",
			Message: "a file describes either an application or a scene, not both",
			Pos:     v.Pos(),
		}
	case app.Exists():
		g.Kind, body = ir.KindApplication, app
	case scene.Exists():
		g.Kind, body = ir.KindScene, scene
		g.InputEventRegister = ir.RegisterAllKeys
	default:
		return nil, &CompileError{
			Field:   "group",
			Message: "application or scene is required",
			Pos:     v.Pos(),
		}
	}

	var err error
	if g.OnStartUp, err = optionalActions(body, "on_start_up"); err != nil {
		return nil, err
	}
	if g.OnCloseDown, err = optionalActions(body, "on_close_down"); err != nil {
		return nil, err
	}

	if reg := body.LookupPath(cue.ParsePath("input_event_register")); reg.Exists() {
		if g.Kind != ir.KindScene {
			return nil, &CompileError{
				Field:   "input_event_register",
				Message: "only scenes have an input event register",
				Pos:     reg.Pos(),
			}
		}
		n, err := reg.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		g.InputEventRegister = int(n)
	}

	if g.Ingredients, err = parseIngredients(body); err != nil {
		return nil, err
	}
	return g, nil
}

// parseIngredients extracts the ingredient list (optional, may be empty).
func parseIngredients(v cue.Value) ([]ir.Ingredient, error) {
	list := v.LookupPath(cue.ParsePath("ingredients"))
	if !list.Exists() {
		return nil, nil
	}
	iter, err := list.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ir.Ingredient
	for iter.Next() {
		ing, err := parseIngredient(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, ing)
	}
	return out, nil
}

func parseIngredient(v cue.Value) (ir.Ingredient, error) {
	ing := ir.Ingredient{InitiallyActive: true}

	number, err := requiredInt(v, "number")
	if err != nil {
		return ing, err
	}
	ing.Number = int(number)

	class, err := requiredString(v, "class")
	if err != nil {
		return ing, err
	}
	ing.Class = ir.Class(class)

	if ing.InitiallyActive, err = optionalBool(v, "initially_active", true); err != nil {
		return ing, err
	}
	if ing.Shared, err = optionalBool(v, "shared", false); err != nil {
		return ing, err
	}

	if val := v.LookupPath(cue.ParsePath("value")); val.Exists() {
		kind, ok := ing.Class.VariableKind()
		if !ok {
			return ing, &CompileError{
				Field:   "value",
				Message: fmt.Sprintf("%s ingredient cannot carry a value", class),
				Pos:     val.Pos(),
			}
		}
		if ing.Value, err = parseTypedValue(val, kind); err != nil {
			return ing, err
		}
	}

	if c := v.LookupPath(cue.ParsePath("content")); c.Exists() {
		if ing.Content, err = parseContent(c); err != nil {
			return ing, err
		}
	}

	if p := v.LookupPath(cue.ParsePath("position")); p.Exists() {
		x, y, err := parsePair(p, "position")
		if err != nil {
			return ing, err
		}
		ing.Position = ir.Point{X: x, Y: y}
	}
	if s := v.LookupPath(cue.ParsePath("size")); s.Exists() {
		w, h, err := parsePair(s, "size")
		if err != nil {
			return ing, err
		}
		ing.Size = ir.Size{W: w, H: h}
	}

	if l := v.LookupPath(cue.ParsePath("link")); l.Exists() {
		if ing.Link, err = parseLink(l); err != nil {
			return ing, err
		}
	}
	return ing, nil
}

func parseContent(v cue.Value) (*ir.Content, error) {
	c := &ir.Content{}
	inc := v.LookupPath(cue.ParsePath("included"))
	ref := v.LookupPath(cue.ParsePath("referenced"))

	var err error
	switch {
	case inc.Exists() && ref.Exists():
		return nil, &CompileError{
			Field:   "content",
			Message: "content is either included or referenced",
			Pos:     v.Pos(),
		}
	case inc.Exists():
		c.Included, err = inc.String()
	case ref.Exists():
		c.Referenced, err = ref.String()
	default:
		return nil, &CompileError{
			Field:   "content",
			Message: "content needs included or referenced",
			Pos:     v.Pos(),
		}
	}
	if err != nil {
		return nil, formatCUEError(err)
	}
	return c, nil
}

func parsePair(v cue.Value, field string) (int, int, error) {
	iter, err := v.List()
	if err != nil {
		return 0, 0, formatCUEError(err)
	}
	var vals []int
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return 0, 0, formatCUEError(err)
		}
		vals = append(vals, int(n))
	}
	if len(vals) != 2 {
		return 0, 0, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("expected two integers, got %d", len(vals)),
			Pos:     v.Pos(),
		}
	}
	return vals[0], vals[1], nil
}

// parseLink extracts a link condition and its effect.
func parseLink(v cue.Value) (*ir.LinkSpec, error) {
	name, err := requiredString(v, "event")
	if err != nil {
		return nil, err
	}
	et, err := ir.ParseEventType(name)
	if err != nil {
		return nil, &CompileError{Field: "event", Message: err.Error(), Pos: v.Pos()}
	}

	link := &ir.LinkSpec{Condition: ir.LinkCondition{EventType: et}}
	if src := v.LookupPath(cue.ParsePath("source")); src.Exists() {
		if link.Condition.Source, err = parseRef(src); err != nil {
			return nil, err
		}
	}
	if data := v.LookupPath(cue.ParsePath("data")); data.Exists() {
		if link.Condition.Data, err = parseLiteral(data); err != nil {
			return nil, err
		}
	}

	effect := v.LookupPath(cue.ParsePath("effect"))
	if !effect.Exists() {
		return nil, &CompileError{
			Field:   "effect",
			Message: "link effect is required",
			Pos:     v.Pos(),
		}
	}
	if link.Effect, err = parseActions(effect); err != nil {
		return nil, err
	}
	return link, nil
}

func optionalActions(v cue.Value, field string) ([]ir.Action, error) {
	list := v.LookupPath(cue.ParsePath(field))
	if !list.Exists() {
		return nil, nil
	}
	return parseActions(list)
}

func parseActions(v cue.Value) ([]ir.Action, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ir.Action
	for iter.Next() {
		a, err := parseAction(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// parseAction extracts {action, target?, args?}.
func parseAction(v cue.Value) (ir.Action, error) {
	var a ir.Action
	name, err := requiredString(v, "action")
	if err != nil {
		return a, err
	}
	a.Name = name

	if t := v.LookupPath(cue.ParsePath("target")); t.Exists() {
		if a.Target, err = parseGenericRef(t); err != nil {
			return a, err
		}
	}

	if args := v.LookupPath(cue.ParsePath("args")); args.Exists() {
		iter, err := args.List()
		if err != nil {
			return a, formatCUEError(err)
		}
		for iter.Next() {
			p, err := parseParam(iter.Value())
			if err != nil {
				return a, err
			}
			a.Args = append(a.Args, p)
		}
	}
	return a, nil
}
