package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mheg/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValidGroup(t *testing.T) {
	g := &ir.Group{
		ID:                 "~//s",
		Kind:               ir.KindScene,
		InputEventRegister: ir.RegisterAllKeys,
		Ingredients: []ir.Ingredient{
			{Number: 1, Class: ir.ClassLink, Link: &ir.LinkSpec{
				Condition: ir.LinkCondition{EventType: ir.UserInput, Data: ir.Int(int64(ir.KeyRed))},
				Effect:    []ir.Action{{Name: ir.ActionQuit}},
			}},
		},
	}
	assert.Empty(t, Validate(g))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	g := &ir.Group{
		ID:                 "~//s",
		Kind:               ir.KindScene,
		InputEventRegister: 9,
		OnStartUp:          []ir.Action{{Name: "Explode"}},
		Ingredients: []ir.Ingredient{
			{Number: 1, Class: ir.ClassRectangle, Size: ir.Size{W: -1, H: 2}},
			{Number: 2, Class: ir.ClassLink, Link: &ir.LinkSpec{
				Condition: ir.LinkCondition{EventType: ir.UserInput, Data: ir.Int(99)},
				Effect: []ir.Action{{
					Name: ir.ActionSendEvent,
					Args: []ir.Param{ir.Lit(ir.OctetString("NoSuchEvent"))},
				}},
			}},
			{Number: 3, Class: ir.ClassLink, Link: &ir.LinkSpec{
				Condition: ir.LinkCondition{EventType: ir.TestEvent, Data: ir.Int(1)},
			}},
		},
	}

	errs := Validate(g)
	assert.Equal(t, []string{
		ErrInvalidGroup,    // register
		ErrInvalidGeometry, // size
		ErrInvalidLinkData, // key 99
		ErrInvalidLinkData, // TestEvent data
		ErrUnknownAction,   // Explode
		ErrUnknownEvent,    // NoSuchEvent
	}, codes(errs))
	assert.Equal(t, "~//s", errs[0].Group)
	assert.Equal(t, "on_start_up[0].action", errs[4].Field)
	assert.Equal(t, "ingredients[1].link.effect[0].args[0]", errs[5].Field)
}

func TestValidateCarousel(t *testing.T) {
	app := &ir.Group{
		ID:        "~//a",
		Kind:      ir.KindApplication,
		OnStartUp: []ir.Action{{Name: ir.ActionTransitionTo, Target: ir.Direct(ir.ObjectReference{Group: "menu"})}},
	}
	menu := &ir.Group{
		ID:                 "~//menu",
		Kind:               ir.KindScene,
		InputEventRegister: ir.RegisterAllKeys,
		OnCloseDown: []ir.Action{
			{Name: ir.ActionLaunch, Target: ir.Direct(ir.ObjectReference{Group: "~//other"})},
			{Name: ir.ActionTransitionTo, Target: ir.GenericRef{Ref: ir.ObjectReference{Number: 1}, Indirect: true}},
		},
	}

	errs := ValidateCarousel([]*ir.Group{app, menu})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMissingGroup, errs[0].Code)
	assert.Equal(t, "~//menu", errs[0].Group)
	assert.Equal(t, "on_close_down[0].target", errs[0].Field)

	errs = ValidateCarousel([]*ir.Group{menu, menu})
	assert.Contains(t, codes(errs), ErrNoApplication)
	assert.Contains(t, codes(errs), ErrDuplicateGroup)
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Group: "~//a", Field: "f", Message: "m", Code: ErrUnknownAction}
	assert.Equal(t, "[E110] ~//a: f: m", e.Error())

	e.Group = ""
	assert.Equal(t, "[E110] f: m", e.Error())
}
