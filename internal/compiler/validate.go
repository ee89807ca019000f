package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/mheg/internal/ir"
	"github.com/roach88/mheg/internal/ref"
)

// Validation error codes (E100-E199)
const (
	// Group structure (E101)
	ErrInvalidGroup = "E101" // structural rule from ir.Group.Validate

	// Actions and links (E110-E119)
	ErrUnknownAction   = "E110" // action name has no handler
	ErrInvalidGeometry = "E111" // negative position or size
	ErrInvalidLinkData = "E112" // link data cannot match the event
	ErrUnknownEvent    = "E113" // SendEvent names no event type

	// Carousel (E120-E129)
	ErrMissingGroup   = "E120" // transition or launch target not in the carousel
	ErrNoApplication  = "E121" // carousel has no application
	ErrDuplicateGroup = "E122" // two files decode to the same group id
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Group   string `json:"group,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Group, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks one compiled group. Returns all errors found (does not
// fail-fast).
func Validate(g *ir.Group) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Group:   string(g.ID),
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	for _, e := range g.Validate() {
		add(e.Field, ErrInvalidGroup, "%s", e.Message)
	}

	for i, ing := range g.Ingredients {
		field := fmt.Sprintf("ingredients[%d]", i)
		if ing.Position.X < 0 || ing.Position.Y < 0 {
			add(field+".position", ErrInvalidGeometry, "negative position %d,%d", ing.Position.X, ing.Position.Y)
		}
		if ing.Size.W < 0 || ing.Size.H < 0 {
			add(field+".size", ErrInvalidGeometry, "negative size %dx%d", ing.Size.W, ing.Size.H)
		}
		if ing.Link != nil {
			if msg := checkLinkData(ing.Link.Condition); msg != "" {
				add(field+".link.data", ErrInvalidLinkData, "%s", msg)
			}
		}
	}

	walkActions(g, func(field string, a ir.Action) {
		if !ir.KnownActions[a.Name] {
			add(field+".action", ErrUnknownAction, "unknown action %q", a.Name)
			return
		}
		if a.Name == ir.ActionSendEvent && len(a.Args) > 0 && a.Args[0].Indirect == nil {
			if _, ok := eventArg(a.Args[0].Value); !ok {
				add(field+".args[0]", ErrUnknownEvent, "unknown event type %s", ir.FormatValue(a.Args[0].Value))
			}
		}
	})
	return errs
}

// ValidateCarousel validates every group and the references between them:
// direct TransitionTo, Launch and Spawn targets must be carousel groups.
func ValidateCarousel(groups []*ir.Group) []ValidationError {
	var errs []ValidationError

	known := make(map[ir.GroupID]bool, len(groups))
	for _, g := range groups {
		if known[g.ID] {
			errs = append(errs, ValidationError{
				Group:   string(g.ID),
				Field:   "id",
				Message: "group id defined twice",
				Code:    ErrDuplicateGroup,
			})
		}
		known[g.ID] = true
		errs = append(errs, Validate(g)...)
	}

	if !slices.ContainsFunc(groups, func(g *ir.Group) bool { return g.Kind == ir.KindApplication }) {
		errs = append(errs, ValidationError{
			Field:   "carousel",
			Message: "no application found",
			Code:    ErrNoApplication,
		})
	}

	r := carouselResolver(groups)
	for _, g := range groups {
		walkActions(g, func(field string, a ir.Action) {
			switch a.Name {
			case ir.ActionTransitionTo, ir.ActionLaunch, ir.ActionSpawn:
			default:
				return
			}
			if a.Target.Indirect {
				return
			}
			target := r.Resolve(a.Target.Ref, g.ID).Group
			if !known[target] {
				errs = append(errs, ValidationError{
					Group:   string(g.ID),
					Field:   field + ".target",
					Message: fmt.Sprintf("%s target %s is not in the carousel", a.Name, target),
					Code:    ErrMissingGroup,
				})
			}
		})
	}
	return errs
}

// checkLinkData reports why a link's data can never match its event, or "".
func checkLinkData(c ir.LinkCondition) string {
	if c.Data == nil {
		return ""
	}
	switch c.EventType {
	case ir.UserInput:
		n, ok := c.Data.(ir.Int)
		if !ok {
			return fmt.Sprintf("UserInput data must be a key code, got %s", c.Data.Kind())
		}
		if !ir.Key(n).Valid() {
			return fmt.Sprintf("unknown key code %d", int64(n))
		}
	case ir.TimerFired, ir.EngineEvent:
		if _, ok := c.Data.(ir.Int); !ok {
			return fmt.Sprintf("%s data must be an integer, got %s", c.EventType, c.Data.Kind())
		}
	case ir.TestEvent:
		if _, ok := c.Data.(ir.Bool); !ok {
			return fmt.Sprintf("TestEvent data must be a boolean, got %s", c.Data.Kind())
		}
	}
	return ""
}

// eventArg reads the event type argument of SendEvent.
func eventArg(v ir.Value) (ir.EventType, bool) {
	switch ev := v.(type) {
	case ir.OctetString:
		t, err := ir.ParseEventType(string(ev))
		return t, err == nil
	case ir.Int:
		t := ir.EventType(ev)
		return t, t.Valid()
	}
	return 0, false
}

// walkActions visits every action of g with its field path.
func walkActions(g *ir.Group, fn func(field string, a ir.Action)) {
	for i, a := range g.OnStartUp {
		fn(fmt.Sprintf("on_start_up[%d]", i), a)
	}
	for i, a := range g.OnCloseDown {
		fn(fmt.Sprintf("on_close_down[%d]", i), a)
	}
	for i, ing := range g.Ingredients {
		if ing.Link == nil {
			continue
		}
		for j, a := range ing.Link.Effect {
			fn(fmt.Sprintf("ingredients[%d].link.effect[%d]", i, j), a)
		}
	}
}

// carouselResolver canonicalizes references against the carousel's first
// application.
func carouselResolver(groups []*ir.Group) ref.Resolver {
	for _, g := range groups {
		if g.Kind == ir.KindApplication {
			return ref.NewResolver(g.ID)
		}
	}
	return ref.NewResolver("")
}
