package ir

import "fmt"

// Elementary action names understood by the engine's executor.
const (
	ActionSetTimer        = "SetTimer"
	ActionTransitionTo    = "TransitionTo"
	ActionQuit            = "Quit"
	ActionLaunch          = "Launch"
	ActionSpawn           = "Spawn"
	ActionRetune          = "Retune"
	ActionActivate        = "Activate"
	ActionDeactivate      = "Deactivate"
	ActionRun             = "Run"
	ActionStop            = "Stop"
	ActionPreload         = "Preload"
	ActionUnload          = "Unload"
	ActionSendEvent       = "SendEvent"
	ActionSetVariable     = "SetVariable"
	ActionTestVariable    = "TestVariable"
	ActionAdd             = "Add"
	ActionSubtract        = "Subtract"
	ActionMultiply        = "Multiply"
	ActionDivide          = "Divide"
	ActionModulo          = "Modulo"
	ActionAppend          = "Append"
	ActionStorePersistent = "StorePersistent"
	ActionReadPersistent  = "ReadPersistent"
	ActionBringToFront    = "BringToFront"
	ActionSendToBack      = "SendToBack"
	ActionPutBefore       = "PutBefore"
	ActionPutBehind       = "PutBehind"
	ActionSetPosition     = "SetPosition"
	ActionSetBoxSize      = "SetBoxSize"
	ActionSetData         = "SetData"
	ActionClone           = "Clone"
)

// KnownActions lists every elementary action name.
var KnownActions = map[string]bool{
	ActionSetTimer: true, ActionTransitionTo: true, ActionQuit: true,
	ActionLaunch: true, ActionSpawn: true, ActionRetune: true,
	ActionActivate: true, ActionDeactivate: true, ActionRun: true,
	ActionStop: true, ActionPreload: true, ActionUnload: true,
	ActionSendEvent: true, ActionSetVariable: true, ActionTestVariable: true,
	ActionAdd: true, ActionSubtract: true, ActionMultiply: true,
	ActionDivide: true, ActionModulo: true, ActionAppend: true,
	ActionStorePersistent: true, ActionReadPersistent: true,
	ActionBringToFront: true, ActionSendToBack: true, ActionPutBefore: true,
	ActionPutBehind: true, ActionSetPosition: true, ActionSetBoxSize: true,
	ActionSetData: true, ActionClone: true,
}

// ValidationError represents a validation error with field path and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a decoded group against structural rules.
// Returns all errors (not fail-fast) for better developer experience.
func (g *Group) Validate() []ValidationError {
	var errs []ValidationError

	if g.Kind != KindApplication && g.Kind != KindScene {
		errs = append(errs, ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("invalid group kind %q, must be application or scene", g.Kind),
		})
	}
	if g.Kind == KindScene && !ValidRegister(g.InputEventRegister) {
		errs = append(errs, ValidationError{
			Field:   "input_event_register",
			Message: fmt.Sprintf("invalid register %d, must be 3, 4 or 5", g.InputEventRegister),
		})
	}

	// Rule: object numbers are unique and positive; 0 is the group itself
	seen := make(map[int]bool)
	for i, ing := range g.Ingredients {
		field := fmt.Sprintf("ingredients[%d]", i)
		if ing.Number <= 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".number",
				Message: fmt.Sprintf("object number must be positive, got %d", ing.Number),
			})
		}
		if seen[ing.Number] {
			errs = append(errs, ValidationError{
				Field:   field + ".number",
				Message: fmt.Sprintf("duplicate object number %d", ing.Number),
			})
		}
		seen[ing.Number] = true

		if !ValidClasses[ing.Class] {
			errs = append(errs, ValidationError{
				Field:   field + ".class",
				Message: fmt.Sprintf("unknown class %q", ing.Class),
			})
			continue
		}
		if ing.Shared && g.Kind != KindApplication {
			errs = append(errs, ValidationError{
				Field:   field + ".shared",
				Message: "only application ingredients can be shared",
			})
		}
		if kind, ok := ing.Class.VariableKind(); ok && ing.Value != nil && ing.Value.Kind() != kind {
			errs = append(errs, ValidationError{
				Field:   field + ".value",
				Message: fmt.Sprintf("%s variable cannot hold %s", ing.Class, ing.Value.Kind()),
			})
		}

		switch {
		case ing.Class == ClassLink && ing.Link == nil:
			errs = append(errs, ValidationError{
				Field:   field + ".link",
				Message: "link ingredient requires a link condition",
			})
		case ing.Class != ClassLink && ing.Link != nil:
			errs = append(errs, ValidationError{
				Field:   field + ".link",
				Message: fmt.Sprintf("%s ingredient cannot carry a link condition", ing.Class),
			})
		case ing.Link != nil && !ing.Link.Condition.EventType.Valid():
			errs = append(errs, ValidationError{
				Field:   field + ".link.event",
				Message: fmt.Sprintf("unknown event type %d", int(ing.Link.Condition.EventType)),
			})
		}
	}

	return errs
}
