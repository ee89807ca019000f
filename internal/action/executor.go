package action

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/mheg/internal/engine"
	"github.com/roach88/mheg/internal/ir"
)

// Handler carries out one elementary action. group is the group context
// the action was queued under; relative references resolve against it.
type Handler func(e *engine.Engine, a ir.Action, group ir.GroupID) error

// Executor dispatches actions by name.
type Executor struct {
	handlers map[string]Handler
}

// NewExecutor returns an Executor for every elementary action.
func NewExecutor() *Executor {
	x := &Executor{handlers: make(map[string]Handler, 32)}

	x.Register(ir.ActionSetTimer, setTimer)
	x.Register(ir.ActionTransitionTo, transitionTo)
	x.Register(ir.ActionQuit, quit)
	x.Register(ir.ActionLaunch, launch)
	x.Register(ir.ActionSpawn, spawn)
	x.Register(ir.ActionRetune, retune)

	x.Register(ir.ActionActivate, onTarget((*engine.Engine).Activate))
	x.Register(ir.ActionDeactivate, onTarget((*engine.Engine).Deactivate))
	x.Register(ir.ActionRun, onTarget((*engine.Engine).Activate))
	x.Register(ir.ActionStop, onTarget((*engine.Engine).Deactivate))
	x.Register(ir.ActionPreload, onTarget((*engine.Engine).Prepare))
	x.Register(ir.ActionUnload, onTarget((*engine.Engine).Destroy))
	x.Register(ir.ActionSendEvent, sendEvent)

	x.Register(ir.ActionSetVariable, setVariable)
	x.Register(ir.ActionTestVariable, testVariable)
	x.Register(ir.ActionAdd, arithmetic(func(a, b int64) (int64, bool) { return a + b, true }))
	x.Register(ir.ActionSubtract, arithmetic(func(a, b int64) (int64, bool) { return a - b, true }))
	x.Register(ir.ActionMultiply, arithmetic(func(a, b int64) (int64, bool) { return a * b, true }))
	x.Register(ir.ActionDivide, arithmetic(func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}))
	x.Register(ir.ActionModulo, arithmetic(func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a % b, true
	}))
	x.Register(ir.ActionAppend, appendOctets)
	x.Register(ir.ActionStorePersistent, storePersistent)
	x.Register(ir.ActionReadPersistent, readPersistent)

	x.Register(ir.ActionBringToFront, onVisible((*engine.Engine).BringToFront))
	x.Register(ir.ActionSendToBack, onVisible((*engine.Engine).SendToBack))
	x.Register(ir.ActionPutBefore, relative((*engine.Engine).PutBefore))
	x.Register(ir.ActionPutBehind, relative((*engine.Engine).PutBehind))
	x.Register(ir.ActionSetPosition, setPosition)
	x.Register(ir.ActionSetBoxSize, setBoxSize)
	x.Register(ir.ActionSetData, setData)
	x.Register(ir.ActionClone, clone)

	return x
}

// Register installs h for the named action, replacing any earlier handler.
func (x *Executor) Register(name string, h Handler) {
	x.handlers[name] = h
}

// Actions lists the registered action names in sorted order.
func (x *Executor) Actions() []string {
	return slices.Sorted(maps.Keys(x.handlers))
}

// Execute implements engine.ActionExecutor.
func (x *Executor) Execute(e *engine.Engine, a ir.Action, group ir.GroupID) error {
	h, ok := x.handlers[a.Name]
	if !ok {
		return &engine.RuntimeError{
			Code:    engine.ErrCodeUnknownAction,
			Message: fmt.Sprintf("no handler for action %q", a.Name),
			Action:  a.Name,
		}
	}

	if err := h(e, a, group); err != nil {
		return fmt.Errorf("%s: %w", a.Name, err)
	}
	slog.Debug("action executed", "action", a.Name, "group", group)
	return nil
}
