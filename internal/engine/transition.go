package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/mheg/internal/ir"
)

type pendingKind int

const (
	pendingQuit pendingKind = iota + 1
	pendingLaunch
	pendingSpawn
	pendingRetune
)

func (k pendingKind) String() string {
	switch k {
	case pendingQuit:
		return "quit"
	case pendingLaunch:
		return "launch"
	case pendingSpawn:
		return "spawn"
	case pendingRetune:
		return "retune"
	default:
		return "unknown"
	}
}

// pendingTransition is a Quit/Launch/Spawn/Retune waiting for the end of
// the current run loop step.
type pendingTransition struct {
	kind    pendingKind
	target  ir.GroupID
	service string
}

// TransitionTo replaces the active Scene with the Scene at target.
//
// No-op if target is already the active Scene. The target is loaded and
// validated before anything is torn down: on failure a GroupIDRefError
// engine event is raised and the current Scene stays. On success the
// Application's non-shared ingredients are deactivated, the old Scene is
// destroyed, queued work of other groups is discarded and the new Scene is
// activated. A TransitionTo made by close-down actions of the Scene being
// replaced is ignored.
func (e *Engine) TransitionTo(target ir.ObjectReference, group ir.GroupID) error {
	if e.tearingDown {
		slog.Debug("transition ignored during teardown")
		return nil
	}
	if e.transitioning {
		slog.Debug("transition ignored during transition", "target", target)
		return nil
	}
	app := e.app
	if app == nil {
		return &RuntimeError{Code: ErrCodeInvalidGroup, Message: "no active application", Action: ir.ActionTransitionTo}
	}

	id := e.Resolver().Resolve(target, group).Group
	if e.scene != nil && e.scene.id.Group == id {
		return nil
	}

	spec, err := e.loadGroup(id, ir.KindScene)
	if err != nil {
		e.raiseEngineEvent(ir.EngineGroupIDRefError)
		return err
	}

	e.transitioning = true
	defer func() { e.transitioning = false }()

	for i := len(app.ingredients) - 1; i >= 0; i-- {
		ing := app.ingredients[i]
		if ing.Running() && !ing.core().shared {
			e.Deactivate(ing)
		}
	}
	if old := e.scene; old != nil {
		e.Deactivate(old)
		e.Destroy(old)
		e.unloadGroup(old.id.Group)
		e.scene = nil
	}
	e.flushForeign(app.id.Group)

	g, err := e.Materialize(spec)
	if err != nil {
		e.raiseEngineEvent(ir.EngineGroupIDRefError)
		return err
	}
	e.scene = g
	e.Activate(g)

	transitions.WithLabelValues("transition").Inc()
	slog.Info("scene transition", "scene", id)
	return nil
}

// Quit ends the running Application; the boot search runs again at the end
// of the step.
func (e *Engine) Quit() {
	e.setPending(pendingTransition{kind: pendingQuit})
}

// Launch replaces the running Application with target at the end of the
// step. If target cannot be loaded a GroupIDRefError engine event is raised
// and nothing else happens.
func (e *Engine) Launch(target ir.ObjectReference, group ir.GroupID) error {
	return e.launchLater(pendingLaunch, target, group)
}

// Spawn behaves as Launch.
func (e *Engine) Spawn(target ir.ObjectReference, group ir.GroupID) error {
	return e.launchLater(pendingSpawn, target, group)
}

func (e *Engine) launchLater(kind pendingKind, target ir.ObjectReference, group ir.GroupID) error {
	id := e.Resolver().Resolve(target, group).Group
	if !e.loader.CheckContentRef(string(id)) {
		e.raiseEngineEvent(ir.EngineGroupIDRefError)
		return NewContentUnavailable(string(id), nil)
	}
	e.setPending(pendingTransition{kind: kind, target: id})
	return nil
}

// Retune asks the tuner for service at the end of the step, then runs the
// boot search on the new service.
func (e *Engine) Retune(service string) {
	e.setPending(pendingTransition{kind: pendingRetune, service: service})
}

func (e *Engine) setPending(p pendingTransition) {
	if e.tearingDown {
		slog.Debug("transition ignored during teardown", "kind", p.kind)
		return
	}
	e.pending = &p
	e.flushAll()
	slog.Debug("transition pending", "kind", p.kind, "target", p.target)
}

// performPending tears down the running groups and carries out the pending
// transition.
func (e *Engine) performPending(ctx context.Context) error {
	p := *e.pending
	e.pending = nil

	e.teardown()
	transitions.WithLabelValues(p.kind.String()).Inc()

	switch p.kind {
	case pendingLaunch, pendingSpawn:
		if err := e.launch(p.target); err != nil {
			slog.Warn("launch failed, booting", "target", p.target, "error", err)
			return e.Boot(ctx)
		}
		return nil
	case pendingRetune:
		if err := e.tuner.Retune(ctx, p.service); err != nil {
			slog.Warn("retune failed", "service", p.service, "error", err)
		}
		return e.Boot(ctx)
	default:
		return e.Boot(ctx)
	}
}

// teardown destroys the active Scene and Application and clears all
// queues.
func (e *Engine) teardown() {
	e.tearingDown = true
	defer func() { e.tearingDown = false }()

	if s := e.scene; s != nil {
		e.Destroy(s)
		e.unloadGroup(s.id.Group)
		e.scene = nil
	}
	if a := e.app; a != nil {
		e.Destroy(a)
		e.unloadGroup(a.id.Group)
		e.app = nil
	}
	e.flushAll()
}

// Boot searches the boot objects until one launches or the boot timeout
// (whole seconds) elapses.
func (e *Engine) Boot(ctx context.Context) error {
	start := e.wall.Now()
	for {
		for _, id := range e.bootObjects {
			if !e.loader.CheckContentRef(string(id)) {
				continue
			}
			if err := e.launch(id); err != nil {
				slog.Warn("boot object rejected", "group", id, "error", err)
				continue
			}
			return nil
		}

		if e.wall.Now().Unix() >= start.Unix()+int64(e.bootTimeout) {
			return fmt.Errorf("%w after %ds (searched %v)", ErrNoBootObject, e.bootTimeout, e.bootObjects)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}
}

// launch loads, materializes and activates the Application at id.
func (e *Engine) launch(id ir.GroupID) error {
	spec, err := e.loadGroup(id, ir.KindApplication)
	if err != nil {
		return err
	}
	g, err := e.Materialize(spec)
	if err != nil {
		return err
	}

	e.app = g
	slog.Info("application launched", "group", id)
	e.Activate(g)
	return nil
}

// loadGroup fetches and decodes the group at id and checks its kind.
func (e *Engine) loadGroup(id ir.GroupID, kind ir.GroupKind) (*ir.Group, error) {
	if !e.loader.CheckContentRef(string(id)) {
		return nil, NewContentUnavailable(string(id), nil)
	}
	data, err := e.loader.LoadFile(string(id))
	if err != nil {
		return nil, NewContentUnavailable(string(id), err)
	}
	spec, err := e.decoder.Decode(id, data)
	if err != nil {
		return nil, &RuntimeError{Code: ErrCodeInvalidGroup, Message: err.Error(), Object: string(id)}
	}
	spec.ID = id
	if spec.Kind != kind {
		return nil, &RuntimeError{
			Code:    ErrCodeInvalidGroup,
			Message: fmt.Sprintf("expected %s, got %s", kind, spec.Kind),
			Object:  string(id),
		}
	}
	if errs := spec.Validate(); len(errs) > 0 {
		return nil, &RuntimeError{Code: ErrCodeInvalidGroup, Message: errs[0].Error(), Object: string(id)}
	}
	return spec, nil
}
