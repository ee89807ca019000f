package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/mheg/internal/ir"
	"github.com/roach88/mheg/internal/ref"
)

// Defaults for engine timeouts and the boot search.
const (
	// DefaultContentTimeout is how long referenced content may stay
	// missing, in whole seconds.
	DefaultContentTimeout = 10

	// DefaultBootTimeout bounds the boot object search, in whole seconds.
	DefaultBootTimeout = 30

	// DefaultPollInterval paces content polling and the boot search.
	DefaultPollInterval = 50 * time.Millisecond

	// maxSettleSteps bounds RunUntilIdle against content that never
	// stops generating events.
	maxSettleSteps = 10000
)

// DefaultBootObjects are searched, in order, when no Application runs.
var DefaultBootObjects = []ir.GroupID{"~//a", "~//startup"}

// Engine is the MHEG-5 runtime: one Application, at most one Scene, and the
// queues that connect them.
//
// CRITICAL: All state changes happen on the goroutine driving Run (or
// Step / RunUntilIdle). Other goroutines only call PostKey and Stop; timer
// firings reach the loop through the same inbox.
//
// INVARIANTS:
//   - registry holds at most one object per (group, number)
//   - exactly one Application and at most one Scene are active
//   - the main action queue is empty whenever dispatch is not running
type Engine struct {
	loader   ContentLoader
	decoder  Decoder
	executor ActionExecutor
	timers   TimerService
	surface  RenderSurface
	tuner    Tuner
	backing  PersistentBacking
	trace    TraceSink
	wall     WallClock
	clock    *Clock
	session  string

	registry registry
	links    []*Link // active-link set, activation order
	async    []AsyncEvent
	temp     []queuedAction
	main     []queuedAction
	inbox    *inbox
	content  []pendingContent

	app           *Group
	scene         *Group
	pending       *pendingTransition
	tearingDown   bool
	transitioning bool
	persistent    []ir.PersistentRecord
	ctx           context.Context

	contentTimeout int // seconds
	bootTimeout    int // seconds
	bootObjects    []ir.GroupID
	pollInterval   time.Duration
}

// EngineOption allows configuration of engine collaborators and limits.
type EngineOption func(*Engine)

// WithTimerService replaces the time.AfterFunc based timer service.
func WithTimerService(t TimerService) EngineOption {
	return func(e *Engine) { e.timers = t }
}

// WithWallClock replaces the system clock.
func WithWallClock(c WallClock) EngineOption {
	return func(e *Engine) { e.wall = c }
}

// WithRenderSurface attaches a display.
func WithRenderSurface(s RenderSurface) EngineOption {
	return func(e *Engine) { e.surface = s }
}

// WithTuner attaches a tuning backend for Retune.
func WithTuner(t Tuner) EngineOption {
	return func(e *Engine) { e.tuner = t }
}

// WithPersistence makes PersistentRecords durable.
func WithPersistence(b PersistentBacking) EngineOption {
	return func(e *Engine) { e.backing = b }
}

// WithTrace records every event and action to sink.
func WithTrace(sink TraceSink) EngineOption {
	return func(e *Engine) { e.trace = sink }
}

// WithSession sets the session id; by default a UUIDv7 is generated.
func WithSession(gen SessionGenerator) EngineOption {
	return func(e *Engine) { e.session = gen.Generate() }
}

// WithContentTimeout sets the content timeout in whole seconds.
// Zero makes missing content fail on the first poll.
func WithContentTimeout(seconds int) EngineOption {
	return func(e *Engine) { e.contentTimeout = seconds }
}

// WithBootTimeout sets the boot search timeout in whole seconds.
func WithBootTimeout(seconds int) EngineOption {
	return func(e *Engine) { e.bootTimeout = seconds }
}

// WithBootObjects replaces the boot object search list.
func WithBootObjects(ids ...ir.GroupID) EngineOption {
	return func(e *Engine) { e.bootObjects = ids }
}

// WithPollInterval sets the pacing of content polling and boot search.
func WithPollInterval(d time.Duration) EngineOption {
	return func(e *Engine) { e.pollInterval = d }
}

// WithClock sets the logical trace clock.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine reading carousel files through loader, decoding
// them with decoder and executing actions with executor.
func New(loader ContentLoader, decoder Decoder, executor ActionExecutor, opts ...EngineOption) *Engine {
	e := &Engine{
		loader:         loader,
		decoder:        decoder,
		executor:       executor,
		timers:         NewSystemTimers(),
		surface:        nopSurface{},
		tuner:          LogTuner{},
		wall:           systemClock{},
		clock:          NewClock(),
		inbox:          newInbox(),
		ctx:            context.Background(),
		contentTimeout: DefaultContentTimeout,
		bootTimeout:    DefaultBootTimeout,
		bootObjects:    DefaultBootObjects,
		pollInterval:   DefaultPollInterval,
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.session == "" {
		e.session = UUIDv7Generator{}.Generate()
	}
	return e
}

// Run loads persistent records, boots and drives the run loop until ctx is
// cancelled or Stop is called. The running groups are torn down on exit.
func (e *Engine) Run(ctx context.Context) error {
	e.ctx = ctx
	if err := e.LoadPersistent(ctx); err != nil {
		slog.Warn("persistent records not loaded", "error", err)
	}
	if err := e.Boot(ctx); err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	defer e.teardown()

	slog.Info("engine started", "session", e.session)
	for {
		if err := e.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errStopped) {
				slog.Info("engine stopped", "session", e.session)
				return nil
			}
			return err
		}
	}
}

var errStopped = errors.New("engine stopped")

// Step performs one run loop iteration. It blocks for input only when no
// async event, pending content or pending transition needs attention.
func (e *Engine) Step(ctx context.Context) error {
	e.pollContent()
	e.ProcessEvents()

	if err := e.waitForInput(ctx); err != nil {
		return err
	}
	e.drainInbox()

	if e.pending != nil {
		return e.performPending(ctx)
	}
	return nil
}

func (e *Engine) waitForInput(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.inbox.Closed() {
		return errStopped
	}
	if len(e.async) > 0 || e.pending != nil || e.inbox.Len() > 0 {
		return nil
	}

	var poll <-chan time.Time
	if len(e.content) > 0 {
		t := time.NewTimer(e.pollInterval)
		defer t.Stop()
		poll = t.C
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.inbox.Wait():
	case <-poll:
	}
	return nil
}

// RunUntilIdle steps without blocking until no async event, stimulus or
// pending transition is left. Used by tests and the scenario harness.
func (e *Engine) RunUntilIdle(ctx context.Context) error {
	e.ctx = ctx
	for range maxSettleSteps {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.pollContent()
		e.ProcessEvents()
		e.drainInbox()

		if e.pending != nil {
			if err := e.performPending(ctx); err != nil {
				return err
			}
			continue
		}
		if len(e.async) == 0 && e.inbox.Len() == 0 && len(e.temp) == 0 {
			return nil
		}
	}
	return fmt.Errorf("engine did not settle after %d steps", maxSettleSteps)
}

// Stop makes Run return after the current step. Safe from any goroutine.
func (e *Engine) Stop() {
	e.inbox.Close()
}

// Context returns the context of the current run, for actions that reach
// external stores.
func (e *Engine) Context() context.Context {
	return e.ctx
}

// Session returns the trace session id.
func (e *Engine) Session() string {
	return e.session
}

// BootObjects returns the boot object search list.
func (e *Engine) BootObjects() []ir.GroupID {
	return e.bootObjects
}

// ContentTimeout returns the content timeout in whole seconds.
func (e *Engine) ContentTimeout() int {
	return e.contentTimeout
}

// App returns the active Application, or nil.
func (e *Engine) App() *Group {
	return e.app
}

// Scene returns the active Scene, or nil.
func (e *Engine) Scene() *Group {
	return e.scene
}

// Resolver returns a resolver for the active Application's directory.
func (e *Engine) Resolver() ref.Resolver {
	if e.app == nil {
		return ref.NewResolver("")
	}
	return ref.NewResolver(e.app.id.Group)
}

// Object returns the registered object with canonical id.
func (e *Engine) Object(id ir.ObjectID) (Object, bool) {
	return e.registry.lookup(id)
}

// Lookup resolves r against group and returns the registered object.
func (e *Engine) Lookup(r ir.ObjectReference, group ir.GroupID) (Object, error) {
	id := e.Resolver().Resolve(r, group)
	o, ok := e.registry.lookup(id)
	if !ok {
		return nil, NewReferenceNotFound(id)
	}
	return o, nil
}

// ResolveRef turns a generic reference into a canonical id. An indirect
// reference reads the current value of the ObjectRef variable it names.
func (e *Engine) ResolveRef(g ir.GenericRef, group ir.GroupID) (ir.ObjectID, error) {
	if !g.Indirect {
		return e.Resolver().Resolve(g.Ref, group), nil
	}

	o, err := e.Lookup(g.Ref, group)
	if err != nil {
		return ir.ObjectID{}, err
	}
	v, ok := o.(*Variable)
	if !ok || v.kind != ir.KindObjectRef {
		return ir.ObjectID{}, NewTypeMismatch(o.ID(), "object reference variable", string(o.Class()))
	}
	r, _ := v.value.(ir.ObjectRef)
	return e.Resolver().Resolve(ir.ObjectReference(r), o.ID().Group), nil
}

// Target resolves and looks up a generic reference.
func (e *Engine) Target(g ir.GenericRef, group ir.GroupID) (Object, error) {
	id, err := e.ResolveRef(g, group)
	if err != nil {
		return nil, err
	}
	o, ok := e.registry.lookup(id)
	if !ok {
		return nil, NewReferenceNotFound(id)
	}
	return o, nil
}

// ParamValue evaluates an action parameter: the literal, or the current
// value of the variable an indirect parameter names.
func (e *Engine) ParamValue(p ir.Param, group ir.GroupID) (ir.Value, error) {
	if p.Indirect == nil {
		return p.Value, nil
	}
	o, err := e.Target(*p.Indirect, group)
	if err != nil {
		return nil, err
	}
	v, ok := o.(*Variable)
	if !ok {
		return nil, NewTypeMismatch(o.ID(), "variable", string(o.Class()))
	}
	return v.value, nil
}

// SetVariable assigns val to variable o. The value must be of the
// variable's kind.
func (e *Engine) SetVariable(o Object, val ir.Value) error {
	v, ok := o.(*Variable)
	if !ok {
		return NewTypeMismatch(o.ID(), "variable", string(o.Class()))
	}
	if val == nil || val.Kind() != v.kind {
		return NewTypeMismatch(o.ID(), v.kind.String(), kindName(val))
	}
	v.value = val
	return nil
}

// group looks up a group object by id.
func (e *Engine) group(id ir.ObjectID) (*Group, error) {
	o, ok := e.registry.lookup(id)
	if !ok {
		return nil, NewReferenceNotFound(id)
	}
	g, ok := o.(*Group)
	if !ok {
		return nil, NewTypeMismatch(id, "application or scene", string(o.Class()))
	}
	return g, nil
}

// ActiveLinks returns the ids of the active links in activation order.
func (e *Engine) ActiveLinks() []ir.ObjectID {
	ids := make([]ir.ObjectID, len(e.links))
	for i, l := range e.links {
		ids[i] = l.id
	}
	return ids
}

// AsyncEvents returns a copy of the async event queue.
func (e *Engine) AsyncEvents() []AsyncEvent {
	return append([]AsyncEvent(nil), e.async...)
}
