package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mheg/internal/ir"
	"github.com/roach88/mheg/internal/testutil"
)

// mapDecoder serves prebuilt group descriptions.
type mapDecoder map[ir.GroupID]*ir.Group

func (d mapDecoder) Decode(id ir.GroupID, _ []byte) (*ir.Group, error) {
	g, ok := d[id]
	if !ok {
		return nil, fmt.Errorf("no description for %s", id)
	}
	cp := *g
	return &cp, nil
}

// execFunc adapts a function to ActionExecutor.
type execFunc func(e *Engine, a ir.Action, group ir.GroupID) error

func (f execFunc) Execute(e *Engine, a ir.Action, group ir.GroupID) error {
	return f(e, a, group)
}

// traceRecorder is a TraceSink keeping everything in memory.
type traceRecorder struct {
	events []ir.TraceEvent
}

func (r *traceRecorder) Record(ev ir.TraceEvent) {
	r.events = append(r.events, ev)
}

// count returns how many events of type t came from source.
func (r *traceRecorder) count(source ir.ObjectID, t ir.EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == ir.TraceKindEvent && ev.Source == source && ev.EventType == t {
			n++
		}
	}
	return n
}

// surfaceCall is one recorded RenderSurface call.
type surfaceCall struct {
	op  string
	id  ir.ObjectID
	ref ir.ObjectID
}

// area is one RedrawArea request.
type area struct {
	pos  ir.Point
	size ir.Size
}

type recordingSurface struct {
	calls []surfaceCall
	areas []area
}

func (s *recordingSurface) RedrawArea(pos ir.Point, size ir.Size) {
	s.areas = append(s.areas, area{pos: pos, size: size})
}
func (s *recordingSurface) AddVisible(v Drawable) {
	s.calls = append(s.calls, surfaceCall{op: "add", id: v.ID()})
}
func (s *recordingSurface) RemoveVisible(v Drawable) {
	s.calls = append(s.calls, surfaceCall{op: "remove", id: v.ID()})
}
func (s *recordingSurface) BringToFront(v Drawable) {
	s.calls = append(s.calls, surfaceCall{op: "front", id: v.ID()})
}
func (s *recordingSurface) SendToBack(v Drawable) {
	s.calls = append(s.calls, surfaceCall{op: "back", id: v.ID()})
}
func (s *recordingSurface) PutBefore(v, r Drawable) {
	s.calls = append(s.calls, surfaceCall{op: "before", id: v.ID(), ref: r.ID()})
}
func (s *recordingSurface) PutBehind(v, r Drawable) {
	s.calls = append(s.calls, surfaceCall{op: "behind", id: v.ID(), ref: r.ID()})
}

// fixture wires an engine to fakes.
type fixture struct {
	e        *Engine
	clock    *testutil.ManualClock
	timers   *testutil.FakeTimers
	loader   *testutil.MemLoader
	trace    *traceRecorder
	surface  *recordingSurface
	executed []string
	handlers map[string]func(e *Engine, a ir.Action, group ir.GroupID) error
}

func newFixture(t *testing.T, groups map[ir.GroupID]*ir.Group, opts ...EngineOption) *fixture {
	t.Helper()

	f := &fixture{
		clock:    testutil.NewManualClock(time.Time{}),
		trace:    &traceRecorder{},
		surface:  &recordingSurface{},
		handlers: make(map[string]func(e *Engine, a ir.Action, group ir.GroupID) error),
	}
	f.timers = testutil.NewFakeTimers(f.clock)

	files := make(map[string][]byte, len(groups))
	for id := range groups {
		files[string(id)] = []byte(id)
	}
	f.loader = testutil.NewMemLoader(files)

	exec := execFunc(func(e *Engine, a ir.Action, group ir.GroupID) error {
		f.executed = append(f.executed, a.Name)
		if h, ok := f.handlers[a.Name]; ok {
			return h(e, a, group)
		}
		return nil
	})

	base := []EngineOption{
		WithWallClock(f.clock),
		WithTimerService(f.timers),
		WithTrace(f.trace),
		WithRenderSurface(f.surface),
		WithSession(NewFixedGenerator("test")),
		WithBootTimeout(0),
		WithContentTimeout(0),
	}
	f.e = New(f.loader, mapDecoder(groups), exec, append(base, opts...)...)

	// Minimal handlers shared by most tests.
	f.handlers[ir.ActionTransitionTo] = func(e *Engine, a ir.Action, group ir.GroupID) error {
		return e.TransitionTo(a.Target.Ref, group)
	}
	f.handlers[ir.ActionSetTimer] = func(e *Engine, a ir.Action, group ir.GroupID) error {
		owner, err := e.ResolveRef(a.Target, group)
		if err != nil {
			return err
		}
		id := int(a.Args[0].Value.(ir.Int))
		if len(a.Args) < 2 {
			return e.SetTimer(owner, id, nil, false)
		}
		ms := int64(a.Args[1].Value.(ir.Int))
		return e.SetTimer(owner, id, &ms, false)
	}
	f.handlers[ir.ActionQuit] = func(e *Engine, _ ir.Action, _ ir.GroupID) error {
		e.Quit()
		return nil
	}
	return f
}

// boot launches the first boot object and settles.
func (f *fixture) boot(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.e.Boot(ctx))
	require.NoError(t, f.e.RunUntilIdle(ctx))
}

func (f *fixture) settle(t *testing.T) {
	t.Helper()
	require.NoError(t, f.e.RunUntilIdle(context.Background()))
}

// link builds a link ingredient.
func link(number int, source ir.ObjectReference, et ir.EventType, data ir.Value, effect ...ir.Action) ir.Ingredient {
	return ir.Ingredient{
		Number:          number,
		Class:           ir.ClassLink,
		InitiallyActive: true,
		Link: &ir.LinkSpec{
			Condition: ir.LinkCondition{Source: source, EventType: et, Data: data},
			Effect:    effect,
		},
	}
}

func shared(ing ir.Ingredient) ir.Ingredient {
	ing.Shared = true
	return ing
}

func act(name string) ir.Action {
	return ir.Action{Name: name}
}

func transitionTo(scene ir.GroupID) ir.Action {
	return ir.Action{Name: ir.ActionTransitionTo, Target: ir.Direct(ir.ObjectReference{Group: scene})}
}

func setTimer(id, ms int64) ir.Action {
	return ir.Action{
		Name:   ir.ActionSetTimer,
		Target: ir.Direct(ir.ObjectReference{}),
		Args:   []ir.Param{ir.Lit(ir.Int(id)), ir.Lit(ir.Int(ms))},
	}
}

func app(id ir.GroupID, ingredients ...ir.Ingredient) *ir.Group {
	return &ir.Group{ID: id, Kind: ir.KindApplication, Ingredients: ingredients}
}

func scene(id ir.GroupID, ingredients ...ir.Ingredient) *ir.Group {
	return &ir.Group{ID: id, Kind: ir.KindScene, InputEventRegister: ir.RegisterAllKeys, Ingredients: ingredients}
}

func oid(group ir.GroupID, number int) ir.ObjectID {
	return ir.ObjectID{Group: group, Number: number}
}
