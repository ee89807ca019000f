package action

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mheg/internal/engine"
	"github.com/roach88/mheg/internal/ir"
	"github.com/roach88/mheg/internal/testutil"
)

type groupDecoder map[ir.GroupID]*ir.Group

func (d groupDecoder) Decode(id ir.GroupID, _ []byte) (*ir.Group, error) {
	g, ok := d[id]
	if !ok {
		return nil, fmt.Errorf("no group %s", id)
	}
	cp := *g
	return &cp, nil
}

type traceSink struct {
	events []ir.TraceEvent
}

func (s *traceSink) Record(ev ir.TraceEvent) { s.events = append(s.events, ev) }

// eventData returns the data of every traced event of type t from source.
func (s *traceSink) eventData(source ir.ObjectID, t ir.EventType) []ir.Value {
	var out []ir.Value
	for _, ev := range s.events {
		if ev.Kind == ir.TraceKindEvent && ev.Source == source && ev.EventType == t {
			out = append(out, ev.Data)
		}
	}
	return out
}

type harness struct {
	e      *engine.Engine
	x      *Executor
	clock  *testutil.ManualClock
	timers *testutil.FakeTimers
	trace  *traceSink
}

func newHarness(t *testing.T, groups ...*ir.Group) *harness {
	t.Helper()
	h := &harness{
		x:     NewExecutor(),
		clock: testutil.NewManualClock(time.Time{}),
		trace: &traceSink{},
	}
	h.timers = testutil.NewFakeTimers(h.clock)

	files := make(map[string][]byte)
	dec := make(groupDecoder)
	for _, g := range groups {
		files[string(g.ID)] = []byte(g.ID)
		dec[g.ID] = g
	}

	h.e = engine.New(testutil.NewMemLoader(files), dec, h.x,
		engine.WithWallClock(h.clock),
		engine.WithTimerService(h.timers),
		engine.WithTrace(h.trace),
		engine.WithSession(engine.NewFixedGenerator("action-test")),
		engine.WithBootTimeout(0),
		engine.WithContentTimeout(0),
	)
	ctx := context.Background()
	require.NoError(t, h.e.Boot(ctx))
	h.settle(t)
	return h
}

func (h *harness) settle(t *testing.T) {
	t.Helper()
	require.NoError(t, h.e.RunUntilIdle(context.Background()))
}

func (h *harness) exec(a ir.Action) error {
	return h.x.Execute(h.e, a, "~//a")
}

func (h *harness) value(t *testing.T, n int) ir.Value {
	t.Helper()
	o, ok := h.e.Object(ir.ObjectID{Group: "~//a", Number: n})
	require.True(t, ok)
	v, ok := o.(*engine.Variable)
	require.True(t, ok)
	return v.Value()
}

func local(n int) ir.GenericRef {
	return ir.Direct(ir.ObjectReference{Number: n})
}

func indirect(n int) ir.Param {
	r := local(n)
	return ir.Param{Indirect: &r}
}

func do(name string, target ir.GenericRef, args ...ir.Param) ir.Action {
	return ir.Action{Name: name, Target: target, Args: args}
}

func variables() *ir.Group {
	return &ir.Group{
		ID:   "~//a",
		Kind: ir.KindApplication,
		Ingredients: []ir.Ingredient{
			{Number: 1, Class: ir.ClassInteger, InitiallyActive: true, Value: ir.Int(7)},
			{Number: 2, Class: ir.ClassOctetString, InitiallyActive: true, Value: ir.OctetString("ab")},
			{Number: 3, Class: ir.ClassBoolean, InitiallyActive: true},
			{Number: 4, Class: ir.ClassObjectRef, InitiallyActive: true},
			{Number: 5, Class: ir.ClassInteger, InitiallyActive: true, Value: ir.Int(3)},
			{Number: 6, Class: ir.ClassRectangle, InitiallyActive: true, Size: ir.Size{W: 4, H: 4}},
			{Number: 7, Class: ir.ClassRectangle, InitiallyActive: true, Size: ir.Size{W: 4, H: 4}},
		},
	}
}

func TestExecutor_CoversEveryAction(t *testing.T) {
	x := NewExecutor()
	assert.Len(t, x.Actions(), 31)
	assert.Contains(t, x.Actions(), ir.ActionClone)
}

func TestExecutor_UnknownAction(t *testing.T) {
	h := newHarness(t, variables())

	err := h.exec(ir.Action{Name: "Dance"})
	require.Error(t, err)
	assert.True(t, engine.IsUnknownAction(err))
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		action  string
		operand int64
		want    ir.Int
	}{
		{ir.ActionAdd, 5, 12},
		{ir.ActionSubtract, 10, -3},
		{ir.ActionMultiply, 3, 21},
		{ir.ActionDivide, 2, 3},
		{ir.ActionModulo, 4, 3},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			h := newHarness(t, variables())
			require.NoError(t, h.exec(do(tt.action, local(1), ir.Lit(ir.Int(tt.operand)))))
			assert.Equal(t, tt.want, h.value(t, 1))
		})
	}
}

func TestArithmetic_Errors(t *testing.T) {
	h := newHarness(t, variables())

	err := h.exec(do(ir.ActionDivide, local(1), ir.Lit(ir.Int(0))))
	assert.True(t, engine.IsInvalidArgument(err))
	assert.Equal(t, ir.Int(7), h.value(t, 1))

	err = h.exec(do(ir.ActionAdd, local(2), ir.Lit(ir.Int(1))))
	assert.True(t, engine.IsTypeMismatch(err))

	err = h.exec(do(ir.ActionAdd, local(1)))
	assert.True(t, engine.IsInvalidArgument(err))

	err = h.exec(do(ir.ActionAdd, local(1), ir.Lit(ir.OctetString("x"))))
	assert.True(t, engine.IsInvalidArgument(err))
}

func TestArithmetic_IndirectOperand(t *testing.T) {
	h := newHarness(t, variables())

	require.NoError(t, h.exec(do(ir.ActionAdd, local(1), indirect(5))))
	assert.Equal(t, ir.Int(10), h.value(t, 1))
}

func TestAppend(t *testing.T) {
	h := newHarness(t, variables())

	require.NoError(t, h.exec(do(ir.ActionAppend, local(2), ir.Lit(ir.OctetString("cd")))))
	assert.Equal(t, ir.OctetString("abcd"), h.value(t, 2))
}

func TestSetVariable(t *testing.T) {
	h := newHarness(t, variables())

	require.NoError(t, h.exec(do(ir.ActionSetVariable, local(3), ir.Lit(ir.Bool(true)))))
	assert.Equal(t, ir.Bool(true), h.value(t, 3))

	err := h.exec(do(ir.ActionSetVariable, local(3), ir.Lit(ir.Int(1))))
	assert.True(t, engine.IsTypeMismatch(err))

	err = h.exec(do(ir.ActionSetVariable, local(99), ir.Lit(ir.Int(1))))
	assert.True(t, engine.IsReferenceNotFound(err))
}

func TestTestVariable(t *testing.T) {
	h := newHarness(t, variables())
	source := ir.ObjectID{Group: "~//a", Number: 1}

	cases := []struct {
		op   int64
		with ir.Int
	}{
		{TestEqual, 7},
		{TestNotEqual, 7},
		{TestLess, 8},
		{TestLessOrEqual, 6},
		{TestGreater, 6},
		{TestGreaterOrEqual, 7},
	}
	for _, c := range cases {
		require.NoError(t, h.exec(do(ir.ActionTestVariable, local(1), ir.Lit(ir.Int(c.op)), ir.Lit(c.with))))
	}

	assert.Equal(t, []ir.Value{
		ir.Bool(true), ir.Bool(false), ir.Bool(true), ir.Bool(false), ir.Bool(true), ir.Bool(true),
	}, h.trace.eventData(source, ir.TestEvent))

	err := h.exec(do(ir.ActionTestVariable, local(2), ir.Lit(ir.Int(TestLess)), ir.Lit(ir.OctetString("b"))))
	assert.True(t, engine.IsInvalidArgument(err))
}

func TestSendEvent(t *testing.T) {
	h := newHarness(t, variables())
	appID := ir.ObjectID{Group: "~//a"}

	require.NoError(t, h.exec(do(ir.ActionSendEvent, local(0), ir.Lit(ir.OctetString("EngineEvent")), ir.Lit(ir.Int(9)))))
	assert.Equal(t, []engine.AsyncEvent{{Source: appID, Type: ir.EngineEvent, Data: ir.Int(9)}}, h.e.AsyncEvents())

	require.NoError(t, h.exec(do(ir.ActionSendEvent, local(0), ir.Lit(ir.Int(int64(ir.TestEvent))), ir.Lit(ir.Bool(true)))))
	assert.Equal(t, []ir.Value{ir.Bool(true)}, h.trace.eventData(appID, ir.TestEvent))

	err := h.exec(do(ir.ActionSendEvent, local(0), ir.Lit(ir.OctetString("Bogus"))))
	assert.True(t, engine.IsInvalidArgument(err))
}

func TestLifecycleActions(t *testing.T) {
	h := newHarness(t, variables())
	id := ir.ObjectID{Group: "~//a", Number: 6}
	o, _ := h.e.Object(id)

	require.NoError(t, h.exec(do(ir.ActionStop, local(6))))
	assert.False(t, o.Running())
	assert.True(t, o.Available())

	require.NoError(t, h.exec(do(ir.ActionUnload, local(6))))
	assert.False(t, o.Available())

	require.NoError(t, h.exec(do(ir.ActionPreload, local(6))))
	assert.True(t, o.Available())
	assert.False(t, o.Running())

	require.NoError(t, h.exec(do(ir.ActionRun, local(6))))
	assert.True(t, o.Running())
}

func TestPersistentActions(t *testing.T) {
	h := newHarness(t, variables())

	require.NoError(t, h.exec(do(ir.ActionStorePersistent, local(3),
		ir.Lit(ir.OctetString("ram://save")), ir.Lit(ir.Int(42)), ir.Lit(ir.OctetString("zz")))))
	assert.Equal(t, ir.Bool(true), h.value(t, 3))

	require.NoError(t, h.exec(do(ir.ActionSetVariable, local(3), ir.Lit(ir.Bool(false)))))
	require.NoError(t, h.exec(do(ir.ActionReadPersistent, local(3),
		ir.Lit(ir.OctetString("ram://save")), indirect(1), indirect(2))))
	assert.Equal(t, ir.Bool(true), h.value(t, 3))
	assert.Equal(t, ir.Int(42), h.value(t, 1))
	assert.Equal(t, ir.OctetString("zz"), h.value(t, 2))

	// Shape mismatch leaves the variables untouched.
	require.NoError(t, h.exec(do(ir.ActionReadPersistent, local(3),
		ir.Lit(ir.OctetString("ram://save")), indirect(1))))
	assert.Equal(t, ir.Bool(false), h.value(t, 3))

	require.NoError(t, h.exec(do(ir.ActionReadPersistent, local(3),
		ir.Lit(ir.OctetString("ram://missing")), indirect(1))))
	assert.Equal(t, ir.Bool(false), h.value(t, 3))
}

func TestDisplayActions(t *testing.T) {
	h := newHarness(t, variables())
	r6 := ir.ObjectID{Group: "~//a", Number: 6}
	r7 := ir.ObjectID{Group: "~//a", Number: 7}

	require.NoError(t, h.exec(do(ir.ActionBringToFront, local(6))))
	assert.Equal(t, []ir.ObjectID{r7, r6}, h.e.DisplayStack())

	require.NoError(t, h.exec(do(ir.ActionPutBehind, local(6), ir.Lit(ir.ObjectRef{Number: 7}))))
	assert.Equal(t, []ir.ObjectID{r6, r7}, h.e.DisplayStack())

	require.NoError(t, h.exec(do(ir.ActionSetVariable, local(4), ir.Lit(ir.ObjectRef{Number: 6}))))
	require.NoError(t, h.exec(do(ir.ActionPutBefore, local(7), indirect(4))))
	assert.Equal(t, []ir.ObjectID{r6, r7}, h.e.DisplayStack())

	require.NoError(t, h.exec(do(ir.ActionSendToBack, local(7))))
	assert.Equal(t, []ir.ObjectID{r7, r6}, h.e.DisplayStack())

	require.NoError(t, h.exec(do(ir.ActionSetPosition, local(6), ir.Lit(ir.Int(10)), ir.Lit(ir.Int(20)))))
	require.NoError(t, h.exec(do(ir.ActionSetBoxSize, local(6), ir.Lit(ir.Int(30)), ir.Lit(ir.Int(40)))))
	o, _ := h.e.Object(r6)
	pos, size := o.(*engine.Visible).Geometry()
	assert.Equal(t, ir.Point{X: 10, Y: 20}, pos)
	assert.Equal(t, ir.Size{W: 30, H: 40}, size)

	err := h.exec(do(ir.ActionSetBoxSize, local(6), ir.Lit(ir.Int(-1)), ir.Lit(ir.Int(1))))
	assert.True(t, engine.IsInvalidArgument(err))
}

func TestSetDataAction(t *testing.T) {
	h := newHarness(t, variables())
	id := ir.ObjectID{Group: "~//a", Number: 6}

	require.NoError(t, h.exec(do(ir.ActionSetData, local(6), ir.Lit(ir.OctetString("pixels")))))
	o, _ := h.e.Object(id)
	assert.Equal(t, []byte("pixels"), o.(*engine.Visible).Content())
	assert.Contains(t, h.e.AsyncEvents(), engine.AsyncEvent{Source: id, Type: ir.ContentAvailable})
}

func TestCloneAction(t *testing.T) {
	h := newHarness(t, variables())

	require.NoError(t, h.exec(do(ir.ActionClone, local(6), indirect(4))))
	assert.Equal(t, ir.ObjectRef{Group: "~//a", Number: 8}, h.value(t, 4))

	_, ok := h.e.Object(ir.ObjectID{Group: "~//a", Number: 8})
	assert.True(t, ok)

	err := h.exec(do(ir.ActionClone, local(6), ir.Lit(ir.Int(1))))
	assert.True(t, engine.IsInvalidArgument(err))
}

func TestSetTimerAction(t *testing.T) {
	h := newHarness(t, variables())
	appID := ir.ObjectID{Group: "~//a"}

	require.NoError(t, h.exec(do(ir.ActionSetTimer, local(0), ir.Lit(ir.Int(3)), ir.Lit(ir.Int(250)))))
	assert.Equal(t, 1, h.e.TimerCount(appID))
	require.Len(t, h.timers.Live(), 1)
	assert.Equal(t, 250*time.Millisecond, h.timers.Live()[0].Delay)

	require.NoError(t, h.exec(do(ir.ActionSetTimer, local(0), ir.Lit(ir.Int(3)))))
	assert.Equal(t, 0, h.e.TimerCount(appID))
	assert.Empty(t, h.timers.Live())
}

func TestTransitionActions(t *testing.T) {
	app := variables()
	app.OnStartUp = []ir.Action{{Name: ir.ActionTransitionTo, Target: ir.Direct(ir.ObjectReference{Group: "menu"})}}
	menu := &ir.Group{
		ID:                 "~//menu",
		Kind:               ir.KindScene,
		InputEventRegister: ir.RegisterAllKeys,
		Ingredients: []ir.Ingredient{{
			Number:          1,
			Class:           ir.ClassLink,
			InitiallyActive: true,
			Link: &ir.LinkSpec{
				Condition: ir.LinkCondition{EventType: ir.UserInput, Data: ir.Int(int64(ir.KeyCancel))},
				Effect:    []ir.Action{{Name: ir.ActionQuit}},
			},
		}},
	}
	h := newHarness(t, app, menu)
	require.NotNil(t, h.e.Scene())
	assert.Equal(t, ir.GroupID("~//menu"), h.e.Scene().ID().Group)

	h.e.PostKey(ir.KeyCancel)
	h.settle(t)

	// Quit reboots ~//a, whose start-up enters the menu again.
	require.NotNil(t, h.e.Scene())
	assert.Len(t, h.trace.eventData(ir.ObjectID{Group: "~//menu"}, ir.IsRunning), 2)

	err := h.exec(do(ir.ActionLaunch, ir.Direct(ir.ObjectReference{Group: "~//nope"})))
	assert.True(t, engine.IsContentUnavailable(err))

	require.NoError(t, h.exec(do(ir.ActionRetune, ir.GenericRef{}, ir.Lit(ir.OctetString("dvb://1.2.3")))))
	h.settle(t)
	require.NotNil(t, h.e.App())
}
