package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mheg/internal/ir"
	"github.com/roach88/mheg/internal/testutil"
)

// selectTimerCarousel is an Application that transitions to a Scene whose
// only link sets timer 7 when Select is pressed.
func selectTimerCarousel() map[ir.GroupID]*ir.Group {
	a := app("~//a")
	a.OnStartUp = []ir.Action{transitionTo("~//main")}
	return map[ir.GroupID]*ir.Group{
		"~//a": a,
		"~//main": scene("~//main",
			link(1, ir.ObjectReference{}, ir.UserInput, ir.Int(int64(ir.KeySelect)), setTimer(7, 500)),
		),
	}
}

func TestEndToEnd_SelectKeySetsTimerThatFires(t *testing.T) {
	f := newFixture(t, selectTimerCarousel())
	f.boot(t)
	sceneID := oid("~//main", 0)
	require.NotNil(t, f.e.Scene())
	require.Equal(t, ir.GroupID("~//main"), f.e.Scene().ID().Group)
	f.executed = nil

	// Key press: exactly one queued UserInput event.
	require.True(t, f.e.PostKey(ir.KeySelect))
	f.e.drainInbox()
	assert.Equal(t, []AsyncEvent{{Source: sceneID, Type: ir.UserInput, Data: ir.Int(15)}}, f.e.AsyncEvents())

	// Next dispatch step: the link matches, SetTimer is the sole action.
	f.e.ProcessEvents()
	assert.Equal(t, []string{ir.ActionSetTimer}, f.executed)
	live := f.timers.Live()
	require.Len(t, live, 1)
	assert.Equal(t, 500*time.Millisecond, live[0].Delay)

	// The service fires: exactly one TimerFired(7).
	f.clock.Advance(500 * time.Millisecond)
	require.Equal(t, 1, f.timers.FireDue())
	f.e.drainInbox()
	assert.Equal(t, []AsyncEvent{{Source: sceneID, Type: ir.TimerFired, Data: ir.Int(7)}}, f.e.AsyncEvents())

	// No link watches TimerFired: the step drains to empty.
	f.e.ProcessEvents()
	assert.Equal(t, []string{ir.ActionSetTimer}, f.executed)
	assert.Empty(t, f.e.AsyncEvents())
	assert.Empty(t, f.e.main)
	assert.Empty(t, f.e.temp)
	assert.Equal(t, 0, f.e.TimerCount(sceneID))
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t, selectTimerCarousel())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.e.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_NoBootObject(t *testing.T) {
	f := newFixture(t, map[ir.GroupID]*ir.Group{"~//elsewhere": app("~//elsewhere")})

	err := f.e.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoBootObject)
}

func TestRegistry_DuplicateIsViolation(t *testing.T) {
	var r registry
	r.add(&Ingredient{base: base{id: oid("~//a", 1)}})

	assert.Panics(t, func() {
		r.add(&Ingredient{base: base{id: oid("~//a", 1)}})
	})
}

func TestRegistry_RemoveGroup(t *testing.T) {
	var r registry
	r.add(&Ingredient{base: base{id: oid("~//a", 1)}})
	r.add(&Ingredient{base: base{id: oid("~//b", 1)}})
	r.add(&Ingredient{base: base{id: oid("~//a", 2)}})

	r.removeGroup("~//a")
	assert.Equal(t, 1, r.len())
	_, ok := r.lookup(oid("~//b", 1))
	assert.True(t, ok)
}

func TestMaterialize_RejectsInvalidGroups(t *testing.T) {
	f := newFixture(t, timerApp())
	f.boot(t)

	_, err := f.e.Materialize(app("relative"))
	require.Error(t, err)

	_, err = f.e.Materialize(app("~//a"))
	require.Error(t, err, "already loaded")

	dup := scene("~//s",
		ir.Ingredient{Number: 1, Class: ir.ClassInteger},
		ir.Ingredient{Number: 1, Class: ir.ClassBoolean},
	)
	_, err = f.e.Materialize(dup)
	require.Error(t, err)
	_, ok := f.e.Object(oid("~//s", 0))
	assert.False(t, ok, "nothing registered on failure")
}

func TestLookup_IndirectReference(t *testing.T) {
	f := newFixture(t, map[ir.GroupID]*ir.Group{
		"~//a": app("~//a",
			ir.Ingredient{Number: 1, Class: ir.ClassObjectRef, InitiallyActive: true, Value: ir.ObjectRef{Number: 2}},
			ir.Ingredient{Number: 2, Class: ir.ClassInteger, InitiallyActive: true, Value: ir.Int(5)},
		),
	})
	f.boot(t)

	target, err := f.e.Target(ir.GenericRef{Ref: ir.ObjectReference{Number: 1}, Indirect: true}, "~//a")
	require.NoError(t, err)
	assert.Equal(t, oid("~//a", 2), target.ID())

	v, err := f.e.ParamValue(ir.Param{Indirect: &ir.GenericRef{Ref: ir.ObjectReference{Number: 2}}}, "~//a")
	require.NoError(t, err)
	assert.Equal(t, ir.Int(5), v)

	_, err = f.e.Target(ir.GenericRef{Ref: ir.ObjectReference{Number: 2}, Indirect: true}, "~//a")
	assert.True(t, IsTypeMismatch(err))

	_, err = f.e.Lookup(ir.ObjectReference{Number: 99}, "~//a")
	assert.True(t, IsReferenceNotFound(err))
}

func TestPersistent_StoreAndRead(t *testing.T) {
	f := newFixture(t, timerApp())
	ctx := context.Background()

	_, ok := f.e.ReadPersistent("ram://score")
	assert.False(t, ok)

	f.e.StorePersistent(ctx, "ram://score", []ir.Value{ir.Int(10), ir.OctetString("ann")})
	f.e.StorePersistent(ctx, "ram://score", []ir.Value{ir.Int(12)})

	vals, ok := f.e.ReadPersistent("ram://score")
	require.True(t, ok)
	assert.Equal(t, []ir.Value{ir.Int(12)}, vals)
}

type memBacking struct {
	saved []ir.PersistentRecord
}

func (m *memBacking) LoadPersistent(context.Context) ([]ir.PersistentRecord, error) {
	return []ir.PersistentRecord{{Filename: "ram://boot", Values: []ir.Value{ir.Bool(true)}}}, nil
}

func (m *memBacking) SavePersistent(_ context.Context, rec ir.PersistentRecord) error {
	m.saved = append(m.saved, rec)
	return nil
}

func TestPersistent_Backing(t *testing.T) {
	b := &memBacking{}
	f := newFixture(t, timerApp(), WithPersistence(b))
	ctx := context.Background()

	require.NoError(t, f.e.LoadPersistent(ctx))
	vals, ok := f.e.ReadPersistent("ram://boot")
	require.True(t, ok)
	assert.Equal(t, []ir.Value{ir.Bool(true)}, vals)

	f.e.StorePersistent(ctx, "ram://x", []ir.Value{ir.Int(1)})
	require.Len(t, b.saved, 1)
	assert.Equal(t, "ram://x", b.saved[0].Filename)
}

func TestClone_NextNumberAndPrepared(t *testing.T) {
	f := newFixture(t, map[ir.GroupID]*ir.Group{
		"~//a": app("~//a",
			ir.Ingredient{Number: 4, Class: ir.ClassInteger, InitiallyActive: true, Value: ir.Int(1)},
			ir.Ingredient{Number: 9, Class: ir.ClassRectangle, Position: ir.Point{X: 5, Y: 6}},
		),
	})
	f.boot(t)

	src, _ := f.e.Object(oid("~//a", 4))
	require.NoError(t, f.e.SetVariable(src, ir.Int(8)))

	id, err := f.e.Clone(src)
	require.NoError(t, err)
	assert.Equal(t, oid("~//a", 10), id)

	clone, ok := f.e.Object(id)
	require.True(t, ok)
	assert.True(t, clone.Available())
	assert.Equal(t, ir.Int(8), clone.(*Variable).Value())

	id2, err := f.e.Clone(src)
	require.NoError(t, err)
	assert.Equal(t, oid("~//a", 11), id2)

	_, err = f.e.Clone(f.e.App())
	assert.True(t, IsTypeMismatch(err))
}

func TestNew_DefaultsAndSession(t *testing.T) {
	e := New(testutil.NewMemLoader(nil), mapDecoder{}, execFunc(func(*Engine, ir.Action, ir.GroupID) error { return nil }))
	assert.Len(t, e.Session(), 36)
	assert.Equal(t, DefaultContentTimeout, e.contentTimeout)
	assert.Equal(t, DefaultBootObjects, e.bootObjects)
	assert.Nil(t, e.App())
	assert.Equal(t, "~/", e.Resolver().Dir())
}
