package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/mheg/internal/ir"
	"github.com/roach88/mheg/internal/ref"
)

func TestMatch_FlipProperty(t *testing.T) {
	r := ref.WithDir("~//svc")
	linkGroup := ir.GroupID("~//svc/main")
	cond := ir.LinkCondition{
		Source:    ir.ObjectReference{Number: 3},
		EventType: ir.UserInput,
		Data:      ir.Int(15),
	}
	source := oid("~//svc/main", 3)

	assert.True(t, Match(r, linkGroup, cond, source, ir.UserInput, ir.Int(15)))

	t.Run("type", func(t *testing.T) {
		assert.False(t, Match(r, linkGroup, cond, source, ir.TimerFired, ir.Int(15)))
	})
	t.Run("data", func(t *testing.T) {
		assert.False(t, Match(r, linkGroup, cond, source, ir.UserInput, ir.Int(16)))
		assert.False(t, Match(r, linkGroup, cond, source, ir.UserInput, ir.OctetString("15")))
		assert.False(t, Match(r, linkGroup, cond, source, ir.UserInput, nil))
	})
	t.Run("source number", func(t *testing.T) {
		assert.False(t, Match(r, linkGroup, cond, oid("~//svc/main", 4), ir.UserInput, ir.Int(15)))
	})
	t.Run("source group", func(t *testing.T) {
		assert.False(t, Match(r, linkGroup, cond, oid("~//svc/other", 3), ir.UserInput, ir.Int(15)))
	})
}

func TestMatch_UndeclaredDataMatchesAnything(t *testing.T) {
	r := ref.NewResolver("~//a")
	cond := ir.LinkCondition{Source: ir.ObjectReference{Number: 0}, EventType: ir.TimerFired}

	assert.True(t, Match(r, "~//a", cond, oid("~//a", 0), ir.TimerFired, ir.Int(1)))
	assert.True(t, Match(r, "~//a", cond, oid("~//a", 0), ir.TimerFired, nil))
}

func TestMatch_SourceCanonicalized(t *testing.T) {
	r := ref.WithDir("~//svc")
	source := oid("~//svc/main", 2)

	for _, g := range []ir.GroupID{"~//svc/main", "/main", "~/main", "main", "DSM:/main", "//svc/main"} {
		cond := ir.LinkCondition{Source: ir.ObjectReference{Group: g, Number: 2}, EventType: ir.IsRunning}
		assert.True(t, Match(r, "~//elsewhere", cond, source, ir.IsRunning, nil), "source group %q", g)
	}
}

func TestMatch_ByteStringData(t *testing.T) {
	r := ref.NewResolver("~//a")
	cond := ir.LinkCondition{Source: ir.ObjectReference{Number: 1}, EventType: ir.StreamEvent, Data: ir.OctetString("go")}

	assert.True(t, Match(r, "~//a", cond, oid("~//a", 1), ir.StreamEvent, ir.OctetString("go")))
	assert.False(t, Match(r, "~//a", cond, oid("~//a", 1), ir.StreamEvent, ir.OctetString("gO")))
}
