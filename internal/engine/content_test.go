package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mheg/internal/ir"
)

func bitmapApp(name string) map[ir.GroupID]*ir.Group {
	return map[ir.GroupID]*ir.Group{
		"~//a": app("~//a", ir.Ingredient{
			Number:          1,
			Class:           ir.ClassBitmap,
			InitiallyActive: true,
			Content:         &ir.Content{Referenced: name},
			Size:            ir.Size{W: 10, H: 10},
		}),
	}
}

func TestContent_ZeroTimeoutFailsOnFirstPoll(t *testing.T) {
	f := newFixture(t, bitmapApp("logo.png"))
	f.boot(t)

	appID := oid("~//a", 0)
	assert.Equal(t, 1, f.trace.count(appID, ir.EngineEvent))
	assert.Equal(t, 0, f.e.PendingContent())

	pic, _ := f.e.Object(oid("~//a", 1))
	assert.False(t, pic.(*Visible).NeedsContent())
	assert.Equal(t, 0, f.trace.count(pic.ID(), ir.ContentAvailable))
}

func TestContent_ArrivalRaisesContentAvailable(t *testing.T) {
	f := newFixture(t, bitmapApp("logo.png"), WithContentTimeout(10))
	f.boot(t)
	picID := oid("~//a", 1)

	require.Equal(t, 1, f.e.PendingContent())
	pic, _ := f.e.Object(picID)
	assert.True(t, pic.(*Visible).NeedsContent())

	f.loader.Put("logo.png", []byte("PNG"))
	f.settle(t)

	assert.Equal(t, 0, f.e.PendingContent())
	assert.Equal(t, 1, f.trace.count(picID, ir.ContentAvailable))
	assert.Equal(t, []byte("PNG"), pic.(*Visible).Content())
	assert.False(t, pic.(*Visible).NeedsContent())
}

func TestContent_TimesOutInWholeSeconds(t *testing.T) {
	f := newFixture(t, bitmapApp("logo.png"), WithContentTimeout(2))
	f.boot(t)
	appID := oid("~//a", 0)

	f.clock.Advance(1500 * time.Millisecond)
	f.settle(t)
	assert.Equal(t, 1, f.e.PendingContent())

	f.clock.Advance(500 * time.Millisecond)
	f.settle(t)
	assert.Equal(t, 0, f.e.PendingContent())
	assert.Equal(t, 1, f.trace.count(appID, ir.EngineEvent))
}

func TestContent_DestroyDropsRequest(t *testing.T) {
	f := newFixture(t, bitmapApp("logo.png"), WithContentTimeout(10))
	f.boot(t)

	pic, _ := f.e.Object(oid("~//a", 1))
	f.e.Destroy(pic)
	assert.Equal(t, 0, f.e.PendingContent())
}

func TestSetData(t *testing.T) {
	f := newFixture(t, bitmapApp("logo.png"), WithContentTimeout(10))
	f.boot(t)
	picID := oid("~//a", 1)
	pic, _ := f.e.Object(picID)

	t.Run("included content is available at once", func(t *testing.T) {
		require.NoError(t, f.e.SetData(pic, ir.OctetString("inline")))
		assert.Equal(t, 0, f.e.PendingContent())
		assert.Equal(t, []byte("inline"), pic.(*Visible).Content())
		assert.Contains(t, f.e.AsyncEvents(), AsyncEvent{Source: picID, Type: ir.ContentAvailable})
		f.settle(t)
	})

	t.Run("referenced content replaces the request", func(t *testing.T) {
		require.NoError(t, f.e.SetData(pic, ir.ContentRef("a.png")))
		require.NoError(t, f.e.SetData(pic, ir.ContentRef("b.png")))
		assert.Equal(t, 1, f.e.PendingContent())

		f.loader.Put("a.png", []byte("A"))
		f.settle(t)
		assert.Equal(t, 1, f.e.PendingContent())

		f.loader.Put("b.png", []byte("B"))
		f.settle(t)
		assert.Equal(t, 0, f.e.PendingContent())
		assert.Equal(t, []byte("B"), pic.(*Visible).Content())
	})

	t.Run("other kinds are rejected", func(t *testing.T) {
		err := f.e.SetData(pic, ir.Int(3))
		assert.True(t, IsTypeMismatch(err))
	})
}

func TestContent_UnregisteredObjectIsViolation(t *testing.T) {
	f := newFixture(t, bitmapApp("logo.png"), WithContentTimeout(10))
	f.boot(t)

	orphan := &Ingredient{base: base{id: oid("~//gone", 1)}}
	f.e.content = append(f.e.content, pendingContent{obj: orphan, name: "x"})

	assert.Panics(t, func() { f.e.pollContent() })
}
