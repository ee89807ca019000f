package terminal

import (
	"context"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/roach88/mheg/internal/ir"
)

// Poster accepts key presses and repaint requests from the input
// goroutine; *engine.Engine implements it.
type Poster interface {
	PostKey(k ir.Key) bool
	PostRedraw() bool
}

var runeKeys = map[rune]ir.Key{
	'r': ir.KeyRed,
	'g': ir.KeyGreen,
	'y': ir.KeyYellow,
	'b': ir.KeyBlue,
	't': ir.KeyText,
}

var specialKeys = map[tcell.Key]ir.Key{
	tcell.KeyUp:         ir.KeyUp,
	tcell.KeyDown:       ir.KeyDown,
	tcell.KeyLeft:       ir.KeyLeft,
	tcell.KeyRight:      ir.KeyRight,
	tcell.KeyEnter:      ir.KeySelect,
	tcell.KeyBackspace:  ir.KeyCancel,
	tcell.KeyBackspace2: ir.KeyCancel,
	tcell.KeyF1:         ir.KeyRed,
	tcell.KeyF2:         ir.KeyGreen,
	tcell.KeyF3:         ir.KeyYellow,
	tcell.KeyF4:         ir.KeyBlue,
	tcell.KeyF5:         ir.KeyText,
}

// KeyFor maps a terminal key to a remote control key.
// Arrows, Enter (select), Backspace (cancel), digits, F1-F4 or r/g/y/b
// (colour keys) and F5 or t (text).
func KeyFor(ev *tcell.EventKey) (ir.Key, bool) {
	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if r >= '0' && r <= '9' {
			return ir.Digit(int(r - '0')), true
		}
		k, ok := runeKeys[r]
		return k, ok
	}
	k, ok := specialKeys[ev.Key()]
	return k, ok
}

// Input reads the terminal keyboard and posts keys to the engine. A
// terminal resize is posted as a repaint request so drawing stays on the
// engine's goroutine.
type Input struct {
	screen tcell.Screen
	engine Poster
}

func NewInput(screen tcell.Screen, engine Poster) *Input {
	return &Input{screen: screen, engine: engine}
}

// Run polls terminal events until Escape or Ctrl-C is pressed, the engine
// stops accepting keys, or ctx is cancelled.
func (in *Input) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = in.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		ev := in.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return nil // screen finalised
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return ctx.Err()
			}
		case *tcell.EventResize:
			in.screen.Sync()
			if !in.engine.PostRedraw() {
				return nil
			}
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				return nil
			}
			k, ok := KeyFor(ev)
			if !ok {
				slog.Debug("unmapped terminal key", "key", ev.Name())
				continue
			}
			if !in.engine.PostKey(k) {
				return nil
			}
		}
	}
}
