package engine

import (
	"log/slog"

	"github.com/roach88/mheg/internal/ir"
)

// PostKey delivers a key press from any goroutine. It is applied on the
// loop goroutine at the next input poll.
// Returns false once the engine has been stopped.
func (e *Engine) PostKey(k ir.Key) bool {
	return e.inbox.Post(stimulus{kind: stimulusKey, key: k})
}

// PostRedraw asks for the whole scene to be repainted on the loop
// goroutine, e.g. after the display was resized. Returns false once the
// engine has been stopped.
func (e *Engine) PostRedraw() bool {
	return e.inbox.Post(stimulus{kind: stimulusRedraw})
}

// keyPressed turns a key into events. Text raises the TextKeyFunction
// engine event; every key in the active Scene's register raises UserInput
// against the Scene.
func (e *Engine) keyPressed(k ir.Key) {
	if k == ir.KeyText {
		e.raiseEngineEvent(ir.EngineTextKeyFunction)
	}

	s := e.scene
	if s == nil {
		slog.Debug("key dropped, no active scene", "key", k)
		return
	}
	if !ir.InRegister(s.register, k) {
		slog.Debug("key outside input register", "key", k, "register", s.register)
		return
	}
	e.GenerateAsyncEvent(s.id, ir.UserInput, ir.Int(k))
}

// drainInbox applies every queued stimulus.
func (e *Engine) drainInbox() {
	for {
		s, ok := e.inbox.TryTake()
		if !ok {
			return
		}
		switch s.kind {
		case stimulusKey:
			e.keyPressed(s.key)
		case stimulusTimer:
			e.timerFired(s)
		case stimulusRedraw:
			e.surface.RedrawArea(ir.Point{}, ir.Size{W: ir.SceneWidth, H: ir.SceneHeight})
		}
	}
}
