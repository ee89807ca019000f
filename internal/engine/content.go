package engine

import (
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/mheg/internal/ir"
)

// pendingContent is an outstanding request for referenced content.
// There is at most one per object.
type pendingContent struct {
	obj       Object
	name      string
	requested time.Time
}

// requestContent registers (or replaces) o's pending content request.
func (e *Engine) requestContent(o Object, name string) {
	e.dropPendingContent(o)
	e.content = append(e.content, pendingContent{obj: o, name: name, requested: e.wall.Now()})
	slog.Debug("content requested", "object", o.ID(), "name", name)
}

func (e *Engine) dropPendingContent(o Object) {
	e.content = slices.DeleteFunc(e.content, func(p pendingContent) bool { return p.obj == o })
}

// pollContent checks every pending request once. Arrived content is
// delivered; a request older than the content timeout fails with a
// ContentRefError engine event. Timeout 0 fails on the first poll.
func (e *Engine) pollContent() {
	if len(e.content) == 0 {
		return
	}

	// Callbacks may register new requests; those land in e.content while
	// we walk the snapshot.
	pending := e.content
	e.content = nil
	now := e.wall.Now()

	var kept []pendingContent
	for _, p := range pending {
		if !e.registry.contains(p.obj) {
			violation("pending content %q for unregistered object %s", p.name, p.obj.ID())
		}

		switch {
		case e.loader.CheckContentRef(p.name):
			e.contentArrived(p.obj, p.name)
		case now.Unix() >= p.requested.Unix()+int64(e.contentTimeout):
			slog.Warn("content timed out", "object", p.obj.ID(), "name", p.name)
			contentErrors.Inc()
			p.obj.core().needsContent = false
			e.raiseEngineEvent(ir.EngineContentRefError)
		default:
			kept = append(kept, p)
		}
	}

	for _, p := range kept {
		if !slices.ContainsFunc(e.content, func(n pendingContent) bool { return n.obj == p.obj }) {
			e.content = append(e.content, p)
		}
	}
}

// contentArrived loads arrived content into o and raises ContentAvailable.
func (e *Engine) contentArrived(o Object, name string) {
	b := o.core()
	data, err := e.loader.LoadFile(name)
	if err != nil {
		slog.Warn("content load failed", "object", b.id, "name", name, "error", err)
		contentErrors.Inc()
		b.needsContent = false
		e.raiseEngineEvent(ir.EngineContentRefError)
		return
	}

	b.content = data
	b.needsContent = false
	if v, ok := o.(*Visible); ok && v.running {
		e.redraw(v)
	}
	e.GenerateAsyncEvent(b.id, ir.ContentAvailable, nil)
}

// SetData replaces o's content. An OctetString is included content and is
// available at once; a ContentRef is fetched through the pending content
// list, replacing any earlier request.
func (e *Engine) SetData(o Object, data ir.Value) error {
	b := o.core()
	switch val := data.(type) {
	case ir.OctetString:
		e.dropPendingContent(o)
		b.contentName = ""
		b.content = []byte(val)
		b.needsContent = false
		if v, ok := o.(*Visible); ok && v.running {
			e.redraw(v)
		}
		e.GenerateAsyncEvent(b.id, ir.ContentAvailable, nil)
	case ir.ContentRef:
		b.contentName = string(val)
		b.content = nil
		if b.available {
			b.needsContent = true
			e.requestContent(o, string(val))
		}
	default:
		return NewTypeMismatch(b.id, "octet string or content reference", kindName(data))
	}
	return nil
}

// PendingContent returns the number of outstanding content requests.
func (e *Engine) PendingContent() int {
	return len(e.content)
}

// raiseEngineEvent queues EngineEvent(code) against the active Application.
func (e *Engine) raiseEngineEvent(code ir.Int) {
	if e.app == nil {
		slog.Warn("engine event without application", "code", int64(code))
		return
	}
	e.GenerateAsyncEvent(e.app.id, ir.EngineEvent, code)
}

func kindName(v ir.Value) string {
	if v == nil {
		return "nothing"
	}
	return v.Kind().String()
}
