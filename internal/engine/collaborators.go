package engine

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/mheg/internal/ir"
)

// ContentLoader gives the engine access to carousel files.
// Names are canonical group ids or content references ("~//...").
type ContentLoader interface {
	// CheckContentRef reports whether name can be loaded now.
	CheckContentRef(name string) bool
	LoadFile(name string) ([]byte, error)
	OpenStream(name string) (io.ReadCloser, error)
}

// Decoder turns the bytes of one carousel file into a group description.
// id is the canonical id the file was loaded under.
type Decoder interface {
	Decode(id ir.GroupID, data []byte) (*ir.Group, error)
}

// ActionExecutor interprets one elementary action. group is the id of the
// group whose action list holds the action; internal references resolve
// against it.
type ActionExecutor interface {
	Execute(e *Engine, a ir.Action, group ir.GroupID) error
}

// Drawable is the view a RenderSurface gets of a visible object.
type Drawable interface {
	ID() ir.ObjectID
	Class() ir.Class
	Geometry() (ir.Point, ir.Size)
	Content() []byte
}

// RenderSurface mirrors the DisplayStack and repaints areas on request.
type RenderSurface interface {
	RedrawArea(pos ir.Point, size ir.Size)
	AddVisible(v Drawable)
	RemoveVisible(v Drawable)
	BringToFront(v Drawable)
	SendToBack(v Drawable)
	PutBefore(v, ref Drawable)
	PutBehind(v, ref Drawable)
}

// Tuner switches the receiver to another broadcast service.
type Tuner interface {
	Retune(ctx context.Context, service string) error
}

// PersistentBacking makes PersistentRecords outlive the engine process.
type PersistentBacking interface {
	LoadPersistent(ctx context.Context) ([]ir.PersistentRecord, error)
	SavePersistent(ctx context.Context, rec ir.PersistentRecord) error
}

// TraceSink receives every generated event and executed action.
type TraceSink interface {
	Record(ev ir.TraceEvent)
}

type nopSurface struct{}

func (nopSurface) RedrawArea(ir.Point, ir.Size) {}
func (nopSurface) AddVisible(Drawable)          {}
func (nopSurface) RemoveVisible(Drawable)       {}
func (nopSurface) BringToFront(Drawable)        {}
func (nopSurface) SendToBack(Drawable)          {}
func (nopSurface) PutBefore(Drawable, Drawable) {}
func (nopSurface) PutBehind(Drawable, Drawable) {}

// LogTuner is a Tuner for receivers without a tuning backend: it only logs
// the request.
type LogTuner struct{}

// Retune implements Tuner.
func (LogTuner) Retune(_ context.Context, service string) error {
	slog.Info("retune requested", "service", service)
	return nil
}
