package engine

import (
	"context"
	"log/slog"
	"slices"

	"github.com/roach88/mheg/internal/ir"
)

// StorePersistent saves vals under filename, replacing any earlier record.
// With a backing store configured the record is also written through;
// a backing failure is logged and the in-memory record kept.
func (e *Engine) StorePersistent(ctx context.Context, filename string, vals []ir.Value) {
	rec := ir.PersistentRecord{Filename: filename, Values: slices.Clone(vals)}

	i := slices.IndexFunc(e.persistent, func(r ir.PersistentRecord) bool { return r.Filename == filename })
	if i >= 0 {
		e.persistent[i] = rec
	} else {
		e.persistent = append(e.persistent, rec)
	}

	if e.backing != nil {
		if err := e.backing.SavePersistent(ctx, rec); err != nil {
			slog.Warn("persistent record not saved", "filename", filename, "error", err)
		}
	}
}

// ReadPersistent returns the values stored under filename.
func (e *Engine) ReadPersistent(filename string) ([]ir.Value, bool) {
	for _, r := range e.persistent {
		if r.Filename == filename {
			return slices.Clone(r.Values), true
		}
	}
	return nil, false
}

// LoadPersistent replaces the in-memory records with the backing store's.
// No-op without a backing store.
func (e *Engine) LoadPersistent(ctx context.Context) error {
	if e.backing == nil {
		return nil
	}
	recs, err := e.backing.LoadPersistent(ctx)
	if err != nil {
		return err
	}
	e.persistent = recs
	slog.Debug("persistent records loaded", "count", len(recs))
	return nil
}
