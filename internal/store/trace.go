package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/mheg/internal/ir"
)

// Session describes one engine run recorded in the trace tables.
type Session struct {
	ID            string
	EngineVersion string
	SchemaVersion string
	Carousel      string
	Events        int
}

// BeginSession registers a trace session. Calling it again for the same id
// is a no-op.
func (s *Store) BeginSession(ctx context.Context, id, carousel string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, engine_version, schema_version, carousel)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, ir.EngineVersion, ir.SchemaVersion, carousel)
	if err != nil {
		return fmt.Errorf("begin session %s: %w", id, err)
	}
	return nil
}

// WriteTraceEvent appends ev to session. Writing the same seq twice is a
// no-op so a replayed write cannot duplicate the timeline.
func (s *Store) WriteTraceEvent(ctx context.Context, session string, ev ir.TraceEvent) error {
	var vals []ir.Value
	if ev.Data != nil {
		vals = []ir.Value{ev.Data}
	}
	data, err := ir.MarshalValues(vals)
	if err != nil {
		return fmt.Errorf("marshal trace data: %w", err)
	}

	eventType := ""
	if ev.Kind == ir.TraceKindEvent {
		eventType = ev.EventType.String()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trace_events
			(session, seq, kind, source_group, source_number, event_type, async, data, action, group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session, seq) DO NOTHING
	`, session, ev.Seq, ev.Kind, string(ev.Source.Group), ev.Source.Number,
		eventType, ev.Async, string(data), ev.Action, string(ev.Group))
	if err != nil {
		return fmt.Errorf("write trace event seq=%d: %w", ev.Seq, err)
	}
	return nil
}

// ReadTrace returns the timeline of session in seq order. A non-empty kind
// restricts the result to that trace kind.
func (s *Store) ReadTrace(ctx context.Context, session, kind string) ([]ir.TraceEvent, error) {
	query := `
		SELECT seq, kind, source_group, source_number, event_type, async, data, action, group_id
		FROM trace_events
		WHERE session = ?`
	args := []any{session}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	events := []ir.TraceEvent{}
	for rows.Next() {
		ev, err := scanTraceEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace: %w", err)
	}
	return events, nil
}

func scanTraceEvent(rows *sql.Rows) (ir.TraceEvent, error) {
	var (
		ev        ir.TraceEvent
		group     string
		eventType string
		data      string
		grp       string
	)
	if err := rows.Scan(&ev.Seq, &ev.Kind, &group, &ev.Source.Number,
		&eventType, &ev.Async, &data, &ev.Action, &grp); err != nil {
		return ir.TraceEvent{}, fmt.Errorf("scan trace event: %w", err)
	}
	ev.Source.Group = ir.GroupID(group)
	ev.Group = ir.GroupID(grp)

	if eventType != "" {
		t, err := ir.ParseEventType(eventType)
		if err != nil {
			return ir.TraceEvent{}, fmt.Errorf("trace event seq=%d: %w", ev.Seq, err)
		}
		ev.EventType = t
	}

	vals, err := ir.UnmarshalValues([]byte(data))
	if err != nil {
		return ir.TraceEvent{}, fmt.Errorf("trace event seq=%d data: %w", ev.Seq, err)
	}
	if len(vals) > 0 {
		ev.Data = vals[0]
	}
	return ev, nil
}

// ListSessions returns every recorded session with its event count,
// ordered by id. UUIDv7 ids sort by creation time.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.engine_version, s.schema_version, s.carousel, COUNT(t.seq)
		FROM sessions s
		LEFT JOIN trace_events t ON t.session = s.id
		GROUP BY s.id
		ORDER BY s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.EngineVersion, &sess.SchemaVersion,
			&sess.Carousel, &sess.Events); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// TraceRecorder writes engine trace events to a store session.
// Write failures are logged, not returned: tracing never stops the engine.
type TraceRecorder struct {
	store   *Store
	session string
	ctx     context.Context
}

// NewTraceRecorder returns a recorder for session. The session row must
// already exist (see BeginSession).
func NewTraceRecorder(ctx context.Context, s *Store, session string) *TraceRecorder {
	return &TraceRecorder{store: s, session: session, ctx: ctx}
}

// Record implements engine.TraceSink.
func (r *TraceRecorder) Record(ev ir.TraceEvent) {
	if err := r.store.WriteTraceEvent(r.ctx, r.session, ev); err != nil {
		slog.Warn("trace write failed", "session", r.session, "seq", ev.Seq, "error", err)
	}
}
