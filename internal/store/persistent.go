package store

import (
	"context"
	"fmt"

	"github.com/roach88/mheg/internal/ir"
)

// SavePersistent stores rec, replacing any record with the same file name.
// The record moves to the end of the load order.
func (s *Store) SavePersistent(ctx context.Context, rec ir.PersistentRecord) error {
	vals, err := ir.MarshalValues(rec.Values)
	if err != nil {
		return fmt.Errorf("marshal persistent %q: %w", rec.Filename, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO persistent_records (filename, vals, seq)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM persistent_records))
		ON CONFLICT(filename) DO UPDATE SET vals = excluded.vals, seq = excluded.seq
	`, rec.Filename, string(vals))
	if err != nil {
		return fmt.Errorf("save persistent %q: %w", rec.Filename, err)
	}
	return nil
}

// LoadPersistent returns every stored record in save order.
// Returns an empty slice (not nil) when nothing is stored.
func (s *Store) LoadPersistent(ctx context.Context) ([]ir.PersistentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT filename, vals
		FROM persistent_records
		ORDER BY seq ASC, filename COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query persistent records: %w", err)
	}
	defer rows.Close()

	records := []ir.PersistentRecord{}
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scan persistent record: %w", err)
		}
		vals, err := ir.UnmarshalValues([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode persistent %q: %w", name, err)
		}
		records = append(records, ir.PersistentRecord{Filename: name, Values: vals})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persistent records: %w", err)
	}
	return records, nil
}
