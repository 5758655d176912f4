package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JournalRepo appends and reads completion events.
type JournalRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

// AppendCompletion records that unitID was completed at the given time.
func (r *JournalRepo) AppendCompletion(ctx context.Context, unitID string, at time.Time) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO completion_events (event_id, sequence, unit_id, completed_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), seqNum, unitID, at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save completion event: %w", err)
	}
	return nil
}

// Completions returns every completion event in sequence order.
func (r *JournalRepo) Completions(ctx context.Context) ([]CompletionEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, sequence, unit_id, completed_at FROM completion_events ORDER BY sequence`)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	var events []CompletionEvent
	for rows.Next() {
		var (
			ev CompletionEvent
			at string
		)
		if err := rows.Scan(&ev.EventID, &ev.Sequence, &ev.UnitID, &at); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			ev.CompletedAt = t
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
