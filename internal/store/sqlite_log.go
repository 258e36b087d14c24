package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/turtle"
)

// Append inserts ev as the next version of id's log. The version lookup
// and insert share one transaction.
func (l *SQLiteLog) Append(ctx context.Context, id turtle.ID, ev event.Event) (Record, error) {
	payload, err := event.MarshalCanonical(ev)
	if err != nil {
		return Record{}, fmt.Errorf("sqlite append: %w", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("sqlite append: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var last int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM events WHERE turtle_id = ?
	`, string(id)).Scan(&last)
	if err != nil {
		return Record{}, fmt.Errorf("sqlite append: read version: %w", err)
	}

	version := last + 1
	eventID, err := event.ID(string(id), version, ev)
	if err != nil {
		return Record{}, fmt.Errorf("sqlite append: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO events (id, turtle_id, version, type, payload)
		VALUES (?, ?, ?, ?, ?)
	`,
		eventID,
		string(id),
		version,
		ev.Type(),
		string(payload),
	)
	if err != nil {
		return Record{}, fmt.Errorf("sqlite append: insert: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("sqlite append: last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("sqlite append: commit: %w", err)
	}

	return Record{
		Seq:      seq,
		Version:  version,
		ID:       eventID,
		TurtleID: id,
		Event:    ev,
	}, nil
}

// Load returns id's records ordered by seq. Returns an empty slice (not
// nil) if id has no history.
func (l *SQLiteLog) Load(ctx context.Context, id turtle.ID) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, id, turtle_id, version, type, payload
		FROM events
		WHERE turtle_id = ?
		ORDER BY seq ASC
	`, string(id))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

func (l *SQLiteLog) Clear(ctx context.Context, id turtle.ID) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM events WHERE turtle_id = ?`, string(id)); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	return nil
}

func (l *SQLiteLog) TurtleIDs(ctx context.Context) ([]turtle.ID, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT DISTINCT turtle_id FROM events ORDER BY turtle_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query turtle ids: %w", err)
	}
	defer rows.Close()

	ids := []turtle.ID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan turtle id: %w", err)
		}
		ids = append(ids, turtle.ID(id))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turtle ids: %w", err)
	}
	return ids, nil
}

// scanRecord decodes one events row. The type column must agree with the
// decoded payload.
func scanRecord(rows *sql.Rows) (Record, error) {
	var rec Record
	var turtleID, typ, payload string

	if err := rows.Scan(&rec.Seq, &rec.ID, &turtleID, &rec.Version, &typ, &payload); err != nil {
		return Record{}, fmt.Errorf("scan event: %w", err)
	}

	ev, err := event.Unmarshal([]byte(payload))
	if err != nil {
		return Record{}, fmt.Errorf("event seq=%d: %w", rec.Seq, err)
	}
	if ev.Type() != typ {
		return Record{}, fmt.Errorf("event seq=%d: type column %q does not match payload %q", rec.Seq, typ, ev.Type())
	}

	rec.TurtleID = turtle.ID(turtleID)
	rec.Event = ev
	return rec, nil
}
