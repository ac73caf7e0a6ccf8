package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one submitted action.
type Entry struct {
	ID      string
	At      time.Time
	Source  string // "pointer", "panel" or "cli"
	Kind    string
	Payload string
	Err     string
	Latency time.Duration
}

// OK reports whether the submission succeeded.
func (e Entry) OK() bool { return e.Err == "" }

// Journal appends and lists entries.
type Journal struct {
	db *sql.DB
}

// Open creates the database file if needed, migrates it and opens it.
func Open(path string) (*Journal, error) {
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("journal dir: %w", err)
	}
	if err := runMigrations(path); err != nil {
		return nil, fmt.Errorf("journal migrate: %w", err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("journal open: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Record stores e. A missing ID or timestamp is filled in; the stored entry
// is returned.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx, `
	INSERT INTO actions(id, created_at, source, kind, payload, error, latency_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`, e.ID, e.At, e.Source, e.Kind, e.Payload, e.Err, e.Latency.Milliseconds())
	if err != nil {
		return Entry{}, fmt.Errorf("journal record: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT id, created_at, source, kind, payload, error, latency_ms
	FROM actions ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.ID, &e.At, &e.Source, &e.Kind, &e.Payload, &e.Err, &ms); err != nil {
			return nil, err
		}
		e.Latency = time.Duration(ms) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of stored entries.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions`).Scan(&n)
	return n, err
}
