package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS assignments (
    visitor_id TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL DEFAULT (unixepoch()),
    PRIMARY KEY (visitor_id, key)
);

CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    action TEXT NOT NULL,
    label TEXT NOT NULL,
    visitor_id TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_events_action ON events(action);
CREATE INDEX IF NOT EXISTS idx_events_visitor ON events(visitor_id);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for health checks
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) GetAssignment(ctx context.Context, visitorID, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM assignments WHERE visitor_id = ? AND key = ?`,
		visitorID, key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get assignment: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) SetAssignment(ctx context.Context, visitorID, key, value string) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments (visitor_id, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(visitor_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		visitorID, key, value, now,
	)
	if err != nil {
		return fmt.Errorf("failed to set assignment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAssignments(ctx context.Context, visitorID string) ([]*Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT visitor_id, key, value, updated_at
		 FROM assignments WHERE visitor_id = ? ORDER BY key`,
		visitorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*Assignment
	for rows.Next() {
		var a Assignment
		var updatedAt int64
		if err := rows.Scan(&a.VisitorID, &a.Key, &a.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.UpdatedAt = time.Unix(updatedAt, 0)
		assignments = append(assignments, &a)
	}

	return assignments, rows.Err()
}

func (s *SQLiteStore) RecordEvent(ctx context.Context, category, action, label, visitorID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, category, action, label, visitor_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ulid.Make().String(), category, action, label, visitorID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// GetEvents returns events for one action, or all events when action is
// empty. ULIDs sort by creation time, so ordering by id is chronological.
func (s *SQLiteStore) GetEvents(ctx context.Context, action string) ([]*Event, error) {
	query := `SELECT id, category, action, label, visitor_id, created_at FROM events`
	var args []any
	if action != "" {
		query += ` WHERE action = ?`
		args = append(args, action)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Category, &e.Action, &e.Label, &e.VisitorID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		events = append(events, &e)
	}

	return events, rows.Err()
}

func (s *SQLiteStore) CountEvents(ctx context.Context) ([]ActionCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT action, label, COUNT(DISTINCT visitor_id)
		FROM events
		GROUP BY action, label
		ORDER BY action, label
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	var counts []ActionCount
	for rows.Next() {
		var c ActionCount
		if err := rows.Scan(&c.Action, &c.Label, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}
