// Package ledger keeps an audit log of every worker invocation in SQLite.
// It is a log, not analytics: one row per invocation, queried by
// `foreman history`.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SchemaSQL is the ledger schema, applied on open.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS invocations (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	sprint INTEGER NOT NULL,
	phase TEXT NOT NULL,
	role TEXT NOT NULL,
	classification TEXT NOT NULL,
	files_changed INTEGER NOT NULL DEFAULT 0,
	output_bytes INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invocations_session ON invocations(session_id);
`

// Invocation is one recorded worker invocation.
type Invocation struct {
	ID             string
	SessionID      string
	Sprint         int
	Phase          string
	Role           string
	Classification string
	FilesChanged   int
	OutputBytes    int
	Duration       time.Duration
	StartedAt      time.Time
}

// Ledger wraps the SQLite database holding the invocation log.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	if _, err := db.Exec(SchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts one invocation row. A missing ID is assigned.
func (l *Ledger) Record(ctx context.Context, inv Invocation) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO invocations
			(id, session_id, sprint, phase, role, classification,
			 files_changed, output_bytes, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.SessionID, inv.Sprint, inv.Phase, inv.Role,
		inv.Classification, inv.FilesChanged, inv.OutputBytes,
		inv.Duration.Milliseconds(), inv.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record invocation: %w", err)
	}
	return nil
}

// Recent returns the most recent invocations, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Invocation, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, session_id, sprint, phase, role, classification,
		       files_changed, output_bytes, duration_ms, started_at
		FROM invocations
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	var out []Invocation
	for rows.Next() {
		var inv Invocation
		var durationMS int64
		if err := rows.Scan(&inv.ID, &inv.SessionID, &inv.Sprint, &inv.Phase,
			&inv.Role, &inv.Classification, &inv.FilesChanged,
			&inv.OutputBytes, &durationMS, &inv.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}
		inv.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read invocations: %w", err)
	}
	return out, nil
}

// CountBySession returns how many invocations a session has recorded.
func (l *Ledger) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invocations WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count invocations: %w", err)
	}
	return n, nil
}
