package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id                 TEXT PRIMARY KEY,
	session_id         TEXT NOT NULL,
	started_at         INTEGER NOT NULL,
	ended_at           INTEGER NOT NULL,
	attentive_seconds  REAL NOT NULL DEFAULT 0,
	distracted_seconds REAL NOT NULL DEFAULT 0,
	drowsy_seconds     REAL NOT NULL DEFAULT 0,
	event_log_path     TEXT NOT NULL DEFAULT '',
	report_path        TEXT NOT NULL DEFAULT '',
	chart_path         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions (started_at);
`

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single connection keeps :memory: databases coherent
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts or replaces a summary.
func (s *SQLiteStore) Save(ctx context.Context, sum *Summary) error {
	if sum.ID == "" {
		sum.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
			(id, session_id, started_at, ended_at, attentive_seconds, distracted_seconds,
			 drowsy_seconds, event_log_path, report_path, chart_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.SessionID, sum.StartedAt.UnixNano(), sum.EndedAt.UnixNano(),
		sum.Attentive, sum.Distracted, sum.Drowsy,
		sum.EventLogPath, sum.ReportPath, sum.ChartPath,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sum.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, session_id, started_at, ended_at, attentive_seconds,
	distracted_seconds, drowsy_seconds, event_log_path, report_path, chart_path FROM sessions`

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (*Summary, error) {
	var sum Summary
	var started, ended int64
	err := row.Scan(&sum.ID, &sum.SessionID, &started, &ended, &sum.Attentive,
		&sum.Distracted, &sum.Drowsy, &sum.EventLogPath, &sum.ReportPath, &sum.ChartPath)
	if err != nil {
		return nil, err
	}
	sum.StartedAt = time.Unix(0, started)
	sum.EndedAt = time.Unix(0, ended)
	return &sum, nil
}

// Get retrieves a summary by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Summary, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return sum, nil
}

// List returns summaries, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Summary, error) {
	query := selectColumns + ` ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a summary by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
