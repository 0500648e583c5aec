// Package history persists the audit trail of runs. SQLite is the primary
// store; when it cannot be opened the store degrades to an append-only JSONL
// file, and with no path at all every call is a no-op. Recording never blocks
// or fails a run.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/pkg/text"
	"github.com/doeshing/goalrun/internal/ports"
)

// SQLiteStore implements ports.RunRecorder on a SQLite database.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	fallback *FileStore
	mu       sync.Mutex
}

// NewSQLiteStore creates or opens the database at path. An empty path
// disables persistence entirely.
func NewSQLiteStore(path string) *SQLiteStore {
	if path == "" {
		return &SQLiteStore{}
	}
	fallback := NewFileStore(filepath.Join(filepath.Dir(path), "runs.jsonl"))
	_ = os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	store := &SQLiteStore{db: db, path: path, fallback: fallback}
	if err := store.init(); err != nil {
		_ = db.Close()
		return &SQLiteStore{path: path, fallback: fallback}
	}
	return store
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		goal TEXT NOT NULL,
		status TEXT NOT NULL,
		steps INTEGER NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS run_commands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		command TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		stdout TEXT NOT NULL,
		stderr TEXT NOT NULL,
		duration_ms INTEGER NOT NULL
	);`)
	return err
}

// RunStarted implements ports.RunRecorder.
func (s *SQLiteStore) RunStarted(ctx context.Context, report domain.RunReport) error {
	if s.db == nil {
		return s.fallback.RunStarted(ctx, report)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO runs
		(id, goal, status, steps, reason, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, '')`,
		report.RunID,
		report.Goal,
		string(report.Status),
		report.Steps,
		report.Reason,
		report.StartedAt.Format(domain.TimestampFormat),
	)
	return err
}

// CommandExecuted implements ports.RunRecorder. Captured output is trimmed
// to the summary limit before it hits the database.
func (s *SQLiteStore) CommandExecuted(ctx context.Context, runID string, seq int, entry domain.HistoryEntry) error {
	if s.db == nil {
		return s.fallback.CommandExecuted(ctx, runID, seq, entry)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO run_commands
		(run_id, seq, command, exit_code, succeeded, stdout, stderr, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		seq,
		entry.Command,
		entry.Result.ExitCode,
		boolToInt(entry.Result.Succeeded),
		text.Truncate(entry.Result.Stdout, domain.SummaryOutputLimit),
		text.Truncate(entry.Result.Stderr, domain.SummaryOutputLimit),
		entry.Result.DurationMS,
	)
	return err
}

// RunFinished implements ports.RunRecorder.
func (s *SQLiteStore) RunFinished(ctx context.Context, report domain.RunReport) error {
	if s.db == nil {
		return s.fallback.RunFinished(ctx, report)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs
		(id, goal, status, steps, reason, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			steps = excluded.steps,
			reason = excluded.reason,
			finished_at = excluded.finished_at`,
		report.RunID,
		report.Goal,
		string(report.Status),
		report.Steps,
		report.Reason,
		report.StartedAt.Format(domain.TimestampFormat),
		report.FinishedAt.Format(domain.TimestampFormat),
	)
	return err
}

// RecentRuns implements ports.RunRecorder. Reports come back newest first
// without per-command history.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]domain.RunReport, error) {
	if s.db == nil {
		return s.fallback.RecentRuns(ctx, limit)
	}
	if limit <= 0 {
		limit = domain.DefaultHistoryListLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, goal, status, steps, reason, started_at, finished_at
		FROM runs ORDER BY datetime(started_at) DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []domain.RunReport
	for rows.Next() {
		var report domain.RunReport
		var status, startedAt, finishedAt string
		if err := rows.Scan(&report.RunID, &report.Goal, &status, &report.Steps, &report.Reason, &startedAt, &finishedAt); err != nil {
			return nil, err
		}
		report.Status = domain.RunStatus(status)
		if t, err := time.Parse(domain.TimestampFormat, startedAt); err == nil {
			report.StartedAt = t
		}
		if t, err := time.Parse(domain.TimestampFormat, finishedAt); err == nil {
			report.FinishedAt = t
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// Path returns the database location, empty when persistence is disabled.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.RunRecorder = (*SQLiteStore)(nil)
