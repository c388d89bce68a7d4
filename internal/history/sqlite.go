package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and creates if needed) the history database.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, ferrors.StorageError("could not create history directory").
				WithCause(err).WithContext("path", dbPath).Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.StorageError("could not open history database").
			WithCause(err).WithContext("path", dbPath).Build()
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.StorageError("failed to initialize history schema").
			WithCause(err).WithContext("path", dbPath).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		status TEXT NOT NULL,
		output TEXT,
		sections INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		error TEXT,
		producers TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts run.
func (s *SQLiteStore) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	producers, err := json.Marshal(run.Producers)
	if err != nil {
		return ferrors.StorageError("failed to encode producers").WithCause(err).Build()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration_ms, status, output, sections, pages, warnings, error, producers)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixMilli(), run.Duration.Milliseconds(), run.Status, run.Output,
		run.Sections, run.Pages, run.Warnings, run.Error, string(producers),
	)
	if err != nil {
		return ferrors.StorageError("failed to record run").WithCause(err).WithContext("run_id", run.ID).Build()
	}
	return nil
}

// Recent implements Store.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, status, output, sections, pages, warnings, error, producers
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, ferrors.StorageError("failed to query runs").WithCause(err).Build()
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.StorageError("failed to iterate runs").WithCause(err).Build()
	}
	return runs, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, duration_ms, status, output, sections, pages, warnings, error, producers
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ferrors.NewError(ferrors.CategoryNotFound, "run not found").WithContext("run_id", id).Build()
	}
	return r, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r          Run
		startedMS  int64
		durationMS int64
		output     sql.NullString
		errText    sql.NullString
		producers  sql.NullString
	)
	if err := sc.Scan(&r.ID, &startedMS, &durationMS, &r.Status, &output, &r.Sections, &r.Pages, &r.Warnings, &errText, &producers); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, ferrors.StorageError("failed to scan run").WithCause(err).Build()
	}
	r.StartedAt = time.UnixMilli(startedMS)
	r.Duration = time.Duration(durationMS) * time.Millisecond
	r.Output = output.String
	r.Error = errText.String
	if producers.Valid && producers.String != "" && producers.String != "null" {
		if err := json.Unmarshal([]byte(producers.String), &r.Producers); err != nil {
			return Run{}, ferrors.StorageError("failed to decode producers").WithCause(err).Build()
		}
	}
	return r, nil
}
