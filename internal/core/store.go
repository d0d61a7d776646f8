package core

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/3cpo-dev/hostinit/internal/provision"
	"github.com/3cpo-dev/hostinit/pkg/api"
)

// Store is the SQLite run journal.
type Store struct{ db *sql.DB }

//go:embed migrations/*.sql
var migrationFS embed.FS

func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; sqlite serializes anyway.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema, err := migrationFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("db not initialized")
	}
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error { return s.db.Close() }

// BeginRun records a new running run and returns its ID.
func (s *Store) BeginRun(ctx context.Context, targetName string, started time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, target, status, started_at) VALUES (?, ?, ?, ?)`,
		id, targetName, string(api.RunRunning), started.UnixNano())
	if err != nil {
		return "", fmt.Errorf("journal begin run: %w", err)
	}
	return id, nil
}

// RecordStep stores the seq-th result of a run.
func (s *Store) RecordStep(ctx context.Context, runID string, seq int, r provision.Result) error {
	errText := ""
	if r.Err != nil {
		errText = r.Err.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO steps (run_id, seq, name, status, message, error, duration_ns) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, seq, r.Step, string(r.Status), r.Message, errText, int64(r.Duration))
	if err != nil {
		return fmt.Errorf("journal record step %s: %w", r.Step, err)
	}
	return nil
}

// FinishRun closes a run. runErr may be nil.
func (s *Store) FinishRun(ctx context.Context, runID string, status api.RunStatus, hostname, username string, runErr error, finished time.Time) error {
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, hostname = ?, username = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), hostname, username, errText, finished.UnixNano(), runID)
	if err != nil {
		return fmt.Errorf("journal finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]api.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target, status, hostname, username, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal list runs: %w", err)
	}
	defer rows.Close()
	var out []api.RunRecord
	for rows.Next() {
		var (
			r        api.RunRecord
			status   string
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Target, &status, &r.Hostname, &r.Username, &r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("journal scan run: %w", err)
		}
		r.Status = api.RunStatus(status)
		r.StartedAt = time.Unix(0, started)
		if finished.Valid {
			r.FinishedAt = time.Unix(0, finished.Int64)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Steps returns the step results of a run in execution order.
func (s *Store) Steps(ctx context.Context, runID string) ([]api.StepRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, name, status, message, error, duration_ns FROM steps WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal list steps: %w", err)
	}
	defer rows.Close()
	var out []api.StepRecord
	for rows.Next() {
		var (
			r      api.StepRecord
			status string
			dur    int64
		)
		if err := rows.Scan(&r.RunID, &r.Seq, &r.Name, &status, &r.Message, &r.Error, &dur); err != nil {
			return nil, fmt.Errorf("journal scan step: %w", err)
		}
		r.Status = api.StepStatus(status)
		r.Duration = time.Duration(dur)
		out = append(out, r)
	}
	return out, rows.Err()
}
