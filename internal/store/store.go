// Package store persists render jobs in a local SQLite database so the web
// frontend can poll progress and fetch results after the upload request has
// returned.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fpang/reel-director/internal/edl"
)

// Status is the lifecycle state of a render job.
type Status string

// Job lifecycle states, in order of progression. Failed is reachable from
// any non-terminal state.
const (
	StatusPending   Status = "pending"
	StatusAnalyzing Status = "analyzing"
	StatusRendering Status = "rendering"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
)

// ErrNotFound is returned when a job id does not exist.
var ErrNotFound = errors.New("job not found")

// Job is one reel render request tracked end to end.
type Job struct {
	ID         string    `json:"id"`
	Status     Status    `json:"status"`
	Filter     string    `json:"filter"`
	Transition string    `json:"transition"`
	Segments   edl.List  `json:"segments,omitempty"`
	Error      string    `json:"error,omitempty"`
	OutputPath string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store wraps the jobs table.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	filter      TEXT NOT NULL DEFAULT '',
	transition  TEXT NOT NULL DEFAULT '',
	segments    TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	output_path TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC);
`

// Open opens (creating if needed) the job database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job database: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY races from the worker and HTTP handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize job schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new pending job and returns it.
func (s *Store) Create(ctx context.Context, id, filter, transition string) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:         id,
		Status:     StatusPending,
		Filter:     filter,
		Transition: transition,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, filter, transition, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, job.Status, job.Filter, job.Transition, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// SetStatus moves a job to a new lifecycle state.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return requireRow(res)
}

// MarkDone records a successful render with its output and segment list.
func (s *Store) MarkDone(ctx context.Context, id, outputPath string, segments edl.List) error {
	encoded, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, output_path = ?, segments = ?, updated_at = ? WHERE id = ?`,
		StatusDone, outputPath, string(encoded), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark job done: %w", err)
	}
	return requireRow(res)
}

// MarkFailed records a terminal failure with a user-facing message.
func (s *Store) MarkFailed(ctx context.Context, id, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, message, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return requireRow(res)
}

// Get fetches one job by id.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, filter, transition, segments, error, output_path, created_at, updated_at
		 FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// List returns the most recent jobs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, filter, transition, segments, error, output_path, created_at, updated_at
		 FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*Job, error) {
	var job Job
	var segments string
	err := row.Scan(&job.ID, &job.Status, &job.Filter, &job.Transition,
		&segments, &job.Error, &job.OutputPath, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	if segments != "" {
		if err := json.Unmarshal([]byte(segments), &job.Segments); err != nil {
			return nil, fmt.Errorf("failed to decode segments for job %s: %w", job.ID, err)
		}
	}
	return &job, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
