// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jobstore persists job-status records for the polling API.
package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/listing-engine/pkg/types"
)

// Store manages the job-status SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the job database at dbPath, creating parent
// directories and the schema as needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			request_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			request TEXT NOT NULL,
			submitted_at TEXT NOT NULL,
			completed_at TEXT,
			url TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Submit records a newly accepted job in pending status.
func (s *Store) Submit(ctx context.Context, requestID string, req types.ListingRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (request_id, status, request, submitted_at) VALUES (?, ?, ?, ?)`,
		requestID, string(types.StatusPending), string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", requestID, err)
	}
	return nil
}

// Finish marks a job terminal. Exactly one of url or errMsg should be
// non-empty; the record keeps whichever matches the status.
func (s *Store) Finish(ctx context.Context, requestID string, status types.JobStatus, url, errMsg string) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	if status == types.StatusFailed {
		url = ""
	} else {
		errMsg = ""
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, completed_at = ?, url = ?, error = ?
		 WHERE request_id = ? AND completed_at IS NULL`,
		string(status), time.Now().UTC().Format(time.RFC3339Nano), url, errMsg, requestID,
	)
	if err != nil {
		return fmt.Errorf("finishing job %s: %w", requestID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing job %s: %w", requestID, err)
	}
	if n == 0 {
		return fmt.Errorf("job %s not found or already terminal", requestID)
	}
	return nil
}

// Get returns the job record for requestID, or (nil, nil) when no job
// with that ID exists.
func (s *Store) Get(ctx context.Context, requestID string) (*types.JobRecord, error) {
	var (
		record      types.JobRecord
		status      string
		completedAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT request_id, status, completed_at, url, error FROM jobs WHERE request_id = ?`,
		requestID,
	).Scan(&record.RequestID, &status, &completedAt, &record.URL, &record.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading job %s: %w", requestID, err)
	}

	record.Status = types.JobStatus(status)
	record.Completed = record.Status.Terminal()
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing completion time for %s: %w", requestID, err)
		}
		record.TimeCompleted = &t
	}
	return &record, nil
}

// PendingJob is a job that never reached a terminal status.
type PendingJob struct {
	RequestID string
	Request   types.ListingRequest
}

// Pending returns jobs that never reached a terminal status, oldest
// first. Used to drain after a restart.
func (s *Store) Pending(ctx context.Context) ([]PendingJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, request FROM jobs WHERE status = ? ORDER BY submitted_at`,
		string(types.StatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending jobs: %w", err)
	}
	defer rows.Close()

	var pending []PendingJob
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scanning pending job: %w", err)
		}
		var req types.ListingRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return nil, fmt.Errorf("decoding request for %s: %w", id, err)
		}
		pending = append(pending, PendingJob{RequestID: id, Request: req})
	}
	return pending, rows.Err()
}
