package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"oidc-registration-test/internal/biz"

	_ "modernc.org/sqlite"
)

// sqliteRunRepo SQLite-backed run history
type sqliteRunRepo struct {
	db *sql.DB
}

// NewSQLiteRunRepo opens (or creates) the run history database
func NewSQLiteRunRepo(dbPath string) (biz.RunRepo, error) {
	// make sure the directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// seq keeps insertion order when two runs share a timestamp
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			stage TEXT NOT NULL,
			succeeded INTEGER NOT NULL,
			subject TEXT,
			email TEXT,
			error TEXT,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create runs table: %w", err)
	}

	return &sqliteRunRepo{db: db}, nil
}

// Save records a finished run
func (r *sqliteRunRepo) Save(ctx context.Context, run *biz.Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, stage, succeeded, subject, email, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, string(run.Stage), run.Succeeded, run.Subject, run.Email, run.Error,
		run.StartedAt.UnixNano(), run.FinishedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

// Get returns a single run
func (r *sqliteRunRepo) Get(ctx context.Context, id string) (*biz.Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, stage, succeeded, subject, email, error, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", biz.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns at most limit runs, newest first
func (r *sqliteRunRepo) List(ctx context.Context, limit int) ([]biz.Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, stage, succeeded, subject, email, error, started_at, finished_at
		FROM runs ORDER BY seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []biz.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Close closes the database connection
func (r *sqliteRunRepo) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*biz.Run, error) {
	var (
		run                 biz.Run
		stage               string
		subject, email, msg sql.NullString
		started, finished   int64
	)
	if err := s.Scan(&run.ID, &stage, &run.Succeeded, &subject, &email, &msg, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Stage = biz.Stage(stage)
	run.Subject = subject.String
	run.Email = email.String
	run.Error = msg.String
	run.StartedAt = time.Unix(0, started)
	run.FinishedAt = time.Unix(0, finished)
	return &run, nil
}
