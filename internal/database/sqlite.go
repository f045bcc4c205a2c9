package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"songs-history/internal/changelog"
	"songs-history/internal/database/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements changelog.Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ changelog.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the ledger at path, applies pending migrations and
// verifies the resulting schema version.
// path can be a file path or ":memory:" for an in-memory ledger.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating ledger: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger schema out of date: %w", err)
	}
	return s, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate PRAGMAs.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every new connection to ":memory:" would see its own empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Run operations

func (s *SQLiteStore) RecordRun(run *changelog.Run, events []*changelog.Event) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, repo_path, head_commit, started_at, finished_at, status, section_count, event_count, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RepoPath, run.HeadCommit, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Status, run.SectionCount, run.EventCount, run.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (run_id, seq, commit_id, commit_seconds, commit_offset_minutes, action, video_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing event insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.ExecContext(ctx, run.ID, e.Seq, e.CommitID, e.Time.Seconds, e.Time.OffsetMinutes, e.Action, e.VideoID)
		if err != nil {
			return fmt.Errorf("inserting event %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

const runColumns = `id, repo_path, head_commit, started_at, finished_at, status, section_count, event_count, error_message`

// ListRuns returns runs newest first. Insertion order stands in for time
// order, so clock skew between runs cannot reorder them.
func (s *SQLiteStore) ListRuns(limit int) ([]*changelog.Run, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT `+runColumns+` FROM runs ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*changelog.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteStore) LatestRun() (*changelog.Run, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT `+runColumns+` FROM runs WHERE status = ? ORDER BY rowid DESC LIMIT 1`, changelog.RunStatusSuccess)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding latest run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) FindRun(id string) (*changelog.Run, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding run: %w", err)
	}
	return run, nil
}

// Event operations

func (s *SQLiteStore) FindEventsForVideo(runID, videoID string) ([]*changelog.Event, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT run_id, seq, commit_id, commit_seconds, commit_offset_minutes, action, video_id
		FROM events
		WHERE run_id = ? AND video_id = ?
		ORDER BY seq`, runID, videoID)
	if err != nil {
		return nil, fmt.Errorf("finding events: %w", err)
	}
	defer rows.Close()

	var events []*changelog.Event
	for rows.Next() {
		var e changelog.Event
		if err := rows.Scan(&e.RunID, &e.Seq, &e.CommitID, &e.Time.Seconds, &e.Time.OffsetMinutes, &e.Action, &e.VideoID); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finding events: %w", err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*changelog.Run, error) {
	var run changelog.Run
	err := row.Scan(&run.ID, &run.RepoPath, &run.HeadCommit, &run.StartedAt, &run.FinishedAt,
		&run.Status, &run.SectionCount, &run.EventCount, &run.Error)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Path returns the path the ledger was opened from.
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the ledger schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the ledger at destPath using VACUUM INTO.
func (s *SQLiteStore) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
