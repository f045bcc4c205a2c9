package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{"runs", "events", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}

	var index string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_events_video_id'").Scan(&index)
	if err != nil {
		t.Errorf("Index idx_events_video_id was not created: %v", err)
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	err := CheckDBMigrationStatus(db)
	if !errors.Is(err, ErrNeedsMigration) {
		t.Errorf("CheckDBMigrationStatus() error = %v, want ErrNeedsMigration", err)
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec(`
		INSERT INTO events (run_id, seq, commit_id, commit_seconds, commit_offset_minutes, action, video_id)
		VALUES ('no-such-run', 1, 'abc', 0, 0, 'added', 'vid')
	`)
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_Checks(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec(`
		INSERT INTO runs (id, repo_path, head_commit, started_at, finished_at, status)
		VALUES ('run-1', '/repo', 'abc', datetime('now'), datetime('now'), 'success')
	`)
	if err != nil {
		t.Fatalf("Failed to insert run: %v", err)
	}

	var eventCount int
	if err := db.QueryRow("SELECT event_count FROM runs WHERE id = 'run-1'").Scan(&eventCount); err != nil {
		t.Fatalf("Failed to read event_count: %v", err)
	}
	if eventCount != 0 {
		t.Errorf("event_count default = %d, want 0", eventCount)
	}

	_, err = db.Exec(`
		INSERT INTO runs (id, repo_path, head_commit, started_at, finished_at, status)
		VALUES ('run-2', '/repo', 'abc', datetime('now'), datetime('now'), 'pending')
	`)
	if err == nil {
		t.Error("Expected check constraint violation for status, but insert succeeded")
	}

	_, err = db.Exec(`
		INSERT INTO events (run_id, seq, commit_id, commit_seconds, commit_offset_minutes, action, video_id)
		VALUES ('run-1', 1, 'abc', 0, 0, 'renamed', 'vid')
	`)
	if err == nil {
		t.Error("Expected check constraint violation for action, but insert succeeded")
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	return db
}
