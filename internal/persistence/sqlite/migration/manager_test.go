package migration

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "migrate.db")))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestManagerRun(t *testing.T) {
	t.Parallel()

	t.Run("applies pending migrations once", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := openTestDB(t)
		source := fstest.MapFS{
			"001_people.sql": {Data: []byte("CREATE TABLE people (id TEXT PRIMARY KEY);")},
			"002_pets.sql":   {Data: []byte("CREATE TABLE pets (id TEXT PRIMARY KEY, owner TEXT REFERENCES people(id));")},
		}
		manager := NewManager(NewFileScanner(), NewSQLiteExecutor(db), source, nil)

		if err := manager.Run(ctx); err != nil {
			t.Fatalf("first Run failed: %v", err)
		}
		if err := manager.Run(ctx); err != nil {
			t.Fatalf("second Run failed: %v", err)
		}

		status, err := manager.Status(ctx)
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if status.CurrentVersion != "002" || len(status.Pending) != 0 || len(status.Applied) != 2 {
			t.Fatalf("unexpected status: %+v", status)
		}

		if _, err := db.Exec("INSERT INTO pets (id, owner) VALUES ('p1', 'nobody')"); err == nil {
			t.Fatalf("foreign keys should be enforced")
		}
	})

	t.Run("rolls back a failing migration", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := openTestDB(t)
		source := fstest.MapFS{
			"001_broken.sql": {Data: []byte("CREATE TABLE ok (id TEXT);\nCREATE TABLE ok (id TEXT);")},
		}
		manager := NewManager(NewFileScanner(), NewSQLiteExecutor(db), source, nil)

		err := manager.Run(ctx)
		if !errors.Is(err, ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'ok'").Scan(&count); err != nil {
			t.Fatalf("inspect schema: %v", err)
		}
		if count != 0 {
			t.Fatalf("partial migration was committed")
		}
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil || count != 0 {
			t.Fatalf("version recorded for failed migration: count=%d err=%v", count, err)
		}
	})

	t.Run("detects gaps and edited files", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := openTestDB(t)

		gapped := fstest.MapFS{
			"001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
			"003_c.sql": {Data: []byte("CREATE TABLE c (id TEXT);")},
		}
		if err := NewManager(NewFileScanner(), NewSQLiteExecutor(db), gapped, nil).Run(ctx); !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}

		original := fstest.MapFS{"001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT);")}}
		if err := NewManager(NewFileScanner(), NewSQLiteExecutor(db), original, nil).Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		edited := fstest.MapFS{"001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT, extra TEXT);")}}
		if err := NewManager(NewFileScanner(), NewSQLiteExecutor(db), edited, nil).Run(ctx); !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
	})
}

func TestSQLiteConfigDataSourceName(t *testing.T) {
	t.Parallel()

	dsn := DefaultSQLiteConfig("data/app.db").DataSourceName()
	for _, want := range []string{"data/app.db?", "busy_timeout%285000%29", "foreign_keys%281%29", "journal_mode%28WAL%29", "_txlock=immediate"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}

	if err := (SQLiteConfig{DSN: "x.db", JournalMode: "bogus"}).Validate(); err == nil {
		t.Errorf("expected invalid journal mode to fail validation")
	}
}
