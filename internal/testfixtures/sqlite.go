package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/showflix-scheduler/internal/persistence/sqlite"
	"github.com/example/showflix-scheduler/internal/persistence/sqlite/migration"
)

// SQLiteHarness exposes every repository over a migrated temporary database.
type SQLiteHarness struct {
	sqlite.Repositories
	Pool *sqlite.ConnectionPool
}

// NewSQLiteHarness opens and migrates a database file under tb.TempDir. The
// pool is closed by tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "showflix.db")
	pool, err := sqlite.Open(context.Background(), migration.TempFileTestSQLiteConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = pool.Close() })

	return &SQLiteHarness{Repositories: sqlite.NewRepositories(pool), Pool: pool}
}
