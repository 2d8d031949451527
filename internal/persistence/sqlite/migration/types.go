package migration

import (
	"context"
	"io/fs"
	"time"
)

// Migration is one versioned schema change read from a source file.
type Migration struct {
	Version     string // numeric prefix of the file name, e.g. "001"
	Description string
	SQL         string
	FilePath    string
	Checksum    string // hex sha256 of SQL
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarises the schema state of a database.
type Status struct {
	CurrentVersion string
	Applied        []AppliedMigration
	Pending        []Migration
}

// FileScanner discovers migration files in a filesystem.
type FileScanner interface {
	ScanMigrations(source fs.FS) ([]Migration, error)
	ValidateFileName(name string) error
}

// Executor applies migrations against a database and tracks which ran.
type Executor interface {
	InitializeVersionTable(ctx context.Context) error
	// ExecuteMigration runs the statements of m and records its version in
	// the same transaction.
	ExecuteMigration(ctx context.Context, m Migration) (time.Duration, error)
	AppliedMigrations(ctx context.Context) ([]AppliedMigration, error)
}
