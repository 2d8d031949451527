package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const timestampLayout = time.RFC3339Nano

// SQLiteExecutor implements Executor for SQLite databases.
type SQLiteExecutor struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteExecutor creates a new SQLite migration executor.
func NewSQLiteExecutor(db *sql.DB) *SQLiteExecutor {
	return &SQLiteExecutor{db: db, now: time.Now}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
func (e *SQLiteExecutor) InitializeVersionTable(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT NOT NULL DEFAULT '',
			execution_time_ms INTEGER NOT NULL DEFAULT 0
		)`
	if _, err := e.db.ExecContext(ctx, createTableSQL); err != nil {
		return NewDatabaseError("", createTableSQL, "create schema_migrations table", err)
	}
	return nil
}

// ExecuteMigration runs every statement of m and records the version in one
// transaction, so a failed file leaves neither schema changes nor a version row.
func (e *SQLiteExecutor) ExecuteMigration(ctx context.Context, m Migration) (time.Duration, error) {
	statements := splitStatements(m.SQL)
	if len(statements) == 0 {
		return 0, NewMigrationError(m.Version, m.FilePath, "parse SQL",
			fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}

	started := e.now()
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, NewDatabaseError(m.Version, "", "begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, NewDatabaseError(m.Version, stmt, fmt.Sprintf("execute statement %d", i+1), err)
		}
	}

	elapsed := e.now().Sub(started)
	const insertSQL = `INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertSQL, m.Version, e.now().UTC().Format(timestampLayout), m.Checksum, elapsed.Milliseconds()); err != nil {
		return 0, NewDatabaseError(m.Version, insertSQL, "record migration", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, NewDatabaseError(m.Version, "", "commit transaction", err)
	}
	return elapsed, nil
}

// AppliedMigrations lists recorded migrations in version order.
func (e *SQLiteExecutor) AppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	const querySQL = `
		SELECT version, applied_at, execution_time_ms, checksum
		FROM schema_migrations
		ORDER BY CAST(version AS INTEGER) ASC`

	rows, err := e.db.QueryContext(ctx, querySQL)
	if err != nil {
		return nil, NewDatabaseError("", querySQL, "get applied versions", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			record       AppliedMigration
			appliedAtStr string
			elapsedMs    int64
		)
		if err := rows.Scan(&record.Version, &appliedAtStr, &elapsedMs, &record.Checksum); err != nil {
			return nil, NewDatabaseError("", querySQL, "scan applied migration", err)
		}
		record.AppliedAt, err = time.Parse(timestampLayout, appliedAtStr)
		if err != nil {
			return nil, NewDatabaseError(record.Version, querySQL, "parse applied_at", err)
		}
		record.ExecutionTime = time.Duration(elapsedMs) * time.Millisecond
		applied = append(applied, record)
	}
	if err := rows.Err(); err != nil {
		return nil, NewDatabaseError("", querySQL, "iterate applied migrations", err)
	}
	return applied, nil
}
