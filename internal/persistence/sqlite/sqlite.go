// Package sqlite implements the persistence repositories on SQLite through
// the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/example/showflix-scheduler/internal/persistence/sqlite/migration"
)

//go:embed schema/*.sql
var schemaFiles embed.FS

// Schema returns the embedded migration files.
func Schema() fs.FS {
	sub, err := fs.Sub(schemaFiles, "schema")
	if err != nil {
		panic(err)
	}
	return sub
}

// Open connects to the database described by config and applies pending
// schema migrations before returning the pool.
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*ConnectionPool, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}

	manager := migration.NewManager(migration.NewFileScanner(), migration.NewSQLiteExecutor(pool.DB()), Schema(), logger)
	if err := manager.Run(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return pool, nil
}

// Repositories groups every table repository over one pool.
type Repositories struct {
	Users        *UserRepository
	Sessions     *SessionRepository
	Selections   *SelectionRepository
	TimeSlots    *TimeSlotRepository
	Notes        *NoteRepository
	Hours        *HourRepository
	Reservations *ReservationRepository
	WorkLogs     *WorkLogRepository
}

// NewRepositories builds every repository over pool.
func NewRepositories(pool *ConnectionPool) Repositories {
	return Repositories{
		Users:        NewUserRepository(pool),
		Sessions:     NewSessionRepository(pool),
		Selections:   NewSelectionRepository(pool),
		TimeSlots:    NewTimeSlotRepository(pool),
		Notes:        NewNoteRepository(pool),
		Hours:        NewHourRepository(pool),
		Reservations: NewReservationRepository(pool),
		WorkLogs:     NewWorkLogRepository(pool),
	}
}
