package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
)

// Manager applies pending migrations from a source filesystem.
type Manager struct {
	scanner  FileScanner
	executor Executor
	source   fs.FS
	logger   *slog.Logger
}

// NewManager wires a Manager. A nil logger discards output.
func NewManager(scanner FileScanner, executor Executor, source fs.FS, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		scanner:  scanner,
		executor: executor,
		source:   source,
		logger:   logger.With(slog.String("component", "migration")),
	}
}

// Run executes every pending migration in version order and stops at the
// first failure.
func (m *Manager) Run(ctx context.Context) error {
	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	if len(status.Pending) == 0 {
		m.logger.InfoContext(ctx, "schema up to date", slog.String("version", status.CurrentVersion))
		return nil
	}

	m.logger.InfoContext(ctx, "applying migrations",
		slog.String("from_version", status.CurrentVersion),
		slog.Int("pending", len(status.Pending)),
	)

	for _, migration := range status.Pending {
		elapsed, err := m.executor.ExecuteMigration(ctx, migration)
		if err != nil {
			m.logger.ErrorContext(ctx, "migration failed",
				slog.String("version", migration.Version),
				slog.String("file", migration.FilePath),
				slog.Any("error", err),
			)
			return NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}
		m.logger.InfoContext(ctx, "migration applied",
			slog.String("version", migration.Version),
			slog.String("description", migration.Description),
			slog.Duration("elapsed", elapsed),
		)
	}
	return nil
}

// Status compares the source files against schema_migrations. It fails when
// the file sequence has gaps, when an applied version has no file, or when an
// applied file changed since it ran.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}

	available, err := m.scanner.ScanMigrations(m.source)
	if err != nil {
		return Status{}, fmt.Errorf("failed to scan migrations: %w", err)
	}
	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to get applied versions: %w", err)
	}

	if err := validateSequence(available, applied); err != nil {
		return Status{}, err
	}

	appliedByVersion := make(map[string]AppliedMigration, len(applied))
	for _, record := range applied {
		appliedByVersion[record.Version] = record
	}

	status := Status{Applied: applied}
	for _, migration := range available {
		record, ok := appliedByVersion[migration.Version]
		if !ok {
			status.Pending = append(status.Pending, migration)
			continue
		}
		if record.Checksum != "" && record.Checksum != migration.Checksum {
			return Status{}, NewMigrationError(migration.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
		status.CurrentVersion = migration.Version
	}
	return status, nil
}

func validateSequence(available []Migration, applied []AppliedMigration) error {
	known := make(map[int]bool, len(available))
	for i, migration := range available {
		version, err := strconv.Atoi(migration.Version)
		if err != nil {
			return NewMigrationError(migration.Version, migration.FilePath, "validate sequence",
				fmt.Errorf("%w: version '%s' is not numeric", ErrInvalidVersion, migration.Version))
		}
		if i > 0 {
			previous, _ := strconv.Atoi(available[i-1].Version)
			if version != previous+1 {
				return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, previous+1)
			}
		}
		known[version] = true
	}

	for _, record := range applied {
		version, err := strconv.Atoi(record.Version)
		if err != nil || !known[version] {
			return fmt.Errorf("%w: applied migration %s not found in available migrations", ErrVersionConflict, record.Version)
		}
	}
	return nil
}
