// Package migration applies versioned SQL files to a SQLite database.
//
// Files are named {version}_{description}.sql (e.g. "001_initial_schema.sql")
// and read from an fs.FS, normally an embedded directory. Applied versions are
// tracked in the schema_migrations table together with the file checksum, so
// editing a migration after it shipped is reported instead of silently
// ignored. Each file runs in its own transaction.
//
//	db, err := migration.Open(migration.DefaultSQLiteConfig("showflix.db"))
//	...
//	manager := migration.NewManager(migration.NewFileScanner(), migration.NewSQLiteExecutor(db), schemaFS, logger)
//	if err := manager.Run(ctx); err != nil {
//		...
//	}
package migration
