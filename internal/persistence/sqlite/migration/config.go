package migration

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteConfig holds SQLite connection settings.
type SQLiteConfig struct {
	// DSN is the database file path, or ":memory:".
	DSN string

	BusyTimeout       time.Duration
	EnableForeignKeys bool
	JournalMode       string // WAL, DELETE, TRUNCATE, PERSIST, MEMORY or OFF
	Synchronous       string // OFF, NORMAL, FULL or EXTRA
	// CacheSize is passed to PRAGMA cache_size; negative values are KiB.
	CacheSize int

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultSQLiteConfig returns the production settings for a file database.
func DefaultSQLiteConfig(databasePath string) SQLiteConfig {
	return SQLiteConfig{
		DSN:               databasePath,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
		CacheSize:         -2000,
		MaxOpenConns:      8,
		MaxIdleConns:      4,
		ConnMaxLifetime:   30 * time.Minute,
	}
}

// TempFileTestSQLiteConfig returns settings tuned for throwaway test databases.
func TempFileTestSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		DSN:               path,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "MEMORY",
		Synchronous:       "OFF",
		MaxOpenConns:      4,
		MaxIdleConns:      2,
		ConnMaxLifetime:   time.Minute,
	}
}

var (
	validJournalModes = map[string]bool{"DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true}
	validSyncModes    = map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
)

// Validate reports the first invalid setting.
func (c SQLiteConfig) Validate() error {
	switch {
	case c.DSN == "":
		return fmt.Errorf("DSN cannot be empty")
	case c.BusyTimeout < 0:
		return fmt.Errorf("BusyTimeout cannot be negative")
	case c.JournalMode != "" && !validJournalModes[strings.ToUpper(c.JournalMode)]:
		return fmt.Errorf("invalid journal mode: %s", c.JournalMode)
	case c.Synchronous != "" && !validSyncModes[strings.ToUpper(c.Synchronous)]:
		return fmt.Errorf("invalid synchronous mode: %s", c.Synchronous)
	case c.MaxOpenConns < 0, c.MaxIdleConns < 0, c.ConnMaxLifetime < 0:
		return fmt.Errorf("connection pool settings cannot be negative")
	}
	return nil
}

// DataSourceName renders the driver connection string. Pragmas travel in the
// DSN so every pooled connection gets them, not just the first one.
func (c SQLiteConfig) DataSourceName() string {
	query := url.Values{}
	if c.BusyTimeout > 0 {
		query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}
	if c.EnableForeignKeys {
		query.Add("_pragma", "foreign_keys(1)")
	}
	if c.JournalMode != "" {
		query.Add("_pragma", fmt.Sprintf("journal_mode(%s)", strings.ToUpper(c.JournalMode)))
	}
	if c.Synchronous != "" {
		query.Add("_pragma", fmt.Sprintf("synchronous(%s)", strings.ToUpper(c.Synchronous)))
	}
	if c.CacheSize != 0 {
		query.Add("_pragma", fmt.Sprintf("cache_size(%d)", c.CacheSize))
	}
	query.Set("_txlock", "immediate")
	return c.DSN + "?" + query.Encode()
}

// Open validates cfg, creates the parent directory of a file database and
// returns a pinged connection pool.
func Open(cfg SQLiteConfig) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}

	if cfg.DSN != ":memory:" {
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", cfg.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if cfg.DSN == ":memory:" {
		// Each connection to :memory: is a separate database, so pin one forever.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return db, nil
}
