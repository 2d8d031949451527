package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestFileScannerScanMigrations(t *testing.T) {
	t.Parallel()

	t.Run("sorts numerically and reads descriptions", func(t *testing.T) {
		t.Parallel()

		source := fstest.MapFS{
			"010_add_index.sql":      {Data: []byte("CREATE INDEX idx ON t(a);")},
			"002_second.sql":         {Data: []byte("-- Description: Adds the second table\nCREATE TABLE b (id TEXT);")},
			"001_initial_schema.sql": {Data: []byte("CREATE TABLE a (id TEXT);\nCREATE TABLE t (a TEXT);")},
			"README.md":              {Data: []byte("ignored")},
		}

		migrations, err := NewFileScanner().ScanMigrations(source)
		if err != nil {
			t.Fatalf("ScanMigrations failed: %v", err)
		}
		if len(migrations) != 3 {
			t.Fatalf("expected 3 migrations, got %d", len(migrations))
		}
		if got := []string{migrations[0].Version, migrations[1].Version, migrations[2].Version}; got[0] != "001" || got[1] != "002" || got[2] != "010" {
			t.Fatalf("unexpected order: %v", got)
		}
		if migrations[0].Description != "initial schema" {
			t.Errorf("fallback description = %q", migrations[0].Description)
		}
		if migrations[1].Description != "Adds the second table" {
			t.Errorf("content description = %q", migrations[1].Description)
		}
		if len(migrations[0].Checksum) != 64 {
			t.Errorf("checksum %q is not hex sha256", migrations[0].Checksum)
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		t.Parallel()

		source := fstest.MapFS{
			"001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
			"001_b.sql": {Data: []byte("CREATE TABLE b (id TEXT);")},
		}
		if _, err := NewFileScanner().ScanMigrations(source); !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got %v", err)
		}
	})

	t.Run("rejects malformed names and empty files", func(t *testing.T) {
		t.Parallel()

		tests := map[string]fstest.MapFS{
			"bad name":      {"initial.sql": {Data: []byte("CREATE TABLE a (id TEXT);")}},
			"comments only": {"001_empty.sql": {Data: []byte("-- nothing here\n")}},
		}
		for name, source := range tests {
			_, err := NewFileScanner().ScanMigrations(source)
			if !errors.Is(err, ErrInvalidMigrationFile) {
				t.Errorf("%s: expected ErrInvalidMigrationFile, got %v", name, err)
			}
		}
	})
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	content := `
-- Description: demo
CREATE TABLE a (
	id TEXT PRIMARY KEY -- trailing comments stay attached
);

-- standalone comment
CREATE INDEX idx_a ON a(id);
`
	statements := splitStatements(content)
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(statements), statements)
	}
	if statements[1] != "CREATE INDEX idx_a ON a(id)" {
		t.Fatalf("unexpected second statement %q", statements[1])
	}
}
