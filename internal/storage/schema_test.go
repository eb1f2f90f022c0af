package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openRaw(t *testing.T, dbPath string, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer func() { _ = db.Close() }()
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
}

func TestOpenDB_FreshDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "settings.db")

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}

	v, err := schemaVersion(db)
	if err != nil || v != latestVersion() {
		t.Errorf("schema version: got %d (%v), want %d", v, err, latestVersion())
	}

	var name string
	if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='settings'").Scan(&name); err != nil {
		t.Errorf("settings table missing: %v", err)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil || mode != "wal" {
		t.Errorf("journal_mode: got %q (%v)", mode, err)
	}
}

func TestOpenDB_VersionStates(t *testing.T) {
	tests := []struct {
		name  string
		setup []string
	}{
		{"empty file", nil},
		{"empty version table", []string{"CREATE TABLE schema_version (version INTEGER NOT NULL)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "settings.db")
			openRaw(t, dbPath, tt.setup...)

			db, err := OpenDB(dbPath)
			if err != nil {
				t.Fatalf("OpenDB: %v", err)
			}
			defer func() { _ = db.Close() }()

			var rows int
			if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows); err != nil || rows != 1 {
				t.Errorf("schema_version rows: got %d (%v), want 1", rows, err)
			}
		})
	}
}

func TestOpenDB_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "settings.db")

	db1, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("first OpenDB: %v", err)
	}
	if _, err := db1.Exec("INSERT INTO settings (key, blob, updated_at) VALUES ('k', '{}', '2026-01-01T00:00:00Z')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_ = db1.Close()

	db2, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("second OpenDB: %v", err)
	}
	defer func() { _ = db2.Close() }()

	var blob string
	if err := db2.QueryRow("SELECT blob FROM settings WHERE key = 'k'").Scan(&blob); err != nil {
		t.Errorf("row lost on reopen: %v", err)
	}
}

func TestOpenDB_NewerSchemaRejected(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "settings.db")
	openRaw(t, dbPath,
		"CREATE TABLE schema_version (version INTEGER)",
		"INSERT INTO schema_version (version) VALUES (999)",
	)

	_, err := OpenDB(dbPath)
	if err == nil {
		t.Fatal("OpenDB should refuse a newer schema")
	}
	for _, phrase := range []string{"999", "newer", "upgrade scopetop", dbPath} {
		if !strings.Contains(err.Error(), phrase) {
			t.Errorf("error message missing %q: %v", phrase, err)
		}
	}
}
