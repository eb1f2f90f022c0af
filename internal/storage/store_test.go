package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nixlim/scopetop/internal/settings"
)

func TestSQLiteStore_SaveSettings_PersistsToSQLite(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath, 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveSettings("scopetop-a", []byte(`{"sort":{"field":"hits","direction":-1}}`)); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	var blob string
	err = store.db.QueryRow("SELECT blob FROM settings WHERE key = ?", "scopetop-a").Scan(&blob)
	if err != nil {
		t.Fatalf("failed to query settings: %v", err)
	}
	if blob != `{"sort":{"field":"hits","direction":-1}}` {
		t.Errorf("blob: got %s", blob)
	}
}

func TestSQLiteStore_LatestSaveWins(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath, 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	for _, v := range []string{"1", "2", "3"} {
		_ = store.SaveSettings("k", []byte(v))
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath, 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.LoadSettings("k")
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if string(got) != "3" {
		t.Errorf("want latest blob 3, got %q", got)
	}

	var rows int
	_ = reopened.db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&rows)
	if rows != 1 {
		t.Errorf("want 1 row, got %d", rows)
	}
}

func TestSQLiteStore_ReadsFromMemory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath, 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	_ = store.SaveSettings("k", []byte("v"))

	// Readable before the writer flushes.
	got, _ := store.LoadSettings("k")
	if string(got) != "v" {
		t.Errorf("want v, got %q", got)
	}

	missing, err := store.LoadSettings("absent")
	if err != nil || missing != nil {
		t.Errorf("absent key: got %q, %v", missing, err)
	}
}

func TestSQLiteStore_PrunesStaleOnOpen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	old := time.Now().UTC().AddDate(0, 0, -400).Format(time.RFC3339Nano)
	recent := time.Now().UTC().Format(time.RFC3339Nano)
	_, _ = db.Exec("INSERT INTO settings (key, blob, updated_at) VALUES (?, ?, ?)", "old", "{}", old)
	_, _ = db.Exec("INSERT INTO settings (key, blob, updated_at) VALUES (?, ?, ?)", "recent", "{}", recent)
	_ = db.Close()

	store, err := NewSQLiteStore(dbPath, 180, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if got, _ := store.LoadSettings("old"); got != nil {
		t.Error("stale settings were recovered")
	}
	if got, _ := store.LoadSettings("recent"); got == nil {
		t.Error("recent settings were not recovered")
	}
}

func TestSQLiteStore_SaveAfterClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath, 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("SaveSettings after Close panicked: %v", r)
		}
	}()
	_ = store.SaveSettings("k", []byte("v"))

	if got, _ := store.LoadSettings("k"); string(got) != "v" {
		t.Error("settings not kept in memory after post-close save")
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSQLiteStore_ChannelOverflow_IncrementsCounter(t *testing.T) {
	// No writer goroutine, so the channel fills after two ops.
	store := &SQLiteStore{
		MemoryStore: settings.NewMemoryStore(),
		writeChan:   make(chan writeOp, 2),
		doneChan:    make(chan struct{}),
		logger:      zerolog.Nop(),
	}

	for range 5 {
		_ = store.SaveSettings("k", []byte("v"))
	}

	if got := store.DroppedWrites(); got != 3 {
		t.Errorf("DroppedWrites: want 3, got %d", got)
	}
}

func TestSQLiteStore_ImplementsStore(t *testing.T) {
	var _ settings.Store = (*SQLiteStore)(nil)
}

func TestLatestPerKey(t *testing.T) {
	batch := []writeOp{
		{key: "a", blob: []byte("1")},
		{key: "b", blob: []byte("2")},
		{key: "a", blob: []byte("3")},
	}

	got := latestPerKey(batch)
	if len(got) != 2 {
		t.Fatalf("want 2 ops, got %d", len(got))
	}
	if got[0].key != "a" || string(got[0].blob) != "3" {
		t.Errorf("first op should be the latest save of a: %+v", got[0])
	}
	if got[1].key != "b" {
		t.Errorf("key order not kept: %+v", got)
	}
}
