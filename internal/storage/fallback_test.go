package storage

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nixlim/scopetop/internal/config"
	"github.com/nixlim/scopetop/internal/settings"
)

func TestFallback_SQLiteSuccess(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := config.StorageConfig{
		DBPath:        dbPath,
		RetentionDays: 180,
	}

	store, isPersistent, err := NewStore(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if !isPersistent {
		t.Error("expected isPersistent=true for valid DB path")
	}

	if _, ok := store.(*SQLiteStore); !ok {
		t.Errorf("expected *SQLiteStore, got %T", store)
	}
}

func TestFallback_UnwritablePath(t *testing.T) {
	cfg := config.StorageConfig{
		DBPath:        "/nonexistent/deeply/nested/unwritable/path/test.db",
		RetentionDays: 180,
	}

	store, isPersistent, err := NewStore(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore should not return error on fallback: %v", err)
	}
	defer func() { _ = store.Close() }()

	if isPersistent {
		t.Error("expected isPersistent=false for unwritable path")
	}

	if _, ok := store.(*settings.MemoryStore); !ok {
		t.Errorf("expected *settings.MemoryStore fallback, got %T", store)
	}
}

func TestFallback_ExplicitInMemory(t *testing.T) {
	store, isPersistent, err := NewStore(config.StorageConfig{DBPath: ""}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if isPersistent {
		t.Error("expected isPersistent=false for empty db_path")
	}
	if _, ok := store.(*settings.MemoryStore); !ok {
		t.Errorf("expected *settings.MemoryStore, got %T", store)
	}
}

func TestExpandTilde(t *testing.T) {
	if got := expandTilde("/abs/path.db"); got != "/abs/path.db" {
		t.Errorf("absolute path changed: %s", got)
	}
	if got := expandTilde("~/x.db"); got == "~/x.db" {
		t.Error("tilde not expanded")
	}
}
