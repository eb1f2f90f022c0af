package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nixlim/scopetop/internal/config"
	"github.com/nixlim/scopetop/internal/settings"
)

// NewStore opens the configured settings store. An empty path or a database
// that cannot be opened yields an in-memory store; the boolean reports
// whether settings will survive a restart.
func NewStore(cfg config.StorageConfig, logger zerolog.Logger) (settings.Store, bool, error) {
	if cfg.DBPath == "" {
		return settings.NewMemoryStore(), false, nil
	}

	dbPath := expandTilde(cfg.DBPath)

	store, err := NewSQLiteStore(dbPath, cfg.RetentionDays, logger)
	if err != nil {
		logger.Warn().Err(err).Str("path", dbPath).Msg("SQLite storage unavailable, falling back to in-memory store")
		return settings.NewMemoryStore(), false, nil
	}

	return store, true, nil
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
