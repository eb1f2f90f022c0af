package storage

import (
	"fmt"
)

// recoverSettings loads every persisted blob into memory so reads never
// touch the database.
func (s *SQLiteStore) recoverSettings() error {
	rows, err := s.db.Query("SELECT key, blob FROM settings")
	if err != nil {
		return fmt.Errorf("querying settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var failCount int
	for rows.Next() {
		var key, blob string
		if err := rows.Scan(&key, &blob); err != nil {
			failCount++
			s.logger.Error().Err(err).Msg("failed to scan settings row")
			continue
		}
		_ = s.MemoryStore.SaveSettings(key, []byte(blob))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating settings: %w", err)
	}

	if failCount > 0 {
		s.logger.Warn().Int("failed", failCount).Msg("some settings rows could not be recovered")
	}
	return nil
}
