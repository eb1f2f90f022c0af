package storage

import (
	"fmt"
	"time"
)

// pruneStale deletes settings for deployments that have not been opened
// within retentionDays. A non-positive retention keeps everything.
func (s *SQLiteStore) pruneStale(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(time.RFC3339Nano)
	res, err := s.db.Exec("DELETE FROM settings WHERE updated_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("deleting stale settings: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Info().Int64("rows", n).Int("retention_days", retentionDays).Msg("pruned stale settings")
	}
	return nil
}
