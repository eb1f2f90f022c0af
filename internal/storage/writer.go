package storage

import (
	"database/sql"
	"time"
)

// writeSettings upserts one blob.
func writeSettings(tx *sql.Tx, key string, blob []byte, at time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO settings (key, blob, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			blob = excluded.blob,
			updated_at = excluded.updated_at
	`, key, string(blob), at.Format(time.RFC3339Nano))
	return err
}
