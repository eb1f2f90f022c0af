package storage

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nixlim/scopetop/internal/settings"
)

const (
	writeChannelSize = 64
	batchSize        = 16
	flushInterval    = 100 * time.Millisecond
)

// writeOp is one settings save queued for the writer.
type writeOp struct {
	key  string
	blob []byte
	at   time.Time
}

// SQLiteStore serves settings from memory and persists every save through
// a batched background writer.
type SQLiteStore struct {
	*settings.MemoryStore
	db            *sql.DB
	writeChan     chan writeOp
	droppedWrites atomic.Int64
	doneChan      chan struct{}
	closed        atomic.Bool
	logger        zerolog.Logger
}

func NewSQLiteStore(dbPath string, retentionDays int, logger zerolog.Logger) (*SQLiteStore, error) {
	return newSQLiteStoreWithChannelSize(dbPath, writeChannelSize, retentionDays, logger)
}

func newSQLiteStoreWithChannelSize(dbPath string, chanSize int, retentionDays int, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteStore{
		MemoryStore: settings.NewMemoryStore(),
		db:          db,
		writeChan:   make(chan writeOp, chanSize),
		doneChan:    make(chan struct{}),
		logger:      logger,
	}

	if err := store.pruneStale(retentionDays); err != nil {
		logger.Warn().Err(err).Msg("pruning stale settings")
	}

	if err := store.recoverSettings(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("recovering settings: %w", err)
	}

	go store.writerLoop()

	return store, nil
}

func (s *SQLiteStore) SaveSettings(key string, blob []byte) error {
	if err := s.MemoryStore.SaveSettings(key, blob); err != nil {
		return err
	}

	b := make([]byte, len(blob))
	copy(b, blob)
	s.sendWrite(writeOp{key: key, blob: b, at: time.Now().UTC()})
	return nil
}

func (s *SQLiteStore) sendWrite(op writeOp) {
	if s.closed.Load() {
		return
	}
	defer func() { _ = recover() }()
	select {
	case s.writeChan <- op:
	default:
		s.droppedWrites.Add(1)
		s.logger.Warn().Str("key", op.key).Msg("SQLite write channel full, dropped write")
	}
}

func (s *SQLiteStore) DroppedWrites() int64 {
	return s.droppedWrites.Load()
}

func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	close(s.writeChan)

	select {
	case <-s.doneChan:
	case <-time.After(10 * time.Second):
		s.logger.Error().Msg("failed to drain writes within 10s, data may be lost")
	}

	return s.db.Close()
}

func (s *SQLiteStore) writerLoop() {
	defer close(s.doneChan)

	batch := make([]writeOp, 0, batchSize)
	flushTimer := time.NewTimer(flushInterval)
	defer flushTimer.Stop()

	for {
		select {
		case op, ok := <-s.writeChan:
			if !ok {
				if len(batch) > 0 {
					s.flushBatch(batch)
				}
				return
			}

			batch = append(batch, op)

			if len(batch) >= batchSize {
				s.flushBatch(batch)
				batch = batch[:0]
				flushTimer.Reset(flushInterval)
			}

		case <-flushTimer.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
			flushTimer.Reset(flushInterval)
		}
	}
}

// flushBatch writes the latest save of each key in one transaction.
func (s *SQLiteStore) flushBatch(batch []writeOp) {
	tx, err := s.db.Begin()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return
	}
	defer func() { _ = tx.Rollback() }()

	for _, op := range latestPerKey(batch) {
		if err := writeSettings(tx, op.key, op.blob, op.at); err != nil {
			s.logger.Error().Err(err).Str("key", op.key).Msg("failed to write settings")
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error().Err(err).Msg("failed to commit transaction")
	}
}

// latestPerKey drops every save superseded by a later one for the same key,
// keeping first-seen key order.
func latestPerKey(batch []writeOp) []writeOp {
	idx := make(map[string]int, len(batch))
	out := make([]writeOp, 0, len(batch))
	for _, op := range batch {
		if i, ok := idx[op.key]; ok {
			out[i] = op
			continue
		}
		idx[op.key] = len(out)
		out = append(out, op)
	}
	return out
}
