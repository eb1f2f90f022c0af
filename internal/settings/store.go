package settings

import (
	"sync"

	"github.com/rs/zerolog"
)

// Store persists opaque settings blobs by key. LoadSettings returns nil, nil
// when nothing has been saved under key.
type Store interface {
	LoadSettings(key string) ([]byte, error)
	SaveSettings(key string, blob []byte) error
	Close() error
}

// MemoryStore keeps blobs for the life of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) LoadSettings(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *MemoryStore) SaveSettings(key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := make([]byte, len(blob))
	copy(b, blob)
	m.blobs[key] = b
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Persister binds a Store to one deployment key.
type Persister struct {
	store  Store
	key    string
	logger zerolog.Logger
}

func NewPersister(store Store, key string, logger zerolog.Logger) *Persister {
	return &Persister{store: store, key: key, logger: logger}
}

func (p *Persister) Key() string { return p.key }

// Load returns the saved settings overlaid on defaults. Unreadable or
// corrupt blobs are logged and ignored.
func (p *Persister) Load(defaults Settings) Settings {
	data, err := p.store.LoadSettings(p.key)
	if err != nil {
		p.logger.Warn().Err(err).Str("key", p.key).Msg("loading settings")
		return defaults
	}
	if data == nil {
		return defaults
	}
	s, err := Decode(data, defaults)
	if err != nil {
		p.logger.Warn().Err(err).Str("key", p.key).Msg("ignoring saved settings")
		return defaults
	}
	return s
}

func (p *Persister) Save(s Settings) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := p.store.SaveSettings(p.key, data); err != nil {
		p.logger.Warn().Err(err).Str("key", p.key).Msg("saving settings")
		return err
	}
	p.logger.Debug().Str("key", p.key).RawJSON("settings", data).Msg("settings saved")
	return nil
}
