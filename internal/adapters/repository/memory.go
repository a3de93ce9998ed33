package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/okian/kpiboard/internal/domain/settings"
)

// MemoryStore keeps settings in process. It stores the same JSON encoding as
// SQLiteStore so both load identically.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool
}

// NewMemoryStore creates an empty store; Load returns the defaults until
// something is saved.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Load implements SettingsStore.
func (m *MemoryStore) Load(context.Context) (settings.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return settings.Settings{}, ErrClosed
	}
	return decode(m.values)
}

// SaveBenchmarks implements SettingsStore.
func (m *MemoryStore) SaveBenchmarks(_ context.Context, b settings.Benchmarks) error {
	return m.put(KeyBenchmarks, b)
}

// SaveRoles implements SettingsStore.
func (m *MemoryStore) SaveRoles(_ context.Context, r settings.Roles) error {
	return m.put(KeyRoles, r)
}

// SaveAliases implements SettingsStore.
func (m *MemoryStore) SaveAliases(_ context.Context, a settings.Aliases) error {
	return m.put(KeyAliases, a)
}

func (m *MemoryStore) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.values[key] = raw
	return nil
}

// Close implements SettingsStore.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
