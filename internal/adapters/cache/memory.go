package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/kpiboard/internal/domain/model"
)

// BackendMemory names the in-process cache.
const BackendMemory = "memory"

type memoryEntry struct {
	records []model.KPIRecord
	expires time.Time
}

// Memory is an in-process Cache. Expired entries are dropped lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock sets the clock used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an empty in-process cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{entries: make(map[string]memoryEntry), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]model.KPIRecord, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.expires.Equal(e.expires) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return slices.Clone(e.records), true, nil
}

// Set implements Cache. A non-positive ttl stores nothing.
func (m *Memory) Set(_ context.Context, key string, records []model.KPIRecord, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{records: slices.Clone(records), expires: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Clear implements Cache.
func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Backend implements Cache.
func (*Memory) Backend() string { return BackendMemory }

// Close implements Cache.
func (*Memory) Close() error { return nil }
