package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/throttle-demo-go/internal/ratelimit"
)

// MemoryStore is an in-memory implementation of ratelimit.Store, with
// atomic increments under its lock. Suitable for single-process
// deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	record  ratelimit.Record
	staleAt time.Time // backstop TTL, independent of record.ExpiresAt
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the time source, for tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

// NewMemoryStore creates a new in-memory rate limit store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		records: make(map[string]memoryEntry),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *MemoryStore) Get(_ context.Context, key string) (*ratelimit.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.records[key]
	if !ok {
		return nil, nil
	}

	if entry.staleAt.Before(m.now()) {
		delete(m.records, key)

		return nil, nil
	}

	record := entry.record

	return &record, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, record *ratelimit.Record, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[key] = memoryEntry{
		record:  *record,
		staleAt: m.now().Add(ttl),
	}

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.records[key]
	delete(m.records, key)

	return ok, nil
}

// Incr implements ratelimit.Incrementer. The whole increment happens
// under the store lock, so concurrent hits on one key never lose
// updates.
func (m *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (*ratelimit.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	record := ratelimit.Record{}
	if entry, ok := m.records[key]; ok && !entry.staleAt.Before(now) && !entry.record.Expired(now) {
		record = entry.record
	}

	record.Hits++
	record.ExpiresAt = now.Add(window)

	m.records[key] = memoryEntry{
		record:  record,
		staleAt: record.ExpiresAt,
	}

	return &record, nil
}

// PruneExpired drops every entry whose backstop TTL has passed,
// returning how many were removed.
func (m *MemoryStore) PruneExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	var pruned int64

	for key, entry := range m.records {
		if entry.staleAt.Before(now) {
			delete(m.records, key)
			pruned++
		}
	}

	return pruned, nil
}

// Compile-time checks.
var (
	_ ratelimit.Store       = (*MemoryStore)(nil)
	_ ratelimit.Incrementer = (*MemoryStore)(nil)
)
