package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/immoleads/contact-discovery/internal/domain"
)

// Memory is the in-process backend. Entries are stored as JSON so that Get
// hands back an independent copy, same as the Redis backend does.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration

	// now is swapped in tests to exercise expiry without sleeping.
	now func() time.Time
}

type memoryEntry struct {
	payload  []byte
	storedAt time.Time
}

// NewMemory builds a memory cache. ttl<=0 disables expiry.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key Key) (*domain.ExtractionResult, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key.String()]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if m.ttl > 0 && m.now().Sub(entry.storedAt) > m.ttl {
		m.mu.Lock()
		delete(m.entries, key.String())
		m.mu.Unlock()
		return nil, false, nil
	}

	var result domain.ExtractionResult
	if err := json.Unmarshal(entry.payload, &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

func (m *Memory) Set(_ context.Context, key Key, result *domain.ExtractionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key.String()] = memoryEntry{payload: payload, storedAt: m.now()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	delete(m.entries, key.String())
	m.mu.Unlock()
	return nil
}

func (m *Memory) Purge(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Len reports the number of live entries, expired ones included until their
// next Get. Used by the stats endpoint.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
