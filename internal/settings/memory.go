package settings

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store, used when no database path is configured.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]bool
	writes int
}

func NewMemoryStore(initial map[string]bool) *MemoryStore {
	values := make(map[string]bool, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

func (m *MemoryStore) Get(_ context.Context, keys ...string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, values map[string]bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.values[k] = v
	}
	m.writes++
	return nil
}

// Writes reports how many Set calls reached the store.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
