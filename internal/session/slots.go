package session

import (
	"context"
	"sync"
)

// Slots is the raw string key/value storage behind a Store. Implementations
// must make writes visible to subsequent reads in the same process.
type Slots interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes every entry in values together.
	Set(ctx context.Context, values map[string]string) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Ensure implementations satisfy Slots at compile time.
var (
	_ Slots = (*MemorySlots)(nil)
	_ Slots = (*FileSlots)(nil)
	_ Slots = (*RedisSlots)(nil)
)

// MemorySlots keeps values in process memory. Nothing survives a restart.
type MemorySlots struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySlots returns empty in-memory slots.
func NewMemorySlots() *MemorySlots {
	return &MemorySlots{values: make(map[string]string)}
}

func (m *MemorySlots) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemorySlots) Set(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string, len(values))
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *MemorySlots) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}
