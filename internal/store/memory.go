package store

import (
	"context"
	"sync"
)

// MemoryKV is an in-memory KV intended for tests and throwaway sessions.
// Values are copied on the way in and out so callers cannot alias stored bytes.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes map[string]int64
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values: map[string][]byte{},
		writes: map[string]int64{},
	}
}

// Get returns a copy of the value stored under key.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	value, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(value), true, nil
}

// Set stores a copy of value under key.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.values[key] = cloneBytes(value)
	m.writes[key]++
	m.mu.Unlock()
	return nil
}

// Writes returns how many times key has been written.
func (m *MemoryKV) Writes(key string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[key]
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
