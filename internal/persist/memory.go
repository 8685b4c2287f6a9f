package persist

import (
	"bytes"
	"context"
	"sync"
)

// MemoryMedium is an in-process Medium.
type MemoryMedium struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{values: make(map[string][]byte)}
}

func (m *MemoryMedium) Get(ctx context.Context, namespace string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[namespace]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(value), nil
}

func (m *MemoryMedium) Put(ctx context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for namespace, value := range values {
		m.values[namespace] = bytes.Clone(value)
	}
	return nil
}

// Set seeds a single namespace.
func (m *MemoryMedium) Set(namespace string, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[namespace] = []byte(value)
}
