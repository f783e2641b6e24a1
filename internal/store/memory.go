package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process Store. Values are copied on the way in and out so
// callers never share buffers with the map.
type Memory struct {
	mu   sync.RWMutex
	rows map[string][]byte
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{rows: map[string][]byte{}}
}

func (m *Memory) Load(_ context.Context, key string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(row))
	copy(out, row)
	return out, true, nil
}

func (m *Memory) Save(_ context.Context, key string, value json.RawMessage) error {
	row := make([]byte, len(value))
	copy(row, value)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[key] = row
	return nil
}
