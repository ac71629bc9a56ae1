package store

import (
	"context"
	"errors"
	"sync"
)

// VisitorKV scopes assignment storage to one visitor. It satisfies
// assigner.KeyValueStore.
type VisitorKV struct {
	store     Store
	visitorID string
}

func NewVisitorKV(s Store, visitorID string) *VisitorKV {
	return &VisitorKV{store: s, visitorID: visitorID}
}

func (v *VisitorKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := v.store.GetAssignment(ctx, v.visitorID, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (v *VisitorKV) Set(ctx context.Context, key, value string) error {
	return v.store.SetAssignment(ctx, v.visitorID, key, value)
}

// MemoryKV is an in-process key-value store for embedding the assigner
// without a database.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
