package cache

import (
	"context"
	"sync"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
)

// MemoryStore is the default backing store: a plain map, no eviction, no
// persistence across restarts.
type MemoryStore struct {
	mu    sync.RWMutex
	byKey map[string]artifact.SafetyCard
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: make(map[string]artifact.SafetyCard)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (artifact.SafetyCard, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	card, ok := m.byKey[key]
	return card, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, card artifact.SafetyCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byKey[key] = card
	return nil
}
