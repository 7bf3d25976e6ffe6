package persistence

import (
	"context"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"sync"
)

// MemoryStore conserva el último snapshot en memoria (modo mock y tests)
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

var _ interfaces.Persistence = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*entities.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrSnapshotNotFound
	}
	return decodeSnapshot(m.data)
}

// Save serializa el snapshot para que el llamador pueda seguir mutando el original
func (m *MemoryStore) Save(_ context.Context, snapshot *entities.Snapshot) error {
	data, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.saves++
	return nil
}

// Saves retorna cuántas veces se guardó
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) Ping(_ context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
