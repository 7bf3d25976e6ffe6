package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"sync"
)

// MockClient implementa CatalogClient para development (MOCK_MODE).
// Sin precio configurado, deriva un precio estable del id del item.
type MockClient struct {
	mu     sync.RWMutex
	prices map[string]int64
	names  map[string]string
}

var _ interfaces.CatalogClient = (*MockClient)(nil)

func NewMockClient() *MockClient {
	return &MockClient{
		prices: make(map[string]int64),
		names:  make(map[string]string),
	}
}

// SetItem fija precio en unidades menores y nombre para un item
func (m *MockClient) SetItem(key entities.CatalogItemKey, minorUnits int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[key.String()] = minorUnits
	m.names[key.String()] = name
}

func (m *MockClient) FetchQuote(_ context.Context, key entities.CatalogItemKey, _ string) (*interfaces.CatalogQuote, error) {
	m.mu.RLock()
	minor, ok := m.prices[key.String()]
	name := m.names[key.String()]
	m.mu.RUnlock()

	if !ok {
		h := fnv.New32a()
		_, _ = h.Write([]byte(key.String()))
		minor = int64(h.Sum32()%50000) + 99
	}
	if name == "" {
		name = fmt.Sprintf("Mock item %s", key)
	}

	return &interfaces.CatalogQuote{Success: true, MinorUnits: &minor, DisplayName: name}, nil
}

func (m *MockClient) FetchDisplayName(ctx context.Context, key entities.CatalogItemKey) (string, error) {
	quote, err := m.FetchQuote(ctx, key, DefaultRegion)
	if err != nil {
		return "", err
	}
	return quote.DisplayName, nil
}
