package account

import (
	"context"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"sync"
)

// MockClient es una cuenta en memoria para desarrollo y tests
type MockClient struct {
	mu       sync.Mutex
	listings map[string]*interfaces.AccountListing
	writes   []PriceWrite
	// AutoCreate crea lotes desconocidos con precio 0 en lugar de reportarlos como eliminados
	AutoCreate bool
	failNext   error
}

// PriceWrite registra una escritura de precio recibida por el mock
type PriceWrite struct {
	ID    string
	Price float64
}

var _ interfaces.AccountClient = (*MockClient)(nil)

func NewMockClient() *MockClient {
	return &MockClient{listings: make(map[string]*interfaces.AccountListing)}
}

// SetListing registra un lote con su precio actual
func (m *MockClient) SetListing(id string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[id] = &interfaces.AccountListing{ID: id, Price: price, Active: true}
}

// RemoveListing simula un lote borrado en la cuenta
func (m *MockClient) RemoveListing(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listings, id)
}

// FailNext hace que la próxima llamada devuelva err
func (m *MockClient) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Writes retorna las escrituras de precio recibidas
func (m *MockClient) Writes() []PriceWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PriceWrite, len(m.writes))
	copy(out, m.writes)
	return out
}

func (m *MockClient) GetListing(_ context.Context, id string) (*interfaces.AccountListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	listing, ok := m.listings[id]
	if !ok {
		if !m.AutoCreate {
			return nil, fmt.Errorf("lot %s: %w", id, entities.ErrListingGone)
		}
		listing = &interfaces.AccountListing{ID: id, Active: true}
		m.listings[id] = listing
	}

	c := *listing
	return &c, nil
}

func (m *MockClient) SetPrice(_ context.Context, listing *interfaces.AccountListing, newPrice float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}

	current, ok := m.listings[listing.ID]
	if !ok {
		return fmt.Errorf("lot %s: %w", listing.ID, entities.ErrListingGone)
	}
	current.Price = newPrice
	m.writes = append(m.writes, PriceWrite{ID: listing.ID, Price: newPrice})
	return nil
}

func (m *MockClient) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}
