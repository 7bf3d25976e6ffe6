package exchange

import (
	"context"
	"fmt"
	"listing-repricer/internal/infrastructure/exchange/sources"
	"listing-repricer/internal/infrastructure/logging"
	"math/rand"
	"strings"
	"sync"
)

// MockSource implementa RateSource para development (MOCK_MODE).
// Retorna tasas falsas pero realistas con una pequeña variación.
type MockSource struct {
	mu        sync.RWMutex
	baseRates map[string]float64
	variance  float64
}

// NewMockSource crea una fuente mock a partir de las tasas base (por ejemplo las de fallback)
func NewMockSource(baseRates map[string]float64) *MockSource {
	rates := make(map[string]float64, len(baseRates))
	for currency, rate := range baseRates {
		rates[strings.ToUpper(currency)] = rate
	}
	return &MockSource{
		baseRates: rates,
		variance:  0.01, // ±1%
	}
}

func (m *MockSource) Name() string {
	return "mock"
}

// FetchRate retorna la tasa base con variación aleatoria
func (m *MockSource) FetchRate(ctx context.Context, currency string) (float64, error) {
	m.mu.RLock()
	base, exists := m.baseRates[strings.ToUpper(currency)]
	variance := m.variance
	m.mu.RUnlock()

	if !exists {
		return 0, fmt.Errorf("%w: mock has no rate for %s", sources.ErrRateNotFound, currency)
	}

	variation := (rand.Float64()*2 - 1) * variance
	rate := base * (1 + variation)

	logging.Debug(ctx, "MockSource: generated mock rate", logging.Fields{
		logging.FieldCurrency: currency,
		"base_rate":           base,
		logging.FieldRate:     rate,
		"variation":           fmt.Sprintf("%.2f%%", variation*100),
	})

	return rate, nil
}

// SetRate agrega o reemplaza una tasa base (útil para testing)
func (m *MockSource) SetRate(currency string, rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseRates[strings.ToUpper(currency)] = rate
}

// SetVariance configura la variación porcentual
func (m *MockSource) SetVariance(variance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variance = variance
}
