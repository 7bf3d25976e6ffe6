package interfaces

import (
	"context"
	"listing-repricer/internal/domain/entities"
)

// RateSource es una fuente externa de tipos de cambio respecto a la moneda base
type RateSource interface {
	// Name identifica la fuente en logs y métricas
	Name() string
	// FetchRate devuelve cuántas unidades de currency equivalen a 1 unidad de la moneda base
	FetchRate(ctx context.Context, currency string) (float64, error)
}

// RateProvider resuelve tasas con fallback escalonado; nunca falla hacia afuera
type RateProvider interface {
	GetRate(ctx context.Context, currency string) float64
	RefreshAll(ctx context.Context) map[string]float64
	Snapshot() []entities.ExchangeRate
}
