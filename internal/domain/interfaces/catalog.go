package interfaces

import (
	"context"
	"listing-repricer/internal/domain/entities"
)

// CatalogQuote es la respuesta normalizada del catálogo externo
type CatalogQuote struct {
	Success     bool
	MinorUnits  *int64
	DisplayName string
}

// CatalogClient habla con la API del catálogo (Steam store)
type CatalogClient interface {
	FetchQuote(ctx context.Context, key entities.CatalogItemKey, region string) (*CatalogQuote, error)
	FetchDisplayName(ctx context.Context, key entities.CatalogItemKey) (string, error)
}

// CatalogPriceProvider devuelve (precio, true) o (0, false) cuando el precio está ausente
type CatalogPriceProvider interface {
	GetPrice(ctx context.Context, key entities.CatalogItemKey, currency string) (float64, bool)
	GetDisplayName(ctx context.Context, key entities.CatalogItemKey) string
}
