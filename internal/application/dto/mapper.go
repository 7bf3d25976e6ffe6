package dto

import (
	"listing-repricer/internal/domain/entities"
)

// ListingMapper convierte entidades del dominio a DTOs de respuesta
type ListingMapper struct{}

// NewListingMapper crea una nueva instancia del mapper
func NewListingMapper() *ListingMapper {
	return &ListingMapper{}
}

// ToListingData convierte un listing a su DTO
func (m *ListingMapper) ToListingData(l *entities.Listing) ListingData {
	return ListingData{
		ID:                    l.ID,
		CatalogItem:           l.CatalogItem.String(),
		CatalogCurrency:       l.CatalogCurrency,
		DisplayName:           l.DisplayName,
		MinPrice:              l.MinPrice,
		MaxPrice:              l.MaxPrice,
		Enabled:               l.Enabled,
		LastKnownCatalogPrice: l.LastKnownCatalogPrice,
		LastAppliedPrice:      l.LastAppliedPrice,
		LastUpdateTime:        l.LastUpdateTime,
		CreatedAt:             l.CreatedAt,
	}
}

// ToListingsResponse convierte la lista (ya ordenada por el store) y sus estadísticas
func (m *ListingMapper) ToListingsResponse(listings []*entities.Listing, stats entities.ListingStats) *ListingsResponse {
	data := make([]ListingData, len(listings))
	for i, l := range listings {
		data[i] = m.ToListingData(l)
	}
	return &ListingsResponse{Listings: data, Stats: stats}
}

// ToSettingsData convierte los settings globales
func (m *ListingMapper) ToSettingsData(s entities.GlobalSettings) SettingsData {
	return SettingsData{
		AccountCurrency:   s.AccountCurrency,
		RecheckInterval:   s.RecheckInterval.String(),
		MarkupCurrencyPct: s.MarkupCurrencyPct,
		MarkupMarginPct:   s.MarkupMarginPct,
		MarkupFixedAmount: s.MarkupFixedAmount,
		GlobalMinPrice:    s.GlobalMinPrice,
		GlobalMaxPrice:    s.GlobalMaxPrice,
	}
}
