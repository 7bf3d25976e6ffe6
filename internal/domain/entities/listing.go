package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Listing es un lote del marketplace gestionado por el repricer
type Listing struct {
	ID                    string         `json:"id"`
	CatalogItem           CatalogItemKey `json:"catalog_item"`
	CatalogCurrency       string         `json:"catalog_currency"`
	MinPrice              float64        `json:"min_price"`
	MaxPrice              float64        `json:"max_price"`
	Enabled               bool           `json:"enabled"`
	DisplayName           string         `json:"display_name,omitempty"`
	LastKnownCatalogPrice *float64       `json:"last_known_catalog_price,omitempty"`
	LastAppliedPrice      *float64       `json:"last_applied_price,omitempty"`
	LastUpdateTime        *time.Time     `json:"last_update_time,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
}

// NewListing construye un listing habilitado y lo valida
func NewListing(id string, item CatalogItemKey, currency string, minPrice, maxPrice float64) (*Listing, error) {
	listing := &Listing{
		ID:              strings.TrimSpace(id),
		CatalogItem:     item,
		CatalogCurrency: strings.ToUpper(strings.TrimSpace(currency)),
		MinPrice:        minPrice,
		MaxPrice:        maxPrice,
		Enabled:         true,
		CreatedAt:       time.Now(),
	}

	if err := listing.Validate(); err != nil {
		return nil, err
	}

	return listing, nil
}

// Validate verifica identificador, moneda y bounds del listing
func (l *Listing) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("%w: listing id cannot be empty", ErrInvalidInput)
	}
	if !l.CatalogItem.IsValid() {
		return fmt.Errorf("%w: invalid catalog item %q", ErrInvalidInput, l.CatalogItem.String())
	}
	if l.CatalogCurrency == "" {
		return fmt.Errorf("%w: catalog currency cannot be empty", ErrInvalidInput)
	}
	return ValidatePriceBounds(l.MinPrice, l.MaxPrice)
}

// ValidatePriceBounds exige min > 0 y max >= min
func ValidatePriceBounds(minPrice, maxPrice float64) error {
	if minPrice <= 0 || maxPrice <= 0 {
		return fmt.Errorf("%w: price bounds must be positive (min=%.2f, max=%.2f)", ErrInvalidInput, minPrice, maxPrice)
	}
	if maxPrice < minPrice {
		return fmt.Errorf("%w: max price %.2f is lower than min price %.2f", ErrInvalidInput, maxPrice, minPrice)
	}
	return nil
}

// Clamp redondea un precio a centavos y lo ajusta a los bounds propios del listing.
// Los bounds se redondean hacia adentro, así el resultado nunca supera MaxPrice.
// Si no hay ningún valor en centavos dentro de los bounds gana MaxPrice.
func (l *Listing) Clamp(price float64) float64 {
	lo := decimal.NewFromFloat(l.MinPrice).RoundCeil(2)
	hi := decimal.NewFromFloat(l.MaxPrice).RoundFloor(2)

	p := decimal.NewFromFloat(price).Round(2)
	if p.LessThan(lo) {
		p = lo
	}
	if p.GreaterThan(hi) {
		p = hi
	}
	return p.InexactFloat64()
}

// RecordApplied registra el resultado de un reprice exitoso
func (l *Listing) RecordApplied(catalogPrice, appliedPrice float64, at time.Time) {
	l.LastKnownCatalogPrice = &catalogPrice
	l.LastAppliedPrice = &appliedPrice
	l.LastUpdateTime = &at
}

// Clone devuelve una copia profunda para que los lectores no compartan punteros con el store
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	if l.LastKnownCatalogPrice != nil {
		v := *l.LastKnownCatalogPrice
		c.LastKnownCatalogPrice = &v
	}
	if l.LastAppliedPrice != nil {
		v := *l.LastAppliedPrice
		c.LastAppliedPrice = &v
	}
	if l.LastUpdateTime != nil {
		v := *l.LastUpdateTime
		c.LastUpdateTime = &v
	}
	return &c
}

// ListingStats resume el conjunto de listings gestionados
type ListingStats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	WithPrices int `json:"with_prices"`
}

// ComputeListingStats cuenta total, habilitados y listings con precio aplicado
func ComputeListingStats(listings []*Listing) ListingStats {
	stats := ListingStats{Total: len(listings)}
	for _, l := range listings {
		if l.Enabled {
			stats.Active++
		}
		if l.LastAppliedPrice != nil {
			stats.WithPrices++
		}
	}
	return stats
}
