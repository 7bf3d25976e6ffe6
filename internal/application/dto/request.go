package dto

import (
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"strings"
	"time"
)

// AddListingRequest es el cuerpo de POST /api/v1/listings
// @Description Datos para registrar un listing gestionado
type AddListingRequest struct {
	// Identificador del lote en el marketplace
	ID string `json:"id" example:"lot-1001" validate:"required"`
	// Clave de catálogo (app_<id> o sub_<id>)
	CatalogItem string `json:"catalog_item" example:"570" validate:"required"`
	// Moneda regional del catálogo
	CatalogCurrency string  `json:"catalog_currency" example:"UAH" validate:"required"`
	MinPrice        float64 `json:"min_price" example:"1.5" validate:"required,gt=0"`
	MaxPrice        float64 `json:"max_price" example:"25" validate:"required,gtefield=MinPrice"`
}

// Validate hace los chequeos de forma; la validación de dominio vive en el servicio
func (r *AddListingRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(r.CatalogItem) == "" {
		return errors.New("catalog_item is required")
	}
	if strings.TrimSpace(r.CatalogCurrency) == "" {
		return errors.New("catalog_currency is required")
	}
	return nil
}

// UpdateBoundsRequest es el cuerpo de PUT /api/v1/listings/{id}/bounds
// @Description Nuevos límites de precio de un listing
type UpdateBoundsRequest struct {
	MinPrice float64 `json:"min_price" example:"2"`
	MaxPrice float64 `json:"max_price" example:"30"`
}

// UpdateSettingsRequest es el cuerpo de PUT /api/v1/settings.
// Los campos omitidos conservan el valor vigente.
// @Description Settings globales de pricing
type UpdateSettingsRequest struct {
	AccountCurrency   *string  `json:"account_currency,omitempty" example:"USD"`
	RecheckInterval   *string  `json:"recheck_interval,omitempty" example:"6h"` // Duración Go (ej: 30m, 6h)
	MarkupCurrencyPct *float64 `json:"markup_currency_pct,omitempty" example:"3"`
	MarkupMarginPct   *float64 `json:"markup_margin_pct,omitempty" example:"5"`
	MarkupFixedAmount *float64 `json:"markup_fixed_amount,omitempty" example:"0.5"`
	GlobalMinPrice    *float64 `json:"global_min_price,omitempty" example:"1"`
	GlobalMaxPrice    *float64 `json:"global_max_price,omitempty" example:"5000"`
}

// ApplyTo combina el request con los settings actuales
func (r *UpdateSettingsRequest) ApplyTo(current entities.GlobalSettings) (entities.GlobalSettings, error) {
	out := current
	if r.AccountCurrency != nil {
		out.AccountCurrency = *r.AccountCurrency
	}
	if r.RecheckInterval != nil {
		interval, err := time.ParseDuration(strings.TrimSpace(*r.RecheckInterval))
		if err != nil {
			return entities.GlobalSettings{}, fmt.Errorf("%w: invalid recheck_interval %q", entities.ErrInvalidInput, *r.RecheckInterval)
		}
		out.RecheckInterval = interval
	}
	if r.MarkupCurrencyPct != nil {
		out.MarkupCurrencyPct = *r.MarkupCurrencyPct
	}
	if r.MarkupMarginPct != nil {
		out.MarkupMarginPct = *r.MarkupMarginPct
	}
	if r.MarkupFixedAmount != nil {
		out.MarkupFixedAmount = *r.MarkupFixedAmount
	}
	if r.GlobalMinPrice != nil {
		out.GlobalMinPrice = *r.GlobalMinPrice
	}
	if r.GlobalMaxPrice != nil {
		out.GlobalMaxPrice = *r.GlobalMaxPrice
	}
	return out, nil
}
