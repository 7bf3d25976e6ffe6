package dto

import (
	"listing-repricer/internal/application/services"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/infrastructure/repositories/cache"
	"time"
)

// ListingData representa un listing en las respuestas
// @Description Listing gestionado con su último precio aplicado
type ListingData struct {
	ID                    string     `json:"id" example:"lot-1001"`
	CatalogItem           string     `json:"catalog_item" example:"570"`
	CatalogCurrency       string     `json:"catalog_currency" example:"UAH"`
	DisplayName           string     `json:"display_name,omitempty" example:"Dota 2"`
	MinPrice              float64    `json:"min_price" example:"1.5"`
	MaxPrice              float64    `json:"max_price" example:"25"`
	Enabled               bool       `json:"enabled" example:"true"`
	LastKnownCatalogPrice *float64   `json:"last_known_catalog_price,omitempty" example:"199"`
	LastAppliedPrice      *float64   `json:"last_applied_price,omitempty" example:"5.91"`
	LastUpdateTime        *time.Time `json:"last_update_time,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// ListingsResponse es la respuesta de GET /api/v1/listings
type ListingsResponse struct {
	Listings []ListingData         `json:"listings"`
	Stats    entities.ListingStats `json:"stats"`
}

// SettingsData representa los settings globales con la duración legible
// @Description Settings globales de pricing
type SettingsData struct {
	AccountCurrency   string  `json:"account_currency" example:"USD"`
	RecheckInterval   string  `json:"recheck_interval" example:"6h0m0s"`
	MarkupCurrencyPct float64 `json:"markup_currency_pct" example:"3"`
	MarkupMarginPct   float64 `json:"markup_margin_pct" example:"5"`
	MarkupFixedAmount float64 `json:"markup_fixed_amount" example:"0.5"`
	GlobalMinPrice    float64 `json:"global_min_price" example:"1"`
	GlobalMaxPrice    float64 `json:"global_max_price" example:"5000"`
}

// RatesResponse es la respuesta de GET /api/v1/rates
type RatesResponse struct {
	BaseCurrency string                  `json:"base_currency" example:"USD"`
	Rates        []entities.ExchangeRate `json:"rates"`
}

// RefreshRatesResponse es la respuesta de POST /api/v1/rates/refresh
type RefreshRatesResponse struct {
	Message string             `json:"message" example:"Rates refreshed"`
	Rates   map[string]float64 `json:"rates"`
}

// StatusResponse agrupa el estado del scheduler, caches y clientes conectados
type StatusResponse struct {
	Scheduler        services.SchedulerStatus `json:"scheduler"`
	Caches           []cache.Stats            `json:"caches"`
	WebSocketClients int                      `json:"websocket_clients"`
	RateLimit        map[string]interface{}   `json:"rate_limit,omitempty"`
	Timestamp        time.Time                `json:"timestamp"`
}

// MessageResponse es una respuesta simple de confirmación
type MessageResponse struct {
	Message string `json:"message" example:"Listing removed"`
}

// ErrorResponse represents a standard error response for endpoints
// @Description Standard error response for endpoints
type ErrorResponse struct {
	Error   string `json:"error" example:"INVALID_PARAMETER" validate:"required"` // Main error message
	Message string `json:"message,omitempty" example:"min price must be positive"`
	Code    string `json:"code,omitempty" example:"400"`
}

// HealthResponse represents the health check response with service status
// @Description Health check response with service status
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy" validate:"required" enums:"healthy,ready,unhealthy"`
	Timestamp time.Time         `json:"timestamp" example:"2023-12-01T10:30:00Z" validate:"required"`
	Services  map[string]string `json:"services,omitempty" example:"persistence:ready,scheduler:running"`
}

// NewHealthResponse creates a new health response
func NewHealthResponse(status string, services map[string]string) *HealthResponse {
	return &HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
	}
}
