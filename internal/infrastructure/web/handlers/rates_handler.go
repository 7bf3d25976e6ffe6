package handlers

import (
	"listing-repricer/internal/application/dto"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/logging"
	"net/http"
)

// RatesHandler expone las tasas de cambio resueltas
type RatesHandler struct {
	rates interfaces.RateProvider
}

func NewRatesHandler(rates interfaces.RateProvider) *RatesHandler {
	return &RatesHandler{rates: rates}
}

// Get godoc
// @Summary Exchange rate snapshot
// @Description Last resolved rate per supported currency, with its source and age.
// @Tags rates
// @Produce json
// @Success 200 {object} dto.RatesResponse
// @Security ApiKeyAuth
// @Router /api/v1/rates [get]
func (h *RatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(r.Context(), w, http.StatusOK, dto.RatesResponse{
		BaseCurrency: entities.BaseCurrency,
		Rates:        h.rates.Snapshot(),
	})
}

// Refresh godoc
// @Summary Refresh every supported rate
// @Description Drops cached rates and resolves them again through the fallback chain. Never fails.
// @Tags rates
// @Produce json
// @Success 200 {object} dto.RefreshRatesResponse
// @Security ApiKeyAuth
// @Router /api/v1/rates/refresh [post]
func (h *RatesHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	rates := h.rates.RefreshAll(r.Context())

	logging.Info(r.Context(), "Exchange rates refreshed on demand", logging.Fields{
		"currencies": len(rates),
	})
	writeJSONResponse(r.Context(), w, http.StatusOK, dto.RefreshRatesResponse{
		Message: "Rates refreshed",
		Rates:   rates,
	})
}
