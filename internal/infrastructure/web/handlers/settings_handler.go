package handlers

import (
	"context"
	"listing-repricer/internal/application/dto"
	"listing-repricer/internal/domain/entities"
	"net/http"
)

// SettingsManager lee y actualiza los settings globales
type SettingsManager interface {
	Settings() entities.GlobalSettings
	UpdateSettings(ctx context.Context, settings entities.GlobalSettings) (entities.GlobalSettings, error)
	ResetSettings(ctx context.Context) entities.GlobalSettings
}

// SettingsHandler maneja /api/v1/settings
type SettingsHandler struct {
	settings SettingsManager
	mapper   *dto.ListingMapper
}

func NewSettingsHandler(settings SettingsManager) *SettingsHandler {
	return &SettingsHandler{settings: settings, mapper: dto.NewListingMapper()}
}

// Get godoc
// @Summary Current global settings
// @Tags settings
// @Produce json
// @Success 200 {object} dto.SettingsData
// @Security ApiKeyAuth
// @Router /api/v1/settings [get]
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(r.Context(), w, http.StatusOK, h.mapper.ToSettingsData(h.settings.Settings()))
}

// Update godoc
// @Summary Update global settings
// @Description Partial update; omitted fields keep their value. The result is validated as a whole.
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body dto.UpdateSettingsRequest true "Fields to change"
// @Success 200 {object} dto.SettingsData
// @Failure 400 {object} dto.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/settings [put]
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSettingsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	merged, err := req.ApplyTo(h.settings.Settings())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	updated, err := h.settings.UpdateSettings(r.Context(), merged)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, h.mapper.ToSettingsData(updated))
}

// Reset godoc
// @Summary Restore configured default settings
// @Tags settings
// @Produce json
// @Success 200 {object} dto.SettingsData
// @Security ApiKeyAuth
// @Router /api/v1/settings/reset [post]
func (h *SettingsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(r.Context(), w, http.StatusOK, h.mapper.ToSettingsData(h.settings.ResetSettings(r.Context())))
}
