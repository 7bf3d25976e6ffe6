package handlers

import (
	"listing-repricer/internal/application/dto"
	"listing-repricer/internal/infrastructure/repositories/cache"
	"net/http"
	"time"
)

// StatusSources agrupa los componentes que reportan estado; los nil se omiten
type StatusSources struct {
	Scheduler RepriceRunner
	Caches    func() []cache.Stats
	Clients   func() int
	RateLimit func() map[string]interface{}
}

// StatusHandler maneja GET /api/v1/status
type StatusHandler struct {
	sources StatusSources
}

func NewStatusHandler(sources StatusSources) *StatusHandler {
	return &StatusHandler{sources: sources}
}

// Status godoc
// @Summary Scheduler and cache status
// @Tags status
// @Produce json
// @Success 200 {object} dto.StatusResponse
// @Security ApiKeyAuth
// @Router /api/v1/status [get]
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	response := dto.StatusResponse{
		Caches:    []cache.Stats{},
		Timestamp: time.Now(),
	}
	if h.sources.Scheduler != nil {
		response.Scheduler = h.sources.Scheduler.Status()
	}
	if h.sources.Caches != nil {
		response.Caches = h.sources.Caches()
	}
	if h.sources.Clients != nil {
		response.WebSocketClients = h.sources.Clients()
	}
	if h.sources.RateLimit != nil {
		response.RateLimit = h.sources.RateLimit()
	}

	writeJSONResponse(r.Context(), w, http.StatusOK, response)
}
