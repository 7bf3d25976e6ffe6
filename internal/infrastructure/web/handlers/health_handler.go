package handlers

import (
	"context"
	"listing-repricer/internal/application/dto"
	"net/http"
)

// ReadinessChecker verifica una dependencia para /ready
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler maneja los endpoints de health check
type HealthHandler struct {
	persistence ReadinessChecker
	scheduler   RepriceRunner
}

// NewHealthHandler crea una nueva instancia del health handler.
// scheduler puede ser nil cuando el loop automático está deshabilitado.
func NewHealthHandler(persistence ReadinessChecker, scheduler RepriceRunner) *HealthHandler {
	return &HealthHandler{
		persistence: persistence,
		scheduler:   scheduler,
	}
}

// Health godoc
// @Summary Basic health check
// @Description Verifies that the service is running. Responds without checking dependencies.
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service is running correctly"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{
		"service": "running",
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, dto.NewHealthResponse("healthy", services))
}

// Ready godoc
// @Summary Complete readiness check
// @Description Verifies the persistence backend and that the scheduler loop is running.
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service is ready to receive traffic"
// @Failure 503 {object} dto.HealthResponse "Service is not ready - dependencies are failing"
// @Router /ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	services := make(map[string]string)
	ready := true

	if h.persistence != nil {
		if err := h.persistence.Ping(ctx); err != nil {
			services["persistence"] = "error: " + err.Error()
			ready = false
		} else {
			services["persistence"] = "ready"
		}
	}

	if h.scheduler != nil {
		if h.scheduler.Status().Running {
			services["scheduler"] = "running"
		} else {
			services["scheduler"] = "stopped"
			ready = false
		}
	}

	if !ready {
		writeJSONResponse(ctx, w, http.StatusServiceUnavailable, dto.NewHealthResponse("unhealthy", services))
		return
	}

	services["service"] = "ready"
	writeJSONResponse(ctx, w, http.StatusOK, dto.NewHealthResponse("ready", services))
}
