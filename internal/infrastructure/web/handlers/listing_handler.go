package handlers

import (
	"context"
	"listing-repricer/internal/application/dto"
	"listing-repricer/internal/application/services"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/infrastructure/logging"
	"net/http"

	"github.com/gorilla/mux"
)

// ListingManager son las operaciones de administración de listings
type ListingManager interface {
	AddListing(ctx context.Context, in services.AddListingInput) (*entities.Listing, error)
	GetListing(id string) (*entities.Listing, error)
	ListListings() ([]*entities.Listing, entities.ListingStats)
	RemoveListing(ctx context.Context, id string) error
	ToggleListing(ctx context.Context, id string) (*entities.Listing, error)
	UpdateListingBounds(ctx context.Context, id string, minPrice, maxPrice float64) (*entities.Listing, error)
}

// RepriceRunner dispara reprices manuales y expone el estado del scheduler
type RepriceRunner interface {
	RepriceNow(ctx context.Context, id string) (entities.RepriceResult, error)
	RepriceAll(ctx context.Context) entities.RepriceSummary
	Status() services.SchedulerStatus
}

// ListingHandler maneja los endpoints de listings y reprice manual
type ListingHandler struct {
	listings  ListingManager
	scheduler RepriceRunner
	mapper    *dto.ListingMapper
}

// NewListingHandler crea una nueva instancia del handler
func NewListingHandler(listings ListingManager, scheduler RepriceRunner) *ListingHandler {
	return &ListingHandler{
		listings:  listings,
		scheduler: scheduler,
		mapper:    dto.NewListingMapper(),
	}
}

// List godoc
// @Summary List managed listings
// @Description Returns every managed listing together with total, active and priced counts.
// @Tags listings
// @Produce json
// @Success 200 {object} dto.ListingsResponse
// @Security ApiKeyAuth
// @Router /api/v1/listings [get]
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, stats := h.listings.ListListings()
	writeJSONResponse(r.Context(), w, http.StatusOK, h.mapper.ToListingsResponse(listings, stats))
}

// Create godoc
// @Summary Add a listing
// @Description Registers a marketplace lot bound to a catalog item. The listing starts enabled.
// @Tags listings
// @Accept json
// @Produce json
// @Param listing body dto.AddListingRequest true "Listing to add"
// @Success 201 {object} dto.ListingData
// @Failure 400 {object} dto.ErrorResponse "Invalid catalog key, currency or bounds"
// @Failure 409 {object} dto.ErrorResponse "Listing already exists"
// @Security ApiKeyAuth
// @Router /api/v1/listings [post]
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.AddListingRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeErrorResponse(r.Context(), w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}

	listing, err := h.listings.AddListing(r.Context(), services.AddListingInput{
		ID:              req.ID,
		CatalogItem:     req.CatalogItem,
		CatalogCurrency: req.CatalogCurrency,
		MinPrice:        req.MinPrice,
		MaxPrice:        req.MaxPrice,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSONResponse(r.Context(), w, http.StatusCreated, h.mapper.ToListingData(listing))
}

// Get godoc
// @Summary Get a listing
// @Tags listings
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} dto.ListingData
// @Failure 404 {object} dto.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/listings/{id} [get]
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.GetListing(mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, h.mapper.ToListingData(listing))
}

// Delete godoc
// @Summary Stop managing a listing
// @Description The marketplace lot itself is left untouched.
// @Tags listings
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/listings/{id} [delete]
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.RemoveListing(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, dto.MessageResponse{Message: "Listing removed"})
}

// Toggle godoc
// @Summary Enable or disable a listing
// @Tags listings
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} dto.ListingData
// @Failure 404 {object} dto.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/listings/{id}/toggle [post]
func (h *ListingHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.ToggleListing(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, h.mapper.ToListingData(listing))
}

// UpdateBounds godoc
// @Summary Change listing price bounds
// @Tags listings
// @Accept json
// @Produce json
// @Param id path string true "Listing ID"
// @Param bounds body dto.UpdateBoundsRequest true "New bounds"
// @Success 200 {object} dto.ListingData
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/listings/{id}/bounds [put]
func (h *ListingHandler) UpdateBounds(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateBoundsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	listing, err := h.listings.UpdateListingBounds(r.Context(), mux.Vars(r)["id"], req.MinPrice, req.MaxPrice)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, h.mapper.ToListingData(listing))
}

// Reprice godoc
// @Summary Reprice one listing now
// @Description Runs the full pipeline for one enabled listing, ignoring the recheck interval.
// @Tags reprice
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} entities.RepriceResult
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Listing disabled"
// @Security ApiKeyAuth
// @Router /api/v1/listings/{id}/reprice [post]
func (h *ListingHandler) Reprice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := logging.WithListingID(r.Context(), id)

	result, err := h.scheduler.RepriceNow(ctx, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONResponse(ctx, w, http.StatusOK, result)
}

// RepriceAll godoc
// @Summary Reprice every enabled listing
// @Description Blocks until all enabled listings were processed, pacing between them.
// @Tags reprice
// @Produce json
// @Success 200 {object} entities.RepriceSummary
// @Security ApiKeyAuth
// @Router /api/v1/reprice [post]
func (h *ListingHandler) RepriceAll(w http.ResponseWriter, r *http.Request) {
	summary := h.scheduler.RepriceAll(r.Context())

	logging.Info(r.Context(), "Manual reprice requested", logging.Fields{
		"total":   summary.Total,
		"updated": summary.Updated,
		"failed":  summary.Failed,
	})
	writeJSONResponse(r.Context(), w, http.StatusOK, summary)
}
