package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"listing-repricer/internal/application/dto"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/infrastructure/logging"
	"net/http"
	"strconv"
)

const maxBodyBytes = 1 << 20

// writeJSONResponse escribe una respuesta JSON preservando el contexto del request
func writeJSONResponse(ctx context.Context, w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.ErrorWithError(ctx, "Failed to encode JSON response", err, logging.Fields{
			"status_code": statusCode,
		})
	}
}

// writeErrorResponse escribe un dto.ErrorResponse
func writeErrorResponse(ctx context.Context, w http.ResponseWriter, statusCode int, errorCode, message string) {
	writeJSONResponse(ctx, w, statusCode, dto.ErrorResponse{
		Error:   errorCode,
		Message: message,
		Code:    strconv.Itoa(statusCode),
	})
}

// writeDomainError traduce la taxonomía de errores del dominio a códigos HTTP
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, entities.ErrInvalidInput):
		writeErrorResponse(ctx, w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
	case errors.Is(err, entities.ErrListingNotFound):
		writeErrorResponse(ctx, w, http.StatusNotFound, "LISTING_NOT_FOUND", err.Error())
	case errors.Is(err, entities.ErrListingExists):
		writeErrorResponse(ctx, w, http.StatusConflict, "LISTING_EXISTS", err.Error())
	case errors.Is(err, entities.ErrListingDisabled):
		writeErrorResponse(ctx, w, http.StatusConflict, "LISTING_DISABLED", err.Error())
	default:
		logging.ErrorWithError(ctx, "Unhandled error in admin API", err, logging.Fields{
			logging.FieldHTTPPath: r.URL.Path,
		})
		writeErrorResponse(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

// decodeJSONBody decodifica el cuerpo rechazando campos desconocidos
func decodeJSONBody(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", entities.ErrInvalidInput, err)
	}
	return nil
}
