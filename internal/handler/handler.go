// Package handler contains HTTP request handlers for the fare API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/shiva/chauffeur/internal/service"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON is a helper that writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeServiceError maps pricing errors to status codes.
//
//	ErrInvalidInput         → 400 invalid_input
//	ErrInvalidServiceArea   → 422 invalid_service_area
//	ErrSnapshotUnavailable  → 503 snapshot_unavailable
//	anything else           → 500 internal_error
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_input",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrInvalidServiceArea):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid_service_area",
			Message: "Hourly bookings are only available for pickups in Paris.",
		})
	case errors.Is(err, service.ErrSnapshotUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "snapshot_unavailable",
			Message: "Pricing reference data is not available. Retry shortly.",
		})
	default:
		log.Error("unexpected pricing error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal_error",
		})
	}
}
