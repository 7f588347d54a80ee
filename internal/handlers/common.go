package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"celebration-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondServiceError maps a service error to an HTTP status. Client
// errors carry the service message; everything else is an opaque 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrForbidden):
		respondError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrUnauthorized):
		respondError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, services.ErrConflict):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrNotImplemented):
		respondError(w, err.Error(), http.StatusNotImplemented)
	default:
		respondError(w, "Internal server error", http.StatusInternalServerError)
	}
}
