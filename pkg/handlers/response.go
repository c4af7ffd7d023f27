package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hindsightlog/hindsight/pkg/apperrors"
)

// ApiResponse is the envelope for CRUD responses. The search endpoint
// returns its documented shape directly, without the envelope.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// ValidationErrorResponse writes a 400 carrying every collected violation as
// {field, message} pairs, so a caller can fix the whole request in one round
// trip.
func ValidationErrorResponse(w http.ResponseWriter, validationErr *apperrors.ValidationError) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	return json.NewEncoder(w).Encode(map[string]any{
		"error":   "validation_error",
		"message": "One or more fields are invalid",
		"details": validationErr.Violations,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteError maps a service error onto the documented status codes:
// validation errors → 400 with the full violation list, missing records →
// 404, an unreachable store → 503 (retryable), anything else → an opaque
// 500.
func WriteError(w http.ResponseWriter, err error) error {
	var validationErr *apperrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return ValidationErrorResponse(w, validationErr)
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrorResponse(w, http.StatusNotFound, "not_found", "Decision not found")
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return ErrorResponse(w, http.StatusServiceUnavailable, "store_unavailable",
			"The record store is unavailable; retry later")
	case errors.Is(err, apperrors.ErrUnauthorized):
		return ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
	default:
		return ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
