// Package handler contains the HTTP layer: request parsing, response
// writing, and the mapping from domain errors to status codes. No business
// rules live here.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ecomove/ecomove/internal/apperror"
)

// ErrorResponse is the standard error shape returned by every endpoint:
//
//	{"error": "not_found", "message": "reward not found with id abc123"}
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable type
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response. Headers and status must be set before
// the first body write — Encode writes the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its transport status and sends it.
// This is the single point where the apperror taxonomy meets HTTP:
//
//	validation / unavailable / insufficient points → 400
//	unauthorized                                   → 401
//	not found                                      → 404
//	conflict (lost update — caller should retry)   → 409
//	persistence (store down — retryable)           → 503
//	anything else                                  → 500, details withheld
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnavailable):
			status = http.StatusBadRequest
			errorType = "reward_unavailable"
		case errors.Is(err, apperror.ErrInsufficientPoints):
			status = http.StatusBadRequest
			errorType = "insufficient_points"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrPersistence):
			status = http.StatusServiceUnavailable
			errorType = "storage_unavailable"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Unknown error — never expose internals to the client.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
