package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ecomove/ecomove/internal/auth"
	"github.com/ecomove/ecomove/internal/service"
)

// TripHandler exposes trip logging and trip history.
type TripHandler struct {
	trips  *service.TripService
	logger *slog.Logger
}

// NewTripHandler creates a TripHandler.
func NewTripHandler(trips *service.TripService, logger *slog.Logger) *TripHandler {
	return &TripHandler{trips: trips, logger: logger}
}

// HandleRecord logs a trip for the authenticated user.
//
// HTTP: POST /api/trips
// BODY: {"mode":"bike","distanceKm":10,"origin":{...},"destination":{...},"durationMinutes":25}
// → 201 {"trip":{...},"streakDays":3}
func (h *TripHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var in service.TripInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid trip JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	result, err := h.trips.Record(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// HandleList returns the caller's recent trips, newest first.
//
// HTTP: GET /api/trips?limit=50&offset=0
func (h *TripHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	trips, err := h.trips.History(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trips)
}

// HandleStats returns the caller's per-mode trip aggregation.
//
// HTTP: GET /api/trips/stats
func (h *TripHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	stats, err := h.trips.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
