package handler

import (
	"log/slog"
	"net/http"

	"github.com/ecomove/ecomove/internal/auth"
	"github.com/ecomove/ecomove/internal/service"
)

// ChallengeHandler exposes the challenge list with per-user progress.
type ChallengeHandler struct {
	challenges *service.ChallengeService
	logger     *slog.Logger
}

// NewChallengeHandler creates a ChallengeHandler.
func NewChallengeHandler(challenges *service.ChallengeService, logger *slog.Logger) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges, logger: logger}
}

// HandleList returns active challenges with the caller's recomputed
// progress. Progress recomputation happens on this read, not when trips
// are logged.
//
// HTTP: GET /api/challenges
func (h *ChallengeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	challenges, err := h.challenges.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challenges)
}
