package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecomove/ecomove/internal/auth"
	"github.com/ecomove/ecomove/internal/model"
	"github.com/ecomove/ecomove/internal/service"
)

// RewardHandler exposes the reward catalog, redemption, and the redemption
// history/status operations.
type RewardHandler struct {
	rewards *service.RewardService
	logger  *slog.Logger
}

// NewRewardHandler creates a RewardHandler.
func NewRewardHandler(rewards *service.RewardService, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{rewards: rewards, logger: logger}
}

// HandleCatalog returns active, in-stock rewards.
//
// HTTP: GET /api/rewards
func (h *RewardHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.rewards.Catalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

// HandleAffordable returns the rewards the caller can pay for right now.
//
// HTTP: GET /api/rewards/affordable
func (h *RewardHandler) HandleAffordable(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	rewards, err := h.rewards.Affordable(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

// HandleRedeem exchanges the caller's points for a reward.
//
// HTTP: POST /api/rewards/{id}/redeem
// → 201 {"redemption":{...},"pointsRemaining":500}
// Errors: 404 unknown reward, 400 unavailable or insufficient points.
func (h *RewardHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	rewardID := chi.URLParam(r, "id")
	if rewardID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "reward ID is required"})
		return
	}

	result, err := h.rewards.Redeem(r.Context(), userID, rewardID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// HandleHistory returns the caller's redemptions, newest first.
//
// HTTP: GET /api/redemptions
func (h *RewardHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	redemptions, err := h.rewards.History(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redemptions)
}

// HandleTransition moves a redemption along the fulfilment state machine
// (operator action).
//
// HTTP: PATCH /api/redemptions/{id}/status
// BODY: {"status":"processing"}
func (h *RewardHandler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	redemptionID := chi.URLParam(r, "id")
	if redemptionID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "redemption ID is required"})
		return
	}

	var body struct {
		Status model.RedemptionStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	redemption, err := h.rewards.Transition(r.Context(), redemptionID, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redemption)
}
