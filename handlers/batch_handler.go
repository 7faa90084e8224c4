package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"quitSmokingAPI/internal/clock"
	"quitSmokingAPI/internal/types/user"
	"quitSmokingAPI/middleware"
	"quitSmokingAPI/services"
)

// BatchHandler exposes the manual batch trigger and the date controls.
// Both are restricted to the accounts listed in DEV_ACCOUNT_IDS.
type BatchHandler struct {
	batchService *services.BatchService
	userService  *services.UserService
	devClock     *clock.Offset
}

func NewBatchHandler(batchService *services.BatchService, userService *services.UserService, devClock *clock.Offset) *BatchHandler {
	return &BatchHandler{
		batchService: batchService,
		userService:  userService,
		devClock:     devClock,
	}
}

// RunBatch triggers the reconciliation synchronously and returns the
// aggregate result.
func (h *BatchHandler) RunBatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	if !h.authorizeDev(ctx, w) {
		return
	}

	result, err := h.batchService.RunReconciliation(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Batch run failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"result":  result,
	})
}

// SetDateOffset adjusts the injected dev clock by whole days.
func (h *BatchHandler) SetDateOffset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.authorizeDev(ctx, w) {
		return
	}

	var req struct {
		Action string `json:"action"`
		Days   int    `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Action {
	case "set":
		h.devClock.Set(req.Days)
	case "advance":
		h.devClock.Advance()
	case "rewind":
		h.devClock.Rewind()
	case "reset":
		h.devClock.Reset()
	default:
		respondWithError(w, http.StatusBadRequest, "action must be one of set, advance, rewind, reset")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"offset":  h.devClock.Days(),
	})
}

func (h *BatchHandler) authorizeDev(ctx context.Context, w http.ResponseWriter) bool {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return false
	}

	u, err := h.userService.GetByClerkID(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return false
	}

	if !isDevAccount(u) {
		respondWithError(w, http.StatusForbidden, "Only dev accounts may do this")
		return false
	}
	return true
}

func isDevAccount(u *user.User) bool {
	for _, id := range strings.Split(os.Getenv("DEV_ACCOUNT_IDS"), ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if id == u.ClerkID || id == u.TwitterID || id == u.ScreenName {
			return true
		}
	}
	return false
}
