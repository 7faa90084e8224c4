package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"quitSmokingAPI/internal/token"
	"quitSmokingAPI/internal/types/challenge"
	"quitSmokingAPI/internal/types/user"
	"quitSmokingAPI/middleware"
	"quitSmokingAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
	userService      *services.UserService
	signer           *token.Signer
}

func NewChallengeHandler(challengeService *services.ChallengeService, userService *services.UserService, signer *token.Signer) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
		userService:      userService,
		signer:           signer,
	}
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	var req challenge.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.RealName = strings.TrimSpace(req.RealName)
	if req.RealName == "" {
		respondWithError(w, http.StatusBadRequest, "real_name is required")
		return
	}

	ch, err := h.challengeService.CreateChallenge(ctx, u.ID, req.RealName)
	if err != nil {
		if errors.Is(err, services.ErrActiveChallengeExists) {
			respondWithError(w, http.StatusConflict, "An active challenge already exists")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to create challenge")
		return
	}

	respondWithJSON(w, http.StatusCreated, ch)
}

func (h *ChallengeHandler) GetCurrentChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	ch, err := h.challengeService.GetCurrentChallenge(ctx, u.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "No active challenge")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load challenge")
		return
	}

	respondWithJSON(w, http.StatusOK, ch)
}

func (h *ChallengeHandler) GetSuccessLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	logs, err := h.challengeService.GetSuccessLogs(ctx, u.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "No active challenge")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load success logs")
		return
	}

	respondWithJSON(w, http.StatusOK, logs)
}

func (h *ChallengeHandler) GetReportLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	link, err := h.challengeService.GetReportLink(ctx, u.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "No active challenge")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to build report link")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"reportUrl": link})
}

// ReportSuccess is the tokenized-link target. It is public: the signed token
// carries and authenticates {userId, challengeId, date}.
func (h *ChallengeHandler) ReportSuccess(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	signed := r.URL.Query().Get("token")
	if signed == "" {
		var req challenge.ReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			signed = req.Token
		}
	}
	if signed == "" {
		respondWithError(w, http.StatusBadRequest, "token is required")
		return
	}

	userID, challengeID, date, err := h.signer.VerifyReport(signed)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid or expired report token")
		return
	}

	if err := h.challengeService.ReportSuccess(ctx, userID, challengeID, date); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Challenge not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to record success report")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ChallengeHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		Token    string `json:"token"`
		Platform string `json:"platform"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.userService.RegisterDevice(ctx, clerkID, req.Token, req.Platform); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ChallengeHandler) currentUser(ctx context.Context, w http.ResponseWriter) (*user.User, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return nil, false
	}

	u, err := h.userService.GetByClerkID(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return nil, false
	}
	return u, true
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
