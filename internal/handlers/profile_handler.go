package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wortdestages/backend/internal/auth"
	"go.uber.org/zap"
)

// ProfileStore is the interface that wraps per-user preference and cache state
type ProfileStore interface {
	// PlaybackSpeed returns the user's audio playback speed.
	PlaybackSpeed(ctx context.Context, userID string) float64
	// SetPlaybackSpeed stores the user's audio playback speed.
	SetPlaybackSpeed(ctx context.Context, userID string, speed float64) error
	// Reset clears the user's cached favorite state; the playback-speed
	// preference survives.
	Reset(userID string)
}

// ProfileHandler handles user preference HTTP requests
type ProfileHandler struct {
	BaseHandler
	store ProfileStore
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(store ProfileStore, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler: BaseHandler{logger: logger},
		store:       store,
	}
}

// RegisterRoutes registers all profile handler routes
func (h *ProfileHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/profile", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/playback-speed", h.GetPlaybackSpeed)
		r.Put("/playback-speed", h.SetPlaybackSpeed)
		r.Post("/signout", h.SignOut)
	})
}

// PlaybackSpeedResponse represents a playback speed value
type PlaybackSpeedResponse struct {
	PlaybackSpeed float64 `json:"playbackSpeed"`
}

// GetPlaybackSpeed handles GET /api/v1/profile/playback-speed
// @Summary Get audio playback speed
// @Tags profile
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} PlaybackSpeedResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/v1/profile/playback-speed [get]
func (h *ProfileHandler) GetPlaybackSpeed(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.GetIdentity(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "identity not found in context")
		return
	}

	speed := h.store.PlaybackSpeed(r.Context(), ident.UserID)
	h.respondJSON(w, http.StatusOK, PlaybackSpeedResponse{PlaybackSpeed: speed})
}

// SetPlaybackSpeed handles PUT /api/v1/profile/playback-speed
// @Summary Set audio playback speed
// @Tags profile
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param speed body PlaybackSpeedResponse true "Playback speed (0.5-2.0)"
// @Success 200 {object} PlaybackSpeedResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/v1/profile/playback-speed [put]
func (h *ProfileHandler) SetPlaybackSpeed(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.GetIdentity(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "identity not found in context")
		return
	}

	var req PlaybackSpeedResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request body", zap.Error(err))
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.PlaybackSpeed < 0.5 || req.PlaybackSpeed > 2.0 {
		h.respondError(w, http.StatusBadRequest, "playbackSpeed must be between 0.5 and 2.0")
		return
	}

	if err := h.store.SetPlaybackSpeed(r.Context(), ident.UserID, req.PlaybackSpeed); err != nil {
		h.logger.Error("failed to set playback speed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, req)
}

// SignOut handles POST /api/v1/profile/signout
// @Summary Clear cached state on sign-out
// @Description Drop the user's cached favorite state. Session revocation itself happens at the identity provider.
// @Tags profile
// @Security ApiKeyAuth
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/v1/profile/signout [post]
func (h *ProfileHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.GetIdentity(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "identity not found in context")
		return
	}

	h.store.Reset(ident.UserID)
	w.WriteHeader(http.StatusNoContent)
}
