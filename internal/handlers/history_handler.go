package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wortdestages/backend/internal/auth"
	"github.com/wortdestages/backend/internal/models"
	"go.uber.org/zap"
)

// HistoryService is the interface that wraps methods for word-history business logic
type HistoryService interface {
	// MarkWordAsViewed records that the user viewed a word. The session is
	// re-verified before writing.
	MarkWordAsViewed(ctx context.Context, wordID string) models.MarkViewedResult
	// ToggleFavorite flips the favorite flag for a word using the explicit
	// identity snapshot; no session round trip is made.
	ToggleFavorite(ctx context.Context, ident auth.Identity, wordID string) models.ToggleFavoriteResult
	// ListFavoriteIDs returns the IDs of the user's favorite words.
	ListFavoriteIDs(ctx context.Context) models.FavoriteIDsResult
	// ListHistory returns the user's viewing history, most recent first.
	ListHistory(ctx context.Context) models.HistoryResult
	// MigrateFavorites upserts locally cached favorite IDs into the user's history.
	MigrateFavorites(ctx context.Context, favoriteIDs []string) models.MigrateResult
}

// FavoritesStore is the interface that wraps the local favorite-ID cache
type FavoritesStore interface {
	// Hydrate loads the user's persisted favorite set once.
	Hydrate(ctx context.Context, userID string) error
	// Toggle optimistically flips local membership and returns the new local state.
	Toggle(ctx context.Context, userID, wordID string) (bool, error)
	// Set forces local membership to the given state (revert/reconcile).
	Set(ctx context.Context, userID, wordID string, favorite bool) error
	// Merge adds word IDs to the user's cached favorite set.
	Merge(ctx context.Context, userID string, wordIDs []string) error
	// Replace overwrites the cached set with the authoritative remote state.
	Replace(ctx context.Context, userID string, wordIDs []string) error
}

// HistoryHandler handles word-history HTTP requests
type HistoryHandler struct {
	BaseHandler
	service HistoryService
	store   FavoritesStore
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(service HistoryService, store FavoritesStore, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		BaseHandler: BaseHandler{logger: logger},
		service:     service,
		store:       store,
	}
}

// RegisterRoutes registers all history handler routes
func (h *HistoryHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/words/{wordID}/viewed", h.MarkViewed)
		r.Post("/words/{wordID}/favorite", h.ToggleFavorite)
		r.Get("/favorites", h.ListFavorites)
		r.Post("/favorites/migrate", h.MigrateFavorites)
		r.Get("/history", h.ListHistory)
	})
}

// MarkViewed handles POST /api/v1/words/{wordID}/viewed
// @Summary Mark a word as viewed
// @Description Record that the authenticated user viewed a word. Creates the history record on first view, afterwards bumps the review counter.
// @Tags history
// @Produce json
// @Security ApiKeyAuth
// @Param wordID path string true "Word ID"
// @Success 200 {object} models.MarkViewedResult
// @Failure 401 {object} models.MarkViewedResult "Not authenticated"
// @Failure 500 {object} models.MarkViewedResult "Internal server error"
// @Router /api/v1/words/{wordID}/viewed [post]
func (h *HistoryHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	wordID := chi.URLParam(r, "wordID")
	if wordID == "" {
		h.respondError(w, http.StatusBadRequest, "word ID is required")
		return
	}

	result := h.service.MarkWordAsViewed(r.Context(), wordID)
	if !result.Success {
		h.respondJSON(w, statusForError(result.Error), result)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ToggleFavorite handles POST /api/v1/words/{wordID}/favorite
// @Summary Toggle the favorite flag for a word
// @Description Flip the favorite state of a word for the authenticated user. The local cache is updated optimistically and reverted if the write fails.
// @Tags history
// @Produce json
// @Security ApiKeyAuth
// @Param wordID path string true "Word ID"
// @Success 200 {object} models.ToggleFavoriteResult
// @Failure 401 {object} models.ToggleFavoriteResult "Not authenticated"
// @Failure 404 {object} models.ToggleFavoriteResult "Blocked or not found"
// @Failure 500 {object} models.ToggleFavoriteResult "Internal server error"
// @Router /api/v1/words/{wordID}/favorite [post]
func (h *HistoryHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	wordID := chi.URLParam(r, "wordID")
	if wordID == "" {
		h.respondError(w, http.StatusBadRequest, "word ID is required")
		return
	}

	ident, ok := auth.GetIdentity(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "identity not found in context")
		return
	}

	// Land the optimistic flip on hydrated state
	if err := h.store.Hydrate(r.Context(), ident.UserID); err != nil {
		h.logger.Warn("failed to hydrate favorites cache", zap.Error(err))
	}

	// Optimistic local update; the cache failing must not block the write
	optimistic, err := h.store.Toggle(r.Context(), ident.UserID, wordID)
	if err != nil {
		h.logger.Warn("failed to persist optimistic favorite toggle", zap.Error(err))
	}

	result := h.service.ToggleFavorite(r.Context(), ident, wordID)
	if !result.Success {
		// Revert the optimistic flip instead of leaving local and remote
		// state diverged
		if err := h.store.Set(r.Context(), ident.UserID, wordID, !optimistic); err != nil {
			h.logger.Warn("failed to revert optimistic favorite toggle", zap.Error(err))
		}
		h.respondJSON(w, statusForError(result.Error), result)
		return
	}

	if result.IsFavorite != optimistic {
		// Remote disagreed with the optimistic guess; reconcile
		if err := h.store.Set(r.Context(), ident.UserID, wordID, result.IsFavorite); err != nil {
			h.logger.Warn("failed to reconcile favorites cache", zap.Error(err))
		}
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ListFavorites handles GET /api/v1/favorites
// @Summary List favorite word IDs
// @Description Get the IDs of all words the authenticated user has marked favorite.
// @Tags history
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.FavoriteIDsResult
// @Failure 401 {object} models.FavoriteIDsResult "Not authenticated"
// @Failure 500 {object} models.FavoriteIDsResult "Internal server error"
// @Router /api/v1/favorites [get]
func (h *HistoryHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	result := h.service.ListFavoriteIDs(r.Context())
	if result.Error != "" {
		h.respondJSON(w, statusForError(result.Error), result)
		return
	}

	// The remote table is authoritative; refresh the local cache from it
	if ident, ok := auth.GetIdentity(r.Context()); ok {
		if err := h.store.Replace(r.Context(), ident.UserID, result.FavoriteIDs); err != nil {
			h.logger.Warn("failed to refresh favorites cache", zap.Error(err))
		}
	}

	h.respondJSON(w, http.StatusOK, result)
}

// MigrateFavoritesRequest represents a favorites migration request
type MigrateFavoritesRequest struct {
	FavoriteIDs []string `json:"favoriteIds"`
}

// MigrateFavorites handles POST /api/v1/favorites/migrate
// @Summary Migrate locally cached favorites
// @Description Upsert favorite word IDs collected before login into the authenticated user's history.
// @Tags history
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param favorites body MigrateFavoritesRequest true "Favorite word IDs"
// @Success 200 {object} models.MigrateResult
// @Failure 400 {object} map[string]string "Bad request - invalid request body"
// @Failure 401 {object} models.MigrateResult "Not authenticated"
// @Failure 500 {object} models.MigrateResult "Internal server error"
// @Router /api/v1/favorites/migrate [post]
func (h *HistoryHandler) MigrateFavorites(w http.ResponseWriter, r *http.Request) {
	var req MigrateFavoritesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request body", zap.Error(err))
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := h.service.MigrateFavorites(r.Context(), req.FavoriteIDs)
	if !result.Success {
		h.respondJSON(w, statusForError(result.Error), result)
		return
	}

	// Fold the migrated IDs into the local cache
	if ident, ok := auth.GetIdentity(r.Context()); ok && len(req.FavoriteIDs) > 0 {
		if err := h.store.Merge(r.Context(), ident.UserID, req.FavoriteIDs); err != nil {
			h.logger.Warn("failed to merge migrated favorites into cache", zap.Error(err))
		}
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ListHistory handles GET /api/v1/history
// @Summary List viewing history
// @Description Get the authenticated user's word viewing history, most recent first.
// @Tags history
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.HistoryResult
// @Failure 401 {object} models.HistoryResult "Not authenticated"
// @Failure 500 {object} models.HistoryResult "Internal server error"
// @Router /api/v1/history [get]
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	result := h.service.ListHistory(r.Context())
	if result.Error != "" {
		h.respondJSON(w, statusForError(result.Error), result)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// statusForError maps service result error messages to HTTP status codes
func statusForError(message string) int {
	switch message {
	case "Not authenticated":
		return http.StatusUnauthorized
	case "blocked or not found":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
