package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wortdestages/backend/internal/models"
	"go.uber.org/zap"
)

// WordService is the interface that wraps methods for word catalogue business logic
type WordService interface {
	// WordOfTheDay returns the word assigned to the given day. Selection is
	// deterministic, so every caller sees the same word for a given day.
	WordOfTheDay(ctx context.Context, day time.Time) (*models.Word, error)
}

// WordHandler handles word catalogue HTTP requests
type WordHandler struct {
	BaseHandler
	service WordService
}

// NewWordHandler creates a new word handler
func NewWordHandler(service WordService, logger *zap.Logger) *WordHandler {
	return &WordHandler{
		BaseHandler: BaseHandler{logger: logger},
		service:     service,
	}
}

// RegisterRoutes registers all word handler routes.
// The word of the day is public: the app shows it before login.
func (h *WordHandler) RegisterRoutes(r chi.Router) {
	r.Get("/words/today", h.GetWordOfTheDay)
}

// GetWordOfTheDay handles GET /api/v1/words/today
// @Summary Get the word of the day
// @Description Get today's German word with translation and example sentence. Public endpoint.
// @Tags words
// @Produce json
// @Success 200 {object} models.Word
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/words/today [get]
func (h *WordHandler) GetWordOfTheDay(w http.ResponseWriter, r *http.Request) {
	word, err := h.service.WordOfTheDay(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("failed to get word of the day", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, word)
}
