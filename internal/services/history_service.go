package services

import (
	"context"
	"errors"
	"time"

	"github.com/wortdestages/backend/internal/auth"
	"github.com/wortdestages/backend/internal/models"
	"go.uber.org/zap"
)

// Error messages surfaced to callers through result values
const (
	ErrMsgNotAuthenticated  = "Not authenticated"
	ErrMsgBlockedOrNotFound = "blocked or not found"
)

// WordHistoryRepository is the interface that wraps methods for user_words_history table data access
type WordHistoryRepository interface {
	// GetByUserAndWord retrieves the history record for a (user, word) pair.
	//
	// Returns (nil, nil) when no record exists.
	GetByUserAndWord(ctx context.Context, userID, wordID string) (*models.WordHistoryRecord, error)
	// RecordView inserts a history record with times_reviewed = 1, or atomically
	// bumps the counter and learned_at when the record already exists.
	RecordView(ctx context.Context, userID, wordID string, viewedAt time.Time) error
	// ToggleFavorite atomically flips is_favorite for the (user, word) record
	// and returns the number of affected rows. Zero affected rows means the
	// write was rejected by row scoping or the record vanished.
	ToggleFavorite(ctx context.Context, userID, wordID string) (int64, error)
	// InsertFavorite creates a fresh record marked favorite with times_reviewed = 0.
	InsertFavorite(ctx context.Context, userID, wordID string, at time.Time) error
	// ListFavoriteIDs retrieves the IDs of all words the user has marked favorite.
	ListFavoriteIDs(ctx context.Context, userID string) ([]string, error)
	// ListHistory retrieves the user's history joined with word details,
	// most recently viewed first.
	ListHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error)
	// FilterExisting returns the subset of wordIDs that already have a history
	// record for the user, via a single set-membership query.
	FilterExisting(ctx context.Context, userID string, wordIDs []string) ([]string, error)
	// MarkFavorites sets is_favorite on all given records of the user in one statement.
	MarkFavorites(ctx context.Context, userID string, wordIDs []string) error
	// InsertFavorites creates fresh favorite records for all given word IDs in
	// a single batch insert.
	InsertFavorites(ctx context.Context, userID string, wordIDs []string, at time.Time) error
}

// SessionProvider is the interface that wraps session re-verification
type SessionProvider interface {
	// Session re-verifies the caller's session and returns it.
	//
	// Returns ErrNoSession when the caller is not authenticated or the session
	// is expired/revoked; any other error is a lookup failure.
	Session(ctx context.Context) (*models.Session, error)
}

// historyService implements HistoryService
type historyService struct {
	historyRepo WordHistoryRepository
	sessions    SessionProvider
	logger      *zap.Logger
}

// NewHistoryService creates a new history service
func NewHistoryService(historyRepo WordHistoryRepository, sessions SessionProvider, logger *zap.Logger) *historyService {
	return &historyService{
		historyRepo: historyRepo,
		sessions:    sessions,
		logger:      logger,
	}
}

// MarkWordAsViewed records that the user viewed a word. The session is
// re-verified before writing; the cached identity alone is not trusted here.
func (s *historyService) MarkWordAsViewed(ctx context.Context, wordID string) models.MarkViewedResult {
	session, err := s.sessions.Session(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return models.MarkViewedResult{Error: ErrMsgNotAuthenticated}
		}
		s.logger.Error("failed to verify session", zap.Error(err))
		return models.MarkViewedResult{Error: err.Error()}
	}

	if err := s.historyRepo.RecordView(ctx, session.UserID, wordID, time.Now().UTC()); err != nil {
		s.logger.Error("failed to record view",
			zap.String("word_id", wordID),
			zap.Error(err),
		)
		return models.MarkViewedResult{Error: err.Error()}
	}

	return models.MarkViewedResult{Success: true}
}

// ToggleFavorite flips the favorite flag for a word. Authorization-first: no
// session round trip is made; the update is scoped by the caller's identity
// and a zero affected-row count is reported as a failure, never as success.
// The identity snapshot is passed explicitly by the caller.
func (s *historyService) ToggleFavorite(ctx context.Context, ident auth.Identity, wordID string) models.ToggleFavoriteResult {
	existing, err := s.historyRepo.GetByUserAndWord(ctx, ident.UserID, wordID)
	if err != nil {
		s.logger.Error("failed to fetch history record",
			zap.String("word_id", wordID),
			zap.Error(err),
		)
		return models.ToggleFavoriteResult{Error: err.Error()}
	}

	if existing != nil {
		affected, err := s.historyRepo.ToggleFavorite(ctx, ident.UserID, wordID)
		if err != nil {
			s.logger.Error("failed to toggle favorite",
				zap.String("word_id", wordID),
				zap.Error(err),
			)
			return models.ToggleFavoriteResult{Error: err.Error()}
		}
		if affected == 0 {
			// The write was silently rejected by row scoping, or the record
			// vanished between the fetch and the update. Treating this as
			// success would desynchronize local and remote state.
			return models.ToggleFavoriteResult{Error: ErrMsgBlockedOrNotFound}
		}
		return models.ToggleFavoriteResult{Success: true, IsFavorite: !existing.IsFavorite}
	}

	// Insert path needs a user ID; without one the insert would either fail
	// remotely or create a row with an invalid owner
	if ident.UserID == "" {
		return models.ToggleFavoriteResult{Error: ErrMsgNotAuthenticated}
	}

	if err := s.historyRepo.InsertFavorite(ctx, ident.UserID, wordID, time.Now().UTC()); err != nil {
		s.logger.Error("failed to insert favorite",
			zap.String("word_id", wordID),
			zap.Error(err),
		)
		return models.ToggleFavoriteResult{Error: err.Error()}
	}

	return models.ToggleFavoriteResult{Success: true, IsFavorite: true}
}

// ListFavoriteIDs returns the IDs of the user's favorite words. Requires an
// explicit session check: an empty-but-wrong result returned silently is
// worse than an explicit early exit.
func (s *historyService) ListFavoriteIDs(ctx context.Context) models.FavoriteIDsResult {
	session, err := s.sessions.Session(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return models.FavoriteIDsResult{FavoriteIDs: []string{}, Error: ErrMsgNotAuthenticated}
		}
		s.logger.Error("failed to verify session", zap.Error(err))
		return models.FavoriteIDsResult{FavoriteIDs: []string{}, Error: err.Error()}
	}

	ids, err := s.historyRepo.ListFavoriteIDs(ctx, session.UserID)
	if err != nil {
		s.logger.Error("failed to list favorite IDs", zap.Error(err))
		return models.FavoriteIDsResult{FavoriteIDs: []string{}, Error: err.Error()}
	}
	if ids == nil {
		ids = []string{}
	}

	return models.FavoriteIDsResult{FavoriteIDs: ids}
}

// ListHistory returns the user's viewing history, most recent first
func (s *historyService) ListHistory(ctx context.Context) models.HistoryResult {
	session, err := s.sessions.Session(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return models.HistoryResult{History: []models.HistoryEntry{}, Error: ErrMsgNotAuthenticated}
		}
		s.logger.Error("failed to verify session", zap.Error(err))
		return models.HistoryResult{History: []models.HistoryEntry{}, Error: err.Error()}
	}

	entries, err := s.historyRepo.ListHistory(ctx, session.UserID)
	if err != nil {
		s.logger.Error("failed to list history", zap.Error(err))
		return models.HistoryResult{History: []models.HistoryEntry{}, Error: err.Error()}
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}

	return models.HistoryResult{History: entries}
}

// MigrateFavorites upserts locally cached favorite IDs (from a pre-login
// session) into the user's history. The input is split into existing vs
// missing records with one set-membership query, then written with at most
// one batch update and one batch insert regardless of input size.
func (s *historyService) MigrateFavorites(ctx context.Context, favoriteIDs []string) models.MigrateResult {
	// Nothing to migrate; skip the round trips entirely
	if len(favoriteIDs) == 0 {
		return models.MigrateResult{Success: true}
	}

	session, err := s.sessions.Session(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return models.MigrateResult{Error: ErrMsgNotAuthenticated}
		}
		s.logger.Error("failed to verify session", zap.Error(err))
		return models.MigrateResult{Error: err.Error()}
	}

	existing, err := s.historyRepo.FilterExisting(ctx, session.UserID, favoriteIDs)
	if err != nil {
		s.logger.Error("failed to check existing records", zap.Error(err))
		return models.MigrateResult{Error: err.Error()}
	}

	existingSet := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		existingSet[id] = struct{}{}
	}
	var missing []string
	seen := make(map[string]struct{}, len(favoriteIDs))
	for _, id := range favoriteIDs {
		if _, ok := existingSet[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}

	if len(existing) > 0 {
		if err := s.historyRepo.MarkFavorites(ctx, session.UserID, existing); err != nil {
			s.logger.Error("failed to mark existing favorites", zap.Error(err))
			return models.MigrateResult{Error: err.Error()}
		}
	}

	if len(missing) > 0 {
		if err := s.historyRepo.InsertFavorites(ctx, session.UserID, missing, time.Now().UTC()); err != nil {
			s.logger.Error("failed to insert new favorites", zap.Error(err))
			return models.MigrateResult{Error: err.Error()}
		}
	}

	return models.MigrateResult{Success: true}
}
