package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wortdestages/backend/internal/auth"
	"github.com/wortdestages/backend/internal/models"
)

const (
	testUserID    = "6f1f9a2e-9f6a-4a9f-8f2a-0b4c6d8e1a23"
	testSessionID = "3b5e8c01-2d4f-4e6a-9b7c-1a2b3c4d5e6f"
	testWordID    = "word-1"
)

// mockWordHistoryRepository is a hand-rolled mock with per-method call counters
type mockWordHistoryRepository struct {
	getByUserAndWordFunc func(ctx context.Context, userID, wordID string) (*models.WordHistoryRecord, error)
	recordViewFunc       func(ctx context.Context, userID, wordID string, viewedAt time.Time) error
	toggleFavoriteFunc   func(ctx context.Context, userID, wordID string) (int64, error)
	insertFavoriteFunc   func(ctx context.Context, userID, wordID string, at time.Time) error
	listFavoriteIDsFunc  func(ctx context.Context, userID string) ([]string, error)
	listHistoryFunc      func(ctx context.Context, userID string) ([]models.HistoryEntry, error)
	filterExistingFunc   func(ctx context.Context, userID string, wordIDs []string) ([]string, error)
	markFavoritesFunc    func(ctx context.Context, userID string, wordIDs []string) error
	insertFavoritesFunc  func(ctx context.Context, userID string, wordIDs []string, at time.Time) error

	getByUserAndWordCalls int
	recordViewCalls       int
	toggleFavoriteCalls   int
	insertFavoriteCalls   int
	listFavoriteIDsCalls  int
	listHistoryCalls      int
	filterExistingCalls   int
	markFavoritesCalls    int
	insertFavoritesCalls  int
}

func (m *mockWordHistoryRepository) GetByUserAndWord(ctx context.Context, userID, wordID string) (*models.WordHistoryRecord, error) {
	m.getByUserAndWordCalls++
	if m.getByUserAndWordFunc != nil {
		return m.getByUserAndWordFunc(ctx, userID, wordID)
	}
	return nil, nil
}

func (m *mockWordHistoryRepository) RecordView(ctx context.Context, userID, wordID string, viewedAt time.Time) error {
	m.recordViewCalls++
	if m.recordViewFunc != nil {
		return m.recordViewFunc(ctx, userID, wordID, viewedAt)
	}
	return nil
}

func (m *mockWordHistoryRepository) ToggleFavorite(ctx context.Context, userID, wordID string) (int64, error) {
	m.toggleFavoriteCalls++
	if m.toggleFavoriteFunc != nil {
		return m.toggleFavoriteFunc(ctx, userID, wordID)
	}
	return 1, nil
}

func (m *mockWordHistoryRepository) InsertFavorite(ctx context.Context, userID, wordID string, at time.Time) error {
	m.insertFavoriteCalls++
	if m.insertFavoriteFunc != nil {
		return m.insertFavoriteFunc(ctx, userID, wordID, at)
	}
	return nil
}

func (m *mockWordHistoryRepository) ListFavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	m.listFavoriteIDsCalls++
	if m.listFavoriteIDsFunc != nil {
		return m.listFavoriteIDsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockWordHistoryRepository) ListHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	m.listHistoryCalls++
	if m.listHistoryFunc != nil {
		return m.listHistoryFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockWordHistoryRepository) FilterExisting(ctx context.Context, userID string, wordIDs []string) ([]string, error) {
	m.filterExistingCalls++
	if m.filterExistingFunc != nil {
		return m.filterExistingFunc(ctx, userID, wordIDs)
	}
	return []string{}, nil
}

func (m *mockWordHistoryRepository) MarkFavorites(ctx context.Context, userID string, wordIDs []string) error {
	m.markFavoritesCalls++
	if m.markFavoritesFunc != nil {
		return m.markFavoritesFunc(ctx, userID, wordIDs)
	}
	return nil
}

func (m *mockWordHistoryRepository) InsertFavorites(ctx context.Context, userID string, wordIDs []string, at time.Time) error {
	m.insertFavoritesCalls++
	if m.insertFavoritesFunc != nil {
		return m.insertFavoritesFunc(ctx, userID, wordIDs, at)
	}
	return nil
}

// mockSessionProvider counts calls so tests can assert it was never consulted
type mockSessionProvider struct {
	session *models.Session
	err     error
	calls   int
}

func (m *mockSessionProvider) Session(ctx context.Context) (*models.Session, error) {
	m.calls++
	return m.session, m.err
}

func activeSession() *models.Session {
	return &models.Session{
		ID:        testSessionID,
		UserID:    testUserID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func newTestHistoryService(repo *mockWordHistoryRepository, sessions *mockSessionProvider) *historyService {
	logger, _ := zap.NewDevelopment()
	return NewHistoryService(repo, sessions, logger)
}

func TestHistoryService_MarkWordAsViewed(t *testing.T) {
	tests := []struct {
		name          string
		sessions      *mockSessionProvider
		repo          *mockWordHistoryRepository
		expectedError string
		expectWrite   bool
	}{
		{
			name:        "success records a view for the session user",
			sessions:    &mockSessionProvider{session: activeSession()},
			repo:        &mockWordHistoryRepository{},
			expectWrite: true,
		},
		{
			name:          "no session",
			sessions:      &mockSessionProvider{err: ErrNoSession},
			repo:          &mockWordHistoryRepository{},
			expectedError: ErrMsgNotAuthenticated,
		},
		{
			name:     "repository error",
			sessions: &mockSessionProvider{session: activeSession()},
			repo: &mockWordHistoryRepository{
				recordViewFunc: func(ctx context.Context, userID, wordID string, viewedAt time.Time) error {
					return errors.New("database error")
				},
			},
			expectedError: "database error",
			expectWrite:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestHistoryService(tt.repo, tt.sessions)

			result := service.MarkWordAsViewed(context.Background(), testWordID)

			if tt.expectedError != "" {
				assert.False(t, result.Success)
				assert.Equal(t, tt.expectedError, result.Error)
			} else {
				assert.True(t, result.Success)
				assert.Empty(t, result.Error)
			}

			assert.Equal(t, 1, tt.sessions.calls)
			if tt.expectWrite {
				assert.Equal(t, 1, tt.repo.recordViewCalls)
			} else {
				assert.Zero(t, tt.repo.recordViewCalls)
			}
		})
	}
}

func TestHistoryService_ToggleFavorite(t *testing.T) {
	ident := auth.Identity{UserID: testUserID, SessionID: testSessionID}

	tests := []struct {
		name           string
		ident          auth.Identity
		repo           *mockWordHistoryRepository
		expectedResult models.ToggleFavoriteResult
		expectInsert   bool
		expectToggle   bool
	}{
		{
			name:  "existing record flips off to on",
			ident: ident,
			repo: &mockWordHistoryRepository{
				getByUserAndWordFunc: func(ctx context.Context, userID, wordID string) (*models.WordHistoryRecord, error) {
					return &models.WordHistoryRecord{UserID: userID, WordID: wordID, IsFavorite: false}, nil
				},
			},
			expectedResult: models.ToggleFavoriteResult{Success: true, IsFavorite: true},
			expectToggle:   true,
		},
		{
			name:  "existing record flips on to off",
			ident: ident,
			repo: &mockWordHistoryRepository{
				getByUserAndWordFunc: func(ctx context.Context, userID, wordID string) (*models.WordHistoryRecord, error) {
					return &models.WordHistoryRecord{UserID: userID, WordID: wordID, IsFavorite: true}, nil
				},
			},
			expectedResult: models.ToggleFavoriteResult{Success: true, IsFavorite: false},
			expectToggle:   true,
		},
		{
			name:  "zero affected rows is a failure",
			ident: ident,
			repo: &mockWordHistoryRepository{
				getByUserAndWordFunc: func(ctx context.Context, userID, wordID string) (*models.WordHistoryRecord, error) {
					return &models.WordHistoryRecord{UserID: userID, WordID: wordID}, nil
				},
				toggleFavoriteFunc: func(ctx context.Context, userID, wordID string) (int64, error) {
					return 0, nil
				},
			},
			expectedResult: models.ToggleFavoriteResult{Error: ErrMsgBlockedOrNotFound},
			expectToggle:   true,
		},
		{
			name:           "absent record inserts a favorite",
			ident:          ident,
			repo:           &mockWordHistoryRepository{},
			expectedResult: models.ToggleFavoriteResult{Success: true, IsFavorite: true},
			expectInsert:   true,
		},
		{
			name:           "absent record without identity fails fast",
			ident:          auth.Identity{},
			repo:           &mockWordHistoryRepository{},
			expectedResult: models.ToggleFavoriteResult{Error: ErrMsgNotAuthenticated},
		},
		{
			name:  "fetch error",
			ident: ident,
			repo: &mockWordHistoryRepository{
				getByUserAndWordFunc: func(ctx context.Context, userID, wordID string) (*models.WordHistoryRecord, error) {
					return nil, errors.New("database error")
				},
			},
			expectedResult: models.ToggleFavoriteResult{Error: "database error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &mockSessionProvider{session: activeSession()}
			service := newTestHistoryService(tt.repo, sessions)

			result := service.ToggleFavorite(context.Background(), tt.ident, testWordID)

			if tt.expectedResult.Error != "" {
				assert.False(t, result.Success)
				assert.Contains(t, result.Error, tt.expectedResult.Error)
			} else {
				assert.Equal(t, tt.expectedResult, result)
			}

			// The toggle path never re-verifies the session; the identity
			// snapshot passed by the caller is the sole authority
			assert.Zero(t, sessions.calls)

			if tt.expectToggle {
				assert.Equal(t, 1, tt.repo.toggleFavoriteCalls)
			} else {
				assert.Zero(t, tt.repo.toggleFavoriteCalls)
			}
			if tt.expectInsert {
				assert.Equal(t, 1, tt.repo.insertFavoriteCalls)
			} else {
				assert.Zero(t, tt.repo.insertFavoriteCalls)
			}
		})
	}
}

func TestHistoryService_ToggleFavorite_Alternates(t *testing.T) {
	record := &models.WordHistoryRecord{UserID: testUserID, WordID: testWordID, IsFavorite: false}
	repo := &mockWordHistoryRepository{
		getByUserAndWordFunc: func(ctx context.Context, userID, wordID string) (*models.WordHistoryRecord, error) {
			copy := *record
			return &copy, nil
		},
		toggleFavoriteFunc: func(ctx context.Context, userID, wordID string) (int64, error) {
			record.IsFavorite = !record.IsFavorite
			return 1, nil
		},
	}
	sessions := &mockSessionProvider{}
	service := newTestHistoryService(repo, sessions)
	ident := auth.Identity{UserID: testUserID, SessionID: testSessionID}

	first := service.ToggleFavorite(context.Background(), ident, testWordID)
	second := service.ToggleFavorite(context.Background(), ident, testWordID)

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.True(t, first.IsFavorite)
	assert.False(t, second.IsFavorite)
	assert.False(t, record.IsFavorite)
	assert.Zero(t, sessions.calls)
}

func TestHistoryService_ListFavoriteIDs(t *testing.T) {
	tests := []struct {
		name          string
		sessions      *mockSessionProvider
		repo          *mockWordHistoryRepository
		expectedIDs   []string
		expectedError string
	}{
		{
			name:     "success",
			sessions: &mockSessionProvider{session: activeSession()},
			repo: &mockWordHistoryRepository{
				listFavoriteIDsFunc: func(ctx context.Context, userID string) ([]string, error) {
					return []string{"word-1", "word-2"}, nil
				},
			},
			expectedIDs: []string{"word-1", "word-2"},
		},
		{
			name:        "no favorites yields empty slice",
			sessions:    &mockSessionProvider{session: activeSession()},
			repo:        &mockWordHistoryRepository{},
			expectedIDs: []string{},
		},
		{
			name:          "no session yields empty slice and error",
			sessions:      &mockSessionProvider{err: ErrNoSession},
			repo:          &mockWordHistoryRepository{},
			expectedIDs:   []string{},
			expectedError: ErrMsgNotAuthenticated,
		},
		{
			name:     "repository error",
			sessions: &mockSessionProvider{session: activeSession()},
			repo: &mockWordHistoryRepository{
				listFavoriteIDsFunc: func(ctx context.Context, userID string) ([]string, error) {
					return nil, errors.New("database error")
				},
			},
			expectedIDs:   []string{},
			expectedError: "database error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestHistoryService(tt.repo, tt.sessions)

			result := service.ListFavoriteIDs(context.Background())

			assert.Equal(t, tt.expectedIDs, result.FavoriteIDs)
			assert.Equal(t, tt.expectedError, result.Error)
		})
	}
}

func TestHistoryService_ListHistory(t *testing.T) {
	entries := []models.HistoryEntry{
		{WordID: "word-2", Word: "Haus", Article: "das", Translation: "house"},
		{WordID: "word-1", Word: "Hund", Article: "der", Translation: "dog", IsFavorite: true},
	}

	tests := []struct {
		name            string
		sessions        *mockSessionProvider
		repo            *mockWordHistoryRepository
		expectedHistory []models.HistoryEntry
		expectedError   string
	}{
		{
			name:     "success",
			sessions: &mockSessionProvider{session: activeSession()},
			repo: &mockWordHistoryRepository{
				listHistoryFunc: func(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
					return entries, nil
				},
			},
			expectedHistory: entries,
		},
		{
			name:            "empty history yields empty slice",
			sessions:        &mockSessionProvider{session: activeSession()},
			repo:            &mockWordHistoryRepository{},
			expectedHistory: []models.HistoryEntry{},
		},
		{
			name:            "no session yields empty slice and error",
			sessions:        &mockSessionProvider{err: ErrNoSession},
			repo:            &mockWordHistoryRepository{},
			expectedHistory: []models.HistoryEntry{},
			expectedError:   ErrMsgNotAuthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestHistoryService(tt.repo, tt.sessions)

			result := service.ListHistory(context.Background())

			assert.Equal(t, tt.expectedHistory, result.History)
			assert.Equal(t, tt.expectedError, result.Error)
		})
	}
}

func TestHistoryService_MigrateFavorites(t *testing.T) {
	t.Run("empty input succeeds without any remote call", func(t *testing.T) {
		repo := &mockWordHistoryRepository{}
		sessions := &mockSessionProvider{err: ErrNoSession}
		service := newTestHistoryService(repo, sessions)

		result := service.MigrateFavorites(context.Background(), []string{})

		assert.True(t, result.Success)
		assert.Empty(t, result.Error)
		assert.Zero(t, sessions.calls)
		assert.Zero(t, repo.filterExistingCalls)
		assert.Zero(t, repo.markFavoritesCalls)
		assert.Zero(t, repo.insertFavoritesCalls)
	})

	t.Run("no session", func(t *testing.T) {
		repo := &mockWordHistoryRepository{}
		sessions := &mockSessionProvider{err: ErrNoSession}
		service := newTestHistoryService(repo, sessions)

		result := service.MigrateFavorites(context.Background(), []string{"word-1"})

		assert.False(t, result.Success)
		assert.Equal(t, ErrMsgNotAuthenticated, result.Error)
		assert.Zero(t, repo.filterExistingCalls)
	})

	t.Run("existing records are updated, not re-inserted", func(t *testing.T) {
		var marked []string
		repo := &mockWordHistoryRepository{
			filterExistingFunc: func(ctx context.Context, userID string, wordIDs []string) ([]string, error) {
				return []string{"word-1", "word-2"}, nil
			},
			markFavoritesFunc: func(ctx context.Context, userID string, wordIDs []string) error {
				marked = wordIDs
				return nil
			},
		}
		sessions := &mockSessionProvider{session: activeSession()}
		service := newTestHistoryService(repo, sessions)

		result := service.MigrateFavorites(context.Background(), []string{"word-1", "word-2"})

		assert.True(t, result.Success)
		assert.Equal(t, 1, repo.filterExistingCalls)
		assert.Equal(t, 1, repo.markFavoritesCalls)
		assert.Zero(t, repo.insertFavoritesCalls)
		assert.Equal(t, []string{"word-1", "word-2"}, marked)
	})

	t.Run("missing records are batch inserted", func(t *testing.T) {
		var inserted []string
		repo := &mockWordHistoryRepository{
			insertFavoritesFunc: func(ctx context.Context, userID string, wordIDs []string, at time.Time) error {
				inserted = wordIDs
				return nil
			},
		}
		sessions := &mockSessionProvider{session: activeSession()}
		service := newTestHistoryService(repo, sessions)

		result := service.MigrateFavorites(context.Background(), []string{"word-1", "word-2"})

		assert.True(t, result.Success)
		assert.Zero(t, repo.markFavoritesCalls)
		assert.Equal(t, 1, repo.insertFavoritesCalls)
		assert.Equal(t, []string{"word-1", "word-2"}, inserted)
	})

	t.Run("mixed input with duplicates makes at most one update and one insert", func(t *testing.T) {
		var marked, inserted []string
		repo := &mockWordHistoryRepository{
			filterExistingFunc: func(ctx context.Context, userID string, wordIDs []string) ([]string, error) {
				return []string{"word-1"}, nil
			},
			markFavoritesFunc: func(ctx context.Context, userID string, wordIDs []string) error {
				marked = wordIDs
				return nil
			},
			insertFavoritesFunc: func(ctx context.Context, userID string, wordIDs []string, at time.Time) error {
				inserted = wordIDs
				return nil
			},
		}
		sessions := &mockSessionProvider{session: activeSession()}
		service := newTestHistoryService(repo, sessions)

		result := service.MigrateFavorites(context.Background(), []string{"word-1", "word-2", "word-2", "word-3"})

		assert.True(t, result.Success)
		assert.Equal(t, 1, repo.filterExistingCalls)
		assert.Equal(t, 1, repo.markFavoritesCalls)
		assert.Equal(t, 1, repo.insertFavoritesCalls)
		assert.Equal(t, []string{"word-1"}, marked)
		assert.Equal(t, []string{"word-2", "word-3"}, inserted)
	})

	t.Run("filter error aborts the migration", func(t *testing.T) {
		repo := &mockWordHistoryRepository{
			filterExistingFunc: func(ctx context.Context, userID string, wordIDs []string) ([]string, error) {
				return nil, errors.New("database error")
			},
		}
		sessions := &mockSessionProvider{session: activeSession()}
		service := newTestHistoryService(repo, sessions)

		result := service.MigrateFavorites(context.Background(), []string{"word-1"})

		assert.False(t, result.Success)
		assert.Equal(t, "database error", result.Error)
		assert.Zero(t, repo.markFavoritesCalls)
		assert.Zero(t, repo.insertFavoritesCalls)
	})
}
