// Package favorites holds the per-user favorite-ID cache: an in-memory set
// with write-through persistence to Redis. The cache exists for fast
// IsFavorite lookups and responsive toggles; the user_words_history table
// stays the source of truth.
package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/wortdestages/backend/internal/cache"
	"go.uber.org/zap"
)

// DefaultPlaybackSpeed is the audio playback speed before the user changes it
const DefaultPlaybackSpeed = 1.0

// userState is the cached favorite set of a single user
type userState struct {
	ids      map[string]struct{}
	hydrated bool
}

// Store caches favorite word IDs per user
type Store struct {
	cache  *cache.RedisCache
	logger *zap.Logger

	mu    sync.RWMutex
	users map[string]*userState
	// Playback speed is a user preference, kept apart from the favorite
	// state so Reset leaves it alone
	speeds map[string]float64
}

// NewStore creates a new favorites store backed by the given Redis cache
func NewStore(c *cache.RedisCache, logger *zap.Logger) *Store {
	return &Store{
		cache:  c,
		logger: logger,
		users:  make(map[string]*userState),
		speeds: make(map[string]float64),
	}
}

// Hydrate loads the user's persisted favorite set once. Subsequent calls are
// no-ops until Reset clears the hydrated flag. A missing key hydrates to an
// empty set.
func (s *Store) Hydrate(ctx context.Context, userID string) error {
	s.mu.RLock()
	state, ok := s.users[userID]
	if ok && state.hydrated {
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	val, err := s.cache.Get(ctx, s.cache.KeyForFavorites(userID))
	if err != nil {
		return fmt.Errorf("failed to load persisted favorites: %w", err)
	}

	ids := make(map[string]struct{})
	if val != "" {
		var list []string
		if err := json.Unmarshal([]byte(val), &list); err != nil {
			// Unreadable persisted state is treated as empty rather than
			// blocking hydration
			s.logger.Warn("discarding unreadable persisted favorites",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		} else {
			for _, id := range list {
				ids[id] = struct{}{}
			}
		}
	}

	s.mu.Lock()
	s.users[userID] = &userState{ids: ids, hydrated: true}
	s.mu.Unlock()

	return nil
}

// Hydrated reports whether the user's favorite set has been loaded
func (s *Store) Hydrated(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.users[userID]
	return ok && state.hydrated
}

// IsFavorite reports set membership for a word. Pure query, no side effects.
func (s *Store) IsFavorite(userID, wordID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.users[userID]
	if !ok {
		return false
	}
	_, favorite := state.ids[wordID]
	return favorite
}

// Toggle optimistically flips local membership for a word and persists the
// set immediately, before the remote write is confirmed. Returns the new
// local state. Callers revert with Set when the remote write fails.
func (s *Store) Toggle(ctx context.Context, userID, wordID string) (bool, error) {
	s.mu.Lock()
	state := s.stateLocked(userID)
	var favorite bool
	if _, ok := state.ids[wordID]; ok {
		delete(state.ids, wordID)
		favorite = false
	} else {
		state.ids[wordID] = struct{}{}
		favorite = true
	}
	list := state.list()
	s.mu.Unlock()

	if err := s.persist(ctx, userID, list); err != nil {
		return favorite, err
	}
	return favorite, nil
}

// Set forces local membership for a word to the given state and persists it.
// Used to revert an optimistic toggle or reconcile to a confirmed remote state.
func (s *Store) Set(ctx context.Context, userID, wordID string, favorite bool) error {
	s.mu.Lock()
	state := s.stateLocked(userID)
	if favorite {
		state.ids[wordID] = struct{}{}
	} else {
		delete(state.ids, wordID)
	}
	list := state.list()
	s.mu.Unlock()

	return s.persist(ctx, userID, list)
}

// Merge adds the given word IDs to the user's favorite set and persists it.
// Used after a successful favorites migration.
func (s *Store) Merge(ctx context.Context, userID string, wordIDs []string) error {
	s.mu.Lock()
	state := s.stateLocked(userID)
	for _, id := range wordIDs {
		state.ids[id] = struct{}{}
	}
	list := state.list()
	s.mu.Unlock()

	return s.persist(ctx, userID, list)
}

// Replace overwrites the user's favorite set with the authoritative remote
// state and persists it
func (s *Store) Replace(ctx context.Context, userID string, wordIDs []string) error {
	ids := make(map[string]struct{}, len(wordIDs))
	for _, id := range wordIDs {
		ids[id] = struct{}{}
	}

	s.mu.Lock()
	s.users[userID] = &userState{ids: ids, hydrated: true}
	s.mu.Unlock()

	return s.persist(ctx, userID, wordIDs)
}

// Reset clears the user's cached favorite state and hydration flag, for
// sign-out and test isolation. The playback-speed preference survives.
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}

// PlaybackSpeed returns the user's audio playback speed, loading the persisted
// value on first access
func (s *Store) PlaybackSpeed(ctx context.Context, userID string) float64 {
	s.mu.RLock()
	speed, ok := s.speeds[userID]
	s.mu.RUnlock()
	if ok {
		return speed
	}

	speed = DefaultPlaybackSpeed
	if val, err := s.cache.Get(ctx, s.cache.KeyForPlaybackSpeed(userID)); err == nil && val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			speed = parsed
		}
	}

	s.mu.Lock()
	s.speeds[userID] = speed
	s.mu.Unlock()

	return speed
}

// SetPlaybackSpeed stores the user's audio playback speed
func (s *Store) SetPlaybackSpeed(ctx context.Context, userID string, speed float64) error {
	s.mu.Lock()
	s.speeds[userID] = speed
	s.mu.Unlock()

	if err := s.cache.Set(ctx, s.cache.KeyForPlaybackSpeed(userID), speed, 0); err != nil {
		return fmt.Errorf("failed to persist playback speed: %w", err)
	}
	return nil
}

// stateLocked returns the user's state, creating it if needed. Caller must
// hold the write lock.
func (s *Store) stateLocked(userID string) *userState {
	state, ok := s.users[userID]
	if !ok {
		state = &userState{ids: make(map[string]struct{})}
		s.users[userID] = state
	}
	return state
}

// list returns the set as a slice for persistence
func (st *userState) list() []string {
	list := make([]string, 0, len(st.ids))
	for id := range st.ids {
		list = append(list, id)
	}
	return list
}

// persist writes the favorite-ID list through to Redis as a JSON array
func (s *Store) persist(ctx context.Context, userID string, wordIDs []string) error {
	data, err := json.Marshal(wordIDs)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if err := s.cache.Set(ctx, s.cache.KeyForFavorites(userID), data, 0); err != nil {
		return fmt.Errorf("failed to persist favorites: %w", err)
	}
	return nil
}
