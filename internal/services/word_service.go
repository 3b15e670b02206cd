package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wortdestages/backend/internal/cache"
	"github.com/wortdestages/backend/internal/models"
	"go.uber.org/zap"
)

// WordRepository is the interface that wraps methods for words table data access
type WordRepository interface {
	// CountWords returns the total number of words in the catalogue.
	CountWords(ctx context.Context) (int, error)
	// GetByOffset retrieves the word at the given position in stable ID order.
	//
	// Returns (nil, nil) when the offset is past the end of the catalogue.
	GetByOffset(ctx context.Context, offset int) (*models.Word, error)
}

// wordService implements WordService
type wordService struct {
	repo   WordRepository
	cache  *cache.RedisCache
	logger *zap.Logger
}

// NewWordService creates a new word service
func NewWordService(repo WordRepository, cache *cache.RedisCache, logger *zap.Logger) *wordService {
	return &wordService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// WordOfTheDay returns the word assigned to the given day. Selection is
// deterministic (days since epoch modulo catalogue size) so every caller sees
// the same word; the result is cached in Redis until the end of the day.
func (s *wordService) WordOfTheDay(ctx context.Context, day time.Time) (*models.Word, error) {
	day = day.UTC()
	key := s.cache.KeyForWordOfDay(day)

	if cached, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("failed to read word-of-day cache", zap.Error(err))
	} else if cached != "" {
		var word models.Word
		if err := json.Unmarshal([]byte(cached), &word); err == nil {
			return &word, nil
		}
		// Corrupt cache entry; fall through to the database
		s.logger.Warn("discarding unreadable word-of-day cache entry", zap.String("key", key))
	}

	count, err := s.repo.CountWords(ctx)
	if err != nil {
		s.logger.Error("failed to count words", zap.Error(err))
		return nil, fmt.Errorf("failed to count words: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("word catalogue is empty")
	}

	offset := int(day.Unix()/86400) % count
	word, err := s.repo.GetByOffset(ctx, offset)
	if err != nil {
		s.logger.Error("failed to get word of the day", zap.Error(err))
		return nil, fmt.Errorf("failed to get word of the day: %w", err)
	}
	if word == nil {
		return nil, fmt.Errorf("no word at offset %d", offset)
	}

	if data, err := json.Marshal(word); err == nil {
		if err := s.cache.Set(ctx, key, data, untilEndOfDay(day)); err != nil {
			s.logger.Warn("failed to cache word of the day", zap.Error(err))
		}
	}

	return word, nil
}

// untilEndOfDay returns the remaining duration of the given day in UTC
func untilEndOfDay(day time.Time) time.Duration {
	next := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	ttl := next.Sub(day)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return ttl
}
