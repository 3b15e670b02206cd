package models

import "time"

// WordHistoryRecord represents a user's interaction history with a word.
// At most one record exists per (user, word) pair.
type WordHistoryRecord struct {
	ID             int64      `json:"id"`
	UserID         string     `json:"userId"`
	WordID         string     `json:"wordId"`
	LearnedAt      time.Time  `json:"learnedAt"`
	IsFavorite     bool       `json:"isFavorite"`
	TimesReviewed  int        `json:"timesReviewed"`
	NextReviewDate *time.Time `json:"nextReviewDate,omitempty"` // reserved for spaced repetition
	EaseFactor     float64    `json:"easeFactor"`               // reserved for spaced repetition
}

// HistoryEntry represents a history record joined with word details for API responses
type HistoryEntry struct {
	WordID        string    `json:"wordId"`
	Word          string    `json:"word"`
	Article       string    `json:"article"`
	Translation   string    `json:"translation"`
	LearnedAt     time.Time `json:"learnedAt"`
	IsFavorite    bool      `json:"isFavorite"`
	TimesReviewed int       `json:"timesReviewed"`
}
