package models

// Service results are discriminated values: operations report failure through
// the Error field instead of panicking, and callers decide how to surface it.

// MarkViewedResult reports the outcome of marking a word as viewed
type MarkViewedResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ToggleFavoriteResult reports the outcome of a favorite toggle.
// IsFavorite carries the confirmed new state only when Success is true.
type ToggleFavoriteResult struct {
	Success    bool   `json:"success"`
	IsFavorite bool   `json:"is_favorite"`
	Error      string `json:"error,omitempty"`
}

// FavoriteIDsResult carries the user's favorite word IDs
type FavoriteIDsResult struct {
	FavoriteIDs []string `json:"favoriteIds"`
	Error       string   `json:"error,omitempty"`
}

// HistoryResult carries the user's viewing history
type HistoryResult struct {
	History []HistoryEntry `json:"history"`
	Error   string         `json:"error,omitempty"`
}

// MigrateResult reports the outcome of a favorites migration
type MigrateResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
