package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/wortdestages/backend/internal/models"
)

// wordHistoryRepository implements WordHistoryRepository.
// Every statement is scoped by user_id; this is the only place row-level
// scoping for user_words_history is applied.
type wordHistoryRepository struct {
	db *sql.DB
}

// NewWordHistoryRepository creates a new word history repository
func NewWordHistoryRepository(db *sql.DB) *wordHistoryRepository {
	return &wordHistoryRepository{
		db: db,
	}
}

// GetByUserAndWord retrieves the history record for a (user, word) pair.
// Returns (nil, nil) when no record exists.
func (r *wordHistoryRepository) GetByUserAndWord(ctx context.Context, userID, wordID string) (*models.WordHistoryRecord, error) {
	query := `
		SELECT id, user_id, word_id, learned_at, is_favorite, times_reviewed, next_review_date, ease_factor
		FROM user_words_history
		WHERE user_id = ? AND word_id = ?
	`

	var record models.WordHistoryRecord
	var nextReview sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID, wordID).Scan(
		&record.ID,
		&record.UserID,
		&record.WordID,
		&record.LearnedAt,
		&record.IsFavorite,
		&record.TimesReviewed,
		&nextReview,
		&record.EaseFactor,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query history record: %w", err)
	}
	if nextReview.Valid {
		record.NextReviewDate = &nextReview.Time
	}

	return &record, nil
}

// RecordView inserts a history record with times_reviewed = 1, or atomically
// bumps the counter and learned_at when the record already exists. The single
// statement avoids the lost-update window of a read-then-write.
func (r *wordHistoryRepository) RecordView(ctx context.Context, userID, wordID string, viewedAt time.Time) error {
	query := `
		INSERT INTO user_words_history (user_id, word_id, learned_at, is_favorite, times_reviewed)
		VALUES (?, ?, ?, FALSE, 1)
		ON DUPLICATE KEY UPDATE
			learned_at = VALUES(learned_at),
			times_reviewed = times_reviewed + 1
	`

	if _, err := r.db.ExecContext(ctx, query, userID, wordID, viewedAt); err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}

	return nil
}

// ToggleFavorite atomically flips is_favorite for the (user, word) record and
// returns the number of affected rows. Zero means the row does not exist for
// this user; callers must not treat that as success.
func (r *wordHistoryRepository) ToggleFavorite(ctx context.Context, userID, wordID string) (int64, error) {
	query := `
		UPDATE user_words_history
		SET is_favorite = NOT is_favorite
		WHERE user_id = ? AND word_id = ?
	`

	result, err := r.db.ExecContext(ctx, query, userID, wordID)
	if err != nil {
		return 0, fmt.Errorf("failed to toggle favorite: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected, nil
}

// InsertFavorite creates a fresh record marked favorite with times_reviewed = 0
func (r *wordHistoryRepository) InsertFavorite(ctx context.Context, userID, wordID string, at time.Time) error {
	query := `
		INSERT INTO user_words_history (user_id, word_id, learned_at, is_favorite, times_reviewed)
		VALUES (?, ?, ?, TRUE, 0)
	`

	if _, err := r.db.ExecContext(ctx, query, userID, wordID, at); err != nil {
		return fmt.Errorf("failed to insert favorite: %w", err)
	}

	return nil
}

// ListFavoriteIDs retrieves the IDs of all words the user has marked favorite
func (r *wordHistoryRepository) ListFavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT word_id
		FROM user_words_history
		WHERE user_id = ? AND is_favorite = TRUE
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorite IDs: %w", err)
	}
	defer rows.Close()

	var wordIDs []string
	for rows.Next() {
		var wordID string
		if err := rows.Scan(&wordID); err != nil {
			return nil, fmt.Errorf("failed to scan word ID: %w", err)
		}
		wordIDs = append(wordIDs, wordID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return wordIDs, nil
}

// ListHistory retrieves the user's history joined with word details, most
// recently viewed first
func (r *wordHistoryRepository) ListHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	query := `
		SELECT h.word_id, w.word, w.article, w.translation, h.learned_at, h.is_favorite, h.times_reviewed
		FROM user_words_history h
		JOIN words w ON w.id = h.word_id
		WHERE h.user_id = ?
		ORDER BY h.learned_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		err := rows.Scan(
			&entry.WordID,
			&entry.Word,
			&entry.Article,
			&entry.Translation,
			&entry.LearnedAt,
			&entry.IsFavorite,
			&entry.TimesReviewed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// FilterExisting returns the subset of wordIDs that already have a history
// record for the user, via a single set-membership query
func (r *wordHistoryRepository) FilterExisting(ctx context.Context, userID string, wordIDs []string) ([]string, error) {
	if len(wordIDs) == 0 {
		return []string{}, nil
	}

	// Build query with placeholders
	placeholders := make([]string, len(wordIDs))
	args := []any{userID}
	for i, id := range wordIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT word_id
		FROM user_words_history
		WHERE user_id = ? AND word_id IN (%s)
	`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing word IDs: %w", err)
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var wordID string
		if err := rows.Scan(&wordID); err != nil {
			return nil, fmt.Errorf("failed to scan word ID: %w", err)
		}
		existing = append(existing, wordID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return existing, nil
}

// MarkFavorites sets is_favorite on all given records of the user in one statement
func (r *wordHistoryRepository) MarkFavorites(ctx context.Context, userID string, wordIDs []string) error {
	if len(wordIDs) == 0 {
		return nil
	}

	placeholders := make([]string, len(wordIDs))
	args := []any{userID}
	for i, id := range wordIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		UPDATE user_words_history
		SET is_favorite = TRUE
		WHERE user_id = ? AND word_id IN (%s)
	`, strings.Join(placeholders, ","))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark favorites: %w", err)
	}

	return nil
}

// InsertFavorites creates fresh favorite records for all given word IDs in a
// single batch insert
func (r *wordHistoryRepository) InsertFavorites(ctx context.Context, userID string, wordIDs []string, at time.Time) error {
	if len(wordIDs) == 0 {
		return nil
	}

	// Build placeholders and args for batch insert
	placeholders := make([]string, len(wordIDs))
	args := []any{}
	for i, id := range wordIDs {
		placeholders[i] = "(?, ?, ?, TRUE, 0)"
		args = append(args, userID, id, at)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO user_words_history (user_id, word_id, learned_at, is_favorite, times_reviewed)
		VALUES %s
	`, strings.Join(placeholders, ","))

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert favorites: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
