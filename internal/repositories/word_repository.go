package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wortdestages/backend/internal/models"
)

// wordRepository implements WordRepository
type wordRepository struct {
	db *sql.DB
}

// NewWordRepository creates a new word repository
func NewWordRepository(db *sql.DB) *wordRepository {
	return &wordRepository{
		db: db,
	}
}

// CountWords returns the total number of words in the catalogue
func (r *wordRepository) CountWords(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return count, nil
}

// GetByOffset retrieves the word at the given position in stable ID order.
// Returns (nil, nil) when the offset is past the end of the catalogue.
func (r *wordRepository) GetByOffset(ctx context.Context, offset int) (*models.Word, error) {
	query := `
		SELECT id, word, article, translation, example, example_translation, level
		FROM words
		ORDER BY id
		LIMIT 1 OFFSET ?
	`

	var word models.Word
	err := r.db.QueryRowContext(ctx, query, offset).Scan(
		&word.ID,
		&word.Word,
		&word.Article,
		&word.Translation,
		&word.Example,
		&word.ExampleTranslation,
		&word.Level,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query word by offset: %w", err)
	}

	return &word, nil
}
