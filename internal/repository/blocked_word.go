package repository

import (
	"context"
	"strings"

	"townsquare/internal/models"

	"gorm.io/gorm"
)

// BlockedWordRepository stores the moderation blocklist. It also serves as
// the moderation.BlocklistSource.
type BlockedWordRepository interface {
	ListBlockedWords(ctx context.Context) ([]models.BlockedWord, error)
	Create(ctx context.Context, word *models.BlockedWord) error
	Delete(ctx context.Context, id uint) error
}

type blockedWordRepository struct {
	db *gorm.DB
}

// NewBlockedWordRepository returns a new BlockedWordRepository implementation.
func NewBlockedWordRepository(db *gorm.DB) BlockedWordRepository {
	return &blockedWordRepository{db: db}
}

// ListBlockedWords returns the blocklist in insertion order, which is the
// order the gate scans it in.
func (r *blockedWordRepository) ListBlockedWords(ctx context.Context) ([]models.BlockedWord, error) {
	var words []models.BlockedWord
	err := r.db.WithContext(ctx).Order("id asc").Find(&words).Error
	return words, err
}

func (r *blockedWordRepository) Create(ctx context.Context, word *models.BlockedWord) error {
	word.Word = strings.ToLower(strings.TrimSpace(word.Word))
	if err := r.db.WithContext(ctx).Create(word).Error; err != nil {
		if isDuplicateKey(err) {
			return models.NewConflictError("Word is already blocked")
		}
		return err
	}
	return nil
}

func (r *blockedWordRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.BlockedWord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Blocked word", id)
	}
	return nil
}
