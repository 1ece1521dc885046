package service

import (
	"context"
	"log/slog"
	"strings"

	"townsquare/internal/models"
	"townsquare/internal/moderation"
	"townsquare/internal/repository"
)

// BlocklistService administers blocked words. Every change invalidates the
// gate's cache so it applies to the next evaluation.
type BlocklistService struct {
	repo        repository.BlockedWordRepository
	invalidator moderation.Invalidator
}

// NewBlocklistService returns a BlocklistService. invalidator may be nil
// when the gate reads the store directly.
func NewBlocklistService(repo repository.BlockedWordRepository, invalidator moderation.Invalidator) *BlocklistService {
	return &BlocklistService{repo: repo, invalidator: invalidator}
}

func (s *BlocklistService) List(ctx context.Context) ([]models.BlockedWord, error) {
	words, err := s.repo.ListBlockedWords(ctx)
	if err != nil {
		return nil, err
	}
	if words == nil {
		words = []models.BlockedWord{}
	}
	return words, nil
}

func (s *BlocklistService) Add(ctx context.Context, word string, severity models.Severity) (*models.BlockedWord, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, models.NewValidationError("word is required")
	}
	severity = models.Severity(strings.ToUpper(string(severity)))
	if !severity.Valid() {
		return nil, models.NewValidationError("severity must be one of LOW, MEDIUM, HIGH")
	}

	entry := &models.BlockedWord{Word: word, Severity: severity}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	slog.InfoContext(ctx, "blocked word added", slog.String("word", entry.Word), slog.String("severity", string(severity)))
	return entry, nil
}

func (s *BlocklistService) Remove(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	slog.InfoContext(ctx, "blocked word removed", slog.Uint64("id", uint64(id)))
	return nil
}

func (s *BlocklistService) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		slog.WarnContext(ctx, "blocklist cache invalidation failed", slog.String("error", err.Error()))
	}
}
