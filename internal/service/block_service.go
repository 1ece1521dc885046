package service

import (
	"context"
	"log/slog"

	"townsquare/internal/models"
	"townsquare/internal/repository"
)

// BlockedUsersPage is an offset page of the users someone has blocked.
type BlockedUsersPage struct {
	Items []*models.BlockedUser `json:"items"`
	Total int64                 `json:"total"`
}

type BlockService struct {
	userRepo  repository.UserRepository
	blockRepo repository.BlockedUserRepository
}

func NewBlockService(userRepo repository.UserRepository, blockRepo repository.BlockedUserRepository) *BlockService {
	return &BlockService{userRepo: userRepo, blockRepo: blockRepo}
}

// BlockUser blocks another user. Blocking twice is a no-op.
func (s *BlockService) BlockUser(ctx context.Context, blockerID, blockedID uint) error {
	if blockerID == blockedID {
		return models.NewValidationError("You cannot block yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, blockedID); err != nil {
		return err
	}
	if err := s.blockRepo.Block(ctx, blockerID, blockedID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "user blocked",
		slog.Uint64("blocker_id", uint64(blockerID)),
		slog.Uint64("blocked_id", uint64(blockedID)),
	)
	return nil
}

// UnblockUser removes a block if present.
func (s *BlockService) UnblockUser(ctx context.Context, blockerID, blockedID uint) error {
	return s.blockRepo.Unblock(ctx, blockerID, blockedID)
}

func (s *BlockService) ListBlocked(ctx context.Context, blockerID uint, limit, offset int) (*BlockedUsersPage, error) {
	items, err := s.blockRepo.List(ctx, blockerID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.blockRepo.Count(ctx, blockerID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.BlockedUser{}
	}
	return &BlockedUsersPage{Items: items, Total: total}, nil
}
