package service

import (
	"context"
	"log/slog"
	"strings"

	"townsquare/internal/models"
	"townsquare/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// SetRole changes a user's role. Posts already written keep the role
// priority they were created with.
func (s *UserService) SetRole(ctx context.Context, actorID, userID uint, role string) (*models.User, error) {
	role = strings.ToUpper(strings.TrimSpace(role))
	if !models.IsKnownRole(role) {
		return nil, models.NewValidationError("role must be one of ADMIN, STAFF, MEMBER, USER")
	}
	if actorID == userID {
		return nil, models.NewValidationError("You cannot change your own role")
	}
	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "user role changed",
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("actor_id", uint64(actorID)),
		slog.String("role", role),
	)
	return s.userRepo.GetByID(ctx, userID)
}
