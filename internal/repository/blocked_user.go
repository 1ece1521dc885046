package repository

import (
	"context"

	"townsquare/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockedUserRepository persists user-to-user blocks.
type BlockedUserRepository interface {
	Block(ctx context.Context, blockerID, blockedID uint) error
	Unblock(ctx context.Context, blockerID, blockedID uint) error
	// IsBlockedEither reports whether a blocks b or b blocks a.
	IsBlockedEither(ctx context.Context, a, b uint) (bool, error)
	List(ctx context.Context, blockerID uint, limit, offset int) ([]*models.BlockedUser, error)
	Count(ctx context.Context, blockerID uint) (int64, error)
}

type blockedUserRepository struct {
	db *gorm.DB
}

// NewBlockedUserRepository returns a new BlockedUserRepository implementation.
func NewBlockedUserRepository(db *gorm.DB) BlockedUserRepository {
	return &blockedUserRepository{db: db}
}

func (r *blockedUserRepository) Block(ctx context.Context, blockerID, blockedID uint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(&models.BlockedUser{BlockerID: blockerID, BlockedID: blockedID}).Error
}

func (r *blockedUserRepository) Unblock(ctx context.Context, blockerID, blockedID uint) error {
	return r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.BlockedUser{}).Error
}

func (r *blockedUserRepository) IsBlockedEither(ctx context.Context, a, b uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlockedUser{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// List returns the users blockerID has blocked, newest first.
func (r *blockedUserRepository) List(ctx context.Context, blockerID uint, limit, offset int) ([]*models.BlockedUser, error) {
	var blocks []*models.BlockedUser
	err := r.db.WithContext(ctx).
		Preload("Blocked", publicUser).
		Where("blocker_id = ?", blockerID).
		Order("created_at desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&blocks).Error
	return blocks, err
}

func (r *blockedUserRepository) Count(ctx context.Context, blockerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlockedUser{}).Where("blocker_id = ?", blockerID).Count(&count).Error
	return count, err
}
