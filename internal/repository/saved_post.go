package repository

import (
	"context"
	"time"

	"townsquare/internal/feed"
	"townsquare/internal/models"
	"townsquare/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SavedPostRepository persists a user's bookmarked posts.
type SavedPostRepository interface {
	Save(ctx context.Context, userID, postID uint, at time.Time) error
	Unsave(ctx context.Context, userID, postID uint) error
	IsSaved(ctx context.Context, userID, postID uint) (bool, error)
	// ListSaved returns up to limit rows newest first, strictly after the
	// given key when one is set. Only published posts whose authors have no
	// block with userID in either direction are returned.
	ListSaved(ctx context.Context, userID uint, after *feed.TimeKey, limit int) ([]*models.SavedPost, error)
}

type savedPostRepository struct {
	db *gorm.DB
}

// NewSavedPostRepository returns a new SavedPostRepository implementation.
func NewSavedPostRepository(db *gorm.DB) SavedPostRepository {
	return &savedPostRepository{db: db}
}

func (r *savedPostRepository) Save(ctx context.Context, userID, postID uint, at time.Time) error {
	defer observability.TrackQuery("save", "saved_posts")()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "post_id"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(&models.SavedPost{UserID: userID, PostID: postID, CreatedAt: at.UTC().Truncate(time.Microsecond)}).Error
}

func (r *savedPostRepository) Unsave(ctx context.Context, userID, postID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.SavedPost{}).Error
}

func (r *savedPostRepository) IsSaved(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SavedPost{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *savedPostRepository) ListSaved(ctx context.Context, userID uint, after *feed.TimeKey, limit int) ([]*models.SavedPost, error) {
	defer observability.TrackQuery("list_saved", "saved_posts")()

	db := r.db.WithContext(ctx).Model(&models.SavedPost{}).
		Select("saved_posts.*").
		Joins("JOIN posts ON posts.id = saved_posts.post_id").
		Where("saved_posts.user_id = ? AND posts.status = ?", userID, models.PostStatusPublished).
		Where("posts.author_id NOT IN (SELECT blocked_id FROM blocked_users WHERE blocker_id = ?)", userID).
		Where("posts.author_id NOT IN (SELECT blocker_id FROM blocked_users WHERE blocked_id = ?)", userID)
	if after != nil {
		predicate, args := feed.SavedKeysetPredicate(*after)
		db = db.Where(predicate, args...)
	}

	var saved []*models.SavedPost
	err := db.
		Preload("Post", applyPostDetails).
		Preload("Post.Author", publicUser).
		Order(feed.SavedOrderClause).
		Limit(limit).
		Find(&saved).Error
	return saved, err
}
