// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"townsquare/internal/cache"
	"townsquare/internal/feed"
	"townsquare/internal/models"
	"townsquare/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	feed.Store
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error)
	CountByStatus(ctx context.Context, statuses ...models.PostStatus) (int64, error)
	GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		err := withAuthor(applyPostDetails(r.db.WithContext(ctx))).First(&post, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// FeedPage returns rows in feed order. A cursor becomes one disjunctive
// range predicate over the five ranking columns so the composite index
// idx_posts_feed can serve it.
func (r *postRepository) FeedPage(ctx context.Context, q feed.Query) ([]*models.Post, error) {
	defer observability.TrackQuery("feed", "posts")()

	db := withAuthor(applyPostDetails(r.db.WithContext(ctx)))
	if !q.AllStatuses {
		db = db.Where("status = ?", models.PostStatusPublished)
	}
	if q.After != nil {
		predicate, args := feed.KeysetPredicate(*q.After)
		db = db.Where(predicate, args...)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	var posts []*models.Post
	if err := db.Order(feed.OrderClause).Limit(q.Limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := withAuthor(applyPostDetails(r.db.WithContext(ctx))).
		Where("author_id = ? AND status = ?", authorID, models.PostStatusPublished).
		Order(feed.OrderClause).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// CountByStatus counts posts in any of statuses, or all posts when none are given.
func (r *postRepository) CountByStatus(ctx context.Context, statuses ...models.PostStatus) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&models.Post{})
	if len(statuses) > 0 {
		db = db.Where("status IN ?", statuses)
	}
	err := db.Count(&count).Error
	return count, err
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var likedPostIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &likedPostIDs).Error
	return likedPostIDs, err
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	// ON CONFLICT DO NOTHING keeps concurrent likes idempotent.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "post_id"}}, DoNothing: true}).
		Create(&models.Like{UserID: userID, PostID: postID}).Error
	if err == nil {
		cache.InvalidatePost(ctx, postID)
	}
	return err
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	err := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{}).Error
	if err == nil {
		cache.InvalidatePost(ctx, postID)
	}
	return err
}

// applyPostDetails adds subqueries to fetch counts in a single query.
func applyPostDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).Select("posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.is_deleted = false) as comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) as likes_count")
}

// withAuthor preloads the public fields of the post author.
func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("Author", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "username", "role")
	})
}
