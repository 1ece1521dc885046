package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"townsquare/internal/feed"
	"townsquare/internal/models"
	"townsquare/internal/repository"
)

// SavedPostsPage is one slice of a user's saved posts, newest save first.
type SavedPostsPage struct {
	Items      []*models.SavedPost `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

type SavedPostService struct {
	postRepo  repository.PostRepository
	savedRepo repository.SavedPostRepository
	blockRepo repository.BlockedUserRepository
	now       func() time.Time
}

func NewSavedPostService(
	postRepo repository.PostRepository,
	savedRepo repository.SavedPostRepository,
	blockRepo repository.BlockedUserRepository,
) *SavedPostService {
	return &SavedPostService{
		postRepo:  postRepo,
		savedRepo: savedRepo,
		blockRepo: blockRepo,
		now:       time.Now,
	}
}

// SavePost bookmarks a published post. Saving twice is a no-op.
func (s *SavedPostService) SavePost(ctx context.Context, userID uint, role string, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if !canView(post, userID, role) {
		return models.NewNotFoundError("Post", postID)
	}
	if post.Status != models.PostStatusPublished {
		return models.NewForbiddenError("Cannot save this post")
	}
	if post.AuthorID == userID {
		return models.NewValidationError("Cannot save your own posts")
	}
	blocked, err := s.blockRepo.IsBlockedEither(ctx, userID, post.AuthorID)
	if err != nil {
		return err
	}
	if blocked {
		return models.NewForbiddenError("Cannot save posts from blocked users")
	}
	if err := s.savedRepo.Save(ctx, userID, postID, s.now()); err != nil {
		return err
	}
	slog.InfoContext(ctx, "post saved", slog.Uint64("post_id", uint64(postID)), slog.Uint64("user_id", uint64(userID)))
	return nil
}

// UnsavePost removes a bookmark if present.
func (s *SavedPostService) UnsavePost(ctx context.Context, userID, postID uint) error {
	return s.savedRepo.Unsave(ctx, userID, postID)
}

// ListSaved pages through a user's saved posts with a keyset cursor over
// (saved_at, id).
func (s *SavedPostService) ListSaved(ctx context.Context, userID uint, cursor string, limit int) (*SavedPostsPage, error) {
	switch {
	case limit <= 0:
		limit = feed.DefaultLimit
	case limit > feed.MaxLimit:
		limit = feed.MaxLimit
	}

	var after *feed.TimeKey
	if cursor != "" {
		k, err := feed.DecodeSavedCursor(cursor)
		if err != nil {
			if errors.Is(err, feed.ErrInvalidCursor) {
				return nil, models.NewInvalidCursorError(err)
			}
			return nil, err
		}
		after = &k
	}

	rows, err := s.savedRepo.ListSaved(ctx, userID, after, limit+1)
	if err != nil {
		return nil, err
	}

	page := &SavedPostsPage{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[limit-1]
		page.NextCursor = feed.EncodeSavedCursor(feed.TimeKey{At: last.CreatedAt, ID: last.ID})
	}
	if page.Items == nil {
		page.Items = []*models.SavedPost{}
	}
	return page, nil
}
