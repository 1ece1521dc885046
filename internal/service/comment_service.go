package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"townsquare/internal/models"
	"townsquare/internal/repository"
)

const (
	maxCommentLen       = 1000
	defaultCommentLimit = 50
	maxCommentLimit     = 100
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	PostID   uint
	UserID   uint
	ParentID *uint
	Content  string
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// CreateComment adds a comment to a published post. A parent comment must
// belong to the same post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" || utf8.RuneCountInString(content) > maxCommentLen {
		return nil, models.NewValidationError("Content is required and must be under 1000 characters")
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusPublished {
		return nil, models.NewValidationError("Cannot comment on non-published post")
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		UserID:   in.UserID,
		ParentID: in.ParentID,
		Content:  content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	if limit <= 0 {
		limit = defaultCommentLimit
	}
	if limit > maxCommentLimit {
		limit = maxCommentLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.commentRepo.ListByPost(ctx, postID, limit, offset)
}

// DeleteComment soft-deletes a comment. Only its author or an admin may.
func (s *CommentService) DeleteComment(ctx context.Context, id, userID uint, role string) error {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	isAuthor := comment.UserID == userID
	if !isAuthor && role != models.RoleAdmin {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	if err := s.commentRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "comment soft-deleted",
		slog.Uint64("comment_id", uint64(id)),
		slog.Uint64("deleted_by", uint64(userID)),
		slog.Bool("is_author", isAuthor),
	)
	return nil
}
