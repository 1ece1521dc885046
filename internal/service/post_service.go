// Package service holds the business rules behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"townsquare/internal/featureflags"
	"townsquare/internal/feed"
	"townsquare/internal/models"
	"townsquare/internal/moderation"
	"townsquare/internal/observability"
	"townsquare/internal/ranking"
	"townsquare/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ErrModerationRejected marks content refused by the moderation gate.
var ErrModerationRejected = errors.New("content rejected by moderation")

const (
	maxTitleLen = 300
	maxBodyLen  = 5000
	maxMedia    = 10
)

type PostService struct {
	postRepo  repository.PostRepository
	gate      *moderation.Gate
	paginator *feed.Paginator
	flags     *featureflags.Manager
	now       func() time.Time
}

type CreatePostInput struct {
	AuthorID  uint
	Role      string
	Title     string
	Body      string
	Tags      []string
	MediaURLs []string
	IsPinned  bool
}

// UpdatePostInput carries a partial edit. Nil fields are left unchanged.
type UpdatePostInput struct {
	PostID     uint
	EditorID   uint
	EditorRole string
	Title      *string
	Body       *string
	Tags       *[]string
	MediaURLs  *[]string
	IsPinned   *bool
}

type FeedInput struct {
	ViewerID      uint
	ViewerRole    string
	Cursor        string
	Limit         int
	Page          int
	IncludeHidden bool
}

func NewPostService(
	postRepo repository.PostRepository,
	gate *moderation.Gate,
	flags *featureflags.Manager,
	feedDefaultLimit int,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		gate:      gate,
		paginator: feed.NewPaginator(postRepo, feedDefaultLimit),
		flags:     flags,
		now:       time.Now,
	}
}

func rejected() error {
	return models.NewModerationRejectedError("Content violates community guidelines", ErrModerationRejected)
}

func validateContent(title, body string) error {
	if utf8.RuneCountInString(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if strings.TrimSpace(body) == "" {
		return models.NewValidationError("Post body cannot be empty")
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return models.NewValidationError("Post body too long (max 5000 characters)")
	}
	return nil
}

func validateMedia(urls []string) error {
	if len(urls) > maxMedia {
		return models.NewValidationError("Too many media URLs (max 10)")
	}
	for _, raw := range urls {
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return models.NewValidationError("media_urls must contain valid http(s) URLs")
		}
	}
	return nil
}

// CreatePost moderates and stores a new post. A HIGH severity match
// rejects the post and nothing is written.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if err := validateContent(title, in.Body); err != nil {
		return nil, err
	}
	if err := validateMedia(in.MediaURLs); err != nil {
		return nil, err
	}
	if in.IsPinned && !ranking.CanPin(in.Role) {
		return nil, models.NewForbiddenError("Only Admin/Staff can pin posts")
	}

	span, ctx := observability.NewSpan(ctx, "post.create", observability.UserIDKey.Int64(int64(in.AuthorID)))
	defer span.End()

	decision, err := s.gate.Evaluate(ctx, moderation.ContentText(title, in.Body))
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.Event("moderation.decision",
		observability.ModerationStatKey.String(string(decision.Status)),
		attribute.Bool("allowed", decision.Allowed),
	)
	if !decision.Allowed {
		slog.WarnContext(ctx, "post rejected by moderation",
			slog.Uint64("author_id", uint64(in.AuthorID)),
			slog.String("matched_word", decision.MatchedWord),
		)
		return nil, rejected()
	}

	assigned := ranking.Assign(in.Tags, in.Role)
	post := &models.Post{
		AuthorID:     in.AuthorID,
		Title:        title,
		Body:         in.Body,
		MediaURLs:    models.StringList(in.MediaURLs),
		Tags:         models.StringList(assigned.Tags),
		IsPinned:     in.IsPinned,
		TagPriority:  assigned.TagPriority,
		RolePriority: assigned.RolePriority,
		Status:       decision.Status,
		PublishedAt:  s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(observability.PostIDKey.Int64(int64(post.ID)))

	slog.InfoContext(ctx, "post created",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.String("status", string(post.Status)),
		slog.Int("tag_priority", post.TagPriority),
		slog.Int("role_priority", post.RolePriority),
	)
	return post, nil
}

// UpdatePost applies a partial edit. Changed text goes through the gate
// again: a HIGH match refuses the edit and deletes the post, otherwise the
// status follows the new decision unless the post is HIDDEN. Role priority
// and publication time never change.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusDeleted {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}
	if post.AuthorID != in.EditorID && in.EditorRole != models.RoleAdmin {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}
	if in.IsPinned != nil && !ranking.CanPin(in.EditorRole) {
		return nil, models.NewForbiddenError("Only Admin/Staff can pin posts")
	}

	title, body := post.Title, post.Body
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
	}
	if in.Body != nil {
		body = *in.Body
	}
	if err := validateContent(title, body); err != nil {
		return nil, err
	}
	if in.MediaURLs != nil {
		if err := validateMedia(*in.MediaURLs); err != nil {
			return nil, err
		}
	}

	previous := moderation.ContentText(post.Title, post.Body)
	candidate := moderation.ContentText(title, body)
	if candidate != previous {
		decision, err := s.gate.Evaluate(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			if err := s.postRepo.UpdateStatus(ctx, post.ID, models.PostStatusDeleted); err != nil {
				return nil, err
			}
			slog.WarnContext(ctx, "post deleted after rejected edit",
				slog.Uint64("post_id", uint64(post.ID)),
				slog.Uint64("editor_id", uint64(in.EditorID)),
				slog.String("matched_word", decision.MatchedWord),
			)
			return nil, rejected()
		}
		if post.Status != models.PostStatusHidden {
			post.Status = decision.Status
		}
	}

	post.Title = title
	post.Body = body
	if in.Tags != nil {
		tags, priority := ranking.Reassign(*in.Tags)
		post.Tags = models.StringList(tags)
		post.TagPriority = priority
	}
	if in.MediaURLs != nil {
		post.MediaURLs = models.StringList(*in.MediaURLs)
	}
	if in.IsPinned != nil {
		post.IsPinned = *in.IsPinned
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	s.annotate(ctx, []*models.Post{post}, in.EditorID, in.EditorRole)
	return post, nil
}

// GetFeed serves one page of the feed. Only admins may ask for hidden
// statuses; page>0 selects offset mode when enabled.
func (s *PostService) GetFeed(ctx context.Context, in FeedInput) (*feed.Page, error) {
	span, ctx := observability.NewSpan(ctx, "feed.page",
		observability.FeedHasCursorKey.Bool(in.Cursor != ""),
		observability.FeedLimitKey.Int(in.Limit),
		observability.FeedPageKey.Int(in.Page),
	)
	defer span.End()

	if in.Cursor != "" && in.Page > 0 {
		return nil, models.NewValidationError("cursor and page cannot be combined")
	}

	filter := feed.Filter{
		IncludeHidden: in.IncludeHidden,
		Privileged:    in.ViewerRole == models.RoleAdmin,
	}

	var (
		page *feed.Page
		err  error
	)
	if in.Page > 0 && s.flags.Enabled(featureflags.FeedOffsetPages, in.ViewerID) {
		page, err = s.paginator.PageAt(ctx, filter, in.Page, in.Limit)
	} else {
		page, err = s.paginator.Page(ctx, filter, in.Cursor, in.Limit)
	}
	if err != nil {
		span.SetError(err)
		if errors.Is(err, feed.ErrInvalidCursor) {
			return nil, models.NewInvalidCursorError(err)
		}
		return nil, err
	}

	s.annotate(ctx, page.Items, in.ViewerID, in.ViewerRole)
	span.AddAttributes(
		observability.FeedItemsKey.Int(len(page.Items)),
		observability.FeedHasMoreKey.Bool(page.NextCursor != ""),
	)
	return page, nil
}

// GetPost returns a post if the viewer may see it. Non-published posts are
// visible to their author (unless deleted) and to admins.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint, viewerRole string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(post, viewerID, viewerRole) {
		return nil, models.NewNotFoundError("Post", id)
	}
	s.annotate(ctx, []*models.Post{post}, viewerID, viewerRole)
	return post, nil
}

func canView(post *models.Post, viewerID uint, viewerRole string) bool {
	switch {
	case post.Status == models.PostStatusPublished:
		return true
	case viewerRole == models.RoleAdmin:
		return true
	case viewerID != 0 && post.AuthorID == viewerID:
		return post.Status != models.PostStatusDeleted
	}
	return false
}

// DeletePost soft-deletes a post by setting its status to DELETED.
func (s *PostService) DeletePost(ctx context.Context, id, userID uint, role string) error {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.Status == models.PostStatusDeleted {
		return models.NewNotFoundError("Post", id)
	}
	if post.AuthorID != userID && role != models.RoleAdmin {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.UpdateStatus(ctx, id, models.PostStatusDeleted); err != nil {
		return err
	}
	slog.InfoContext(ctx, "post deleted", slog.Uint64("post_id", uint64(id)), slog.Uint64("user_id", uint64(userID)))
	return nil
}

// HidePost takes a post out of the public feed.
func (s *PostService) HidePost(ctx context.Context, id, adminID uint) (*models.Post, error) {
	return s.setStatus(ctx, id, adminID, models.PostStatusHidden, "post hidden by admin")
}

// RestorePost publishes a post again.
func (s *PostService) RestorePost(ctx context.Context, id, adminID uint) (*models.Post, error) {
	return s.setStatus(ctx, id, adminID, models.PostStatusPublished, "post restored by admin")
}

func (s *PostService) setStatus(ctx context.Context, id, adminID uint, status models.PostStatus, msg string) (*models.Post, error) {
	if err := s.postRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	slog.WarnContext(ctx, msg, slog.Uint64("post_id", uint64(id)), slog.Uint64("admin_id", uint64(adminID)))
	return s.postRepo.GetByID(ctx, id)
}

// LikePost records a like. Liking twice is a no-op.
func (s *PostService) LikePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.Status != models.PostStatusPublished {
		return models.NewValidationError("Cannot like a non-published post")
	}
	if post.AuthorID == userID {
		return models.NewValidationError("You cannot like your own post")
	}
	return s.postRepo.Like(ctx, userID, postID)
}

// UnlikePost removes a like if present.
func (s *PostService) UnlikePost(ctx context.Context, userID, postID uint) error {
	return s.postRepo.Unlike(ctx, userID, postID)
}

// GetUserPosts lists an author's published posts in feed order.
func (s *PostService) GetUserPosts(ctx context.Context, authorID uint, limit, offset int, viewerID uint, viewerRole string) ([]*models.Post, error) {
	posts, err := s.postRepo.ListByAuthor(ctx, authorID, s.paginator.ClampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	s.annotate(ctx, posts, viewerID, viewerRole)
	return posts, nil
}

// annotate fills the per-viewer fields. Anonymous viewers get none.
func (s *PostService) annotate(ctx context.Context, posts []*models.Post, viewerID uint, viewerRole string) {
	if viewerID == 0 || len(posts) == 0 {
		return
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	liked, err := s.postRepo.GetLikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		slog.WarnContext(ctx, "failed to load liked posts", slog.String("error", err.Error()))
	}
	likedSet := make(map[uint]struct{}, len(liked))
	for _, id := range liked {
		likedSet[id] = struct{}{}
	}

	withCapabilities := s.flags.Enabled(featureflags.ViewerCapabilities, viewerID)
	for _, p := range posts {
		_, p.Liked = likedSet[p.ID]
		if !withCapabilities {
			continue
		}
		owner := p.AuthorID == viewerID
		admin := viewerRole == models.RoleAdmin
		p.Viewer = &models.ViewerCapabilities{
			CanEdit:   owner || admin,
			CanDelete: owner || admin,
			CanReport: !owner,
		}
	}
}
