package server

import (
	"townsquare/internal/models"
	"townsquare/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	MediaURLs []string `json:"media_urls"`
	IsPinned  bool     `json:"is_pinned"`
}

// updatePostRequest distinguishes absent fields (nil) from empty ones.
type updatePostRequest struct {
	Title     *string   `json:"title"`
	Body      *string   `json:"body"`
	Tags      *[]string `json:"tags"`
	MediaURLs *[]string `json:"media_urls"`
	IsPinned  *bool     `json:"is_pinned"`
}

// GetFeed handles GET /api/posts/feed
// @Summary Ranked feed
// @Description Pinned posts first, then tag priority, author role priority, newest, id. Pass next_cursor back as cursor for the next page.
// @Tags posts
// @Produce json
// @Param cursor query string false "Opaque cursor from the previous page"
// @Param limit query int false "Page size (1-100)"
// @Param page query int false "Offset page number, cannot be combined with cursor"
// @Param includeHidden query bool false "Admins only: include non-published posts"
// @Success 200 {object} feed.Page
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	viewerID, role := s.optionalViewer(c)

	page := c.QueryInt("page", 0)
	if page < 0 {
		page = 0
	}

	result, err := s.postService.GetFeed(c.UserContext(), service.FeedInput{
		ViewerID:      viewerID,
		ViewerRole:    role,
		Cursor:        c.Query("cursor"),
		Limit:         c.QueryInt("limit", 0),
		Page:          page,
		IncludeHidden: c.QueryBool("includeHidden", false),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createPostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, role := viewer(c)

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		AuthorID:  userID,
		Role:      role,
		Title:     req.Title,
		Body:      req.Body,
		Tags:      req.Tags,
		MediaURLs: req.MediaURLs,
		IsPinned:  req.IsPinned,
	})
	if err != nil {
		return respondError(c, err)
	}

	// Load author data for response
	full, err := s.postService.GetPost(ctx, post.ID, userID, role)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(full)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, role := s.optionalViewer(c)

	post, err := s.postService.GetPost(c.UserContext(), id, viewerID, role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// GetUserPosts handles GET /api/users/:id/posts
// @Summary List a user's published posts
// @Tags posts
// @Produce json
// @Param id path int true "User ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /users/{id}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	viewerID, role := s.optionalViewer(c)

	posts, err := s.postService.GetUserPosts(c.UserContext(), authorID, page.Limit, page.Offset, viewerID, role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Edit a post
// @Description Changed text is moderated again. A high severity match deletes the post and returns 422.
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body updatePostRequest true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, role := viewer(c)

	var req updatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		PostID:     id,
		EditorID:   userID,
		EditorRole: role,
		Title:      req.Title,
		Body:       req.Body,
		Tags:       req.Tags,
		MediaURLs:  req.MediaURLs,
		IsPinned:   req.IsPinned,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, role := viewer(c)

	if err := s.postService.DeletePost(c.UserContext(), id, userID, role); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := viewer(c)

	if err := s.postService.LikePost(c.UserContext(), userID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"liked": true})
}

// UnlikePost handles DELETE /api/posts/:id/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := viewer(c)

	if err := s.postService.UnlikePost(c.UserContext(), userID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"liked": false})
}

// HidePost handles PATCH /api/posts/:id/hide
// @Summary Hide a post from the feed
// @Tags moderation
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Router /posts/{id}/hide [patch]
func (s *Server) HidePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	adminID, _ := viewer(c)

	post, err := s.postService.HidePost(c.UserContext(), id, adminID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// RestorePost handles PATCH /api/posts/:id/restore
// @Summary Publish a hidden post again
// @Tags moderation
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Router /posts/{id}/restore [patch]
func (s *Server) RestorePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	adminID, _ := viewer(c)

	post, err := s.postService.RestorePost(c.UserContext(), id, adminID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}
