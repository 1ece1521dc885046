package server

import (
	"github.com/gofiber/fiber/v2"
)

// SavePost handles POST /api/posts/:id/save
// @Summary Save a post
// @Tags saved
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} map[string]bool
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/save [post]
func (s *Server) SavePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, role := viewer(c)

	if err := s.savedPostService.SavePost(c.UserContext(), userID, role, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"saved": true})
}

// UnsavePost handles DELETE /api/posts/:id/save
// @Summary Remove a saved post
// @Tags saved
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} map[string]bool
// @Router /posts/{id}/save [delete]
func (s *Server) UnsavePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := viewer(c)

	if err := s.savedPostService.UnsavePost(c.UserContext(), userID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"saved": false})
}

// GetSavedPosts handles GET /api/users/me/saved-posts
// @Summary List saved posts
// @Description Newest save first. Pass next_cursor back as cursor for the next page.
// @Tags saved
// @Security BearerAuth
// @Produce json
// @Param cursor query string false "Opaque cursor from the previous page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} service.SavedPostsPage
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me/saved-posts [get]
func (s *Server) GetSavedPosts(c *fiber.Ctx) error {
	userID, _ := viewer(c)

	page, err := s.savedPostService.ListSaved(c.UserContext(), userID, c.Query("cursor"), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// BlockUser handles POST /api/users/:id/block
// @Summary Block a user
// @Tags blocks
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/block [post]
func (s *Server) BlockUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := viewer(c)

	if err := s.blockService.BlockUser(c.UserContext(), userID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"blocked": true})
}

// UnblockUser handles DELETE /api/users/:id/block
// @Summary Unblock a user
// @Tags blocks
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]bool
// @Router /users/{id}/block [delete]
func (s *Server) UnblockUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := viewer(c)

	if err := s.blockService.UnblockUser(c.UserContext(), userID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"blocked": false})
}

// GetBlockedUsers handles GET /api/users/me/blocked
// @Summary List blocked users
// @Tags blocks
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size (1-100)"
// @Param offset query int false "Offset"
// @Success 200 {object} service.BlockedUsersPage
// @Router /users/me/blocked [get]
func (s *Server) GetBlockedUsers(c *fiber.Ctx) error {
	userID, _ := viewer(c)
	p := parsePagination(c, 20)

	page, err := s.blockService.ListBlocked(c.UserContext(), userID, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}
