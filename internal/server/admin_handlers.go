package server

import (
	"strings"

	"townsquare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetSafetyAnalytics handles GET /api/admin/analytics/safety
// @Summary Moderation counters and recent reports
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.SafetyStats
// @Router /admin/analytics/safety [get]
func (s *Server) GetSafetyAnalytics(c *fiber.Ctx) error {
	stats, err := s.analyticsService.SafetyStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// GetBlockedWords handles GET /api/admin/blocked-words
// @Summary List blocked words
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.BlockedWord
// @Router /admin/blocked-words [get]
func (s *Server) GetBlockedWords(c *fiber.Ctx) error {
	words, err := s.blocklistService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(words)
}

// AddBlockedWord handles POST /api/admin/blocked-words
// @Summary Add a blocked word
// @Description Takes effect for the next moderated post.
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{word=string,severity=string} true "Blocked word"
// @Success 201 {object} models.BlockedWord
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/blocked-words [post]
func (s *Server) AddBlockedWord(c *fiber.Ctx) error {
	var req struct {
		Word     string `json:"word"`
		Severity string `json:"severity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	word, err := s.blocklistService.Add(c.UserContext(), req.Word, models.Severity(req.Severity))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(word)
}

// DeleteBlockedWord handles DELETE /api/admin/blocked-words/:id
// @Summary Remove a blocked word
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Blocked word ID"
// @Success 204
// @Router /admin/blocked-words/{id} [delete]
func (s *Server) DeleteBlockedWord(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.blocklistService.Remove(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetUserRole handles PUT /api/admin/users/:id/role
// @Summary Change a user's role
// @Description Only affects posts created afterwards.
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body object{role=string} true "Role"
// @Success 200 {object} models.User
// @Router /admin/users/{id}/role [put]
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	adminID, _ := viewer(c)

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.SetRole(c.UserContext(), adminID, id, strings.TrimSpace(req.Role))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := viewer(c)

	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
