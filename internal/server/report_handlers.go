package server

import (
	"strings"

	"townsquare/internal/models"
	"townsquare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReport handles POST /api/reports
// @Summary Report a post or comment
// @Description Enough reports against a post hide it from the feed.
// @Tags reports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{post_id=int,comment_id=int,reason=string} true "Report"
// @Success 201 {object} models.Report
// @Failure 409 {object} models.ErrorResponse
// @Router /reports [post]
func (s *Server) CreateReport(c *fiber.Ctx) error {
	userID, role := viewer(c)

	var req struct {
		PostID    *uint  `json:"post_id"`
		CommentID *uint  `json:"comment_id"`
		Reason    string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.reportService.CreateReport(c.UserContext(), service.CreateReportInput{
		ReporterID:   userID,
		ReporterRole: role,
		PostID:       req.PostID,
		CommentID:    req.CommentID,
		Reason:       models.ReportReason(strings.ToUpper(strings.TrimSpace(req.Reason))),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetReports handles GET /api/reports
// @Summary List reports
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} object{items=[]models.Report,total=int}
// @Router /reports [get]
func (s *Server) GetReports(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	reports, total, err := s.reportService.ListReports(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"items": reports,
		"total": total,
	})
}

// DismissReport handles PATCH /api/reports/:id/dismiss
// @Summary Dismiss a report
// @Tags reports
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Success 204
// @Router /reports/{id}/dismiss [patch]
func (s *Server) DismissReport(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	adminID, _ := viewer(c)

	if err := s.reportService.DismissReport(c.UserContext(), id, adminID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
