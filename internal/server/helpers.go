package server

import (
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"townsquare/internal/middleware"
	"townsquare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "blockedWordId" -> "blocked word ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// viewer returns the authenticated caller set by AuthRequired.
func viewer(c *fiber.Ctx) (uint, string) {
	userID, _ := c.Locals("userID").(uint)
	role, _ := c.Locals("userRole").(string)
	return userID, role
}

// bearerToken reads the token from "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

var statusByCode = map[string]int{
	models.CodeNotFound:           fiber.StatusNotFound,
	models.CodeValidation:         fiber.StatusBadRequest,
	models.CodeInvalidCursor:      fiber.StatusBadRequest,
	models.CodeUnauthorized:       fiber.StatusUnauthorized,
	models.CodeForbidden:          fiber.StatusForbidden,
	models.CodeConflict:           fiber.StatusConflict,
	models.CodeModerationRejected: fiber.StatusUnprocessableEntity,
	models.CodeRateLimitExceeded:  fiber.StatusTooManyRequests,
	models.CodeServiceUnavailable: fiber.StatusServiceUnavailable,
}

// statusForError maps an AppError code to its HTTP status. Anything else is a 500.
func statusForError(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		if status, ok := statusByCode[appErr.Code]; ok {
			return status
		}
	}
	return fiber.StatusInternalServerError
}

func codeForStatus(status int) string {
	for code, s := range statusByCode {
		if s == status && code != models.CodeInvalidCursor {
			return code
		}
	}
	return models.CodeValidation
}

func isCode(err error, code string) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// respondError writes err with the status its code maps to. Unclassified
// errors are logged and reported as internal errors.
func respondError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}
