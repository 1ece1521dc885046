package ranking

import (
	"strings"

	"townsquare/internal/models"
)

var rolePriorities = map[string]int{
	models.RoleAdmin:  40,
	models.RoleStaff:  30,
	models.RoleMember: 20,
	models.RoleUser:   10,
}

// DefaultRolePriority applies to unrecognized roles.
const DefaultRolePriority = 10

// RolePriority maps an author role to its priority.
func RolePriority(role string) int {
	if p, ok := rolePriorities[strings.ToUpper(strings.TrimSpace(role))]; ok {
		return p
	}
	return DefaultRolePriority
}

// CanPin reports whether role may set or change a post's pinned flag.
// Callers enforce this; Assign does not.
func CanPin(role string) bool {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case models.RoleAdmin, models.RoleStaff:
		return true
	}
	return false
}

// Assignment holds the derived ranking fields of a new post.
type Assignment struct {
	Tags         []string
	TagPriority  int
	RolePriority int
}

// Assign computes ranking fields at creation. RolePriority is fixed from
// here on: later role changes never reorder existing posts.
func Assign(tags []string, authorRole string) Assignment {
	normalized := NormalizeTags(tags)
	return Assignment{
		Tags:         normalized,
		TagPriority:  TagPriority(normalized),
		RolePriority: RolePriority(authorRole),
	}
}

// Reassign recomputes the tag priority for an edit that supplies tags.
func Reassign(tags []string) ([]string, int) {
	normalized := NormalizeTags(tags)
	return normalized, TagPriority(normalized)
}
