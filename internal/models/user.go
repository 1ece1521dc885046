package models

import (
	"time"

	"gorm.io/gorm"
)

// Known user roles.
const (
	RoleAdmin  = "ADMIN"
	RoleStaff  = "STAFF"
	RoleMember = "MEMBER"
	RoleUser   = "USER"
)

// User represents an account. Role drives permissions and the role priority
// stamped on the user's posts at creation time.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Password  string         `gorm:"not null" json:"-"`
	Role      string         `gorm:"type:varchar(20);not null;default:USER" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsKnownRole reports whether role is one of the defined roles.
func IsKnownRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStaff, RoleMember, RoleUser:
		return true
	}
	return false
}
