// Package validation holds input rules shared by handlers and services.
package validation

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

// Usernames that read as official accounts or collide with route names.
var reservedUsernames = map[string]struct{}{
	"admin":      {},
	"staff":      {},
	"moderator":  {},
	"townsquare": {},
	"api":        {},
	"auth":       {},
	"posts":      {},
	"feed":       {},
	"reports":    {},
	"system":     {},
}

// ValidateUsername checks length, allowed characters and reserved names.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return errors.New("username must be 3-30 characters of letters, digits and underscores")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return errors.New("username is reserved")
	}
	return nil
}

// ValidateEmail accepts a bare address only, without a display name.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidatePassword enforces 8 to 72 bytes. bcrypt ignores anything past 72.
func ValidatePassword(password string) error {
	if n := len(password); n < 8 || n > 72 {
		return errors.New("password must be between 8 and 72 characters")
	}
	return nil
}
