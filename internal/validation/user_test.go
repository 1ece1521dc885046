package validation

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		ok       bool
	}{
		{name: "simple", username: "river_song", ok: true},
		{name: "digits", username: "user42", ok: true},
		{name: "minimum length", username: "abc", ok: true},
		{name: "too short", username: "ab", ok: false},
		{name: "maximum length", username: strings.Repeat("a", 30), ok: true},
		{name: "too long", username: strings.Repeat("a", 31), ok: false},
		{name: "space", username: "river song", ok: false},
		{name: "symbol", username: "river!", ok: false},
		{name: "hyphen", username: "river-song", ok: false},
		{name: "reserved admin", username: "admin", ok: false},
		{name: "reserved any case", username: "Moderator", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateUsername(tt.username)
			if tt.ok && err != nil {
				t.Fatalf("expected %q to be valid, got %v", tt.username, err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("expected %q to be invalid", tt.username)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"river@example.com", "a.b+c@sub.example.org"}
	invalid := []string{"", "not-an-email", "River <river@example.com>", "@example.com"}

	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("expected %q to be valid, got %v", email, err)
		}
	}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"short":                 false,
		"exactly8":              true,
		strings.Repeat("x", 72): true,
		strings.Repeat("x", 73): false,
	}
	for password, ok := range tests {
		if err := ValidatePassword(password); (err == nil) != ok {
			t.Errorf("ValidatePassword(len=%d) error=%v, want ok=%t", len(password), err, ok)
		}
	}
}
