package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolePriority(t *testing.T) {
	tests := []struct {
		role     string
		expected int
	}{
		{"ADMIN", 40},
		{"STAFF", 30},
		{"MEMBER", 20},
		{"USER", 10},
		{"admin", 40},
		{"MODERATOR", 10},
		{"", 10},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.expected, RolePriority(tt.role))
		})
	}
}

func TestAssign(t *testing.T) {
	a := Assign(nil, "STAFF")
	assert.Equal(t, []string{"DEFAULT"}, a.Tags)
	assert.Equal(t, 10, a.TagPriority)
	assert.Equal(t, 30, a.RolePriority)

	a = Assign([]string{"social", "emergency"}, "USER")
	assert.Equal(t, []string{"SOCIAL", "EMERGENCY"}, a.Tags)
	assert.Equal(t, 100, a.TagPriority)
	assert.Equal(t, 10, a.RolePriority)
}

func TestReassign(t *testing.T) {
	tags, p := Reassign([]string{"GENERAL"})
	assert.Equal(t, []string{"GENERAL"}, tags)
	assert.Equal(t, 40, p)

	tags, p = Reassign([]string{})
	assert.Equal(t, []string{"DEFAULT"}, tags)
	assert.Equal(t, 10, p)
}

func TestCanPin(t *testing.T) {
	assert.True(t, CanPin("ADMIN"))
	assert.True(t, CanPin("STAFF"))
	assert.False(t, CanPin("MEMBER"))
	assert.False(t, CanPin("USER"))
}
