package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagPriority(t *testing.T) {
	tests := []struct {
		name     string
		tags     []string
		expected int
	}{
		{"nil set", nil, 10},
		{"empty set", []string{}, 10},
		{"explicit default", []string{"DEFAULT"}, 10},
		{"social", []string{"SOCIAL"}, 20},
		{"social and emergency", []string{"SOCIAL", "EMERGENCY"}, 100},
		{"lower case label", []string{"health"}, 80},
		{"unknown label", []string{"GARDENING"}, 10},
		{"unknown with known", []string{"GARDENING", "GENERAL"}, 40},
		{"announcement beats general", []string{"GENERAL", "ANNOUNCEMENT"}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TagPriority(tt.tags))
		})
	}
}

func TestTagPriority_MonotonicUnderSuperset(t *testing.T) {
	base := []string{}
	prev := TagPriority(base)
	for _, tag := range []string{"SOCIAL", "DEFAULT", "GENERAL", "UNKNOWN", "HEALTH", "ANNOUNCEMENT", "EMERGENCY"} {
		base = append(base, tag)
		got := TagPriority(base)
		assert.GreaterOrEqual(t, got, prev, "adding %s lowered the priority", tag)
		prev = got
	}
	assert.Equal(t, 100, prev)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"DEFAULT"}, NormalizeTags(nil))
	assert.Equal(t, []string{"DEFAULT"}, NormalizeTags([]string{"  ", ""}))
	assert.Equal(t, []string{"HEALTH", "SOCIAL"}, NormalizeTags([]string{" health", "SOCIAL", "Health"}))
}

func TestIsKnownTag(t *testing.T) {
	assert.True(t, IsKnownTag("emergency"))
	assert.False(t, IsKnownTag("weather"))
}
