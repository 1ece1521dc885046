package feed

import (
	"strings"
	"testing"
	"time"

	"townsquare/internal/ranking"

	"github.com/stretchr/testify/assert"
)

func TestKeysetPredicate(t *testing.T) {
	ts := time.Date(2026, 4, 1, 8, 0, 0, 0, time.FixedZone("x", 3600))
	k := ranking.Key{Pinned: true, TagPriority: 60, RolePriority: 30, PublishedAt: ts, ID: 12}

	clause, args := KeysetPredicate(k)

	assert.Equal(t, strings.Count(clause, "?"), len(args))
	assert.Equal(t, 5, strings.Count(clause, " OR ")+1)
	assert.Equal(t, true, args[0])
	assert.Equal(t, 12, int(args[len(args)-1].(uint)))
	assert.Equal(t, ts.UTC(), args[9])
	for _, col := range []string{"is_pinned", "tag_priority", "role_priority", "published_at", "id <"} {
		assert.Contains(t, clause, col)
	}
}

func TestSavedKeysetPredicate(t *testing.T) {
	ts := time.Date(2026, 4, 1, 8, 0, 0, 0, time.FixedZone("x", 3600))
	clause, args := SavedKeysetPredicate(TimeKey{At: ts, ID: 9})

	assert.Equal(t, strings.Count(clause, "?"), len(args))
	assert.Equal(t, ts.UTC(), args[0])
	assert.Equal(t, uint(9), args[2])
	assert.Contains(t, clause, "saved_posts.created_at")
}
