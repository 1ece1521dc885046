package ranking

import (
	"sort"
	"time"

	"townsquare/internal/models"
)

// Key is a post's position in the feed. Posts are served in descending order
// of (Pinned, TagPriority, RolePriority, PublishedAt, ID); ID is unique so
// the order is total.
type Key struct {
	Pinned       bool
	TagPriority  int
	RolePriority int
	PublishedAt  time.Time
	ID           uint
}

// KeyOf extracts the ranking key of p.
func KeyOf(p *models.Post) Key {
	return Key{
		Pinned:       p.IsPinned,
		TagPriority:  p.TagPriority,
		RolePriority: p.RolePriority,
		PublishedAt:  p.PublishedAt,
		ID:           p.ID,
	}
}

// Compare returns a negative number when a is served before b, a positive
// number when b is served before a, and zero only for identical keys.
func Compare(a, b Key) int {
	if a.Pinned != b.Pinned {
		if a.Pinned {
			return -1
		}
		return 1
	}
	if c := cmpDesc(a.TagPriority, b.TagPriority); c != 0 {
		return c
	}
	if c := cmpDesc(a.RolePriority, b.RolePriority); c != 0 {
		return c
	}
	if !a.PublishedAt.Equal(b.PublishedAt) {
		if a.PublishedAt.After(b.PublishedAt) {
			return -1
		}
		return 1
	}
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	}
	return 0
}

// After reports whether k is served strictly after cursor.
func (k Key) After(cursor Key) bool {
	return Compare(k, cursor) > 0
}

// Sort orders posts in feed order.
func Sort(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return Compare(KeyOf(posts[i]), KeyOf(posts[j])) < 0
	})
}

func cmpDesc(a, b int) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}
