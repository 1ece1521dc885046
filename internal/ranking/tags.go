// Package ranking derives the feed ranking key of a post and defines the
// total order the feed is served in.
package ranking

import "strings"

// Known tag labels.
const (
	TagEmergency    = "EMERGENCY"
	TagHealth       = "HEALTH"
	TagAnnouncement = "ANNOUNCEMENT"
	TagGeneral      = "GENERAL"
	TagSocial       = "SOCIAL"
	TagDefault      = "DEFAULT"
)

// ValidTags is the fixed tag enumeration, highest priority first.
var ValidTags = []string{TagEmergency, TagHealth, TagAnnouncement, TagGeneral, TagSocial, TagDefault}

var tagPriorities = map[string]int{
	TagEmergency:    100,
	TagHealth:       80,
	TagAnnouncement: 60,
	TagGeneral:      40,
	TagSocial:       20,
	TagDefault:      10,
}

// DefaultTagPriority is used for empty tag sets and unknown labels.
const DefaultTagPriority = 10

// TagPriority returns the highest priority among tags. Unknown labels and
// the empty set resolve to DefaultTagPriority.
func TagPriority(tags []string) int {
	best := 0
	for _, tag := range tags {
		p, ok := tagPriorities[strings.ToUpper(strings.TrimSpace(tag))]
		if !ok {
			p = DefaultTagPriority
		}
		if p > best {
			best = p
		}
	}
	if best == 0 {
		return DefaultTagPriority
	}
	return best
}

// IsKnownTag reports whether tag is part of the enumeration.
func IsKnownTag(tag string) bool {
	_, ok := tagPriorities[strings.ToUpper(strings.TrimSpace(tag))]
	return ok
}

// NormalizeTags trims, upper-cases and de-duplicates tags, preserving first
// occurrence order. An empty result becomes [DEFAULT].
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		t := strings.ToUpper(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return []string{TagDefault}
	}
	return out
}
