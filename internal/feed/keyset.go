package feed

import "townsquare/internal/ranking"

// OrderClause sorts rows in feed order.
const OrderClause = "is_pinned DESC, tag_priority DESC, role_priority DESC, published_at DESC, id DESC"

const keysetClause = "((is_pinned < ?)" +
	" OR (is_pinned = ? AND tag_priority < ?)" +
	" OR (is_pinned = ? AND tag_priority = ? AND role_priority < ?)" +
	" OR (is_pinned = ? AND tag_priority = ? AND role_priority = ? AND published_at < ?)" +
	" OR (is_pinned = ? AND tag_priority = ? AND role_priority = ? AND published_at = ? AND id < ?))"

// KeysetPredicate returns a single SQL condition selecting rows ranked
// strictly after k, together with its positional arguments. Booleans order
// false < true on every supported dialect.
func KeysetPredicate(k ranking.Key) (string, []any) {
	ts := k.PublishedAt.UTC()
	return keysetClause, []any{
		k.Pinned,
		k.Pinned, k.TagPriority,
		k.Pinned, k.TagPriority, k.RolePriority,
		k.Pinned, k.TagPriority, k.RolePriority, ts,
		k.Pinned, k.TagPriority, k.RolePriority, ts, k.ID,
	}
}

// SavedOrderClause sorts saved_posts rows newest first.
const SavedOrderClause = "saved_posts.created_at DESC, saved_posts.id DESC"

// SavedKeysetPredicate selects saved_posts rows strictly after k.
func SavedKeysetPredicate(k TimeKey) (string, []any) {
	at := k.At.UTC()
	return "(saved_posts.created_at < ? OR (saved_posts.created_at = ? AND saved_posts.id < ?))",
		[]any{at, at, k.ID}
}
