package feed

import (
	"context"

	"townsquare/internal/models"
	"townsquare/internal/observability"
	"townsquare/internal/ranking"
)

const (
	// DefaultLimit is used when the caller passes no page size.
	DefaultLimit = 20
	// MaxLimit caps a single page.
	MaxLimit = 100
)

// Query is what the paginator asks of the store. Rows come back in feed
// order; After, when set, restricts them to keys ranked after it.
type Query struct {
	AllStatuses bool
	After       *ranking.Key
	Limit       int
	Offset      int
}

// Store runs feed queries against the backing record store.
type Store interface {
	FeedPage(ctx context.Context, q Query) ([]*models.Post, error)
}

// Filter controls visibility. Hidden statuses are returned only when the
// caller is privileged and asked for them.
type Filter struct {
	IncludeHidden bool
	Privileged    bool
}

func (f Filter) allStatuses() bool {
	return f.Privileged && f.IncludeHidden
}

// Page is one slice of the feed. NextCursor is empty at the end of the feed.
type Page struct {
	Items      []*models.Post `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Paginator pages through the feed.
type Paginator struct {
	store        Store
	defaultLimit int
}

// NewPaginator returns a Paginator over store. A non-positive defaultLimit
// falls back to DefaultLimit.
func NewPaginator(store Store, defaultLimit int) *Paginator {
	if defaultLimit <= 0 || defaultLimit > MaxLimit {
		defaultLimit = DefaultLimit
	}
	return &Paginator{store: store, defaultLimit: defaultLimit}
}

// ClampLimit bounds a requested page size to [1, MaxLimit].
func (p *Paginator) ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return p.defaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Page returns the slice after cursor, or the first slice when cursor is
// empty. One extra row is fetched to learn whether another page exists.
func (p *Paginator) Page(ctx context.Context, filter Filter, cursor string, limit int) (*Page, error) {
	limit = p.ClampLimit(limit)

	q := Query{AllStatuses: filter.allStatuses(), Limit: limit + 1}
	if cursor != "" {
		after, err := DecodeCursor(cursor)
		if err != nil {
			observability.InvalidCursors.Inc()
			return nil, err
		}
		q.After = &after
	}

	rows, err := p.store.FeedPage(ctx, q)
	if err != nil {
		return nil, err
	}
	observability.FeedPagesServed.WithLabelValues("keyset").Inc()

	page := &Page{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		page.NextCursor = EncodeCursor(ranking.KeyOf(page.Items[limit-1]))
	}
	if page.Items == nil {
		page.Items = []*models.Post{}
	}
	return page, nil
}

// PageAt returns the 1-based page number using offset pagination. It shares
// the feed order but gives no stability guarantee under concurrent writes
// and never emits a cursor.
func (p *Paginator) PageAt(ctx context.Context, filter Filter, page, limit int) (*Page, error) {
	limit = p.ClampLimit(limit)
	if page < 1 {
		page = 1
	}

	rows, err := p.store.FeedPage(ctx, Query{
		AllStatuses: filter.allStatuses(),
		Limit:       limit,
		Offset:      (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}
	observability.FeedPagesServed.WithLabelValues("offset").Inc()

	if rows == nil {
		rows = []*models.Post{}
	}
	return &Page{Items: rows}, nil
}
