// Package models contains data structures for the application's domain models.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PostStatus governs whether a post is visible in the public feed.
type PostStatus string

const (
	PostStatusPublished     PostStatus = "PUBLISHED"
	PostStatusPendingReview PostStatus = "PENDING_REVIEW"
	PostStatusHidden        PostStatus = "HIDDEN"
	PostStatusDeleted       PostStatus = "DELETED"
)

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusPublished, PostStatusPendingReview, PostStatusHidden, PostStatusDeleted:
		return true
	}
	return false
}

// StringList is a string slice persisted as a JSON text column so it works on
// both postgres and sqlite.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models: cannot scan %T into StringList", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("models: decode StringList: %w", err)
	}
	*l = out
	return nil
}

// ViewerCapabilities describes what the requesting user may do with a post.
type ViewerCapabilities struct {
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanReport bool `json:"can_report"`
}

// Post is a feed entry. The five ranking columns (is_pinned, tag_priority,
// role_priority, published_at, id) share the idx_posts_feed index used by
// keyset pagination.
type Post struct {
	ID           uint       `gorm:"primaryKey;index:idx_posts_feed,priority:5" json:"id"`
	AuthorID     uint       `gorm:"not null;index" json:"author_id"`
	Author       User       `gorm:"foreignKey:AuthorID" json:"author"`
	Title        string     `gorm:"size:300" json:"title"`
	Body         string     `gorm:"type:text;not null" json:"body"`
	MediaURLs    StringList `gorm:"type:text" json:"media_urls"`
	Tags         StringList `gorm:"type:text" json:"tags"`
	IsPinned     bool       `gorm:"not null;default:false;index:idx_posts_feed,priority:1" json:"is_pinned"`
	TagPriority  int        `gorm:"not null;index:idx_posts_feed,priority:2" json:"tag_priority"`
	RolePriority int        `gorm:"not null;index:idx_posts_feed,priority:3" json:"role_priority"`
	Status       PostStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PublishedAt  time.Time  `gorm:"not null;index:idx_posts_feed,priority:4" json:"published_at"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool                `gorm:"-" json:"liked"`
	Viewer    *ViewerCapabilities `gorm:"-" json:"viewer,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// IsVisible reports whether the post may appear in the public feed.
func (p *Post) IsVisible() bool {
	return p.Status == PostStatusPublished
}
