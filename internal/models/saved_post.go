package models

import "time"

// SavedPost is a user's bookmark on a post. A user saves a post at most once.
// Saved lists page over (created_at, id) newest first.
type SavedPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_saved_posts_user_post,priority:1;index:idx_saved_posts_user_created,priority:1" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_saved_posts_user_post,priority:2;index:idx_saved_posts_post_id" json:"post_id"`
	Post      Post      `gorm:"foreignKey:PostID" json:"post"`
	CreatedAt time.Time `gorm:"index:idx_saved_posts_user_created,priority:2" json:"saved_at"`
}
