package models

import "time"

// BlockedUser records that BlockerID blocked BlockedID. Blocks are one-way
// rows but hide content in both directions.
type BlockedUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlockerID uint      `gorm:"not null;uniqueIndex:idx_blocked_users_pair,priority:1" json:"blocker_id"`
	BlockedID uint      `gorm:"not null;uniqueIndex:idx_blocked_users_pair,priority:2;index:idx_blocked_users_blocked_id" json:"blocked_id"`
	Blocked   User      `gorm:"foreignKey:BlockedID" json:"blocked"`
	CreatedAt time.Time `json:"blocked_at"`
}
