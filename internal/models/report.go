package models

import "time"

// ReportReason is the category a reporter selects.
type ReportReason string

const (
	ReportReasonAbuse     ReportReason = "ABUSE"
	ReportReasonSpam      ReportReason = "SPAM"
	ReportReasonFake      ReportReason = "FAKE"
	ReportReasonOffensive ReportReason = "OFFENSIVE"
)

// Valid reports whether r is a known reason.
func (r ReportReason) Valid() bool {
	switch r {
	case ReportReasonAbuse, ReportReasonSpam, ReportReasonFake, ReportReasonOffensive:
		return true
	}
	return false
}

// ReportStatus tracks moderator handling of a report.
type ReportStatus string

const (
	ReportStatusPending     ReportStatus = "PENDING"
	ReportStatusReviewed    ReportStatus = "REVIEWED"
	ReportStatusDismissed   ReportStatus = "DISMISSED"
	ReportStatusActionTaken ReportStatus = "ACTION_TAKEN"
)

// Report flags a post or a comment for moderator attention.
type Report struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	ReporterID uint         `gorm:"not null;index" json:"reporter_id"`
	Reporter   User         `gorm:"foreignKey:ReporterID" json:"reporter"`
	PostID     *uint        `gorm:"index" json:"post_id,omitempty"`
	Post       *Post        `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CommentID  *uint        `gorm:"index" json:"comment_id,omitempty"`
	Comment    *Comment     `gorm:"foreignKey:CommentID" json:"comment,omitempty"`
	Reason     ReportReason `gorm:"type:varchar(20);not null" json:"reason"`
	Status     ReportStatus `gorm:"type:varchar(20);not null;default:PENDING" json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
