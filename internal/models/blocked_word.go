package models

import "time"

// Severity tiers for blocked words.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// BlockedWord is reference data consumed by the moderation gate.
type BlockedWord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Word      string    `gorm:"uniqueIndex;not null" json:"word"`
	Severity  Severity  `gorm:"type:varchar(10);not null" json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}
