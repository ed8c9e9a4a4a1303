package model

import "time"

// VisitStatus enumerates a visit's lifecycle states.
type VisitStatus string

const (
	VisitScheduled  VisitStatus = "scheduled"
	VisitInProgress VisitStatus = "in_progress"
	VisitCompleted  VisitStatus = "completed"
	VisitSkipped    VisitStatus = "skipped"
)

// Visit is one concrete, dated occurrence of service. Visits for recurring
// rules are created exclusively by the schedule generator; ScheduleRuleID is
// nil for ad-hoc one-off bookings.
type Visit struct {
	ID             int64       `gorm:"primaryKey"`
	CustomerID     int64       `gorm:"not null;uniqueIndex:idx_visit_occurrence,priority:1"`
	ScheduleRuleID *int64      `gorm:"uniqueIndex:idx_visit_occurrence,priority:2"`
	Date           time.Time   `gorm:"not null;uniqueIndex:idx_visit_occurrence,priority:3"` // UTC midnight
	Status         VisitStatus `gorm:"size:16;not null;default:scheduled;index"`
	Billable       bool        `gorm:"not null;default:true"`
	WindowStart    string      `gorm:"size:8"`
	WindowEnd      string      `gorm:"size:8"`
	CompletedAt    *time.Time

	// Skip metadata, populated only while Status is skipped.
	SkippedAt  *time.Time
	SkippedBy  string `gorm:"size:128"`
	SkipReason string `gorm:"size:256"`
	SkipNotes  string `gorm:"size:1024"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Associations
	Customer Customer `gorm:"constraint:OnDelete:CASCADE"`
}
