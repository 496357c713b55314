package models

import (
	"time"
)

// ReportState is the review status of a report.
type ReportState string

const (
	ReportStatePending  ReportState = "pending"
	ReportStateAccepted ReportState = "accepted"
	ReportStateRejected ReportState = "rejected"
)

// ReportKind names the entity a report targets.
type ReportKind string

const (
	ReportKindUser    ReportKind = "user"
	ReportKindProject ReportKind = "project"
)

// ReportUser is a snapshot report against a user.
type ReportUser struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	ReporterID  uint        `gorm:"index" json:"reporter_id"`
	Reason      string      `gorm:"not null" json:"reason"`
	Description string      `gorm:"type:text;not null" json:"description"`
	State       ReportState `gorm:"type:varchar(10);not null;default:'pending';index" json:"state"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ReportProject is a snapshot report against a project.
type ReportProject struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ProjectID   uint        `gorm:"not null;index" json:"project_id"`
	ReporterID  uint        `gorm:"index" json:"reporter_id"`
	Reason      string      `gorm:"not null" json:"reason"`
	Description string      `gorm:"type:text;not null" json:"description"`
	State       ReportState `gorm:"type:varchar(10);not null;default:'pending';index" json:"state"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
