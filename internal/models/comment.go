package models

import (
	"time"
)

// Comment belongs to one project and one author. ParentCommentID optionally
// threads it under another comment of the same project.
type Comment struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	ProjectID       uint         `gorm:"not null;index" json:"project_id"`
	UserID          uint         `gorm:"not null;index" json:"user_id"`
	User            *UserSummary `gorm:"-" json:"user,omitempty"`
	Text            string       `gorm:"type:text;not null" json:"text"`
	ParentCommentID *uint        `gorm:"index" json:"parent_comment_id,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	Likes IDSet `gorm:"-" json:"likes"`
}
