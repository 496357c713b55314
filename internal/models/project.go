package models

import (
	"time"
)

// ProjectStatus is the visibility tier of a project.
type ProjectStatus string

const (
	ProjectStatusPublic    ProjectStatus = "public"
	ProjectStatusSponsored ProjectStatus = "sponsored"
)

// Project is a shared software project owned by exactly one user.
type Project struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"not null;uniqueIndex:idx_project_owner_name" json:"name"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Link        string        `json:"link"`
	OwnerID     uint          `gorm:"not null;index;uniqueIndex:idx_project_owner_name" json:"owner_id"`
	Owner       *UserSummary  `gorm:"-" json:"owner,omitempty"`
	Status      ProjectStatus `gorm:"type:varchar(12);not null;default:'public';index" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// LikesCount is computed at query time.
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`

	Likes           IDSet  `gorm:"-" json:"likes,omitempty"`
	Comments        []uint `gorm:"-" json:"comments,omitempty"`
	LikesMilestones []int  `gorm:"-" json:"likes_milestones,omitempty"`
}
