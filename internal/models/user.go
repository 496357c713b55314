package models

import (
	"time"
)

// Role is the privilege level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// DefaultDescription is assigned to users who have not written one.
const DefaultDescription = "No description provided"

// User represents a member of the platform.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"uniqueIndex;not null;size:30" json:"username"`
	DisplayName   string    `gorm:"not null" json:"display_name"`
	Password      string    `gorm:"not null" json:"-"`
	Description   string    `gorm:"not null;default:'No description provided'" json:"description"`
	IsVerified    bool      `gorm:"default:false" json:"is_verified"`
	ProfileColour int       `json:"profile_colour"`
	Credits       int       `gorm:"not null;default:0;check:credits >= 0" json:"credits"`
	Role          Role      `gorm:"type:varchar(10);not null;default:'user'" json:"role"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationship sets, filled by the graph service. Not persisted on this row.
	Followers           IDSet  `gorm:"-" json:"followers,omitempty"`
	Following           IDSet  `gorm:"-" json:"following,omitempty"`
	ProjectsCreated     IDSet  `gorm:"-" json:"projects_created,omitempty"`
	ProjectsLiked       IDSet  `gorm:"-" json:"projects_liked,omitempty"`
	PrivateChats        []uint `gorm:"-" json:"private_chats,omitempty"`
	FollowersMilestones []int  `gorm:"-" json:"followers_milestones,omitempty"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserSummary is the compact form used in follower listings and thread members.
type UserSummary struct {
	ID            uint   `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	ProfileColour int    `json:"profile_colour"`
	IsVerified    bool   `json:"is_verified"`
}
