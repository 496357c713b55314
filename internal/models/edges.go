package models

import (
	"time"
)

// Follow is one edge of the follow graph: FollowerID follows FolloweeID.
// The row is both FolloweeID ∈ follower.Following and FollowerID ∈ followee.Followers.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FolloweeID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProjectLike records that UserID likes ProjectID.
type ProjectLike struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ProjectID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentLike records that UserID likes CommentID.
type CommentLike struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CommentID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PrivateChat lists PeerID in UserID's private chats.
type PrivateChat struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PeerID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"peer_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FollowerMilestone is a follower-count threshold already rewarded to a user.
type FollowerMilestone struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Threshold int       `gorm:"primaryKey;autoIncrement:false" json:"threshold"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectLikeMilestone is a like-count threshold already rewarded for a project.
type ProjectLikeMilestone struct {
	ProjectID uint      `gorm:"primaryKey;autoIncrement:false" json:"project_id"`
	Threshold int       `gorm:"primaryKey;autoIncrement:false" json:"threshold"`
	CreatedAt time.Time `json:"created_at"`
}
