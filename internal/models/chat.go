package models

import (
	"time"
)

// ThreadState tracks whether a thread has unseen messages.
type ThreadState string

const (
	ThreadStateUnread ThreadState = "unread"
	ThreadStateRead   ThreadState = "read"
)

// ChatThread is the private channel between an unordered pair of users.
// The pair is stored normalised (UserLowID < UserHighID) under a unique index,
// so at most one thread exists per pair.
type ChatThread struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	UserLowID  uint          `gorm:"not null;uniqueIndex:idx_chat_thread_pair" json:"-"`
	UserHighID uint          `gorm:"not null;uniqueIndex:idx_chat_thread_pair;index" json:"-"`
	State      ThreadState   `gorm:"type:varchar(10);not null;default:'unread'" json:"state"`
	Messages   []ChatMessage `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"messages"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	GroupChat []UserSummary `gorm:"-" json:"group_chat,omitempty"`
}

// ChatMessage is one entry of a thread.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"not null;index" json:"thread_id"`
	SenderID  uint      `gorm:"not null;index" json:"sender_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderedPair returns a and b sorted ascending.
func OrderedPair(a, b uint) (low, high uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// Members returns both users of the thread.
func (t *ChatThread) Members() [2]uint {
	return [2]uint{t.UserLowID, t.UserHighID}
}

// HasMember reports whether userID is one side of the thread.
func (t *ChatThread) HasMember(userID uint) bool {
	return t.UserLowID == userID || t.UserHighID == userID
}

// Peer returns the other member of the thread.
func (t *ChatThread) Peer(userID uint) uint {
	if t.UserLowID == userID {
		return t.UserHighID
	}
	return t.UserLowID
}
