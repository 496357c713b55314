package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups every repository bound to one database handle. A Store
// obtained from Transaction is bound to the transaction and bypasses the cache.
type Store struct {
	db   *gorm.DB
	inTx bool

	Users      UserRepository
	Projects   ProjectRepository
	Comments   CommentRepository
	Follows    FollowRepository
	Likes      LikeRepository
	Chats      ChatRepository
	Milestones MilestoneRepository
	Reports    ReportRepository
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) *Store {
	return newStore(db, false)
}

func newStore(db *gorm.DB, inTx bool) *Store {
	return &Store{
		db:         db,
		inTx:       inTx,
		Users:      &userRepository{db: db, cached: !inTx},
		Projects:   NewProjectRepository(db),
		Comments:   NewCommentRepository(db),
		Follows:    NewFollowRepository(db),
		Likes:      NewLikeRepository(db),
		Chats:      NewChatRepository(db),
		Milestones: NewMilestoneRepository(db),
		Reports:    NewReportRepository(db),
	}
}

// DB exposes the underlying handle for units of work.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// InTx reports whether the store is bound to a transaction.
func (s *Store) InTx() bool {
	return s.inTx
}

// WithTx returns a Store whose repositories all use tx.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return newStore(tx, true)
}

// Transaction runs fn with a transaction-bound Store. Nested calls reuse the
// outer transaction through a savepoint.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.WithTx(tx))
	})
}
