package repository

import (
	"context"

	"projectarium/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository stores private chat threads, their messages and the
// per-user private_chats edges.
type ChatRepository interface {
	FindThread(ctx context.Context, a, b uint) (*models.ChatThread, error)
	CreateThreadIfAbsent(ctx context.Context, a, b uint) (bool, error)
	GetThread(ctx context.Context, id uint) (*models.ChatThread, error)
	Messages(ctx context.Context, threadID uint) ([]models.ChatMessage, error)
	ListThreadsForUser(ctx context.Context, userID uint) ([]models.ChatThread, error)
	ThreadIDsForUser(ctx context.Context, userID uint) ([]uint, error)
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	SetState(ctx context.Context, threadID uint, state models.ThreadState) error
	DeleteThreads(ctx context.Context, ids []uint) (int64, error)

	AddPrivateChat(ctx context.Context, userID, peerID uint) (bool, error)
	PrivateChatPeers(ctx context.Context, userID uint) ([]uint, error)
	DeletePrivateChatsFor(ctx context.Context, userID uint) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository returns a new ChatRepository implementation.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) FindThread(ctx context.Context, a, b uint) (*models.ChatThread, error) {
	low, high := models.OrderedPair(a, b)
	var thread models.ChatThread
	if err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&thread).Error; err != nil {
		return nil, notFoundOr(err, "ChatThread", [2]uint{low, high})
	}
	return &thread, nil
}

// CreateThreadIfAbsent inserts the thread for the pair unless the unique
// pair index already holds one. It reports whether a row was inserted.
func (r *chatRepository) CreateThreadIfAbsent(ctx context.Context, a, b uint) (bool, error) {
	low, high := models.OrderedPair(a, b)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_low_id"}, {Name: "user_high_id"}},
			DoNothing: true,
		}).
		Create(&models.ChatThread{UserLowID: low, UserHighID: high, State: models.ThreadStateUnread})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *chatRepository) GetThread(ctx context.Context, id uint) (*models.ChatThread, error) {
	var thread models.ChatThread
	if err := r.db.WithContext(ctx).First(&thread, id).Error; err != nil {
		return nil, notFoundOr(err, "ChatThread", id)
	}
	return &thread, nil
}

// Messages returns a thread's messages in the order they were sent.
func (r *chatRepository) Messages(ctx context.Context, threadID uint) ([]models.ChatMessage, error) {
	messages := []models.ChatMessage{}
	if err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, internal(err)
	}
	return messages, nil
}

func (r *chatRepository) ListThreadsForUser(ctx context.Context, userID uint) ([]models.ChatThread, error) {
	threads := []models.ChatThread{}
	if err := r.db.WithContext(ctx).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Order("updated_at DESC, id DESC").
		Find(&threads).Error; err != nil {
		return nil, internal(err)
	}
	return threads, nil
}

func (r *chatRepository) ThreadIDsForUser(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).Model(&models.ChatThread{}).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Pluck("id", &ids).Error; err != nil {
		return nil, internal(err)
	}
	return ids, nil
}

func (r *chatRepository) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatRepository) SetState(ctx context.Context, threadID uint, state models.ThreadState) error {
	res := r.db.WithContext(ctx).Model(&models.ChatThread{}).
		Where("id = ?", threadID).
		Update("state", state)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("ChatThread", threadID)
	}
	return nil
}

// DeleteThreads removes the threads and their messages.
func (r *chatRepository) DeleteThreads(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := r.db.WithContext(ctx).Where("thread_id IN ?", ids).Delete(&models.ChatMessage{}).Error; err != nil {
		return 0, internal(err)
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.ChatThread{})
	return res.RowsAffected, internal(res.Error)
}

func (r *chatRepository) AddPrivateChat(ctx context.Context, userID, peerID uint) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(insertIgnore).Create(&models.PrivateChat{
		UserID: userID,
		PeerID: peerID,
	})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// PrivateChatPeers lists userID's private chats in the order they were opened.
func (r *chatRepository) PrivateChatPeers(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).Model(&models.PrivateChat{}).
		Where("user_id = ?", userID).
		Order("created_at ASC, peer_id ASC").
		Pluck("peer_id", &ids).Error; err != nil {
		return nil, internal(err)
	}
	return ids, nil
}

// DeletePrivateChatsFor removes userID from every private_chats list and drops its own list.
func (r *chatRepository) DeletePrivateChatsFor(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? OR peer_id = ?", userID, userID).
		Delete(&models.PrivateChat{})
	return res.RowsAffected, internal(res.Error)
}
