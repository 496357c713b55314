package repository

import (
	"context"

	"projectarium/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Lock(ctx context.Context, id uint, strength string) (*models.Comment, error)
	LockIDs(ctx context.Context, ids []uint) error
	Create(ctx context.Context, comment *models.Comment) error
	ListByProject(ctx context.Context, projectID uint) ([]models.Comment, error)
	IDsByProject(ctx context.Context, projectID uint) ([]uint, error)
	IDsByAuthor(ctx context.Context, userID uint) ([]uint, error)
	IDsByProjects(ctx context.Context, projectIDs []uint) ([]uint, error)
	DetachReplies(ctx context.Context, parentIDs []uint) error
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

// Lock reads the comment and holds a row lock until the transaction ends.
func (r *commentRepository) Lock(ctx context.Context, id uint, strength string) (*models.Comment, error) {
	var comment models.Comment
	if err := withLock(r.db.WithContext(ctx), strength).Where("id = ?", id).Take(&comment).Error; err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

// LockIDs locks the given comments for update.
func (r *commentRepository) LockIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var locked []uint
	return internal(withLock(r.db.WithContext(ctx).Model(&models.Comment{}), LockUpdate).
		Where("id IN ?", ids).
		Order("id ASC").
		Pluck("id", &locked).Error)
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListByProject returns a project's comments in creation order.
func (r *commentRepository) ListByProject(ctx context.Context, projectID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, internal(err)
	}
	return comments, nil
}

func (r *commentRepository) IDsByProject(ctx context.Context, projectID uint) ([]uint, error) {
	return r.pluckIDs(ctx, r.db.WithContext(ctx).Where("project_id = ?", projectID))
}

func (r *commentRepository) IDsByAuthor(ctx context.Context, userID uint) ([]uint, error) {
	return r.pluckIDs(ctx, r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *commentRepository) IDsByProjects(ctx context.Context, projectIDs []uint) ([]uint, error) {
	if len(projectIDs) == 0 {
		return []uint{}, nil
	}
	return r.pluckIDs(ctx, r.db.WithContext(ctx).Where("project_id IN ?", projectIDs))
}

func (r *commentRepository) pluckIDs(_ context.Context, q *gorm.DB) ([]uint, error) {
	ids := []uint{}
	if err := q.Model(&models.Comment{}).Order("created_at ASC, id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, internal(err)
	}
	return ids, nil
}

// DetachReplies clears parent_comment_id on every reply to parentIDs.
func (r *commentRepository) DetachReplies(ctx context.Context, parentIDs []uint) error {
	if len(parentIDs) == 0 {
		return nil
	}
	return internal(r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("parent_comment_id IN ?", parentIDs).
		Update("parent_comment_id", nil).Error)
}

func (r *commentRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{})
	return res.RowsAffected, internal(res.Error)
}
