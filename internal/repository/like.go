package repository

import (
	"context"

	"projectarium/internal/models"

	"gorm.io/gorm"
)

// LikeRepository stores project and comment like edges.
type LikeRepository interface {
	AddProjectLike(ctx context.Context, userID, projectID uint) (bool, error)
	RemoveProjectLike(ctx context.Context, userID, projectID uint) (bool, error)
	IsProjectLiked(ctx context.Context, userID, projectID uint) (bool, error)
	CountProjectLikes(ctx context.Context, projectID uint) (int64, error)
	ProjectLikerIDs(ctx context.Context, projectID uint) ([]uint, error)
	LikedProjectIDs(ctx context.Context, userID uint) ([]uint, error)
	DeleteProjectLikesByUser(ctx context.Context, userID uint) (int64, error)
	DeleteProjectLikesByProjects(ctx context.Context, projectIDs []uint) (int64, error)

	AddCommentLike(ctx context.Context, userID, commentID uint) (bool, error)
	RemoveCommentLike(ctx context.Context, userID, commentID uint) (bool, error)
	CommentLikerIDs(ctx context.Context, commentIDs []uint) (map[uint][]uint, error)
	DeleteCommentLikesByUser(ctx context.Context, userID uint) (int64, error)
	DeleteCommentLikesByComments(ctx context.Context, commentIDs []uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) AddProjectLike(ctx context.Context, userID, projectID uint) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(insertIgnore).Create(&models.ProjectLike{
		UserID:    userID,
		ProjectID: projectID,
	})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) RemoveProjectLike(ctx context.Context, userID, projectID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Delete(&models.ProjectLike{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) IsProjectLiked(ctx context.Context, userID, projectID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProjectLike{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Count(&count).Error; err != nil {
		return false, internal(err)
	}
	return count > 0, nil
}

func (r *likeRepository) CountProjectLikes(ctx context.Context, projectID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProjectLike{}).
		Where("project_id = ?", projectID).
		Count(&count).Error; err != nil {
		return 0, internal(err)
	}
	return count, nil
}

func (r *likeRepository) ProjectLikerIDs(ctx context.Context, projectID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).Model(&models.ProjectLike{}).
		Where("project_id = ?", projectID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, internal(err)
	}
	return ids, nil
}

func (r *likeRepository) LikedProjectIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).Model(&models.ProjectLike{}).
		Where("user_id = ?", userID).
		Pluck("project_id", &ids).Error; err != nil {
		return nil, internal(err)
	}
	return ids, nil
}

func (r *likeRepository) DeleteProjectLikesByUser(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.ProjectLike{})
	return res.RowsAffected, internal(res.Error)
}

func (r *likeRepository) DeleteProjectLikesByProjects(ctx context.Context, projectIDs []uint) (int64, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("project_id IN ?", projectIDs).Delete(&models.ProjectLike{})
	return res.RowsAffected, internal(res.Error)
}

func (r *likeRepository) AddCommentLike(ctx context.Context, userID, commentID uint) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(insertIgnore).Create(&models.CommentLike{
		UserID:    userID,
		CommentID: commentID,
	})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) RemoveCommentLike(ctx context.Context, userID, commentID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.CommentLike{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CommentLikerIDs returns the liker set of each comment in commentIDs.
func (r *likeRepository) CommentLikerIDs(ctx context.Context, commentIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(commentIDs))
	if len(commentIDs) == 0 {
		return out, nil
	}
	var rows []models.CommentLike
	if err := r.db.WithContext(ctx).
		Where("comment_id IN ?", commentIDs).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, internal(err)
	}
	for _, row := range rows {
		out[row.CommentID] = append(out[row.CommentID], row.UserID)
	}
	return out, nil
}

func (r *likeRepository) DeleteCommentLikesByUser(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CommentLike{})
	return res.RowsAffected, internal(res.Error)
}

func (r *likeRepository) DeleteCommentLikesByComments(ctx context.Context, commentIDs []uint) (int64, error) {
	if len(commentIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("comment_id IN ?", commentIDs).Delete(&models.CommentLike{})
	return res.RowsAffected, internal(res.Error)
}
