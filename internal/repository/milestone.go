package repository

import (
	"context"

	"projectarium/internal/models"

	"gorm.io/gorm"
)

// MilestoneRepository records the thresholds already rewarded per entity.
type MilestoneRepository interface {
	FollowerThresholds(ctx context.Context, userID uint) ([]int, error)
	ProjectLikeThresholds(ctx context.Context, projectID uint) ([]int, error)
	RecordFollowerThreshold(ctx context.Context, userID uint, threshold int) (bool, error)
	RecordProjectLikeThreshold(ctx context.Context, projectID uint, threshold int) (bool, error)
	DeleteForUser(ctx context.Context, userID uint) (int64, error)
	DeleteForProjects(ctx context.Context, projectIDs []uint) (int64, error)
}

type milestoneRepository struct {
	db *gorm.DB
}

// NewMilestoneRepository returns a new MilestoneRepository implementation.
func NewMilestoneRepository(db *gorm.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

func (r *milestoneRepository) FollowerThresholds(ctx context.Context, userID uint) ([]int, error) {
	thresholds := []int{}
	if err := r.db.WithContext(ctx).Model(&models.FollowerMilestone{}).
		Where("user_id = ?", userID).
		Order("threshold ASC").
		Pluck("threshold", &thresholds).Error; err != nil {
		return nil, internal(err)
	}
	return thresholds, nil
}

func (r *milestoneRepository) ProjectLikeThresholds(ctx context.Context, projectID uint) ([]int, error) {
	thresholds := []int{}
	if err := r.db.WithContext(ctx).Model(&models.ProjectLikeMilestone{}).
		Where("project_id = ?", projectID).
		Order("threshold ASC").
		Pluck("threshold", &thresholds).Error; err != nil {
		return nil, internal(err)
	}
	return thresholds, nil
}

// RecordFollowerThreshold inserts the milestone row. It reports false when
// the threshold was already recorded, which is the idempotency guard.
func (r *milestoneRepository) RecordFollowerThreshold(ctx context.Context, userID uint, threshold int) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(insertIgnore).Create(&models.FollowerMilestone{
		UserID:    userID,
		Threshold: threshold,
	})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *milestoneRepository) RecordProjectLikeThreshold(ctx context.Context, projectID uint, threshold int) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(insertIgnore).Create(&models.ProjectLikeMilestone{
		ProjectID: projectID,
		Threshold: threshold,
	})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *milestoneRepository) DeleteForUser(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.FollowerMilestone{})
	return res.RowsAffected, internal(res.Error)
}

func (r *milestoneRepository) DeleteForProjects(ctx context.Context, projectIDs []uint) (int64, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("project_id IN ?", projectIDs).Delete(&models.ProjectLikeMilestone{})
	return res.RowsAffected, internal(res.Error)
}
