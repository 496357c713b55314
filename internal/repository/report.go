package repository

import (
	"context"

	"projectarium/internal/models"

	"gorm.io/gorm"
)

// ReportRepository stores user and project reports.
type ReportRepository interface {
	CreateUserReport(ctx context.Context, report *models.ReportUser) error
	CreateProjectReport(ctx context.Context, report *models.ReportProject) error
	PendingUserReports(ctx context.Context, limit int) ([]models.ReportUser, error)
	PendingProjectReports(ctx context.Context, limit int) ([]models.ReportProject, error)
	ResolveUserReport(ctx context.Context, id uint, state models.ReportState) (bool, error)
	ResolveProjectReport(ctx context.Context, id uint, state models.ReportState) (bool, error)
	UserReportExists(ctx context.Context, id uint) (bool, error)
	ProjectReportExists(ctx context.Context, id uint) (bool, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository returns a new ReportRepository implementation.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) CreateUserReport(ctx context.Context, report *models.ReportUser) error {
	return internal(r.db.WithContext(ctx).Create(report).Error)
}

func (r *reportRepository) CreateProjectReport(ctx context.Context, report *models.ReportProject) error {
	return internal(r.db.WithContext(ctx).Create(report).Error)
}

func (r *reportRepository) PendingUserReports(ctx context.Context, limit int) ([]models.ReportUser, error) {
	reports := []models.ReportUser{}
	if err := r.db.WithContext(ctx).
		Where("state = ?", models.ReportStatePending).
		Order("created_at ASC, id ASC").
		Limit(clampLimit(limit, 50, 200)).
		Find(&reports).Error; err != nil {
		return nil, internal(err)
	}
	return reports, nil
}

func (r *reportRepository) PendingProjectReports(ctx context.Context, limit int) ([]models.ReportProject, error) {
	reports := []models.ReportProject{}
	if err := r.db.WithContext(ctx).
		Where("state = ?", models.ReportStatePending).
		Order("created_at ASC, id ASC").
		Limit(clampLimit(limit, 50, 200)).
		Find(&reports).Error; err != nil {
		return nil, internal(err)
	}
	return reports, nil
}

// ResolveUserReport moves a pending report to state. It reports false when
// the report was not pending.
func (r *reportRepository) ResolveUserReport(ctx context.Context, id uint, state models.ReportState) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ReportUser{}).
		Where("id = ? AND state = ?", id, models.ReportStatePending).
		Update("state", state)
	return res.RowsAffected > 0, internal(res.Error)
}

func (r *reportRepository) ResolveProjectReport(ctx context.Context, id uint, state models.ReportState) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ReportProject{}).
		Where("id = ? AND state = ?", id, models.ReportStatePending).
		Update("state", state)
	return res.RowsAffected > 0, internal(res.Error)
}

func (r *reportRepository) UserReportExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReportUser{}).Where("id = ?", id).Count(&count).Error
	return count > 0, internal(err)
}

func (r *reportRepository) ProjectReportExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReportProject{}).Where("id = ?", id).Count(&count).Error
	return count > 0, internal(err)
}
