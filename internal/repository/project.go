package repository

import (
	"context"
	"strings"

	"projectarium/internal/models"

	"gorm.io/gorm"
)

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	GetByOwnerAndName(ctx context.Context, ownerID uint, name string) (*models.Project, error)
	Lock(ctx context.Context, id uint, strength string) (*models.Project, error)
	LockByOwner(ctx context.Context, ownerID uint) ([]uint, error)
	LockIDs(ctx context.Context, ids []uint) error
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	SetStatus(ctx context.Context, id uint, status models.ProjectStatus) error
	IDsByOwner(ctx context.Context, ownerID uint) ([]uint, error)
	ListByOwner(ctx context.Context, ownerID uint, limit int) ([]models.Project, error)
	Random(ctx context.Context, limit int) ([]models.Project, error)
	Popular(ctx context.Context, limit int) ([]models.Project, error)
	Sponsored(ctx context.Context, limit int) ([]models.Project, error)
	Search(ctx context.Context, query string, limit int) ([]models.Project, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository returns a new ProjectRepository implementation.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// withLikes selects projects together with their like count.
func (r *projectRepository) withLikes(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Project{}).
		Select("projects.*, COUNT(project_likes.user_id) AS likes_count").
		Joins("LEFT JOIN project_likes ON project_likes.project_id = projects.id").
		Group("projects.id")
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.withLikes(ctx).Where("projects.id = ?", id).Take(&project).Error; err != nil {
		return nil, notFoundOr(err, "Project", id)
	}
	return &project, nil
}

// Lock reads the project row without its like count and holds a row lock
// until the transaction ends.
func (r *projectRepository) Lock(ctx context.Context, id uint, strength string) (*models.Project, error) {
	var project models.Project
	if err := withLock(r.db.WithContext(ctx), strength).Where("id = ?", id).Take(&project).Error; err != nil {
		return nil, notFoundOr(err, "Project", id)
	}
	return &project, nil
}

// LockByOwner locks every project of ownerID for update and returns their ids.
func (r *projectRepository) LockByOwner(ctx context.Context, ownerID uint) ([]uint, error) {
	var ids []uint
	if err := withLock(r.db.WithContext(ctx).Model(&models.Project{}), LockUpdate).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, internal(err)
	}
	return ids, nil
}

// LockIDs locks the given projects for update.
func (r *projectRepository) LockIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var locked []uint
	return internal(withLock(r.db.WithContext(ctx).Model(&models.Project{}), LockUpdate).
		Where("id IN ?", ids).
		Order("id ASC").
		Pluck("id", &locked).Error)
}

func (r *projectRepository) GetByOwnerAndName(ctx context.Context, ownerID uint, name string) (*models.Project, error) {
	var project models.Project
	if err := r.withLikes(ctx).
		Where("projects.owner_id = ? AND projects.name = ?", ownerID, name).
		Take(&project).Error; err != nil {
		return nil, notFoundOr(err, "Project", name)
	}
	return &project, nil
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("You have already created a project with this name.")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *projectRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewConflictError("You have already created a project with this name.")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Project", id)
	}
	return nil
}

func (r *projectRepository) SetStatus(ctx context.Context, id uint, status models.ProjectStatus) error {
	return r.Update(ctx, id, map[string]interface{}{"status": status})
}

func (r *projectRepository) IDsByOwner(ctx context.Context, ownerID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, internal(err)
	}
	return ids, nil
}

func (r *projectRepository) ListByOwner(ctx context.Context, ownerID uint, limit int) ([]models.Project, error) {
	projects := []models.Project{}
	if err := r.withLikes(ctx).
		Where("projects.owner_id = ?", ownerID).
		Order("projects.created_at DESC, projects.id DESC").
		Limit(clampLimit(limit, 7, 50)).
		Find(&projects).Error; err != nil {
		return nil, internal(err)
	}
	return projects, nil
}

func (r *projectRepository) Random(ctx context.Context, limit int) ([]models.Project, error) {
	projects := []models.Project{}
	if err := r.withLikes(ctx).
		Order("RANDOM()").
		Limit(clampLimit(limit, 10, 50)).
		Find(&projects).Error; err != nil {
		return nil, internal(err)
	}
	return projects, nil
}

func (r *projectRepository) Popular(ctx context.Context, limit int) ([]models.Project, error) {
	projects := []models.Project{}
	if err := r.withLikes(ctx).
		Order("likes_count DESC, projects.id ASC").
		Limit(clampLimit(limit, 10, 50)).
		Find(&projects).Error; err != nil {
		return nil, internal(err)
	}
	return projects, nil
}

func (r *projectRepository) Sponsored(ctx context.Context, limit int) ([]models.Project, error) {
	projects := []models.Project{}
	if err := r.withLikes(ctx).
		Where("projects.status = ?", models.ProjectStatusSponsored).
		Order("projects.updated_at DESC, projects.id DESC").
		Limit(clampLimit(limit, 10, 50)).
		Find(&projects).Error; err != nil {
		return nil, internal(err)
	}
	return projects, nil
}

// Search matches project names case-insensitively.
func (r *projectRepository) Search(ctx context.Context, query string, limit int) ([]models.Project, error) {
	projects := []models.Project{}
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	if err := r.withLikes(ctx).
		Where("LOWER(projects.name) LIKE ?", pattern).
		Order("projects.name ASC, projects.id ASC").
		Limit(clampLimit(limit, 20, 50)).
		Find(&projects).Error; err != nil {
		return nil, internal(err)
	}
	return projects, nil
}

func (r *projectRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Project{})
	return res.RowsAffected, internal(res.Error)
}
