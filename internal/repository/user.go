package repository

import (
	"context"
	"strings"

	"projectarium/internal/cache"
	"projectarium/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Lock(ctx context.Context, id uint, strength string) (*models.User, error)
	Summaries(ctx context.Context, ids []uint) ([]models.UserSummary, error)
	Create(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	UpdateUsername(ctx context.Context, id uint, username string) error
	AddCredits(ctx context.Context, id uint, amount int) error
	DebitCredits(ctx context.Context, id uint, amount int) (bool, error)
	Delete(ctx context.Context, id uint) (int64, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db     *gorm.DB
	cached bool
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, cached: true}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	load := func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}
		return nil
	}

	if !r.cached {
		if err := load(); err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, load); err != nil {
		return nil, err
	}
	return &user, nil
}

// Lock reads the user and holds a row lock until the transaction ends. It
// never goes through the cache.
func (r *userRepository) Lock(ctx context.Context, id uint, strength string) (*models.User, error) {
	var user models.User
	if err := withLock(r.db.WithContext(ctx), strength).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", username)
	}
	return &user, nil
}

func (r *userRepository) Summaries(ctx context.Context, ids []uint) ([]models.UserSummary, error) {
	summaries := []models.UserSummary{}
	if len(ids) == 0 {
		return summaries, nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id, username, display_name, profile_colour, is_verified").
		Where("id IN ?", ids).
		Order("username ASC").
		Scan(&summaries).Error; err != nil {
		return nil, internal(err)
	}
	return summaries, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username is already taken").WithExtra("usernameAlreadyExists", true)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) UpdateUsername(ctx context.Context, id uint, username string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("username", username)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewConflictError("Username is already taken").WithExtra("usernameAlreadyExists", true)
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

// AddCredits atomically increments the user's balance.
func (r *userRepository) AddCredits(ctx context.Context, id uint, amount int) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("credits", gorm.Expr("credits + ?", amount))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

// DebitCredits subtracts amount only if the balance covers it. It reports
// false when the balance was insufficient.
func (r *userRepository) DebitCredits(ctx context.Context, id uint, amount int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND credits >= ?", id, amount).
		UpdateColumn("credits", gorm.Expr("credits - ?", amount))
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	cache.InvalidateUser(ctx, id)
	return true, nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	cache.InvalidateUser(ctx, id)
	return res.RowsAffected, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Limit(clampLimit(limit, 20, 100)).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, internal(err)
	}
	return users, nil
}
