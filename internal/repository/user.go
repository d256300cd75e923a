package repository

import (
	"context"
	"errors"

	"foodshare/internal/cache"
	"foodshare/internal/models"

	"gorm.io/gorm"
)

type userRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewUserRepository returns a gorm-backed UserRepository. c may be nil.
func NewUserRepository(db *gorm.DB, c *cache.Cache) UserRepository {
	return &userRepository{db: db, cache: c}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Username or email already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID is served through the cache. Cached copies carry no password hash.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			return lookupError(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// Update writes only the patched columns, so the password column is never touched.
func (r *userRepository) Update(ctx context.Context, id uint, patch models.UserPatch) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupError(err, "User", id)
	}

	if cols := patch.Columns(); len(cols) > 0 {
		if err := r.db.WithContext(ctx).Model(&user).Updates(cols).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil, models.NewValidationError("Email already taken")
			}
			return nil, models.NewInternalError(err)
		}
		r.cache.InvalidateUser(ctx, id)
	}

	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	r.cache.InvalidateUser(ctx, id)
	return res.RowsAffected > 0, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
