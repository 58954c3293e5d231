package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leon37/Inkpost/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户凭证存储
type UserRepository interface {
	// Create 写入新用户，邮箱重复时返回 ErrDuplicateKey
	Create(ctx context.Context, user *model.User) error
	// GetByEmail 找不到时返回 ErrNotFound
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		user.ID = id.String()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
