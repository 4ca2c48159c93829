package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/folio-labs/folio/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Count(ctx context.Context) (int64, error)
	// FirstOrCreate inserts user unless a row with its username already
	// exists; the existing row wins. Keeps admin bootstrap idempotent.
	FirstOrCreate(ctx context.Context, user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&cnt).Error
	return cnt, err
}

func (r *userRepository) FirstOrCreate(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).
		Where("username = ?", user.Username).
		FirstOrCreate(user).Error
}
