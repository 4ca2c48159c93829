package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/folio-labs/folio/internal/model"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*model.Post, error)
	FindBySlug(ctx context.Context, slug string) (*model.Post, error)
	// SlugTaken reports whether any post other than excludeID holds slug.
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	// List returns a page of posts sorted by publish date, newest first,
	// together with the total count.
	List(ctx context.Context, offset, limit int) ([]*model.Post, int64, error)
	Count(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Post{})
	return res.RowsAffected > 0, res.Error
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindBySlug(ctx context.Context, slug string) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var cnt int64
	q := r.db.WithContext(ctx).Model(&model.Post{}).Where("slug = ?", slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *postRepository) List(ctx context.Context, offset, limit int) ([]*model.Post, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []*model.Post
	err := r.db.WithContext(ctx).
		Order("date DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).Count(&cnt).Error
	return cnt, err
}

func (r *postRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("created_at >= ?", since).
		Count(&cnt).Error
	return cnt, err
}
