package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/folio-labs/folio/internal/apperrors"
	"github.com/folio-labs/folio/internal/model"
	"github.com/folio-labs/folio/internal/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100

	// slugSaveAttempts bounds the retry-on-duplicate loop. The probe is a
	// best-effort pre-check; the unique index is the real guarantee, and a
	// concurrent writer can still win the race between probe and insert.
	slugSaveAttempts = 3

	recentWindow = 7 * 24 * time.Hour
)

// Stats summarizes the post table for the dashboard.
type Stats struct {
	TotalPosts  int64 `json:"totalPosts"`
	RecentPosts int64 `json:"recentPosts"`
}

// PostPage is one page of posts. Page and Limit are the values actually
// served after clamping, so callers build pagination from these rather
// than from the raw query parameters.
type PostPage struct {
	Posts []*model.Post
	Total int64
	Page  int
	Limit int
}

// PostService owns post CRUD and slug assignment.
type PostService interface {
	Create(ctx context.Context, title, content string, date *time.Time) (*model.Post, error)
	Update(ctx context.Context, id, title, content string, date *time.Time) (*model.Post, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	GetBySlug(ctx context.Context, slug string) (*model.Post, error)
	List(ctx context.Context, page, limit int) (*PostPage, error)
	Stats(ctx context.Context) (*Stats, error)
}

type postService struct {
	repo repository.PostRepository
}

func NewPostService(repo repository.PostRepository) PostService {
	return &postService{repo: repo}
}

func (s *postService) Create(ctx context.Context, title, content string, date *time.Time) (*model.Post, error) {
	if title == "" || content == "" {
		return nil, apperrors.NewValidation("Title and content are required")
	}
	now := time.Now()
	post := &model.Post{
		ID:      uuid.New().String(),
		Title:   title,
		Content: content,
		Date:    now,
	}
	if date != nil {
		post.Date = *date
	}
	if err := s.saveWithSlug(ctx, post, s.repo.Create); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Update(ctx context.Context, id, title, content string, date *time.Time) (*model.Post, error) {
	if title == "" || content == "" {
		return nil, apperrors.NewValidation("Title and content are required")
	}
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateStorageErr(err)
	}
	titleChanged := post.Title != title
	post.Title = title
	post.Content = content
	if date != nil {
		post.Date = *date
	}
	if !titleChanged {
		if err := s.repo.Update(ctx, post); err != nil {
			return nil, translateStorageErr(err)
		}
		return post, nil
	}
	// A title edit can normalize onto an unrelated post's slug, so the
	// whole assignment runs again.
	if err := s.saveWithSlug(ctx, post, s.repo.Update); err != nil {
		return nil, err
	}
	return post, nil
}

// saveWithSlug assigns a free slug and persists the post via save. When the
// unique index rejects the write anyway, the probe reruns against fresh
// state, up to slugSaveAttempts times.
func (s *postService) saveWithSlug(ctx context.Context, post *model.Post, save func(context.Context, *model.Post) error) error {
	base := Slugify(post.Title)
	for attempt := 0; attempt < slugSaveAttempts; attempt++ {
		slug, err := s.resolveSlug(ctx, base, post.ID)
		if err != nil {
			return err
		}
		post.Slug = slug
		err = save(ctx, post)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return translateStorageErr(err)
		}
	}
	return apperrors.NewConflict("A post with this title already exists")
}

// resolveSlug probes base, base-1, base-2, ... until a slug no other post
// holds, excluding the post being saved by ID.
func (s *postService) resolveSlug(ctx context.Context, base, excludeID string) (string, error) {
	candidate := base
	for i := 0; i < maxSlugProbes; i++ {
		taken, err := s.repo.SlugTaken(ctx, candidate, excludeID)
		if err != nil {
			return "", translateStorageErr(err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i+1)
	}
	return "", apperrors.NewConflict(fmt.Sprintf("could not find a free slug for %q", base))
}

func (s *postService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return translateStorageErr(err)
	}
	if !deleted {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *postService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateStorageErr(err)
	}
	return post, nil
}

func (s *postService) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	post, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, translateStorageErr(err)
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, page, limit int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (page - 1) * limit
	posts, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, translateStorageErr(err)
	}
	return &PostPage{Posts: posts, Total: total, Page: page, Limit: limit}, nil
}

func (s *postService) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, translateStorageErr(err)
	}
	recent, err := s.repo.CountCreatedSince(ctx, time.Now().Add(-recentWindow))
	if err != nil {
		return nil, translateStorageErr(err)
	}
	return &Stats{TotalPosts: total, RecentPosts: recent}, nil
}

// translateStorageErr keeps raw gorm errors from crossing the API boundary.
func translateStorageErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return apperrors.NewTransient(err)
	}
}
