package services

import (
	"context"

	"github.com/inkpress/apiserver/types"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Post, int, error)
	Get(ctx context.Context, id int) (types.Post, error)
	GetByTitle(ctx context.Context, title string) (types.Post, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, post types.Post) (types.Post, error)
	Delete(ctx context.Context, id int) error
}

// PostService encapsulates post use-cases.
type PostService struct {
	repo PostRepository
}

func NewPostService(repo PostRepository) *PostService {
	return &PostService{repo: repo}
}

func (s *PostService) List(ctx context.Context, offset, limit int) ([]types.Post, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *PostService) Get(ctx context.Context, id int) (types.Post, error) {
	return s.repo.Get(ctx, id)
}

func (s *PostService) GetByTitle(ctx context.Context, title string) (types.Post, error) {
	return s.repo.GetByTitle(ctx, title)
}

func (s *PostService) Create(ctx context.Context, post types.Post) (types.Post, error) {
	return s.repo.Create(ctx, post)
}

func (s *PostService) Update(ctx context.Context, post types.Post) (types.Post, error) {
	return s.repo.Update(ctx, post)
}

func (s *PostService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
