package services

import (
	"context"

	"github.com/inkpress/apiserver/types"
)

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	List(ctx context.Context) ([]types.Tag, error)
	Get(ctx context.Context, id int) (types.Tag, error)
	GetByTitle(ctx context.Context, title string) (types.Tag, error)
	Create(ctx context.Context, tag types.Tag) (types.Tag, error)
	Update(ctx context.Context, tag types.Tag) (types.Tag, error)
	Delete(ctx context.Context, id int) error
}

// TagService encapsulates tag use-cases.
type TagService struct {
	repo TagRepository
}

func NewTagService(repo TagRepository) *TagService {
	return &TagService{repo: repo}
}

func (s *TagService) List(ctx context.Context) ([]types.Tag, error) {
	return s.repo.List(ctx)
}

func (s *TagService) Get(ctx context.Context, id int) (types.Tag, error) {
	return s.repo.Get(ctx, id)
}

func (s *TagService) GetByTitle(ctx context.Context, title string) (types.Tag, error) {
	return s.repo.GetByTitle(ctx, title)
}

func (s *TagService) Create(ctx context.Context, tag types.Tag) (types.Tag, error) {
	return s.repo.Create(ctx, tag)
}

func (s *TagService) Update(ctx context.Context, tag types.Tag) (types.Tag, error) {
	return s.repo.Update(ctx, tag)
}

func (s *TagService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
