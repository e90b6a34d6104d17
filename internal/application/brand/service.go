package brand

import (
	"context"
	"strings"
	"time"

	"github.com/telbozor/api/internal/domain"
	"github.com/telbozor/api/internal/pkg/id"
	"github.com/telbozor/api/internal/pkg/validate"
)

type Service interface {
	List(ctx context.Context) ([]domain.Brand, error)
	Create(ctx context.Context, in domain.BrandInput) (*domain.Brand, error)
}

type brandStore interface {
	List(ctx context.Context) ([]domain.Brand, error)
	Put(ctx context.Context, b *domain.Brand) error
}

type service struct {
	repo brandStore
}

func NewService(repo brandStore) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]domain.Brand, error) {
	brands, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if brands == nil {
		brands = []domain.Brand{}
	}
	return brands, nil
}

func (s *service) Create(ctx context.Context, in domain.BrandInput) (*domain.Brand, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(&in); err != nil {
		return nil, err
	}
	b := &domain.Brand{
		BrandID:   id.New(),
		Name:      in.Name,
		LogoURL:   in.LogoURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
