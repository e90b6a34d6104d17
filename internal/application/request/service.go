package request

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/telbozor/api/internal/domain"
	"github.com/telbozor/api/internal/pkg/id"
	"github.com/telbozor/api/internal/pkg/validate"
)

// Service manages a user's saved searches.
type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateSearchRequest) (*domain.SearchRequest, error)
	ListMine(ctx context.Context, userID string) ([]domain.SearchRequest, error)
	SetActive(ctx context.Context, userID, requestID string, active bool) (*domain.SearchRequest, error)
	Delete(ctx context.Context, userID, requestID string) error
}

type requestStore interface {
	Put(ctx context.Context, r *domain.SearchRequest) error
	Get(ctx context.Context, requestID string) (*domain.SearchRequest, error)
	Delete(ctx context.Context, requestID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.SearchRequest, error)
	SetActive(ctx context.Context, requestID string, active bool) (*domain.SearchRequest, error)
}

type service struct {
	repo requestStore
}

func NewService(repo requestStore) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateSearchRequest) (*domain.SearchRequest, error) {
	req.Keywords = strings.TrimSpace(req.Keywords)
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, fmt.Errorf("min_price exceeds max_price: %w", domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	r := &domain.SearchRequest{
		RequestID: id.New(),
		UserID:    userID,
		Keywords:  req.Keywords,
		MinPrice:  req.MinPrice,
		MaxPrice:  req.MaxPrice,
		City:      req.City,
		Storage:   req.Storage,
		Condition: req.Condition,
		BrandID:   req.BrandID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) ListMine(ctx context.Context, userID string) ([]domain.SearchRequest, error) {
	reqs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []domain.SearchRequest{}
	}
	return reqs, nil
}

func (s *service) SetActive(ctx context.Context, userID, requestID string, active bool) (*domain.SearchRequest, error) {
	if _, err := s.owned(ctx, userID, requestID); err != nil {
		return nil, err
	}
	return s.repo.SetActive(ctx, requestID, active)
}

func (s *service) Delete(ctx context.Context, userID, requestID string) error {
	if _, err := s.owned(ctx, userID, requestID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, requestID)
}

func (s *service) owned(ctx context.Context, userID, requestID string) (*domain.SearchRequest, error) {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, fmt.Errorf("request belongs to another user: %w", domain.ErrForbidden)
	}
	return r, nil
}
