package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/telbozor/api/internal/domain"
	"github.com/telbozor/api/internal/pkg/validate"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateMine(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.Profile, error)
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Put(ctx context.Context, p *domain.Profile) error
}

// nameForgetter drops cached display names after a profile changes.
type nameForgetter interface {
	ForgetUser(ctx context.Context, userID string) error
}

type service struct {
	repo  profileStore
	names nameForgetter
}

// NewService builds the profile service. names may be nil.
func NewService(repo profileStore, names nameForgetter) Service {
	return &service{repo: repo, names: names}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.repo.Get(ctx, userID)
}

// UpdateMine creates the profile on first write.
func (s *service) UpdateMine(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		p = &domain.Profile{UserID: userID, CreatedAt: now}
	} else if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		p.FullName = req.FullName
	}
	if req.AvatarURL != nil {
		p.AvatarURL = req.AvatarURL
	}
	p.UpdatedAt = now
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	if s.names != nil {
		if err := s.names.ForgetUser(ctx, userID); err != nil {
			slog.Warn("could not invalidate cached name", "user_id", userID, "err", err)
		}
	}
	return p, nil
}
