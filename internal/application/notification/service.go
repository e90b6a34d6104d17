package notification

import (
	"context"
	"fmt"

	"github.com/telbozor/api/internal/domain"
)

type Service interface {
	List(ctx context.Context, userID string) ([]domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type notificationStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type service struct {
	repo notificationStore
}

func NewService(repo notificationStore) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	return nonNil(s.repo.ListByUser(ctx, userID))
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return nonNil(s.repo.ListUnread(ctx, userID))
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) error {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return fmt.Errorf("forbidden: %w", domain.ErrForbidden)
	}
	if n.IsRead {
		return nil
	}
	return s.repo.MarkAsRead(ctx, notificationID)
}

func (s *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func nonNil(ns []domain.Notification, err error) ([]domain.Notification, error) {
	if err != nil {
		return nil, err
	}
	if ns == nil {
		ns = []domain.Notification{}
	}
	return ns, nil
}
