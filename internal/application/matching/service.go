// Package matching runs the request matcher for a new listing and records the
// resulting notifications.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/telbozor/api/internal/domain"
	"github.com/telbozor/api/internal/matcher"
)

// ErrPersist marks a run whose matches were computed but could not be stored.
// The Result returned alongside it is complete and can be persisted later.
var ErrPersist = errors.New("persist notifications")

// Result is the outcome of matching one listing.
type Result struct {
	ListingID     string
	Matched       []domain.SearchRequest
	Notifications []domain.Notification
}

type Service interface {
	Run(ctx context.Context, listing domain.Listing) (Result, error)
	Persist(ctx context.Context, notifications []domain.Notification) error
}

type requestStore interface {
	ListActive(ctx context.Context) ([]domain.SearchRequest, error)
}

type notificationStore interface {
	PutBatch(ctx context.Context, notifications []domain.Notification) error
}

// Publisher pushes a stored notification to the recipient's devices.
type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

type service struct {
	requests      requestStore
	notifications notificationStore
	publisher     Publisher
	now           func() time.Time
}

type ServiceDeps struct {
	RequestRepo      requestStore
	NotificationRepo notificationStore
	Publisher        Publisher // optional
	Now              func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		requests:      deps.RequestRepo,
		notifications: deps.NotificationRepo,
		publisher:     deps.Publisher,
		now:           now,
	}
}

func (s *service) Run(ctx context.Context, listing domain.Listing) (Result, error) {
	res := Result{ListingID: listing.ListingID}
	active, err := s.requests.ListActive(ctx)
	if err != nil {
		return res, fmt.Errorf("load active requests: %w", err)
	}
	res.Matched = matcher.Match(listing, active)
	res.Notifications = matcher.Notifications(listing, res.Matched, s.now())
	slog.Info("listing matched",
		"listing_id", listing.ListingID,
		"requests", len(active),
		"matches", len(res.Matched),
	)
	if len(res.Notifications) == 0 {
		return res, nil
	}
	if err := s.Persist(ctx, res.Notifications); err != nil {
		return res, err
	}
	s.push(ctx, res.Notifications)
	return res, nil
}

func (s *service) Persist(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := s.notifications.PutBatch(ctx, notifications); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// push is best effort; the stored notification is what clients read.
func (s *service) push(ctx context.Context, notifications []domain.Notification) {
	if s.publisher == nil {
		return
	}
	for _, n := range notifications {
		if err := s.publisher.Publish(ctx, n); err != nil {
			slog.Warn("push notification failed", "notification_id", n.NotificationID, "user_id", n.UserID, "err", err)
		}
	}
}
