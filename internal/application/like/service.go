package like

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/telbozor/api/internal/domain"
	"github.com/telbozor/api/internal/pkg/optimistic"
)

type Service interface {
	// Toggle flips the like state of a listing for the user and returns the new state.
	Toggle(ctx context.Context, userID, listingID string) (bool, error)
	ListLiked(ctx context.Context, userID string) ([]domain.Listing, error)
}

type likeStore interface {
	Put(ctx context.Context, l *domain.Like) error
	Delete(ctx context.Context, userID, listingID string) error
	Exists(ctx context.Context, userID, listingID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Like, error)
}

type listingStore interface {
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
	BatchGet(ctx context.Context, listingIDs []string) ([]domain.Listing, error)
}

// likedSet caches each user's liked listing IDs.
type likedSet interface {
	SetAdd(ctx context.Context, key, member string) error
	SetRemove(ctx context.Context, key, member string) error
	SetMembers(ctx context.Context, key string) ([]string, bool, error)
	SetReplace(ctx context.Context, key string, members []string, ttl time.Duration) error
}

type service struct {
	likes    likeStore
	listings listingStore
	cache    likedSet
	ttl      time.Duration
}

type ServiceDeps struct {
	LikeRepo    likeStore
	ListingRepo listingStore
	Cache       likedSet // optional
	CacheTTL    time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		likes:    deps.LikeRepo,
		listings: deps.ListingRepo,
		cache:    deps.Cache,
		ttl:      deps.CacheTTL,
	}
}

func setKey(userID string) string { return "liked:" + userID }

// Toggle updates the cached set first and the table second. When the table
// write fails the cached set is restored and the error is returned.
func (s *service) Toggle(ctx context.Context, userID, listingID string) (bool, error) {
	if _, err := s.listings.Get(ctx, listingID); err != nil {
		return false, err
	}
	liked, err := s.likes.Exists(ctx, userID, listingID)
	if err != nil {
		return false, err
	}
	if s.cache != nil {
		if err := s.warm(ctx, userID); err != nil {
			return false, fmt.Errorf("warm liked set: %w", err)
		}
	}

	key := setKey(userID)
	add := func(ctx context.Context) error { return s.cache.SetAdd(ctx, key, listingID) }
	remove := func(ctx context.Context) error { return s.cache.SetRemove(ctx, key, listingID) }

	var step optimistic.Step
	if liked {
		step = optimistic.Step{
			Apply:  remove,
			Commit: func(ctx context.Context) error { return s.likes.Delete(ctx, userID, listingID) },
			Revert: add,
		}
	} else {
		step = optimistic.Step{
			Apply: add,
			Commit: func(ctx context.Context) error {
				return s.likes.Put(ctx, &domain.Like{UserID: userID, ListingID: listingID, CreatedAt: time.Now().UTC()})
			},
			Revert: remove,
		}
	}
	if s.cache == nil {
		step.Apply, step.Revert = nil, nil
	}
	if err := optimistic.Run(ctx, step); err != nil {
		return liked, err
	}
	return !liked, nil
}

// ListLiked returns the liked listings that still exist, newest first.
func (s *service) ListLiked(ctx context.Context, userID string) ([]domain.Listing, error) {
	ids, err := s.likedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Listing{}, nil
	}
	listings, err := s.listings.BatchGet(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(listings, func(i, j int) bool { return listings[i].CreatedAt.After(listings[j].CreatedAt) })
	if listings == nil {
		listings = []domain.Listing{}
	}
	return listings, nil
}

func (s *service) likedIDs(ctx context.Context, userID string) ([]string, error) {
	if s.cache != nil {
		members, ok, err := s.cache.SetMembers(ctx, setKey(userID))
		if err == nil && ok {
			return members, nil
		}
		if err != nil {
			slog.Warn("liked set read failed", "user_id", userID, "err", err)
		}
	}
	likes, err := s.likes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.ListingID)
	}
	return ids, nil
}

// warm loads the user's likes into the cache when the set is absent, so that a
// tentative add never leaves a partial set behind.
func (s *service) warm(ctx context.Context, userID string) error {
	_, ok, err := s.cache.SetMembers(ctx, setKey(userID))
	if err != nil || ok {
		return err
	}
	likes, err := s.likes.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.ListingID)
	}
	return s.cache.SetReplace(ctx, setKey(userID), ids, s.ttl)
}
