package like

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/telbozor/api/internal/domain"
)

type mockLikeStore struct{ mock.Mock }

func (m *mockLikeStore) Put(ctx context.Context, l *domain.Like) error {
	return m.Called(ctx, l).Error(0)
}
func (m *mockLikeStore) Delete(ctx context.Context, userID, listingID string) error {
	return m.Called(ctx, userID, listingID).Error(0)
}
func (m *mockLikeStore) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	args := m.Called(ctx, userID, listingID)
	return args.Bool(0), args.Error(1)
}
func (m *mockLikeStore) ListByUser(ctx context.Context, userID string) ([]domain.Like, error) {
	args := m.Called(ctx, userID)
	l, _ := args.Get(0).([]domain.Like)
	return l, args.Error(1)
}

type mockListingStore struct{ mock.Mock }

func (m *mockListingStore) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	args := m.Called(ctx, listingID)
	if l, _ := args.Get(0).(*domain.Listing); l != nil {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockListingStore) BatchGet(ctx context.Context, ids []string) ([]domain.Listing, error) {
	args := m.Called(ctx, ids)
	l, _ := args.Get(0).([]domain.Listing)
	return l, args.Error(1)
}

// memorySet is an in-memory likedSet.
type memorySet struct {
	sets    map[string]map[string]bool
	failAdd bool
}

func newMemorySet() *memorySet { return &memorySet{sets: make(map[string]map[string]bool)} }

func (s *memorySet) SetAdd(_ context.Context, key, member string) error {
	if s.failAdd {
		return errors.New("redis down")
	}
	if s.sets[key] == nil {
		s.sets[key] = make(map[string]bool)
	}
	s.sets[key][member] = true
	return nil
}
func (s *memorySet) SetRemove(_ context.Context, key, member string) error {
	delete(s.sets[key], member)
	if len(s.sets[key]) == 0 {
		delete(s.sets, key)
	}
	return nil
}
func (s *memorySet) SetMembers(_ context.Context, key string) ([]string, bool, error) {
	set, ok := s.sets[key]
	if !ok {
		return nil, false, nil
	}
	var out []string
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, true, nil
}
func (s *memorySet) SetReplace(_ context.Context, key string, members []string, _ time.Duration) error {
	delete(s.sets, key)
	for _, m := range members {
		if s.sets[key] == nil {
			s.sets[key] = make(map[string]bool)
		}
		s.sets[key][m] = true
	}
	return nil
}

func (s *memorySet) has(userID, listingID string) bool { return s.sets[setKey(userID)][listingID] }

func newService(likes *mockLikeStore, listings *mockListingStore, cache likedSet) Service {
	return NewService(ServiceDeps{LikeRepo: likes, ListingRepo: listings, Cache: cache, CacheTTL: time.Minute})
}

func TestToggle_LikeThenCommit(t *testing.T) {
	likes, listings, cache := new(mockLikeStore), new(mockListingStore), newMemorySet()
	listings.On("Get", mock.Anything, "L1").Return(&domain.Listing{ListingID: "L1"}, nil)
	likes.On("Exists", mock.Anything, "u1", "L1").Return(false, nil)
	likes.On("ListByUser", mock.Anything, "u1").Return([]domain.Like{{UserID: "u1", ListingID: "L0"}}, nil)
	likes.On("Put", mock.Anything, mock.MatchedBy(func(l *domain.Like) bool { return l.ListingID == "L1" })).Return(nil)

	liked, err := newService(likes, listings, cache).Toggle(context.Background(), "u1", "L1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, cache.has("u1", "L1"))
	assert.True(t, cache.has("u1", "L0"), "cache warmed from the table before the tentative add")
}

func TestToggle_CommitFailureRevertsCache(t *testing.T) {
	likes, listings, cache := new(mockLikeStore), new(mockListingStore), newMemorySet()
	listings.On("Get", mock.Anything, "L1").Return(&domain.Listing{ListingID: "L1"}, nil)
	likes.On("Exists", mock.Anything, "u1", "L1").Return(false, nil)
	likes.On("ListByUser", mock.Anything, "u1").Return([]domain.Like{{UserID: "u1", ListingID: "L0"}}, nil)
	likes.On("Put", mock.Anything, mock.Anything).Return(errors.New("conditional write failed"))

	liked, err := newService(likes, listings, cache).Toggle(context.Background(), "u1", "L1")
	assert.EqualError(t, err, "conditional write failed")
	assert.False(t, liked)
	assert.False(t, cache.has("u1", "L1"))
	assert.True(t, cache.has("u1", "L0"))
}

func TestToggle_UnlikeFailureRestoresLike(t *testing.T) {
	likes, listings, cache := new(mockLikeStore), new(mockListingStore), newMemorySet()
	listings.On("Get", mock.Anything, "L1").Return(&domain.Listing{ListingID: "L1"}, nil)
	likes.On("Exists", mock.Anything, "u1", "L1").Return(true, nil)
	likes.On("ListByUser", mock.Anything, "u1").Return([]domain.Like{{UserID: "u1", ListingID: "L1"}}, nil)
	likes.On("Delete", mock.Anything, "u1", "L1").Return(errors.New("throttled"))

	liked, err := newService(likes, listings, cache).Toggle(context.Background(), "u1", "L1")
	assert.Error(t, err)
	assert.True(t, liked)
	assert.True(t, cache.has("u1", "L1"))
}

func TestToggle_ApplyFailureSkipsCommit(t *testing.T) {
	likes, listings, cache := new(mockLikeStore), new(mockListingStore), newMemorySet()
	cache.failAdd = true
	listings.On("Get", mock.Anything, "L1").Return(&domain.Listing{ListingID: "L1"}, nil)
	likes.On("Exists", mock.Anything, "u1", "L1").Return(false, nil)
	likes.On("ListByUser", mock.Anything, "u1").Return(nil, nil)

	_, err := newService(likes, listings, cache).Toggle(context.Background(), "u1", "L1")
	assert.Error(t, err)
	likes.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestToggle_WithoutCache(t *testing.T) {
	likes, listings := new(mockLikeStore), new(mockListingStore)
	listings.On("Get", mock.Anything, "L1").Return(&domain.Listing{ListingID: "L1"}, nil)
	likes.On("Exists", mock.Anything, "u1", "L1").Return(true, nil)
	likes.On("Delete", mock.Anything, "u1", "L1").Return(nil)

	liked, err := newService(likes, listings, nil).Toggle(context.Background(), "u1", "L1")
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestToggle_UnknownListing(t *testing.T) {
	likes, listings := new(mockLikeStore), new(mockListingStore)
	listings.On("Get", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	_, err := newService(likes, listings, nil).Toggle(context.Background(), "u1", "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListLiked_FromCacheNewestFirst(t *testing.T) {
	likes, listings, cache := new(mockLikeStore), new(mockListingStore), newMemorySet()
	require.NoError(t, cache.SetReplace(context.Background(), setKey("u1"), []string{"L1", "L2"}, time.Minute))
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	listings.On("BatchGet", mock.Anything, []string{"L1", "L2"}).Return([]domain.Listing{
		{ListingID: "L1", CreatedAt: base},
		{ListingID: "L2", CreatedAt: base.Add(time.Hour)},
	}, nil)

	got, err := newService(likes, listings, cache).ListLiked(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "L2", got[0].ListingID)
	likes.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
}

func TestListLiked_EmptyIsNonNil(t *testing.T) {
	likes, listings := new(mockLikeStore), new(mockListingStore)
	likes.On("ListByUser", mock.Anything, "u1").Return(nil, nil)

	got, err := newService(likes, listings, nil).ListLiked(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
