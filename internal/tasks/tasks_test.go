package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/telbozor/api/internal/application/matching"
	"github.com/telbozor/api/internal/domain"
)

// --- Mocks ---

type mockMatching struct{ mock.Mock }

func (m *mockMatching) Run(ctx context.Context, l domain.Listing) (matching.Result, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(matching.Result), args.Error(1)
}

func (m *mockMatching) Persist(ctx context.Context, ns []domain.Notification) error {
	return m.Called(ctx, ns).Error(0)
}

type mockPersistQueue struct{ mock.Mock }

func (m *mockPersistQueue) EnqueuePersist(ctx context.Context, listingID string, ns []domain.Notification) error {
	return m.Called(ctx, listingID, ns).Error(0)
}

type mockTaskClient struct{ mock.Mock }

func (m *mockTaskClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

func sampleListing() domain.Listing {
	return domain.Listing{ListingID: "L1", Name: "iPhone 13", OwnerID: "seller", City: "Toshkent"}
}

func sampleNotifications() []domain.Notification {
	return []domain.Notification{{NotificationID: "n1", UserID: "buyer", Title: "Yangi telefon topildi!"}}
}

// --- Tests ---

func TestHandleListingMatchTask_Success(t *testing.T) {
	svc, queue := new(mockMatching), new(mockPersistQueue)
	p := NewTaskProcessor(svc, queue)
	task, err := NewListingMatchTask(sampleListing())
	require.NoError(t, err)

	svc.On("Run", mock.Anything, mock.MatchedBy(func(l domain.Listing) bool { return l.ListingID == "L1" })).
		Return(matching.Result{ListingID: "L1", Notifications: sampleNotifications()}, nil)

	assert.NoError(t, p.HandleListingMatchTask(context.Background(), task))
	queue.AssertNotCalled(t, "EnqueuePersist", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleListingMatchTask_PersistFailureQueuesNotifications(t *testing.T) {
	svc, queue := new(mockMatching), new(mockPersistQueue)
	p := NewTaskProcessor(svc, queue)
	task, err := NewListingMatchTask(sampleListing())
	require.NoError(t, err)

	ns := sampleNotifications()
	svc.On("Run", mock.Anything, mock.Anything).
		Return(matching.Result{ListingID: "L1", Notifications: ns}, matching.ErrPersist)
	queue.On("EnqueuePersist", mock.Anything, "L1", ns).Return(nil)

	assert.NoError(t, p.HandleListingMatchTask(context.Background(), task))
	queue.AssertExpectations(t)
}

func TestHandleListingMatchTask_OtherErrorsRetry(t *testing.T) {
	svc, queue := new(mockMatching), new(mockPersistQueue)
	p := NewTaskProcessor(svc, queue)
	task, err := NewListingMatchTask(sampleListing())
	require.NoError(t, err)

	svc.On("Run", mock.Anything, mock.Anything).Return(matching.Result{}, errors.New("load active requests: throttled"))

	err = p.HandleListingMatchTask(context.Background(), task)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleListingMatchTask_BadPayloadSkipsRetry(t *testing.T) {
	p := NewTaskProcessor(new(mockMatching), new(mockPersistQueue))
	task := asynq.NewTask(TypeListingMatch, []byte("{not json"))

	err := p.HandleListingMatchTask(context.Background(), task)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleNotificationsPersistTask(t *testing.T) {
	svc := new(mockMatching)
	p := NewTaskProcessor(svc, new(mockPersistQueue))
	task, err := NewNotificationsPersistTask("L1", sampleNotifications())
	require.NoError(t, err)

	svc.On("Persist", mock.Anything, mock.MatchedBy(func(ns []domain.Notification) bool {
		return len(ns) == 1 && ns[0].NotificationID == "n1"
	})).Return(nil)

	assert.NoError(t, p.HandleNotificationsPersistTask(context.Background(), task))
	svc.AssertExpectations(t)
}

func TestHandleNotificationsPersistTask_BadPayload(t *testing.T) {
	p := NewTaskProcessor(new(mockMatching), new(mockPersistQueue))
	err := p.HandleNotificationsPersistTask(context.Background(), asynq.NewTask(TypeNotificationsPersist, []byte("[")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestEnqueuer_DispatchMatch(t *testing.T) {
	client := new(mockTaskClient)
	client.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		var payload ListingMatchPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return false
		}
		return task.Type() == TypeListingMatch && payload.Listing.ListingID == "L1"
	})).Return(&asynq.TaskInfo{ID: "t1"}, nil)

	assert.NoError(t, NewEnqueuer(client).DispatchMatch(context.Background(), sampleListing()))
	client.AssertExpectations(t)
}

func TestEnqueuer_DispatchMatchError(t *testing.T) {
	client := new(mockTaskClient)
	client.On("EnqueueContext", mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))

	err := NewEnqueuer(client).DispatchMatch(context.Background(), sampleListing())
	assert.ErrorContains(t, err, TypeListingMatch)
}

func TestInlineDispatcher_RetriesPersistOnce(t *testing.T) {
	svc := new(mockMatching)
	ns := sampleNotifications()
	svc.On("Run", mock.Anything, mock.Anything).Return(matching.Result{ListingID: "L1", Notifications: ns}, matching.ErrPersist)
	svc.On("Persist", mock.Anything, ns).Return(nil).Once()

	d := NewInlineDispatcher(svc)
	require.NoError(t, d.DispatchMatch(context.Background(), sampleListing()))
	d.Wait()

	svc.AssertExpectations(t)
}

func TestInlineDispatcher_SurvivesCanceledRequest(t *testing.T) {
	svc := new(mockMatching)
	svc.On("Run", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).
		Return(matching.Result{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	d := NewInlineDispatcher(svc)
	require.NoError(t, d.DispatchMatch(ctx, sampleListing()))
	cancel()
	d.Wait()

	svc.AssertExpectations(t)
}
