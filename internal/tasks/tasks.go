// Package tasks runs listing matching in the background over asynq.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/telbozor/api/internal/application/matching"
	"github.com/telbozor/api/internal/config"
	"github.com/telbozor/api/internal/domain"
)

// Task types handled by the worker.
const (
	TypeListingMatch         = "listing:match"
	TypeNotificationsPersist = "notifications:persist"
)

const (
	queueDefault = "default"
	maxRetry     = 5
	taskTimeout  = 2 * time.Minute
)

type ListingMatchPayload struct {
	Listing domain.Listing `json:"listing"`
}

type NotificationsPersistPayload struct {
	ListingID     string                `json:"listing_id"`
	Notifications []domain.Notification `json:"notifications"`
}

// RedisOpt builds the asynq connection options from config.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func NewListingMatchTask(l domain.Listing) (*asynq.Task, error) {
	payload, err := json.Marshal(ListingMatchPayload{Listing: l})
	if err != nil {
		return nil, fmt.Errorf("marshal listing match payload: %w", err)
	}
	return asynq.NewTask(TypeListingMatch, payload, asynq.MaxRetry(maxRetry), asynq.Timeout(taskTimeout)), nil
}

func NewNotificationsPersistTask(listingID string, ns []domain.Notification) (*asynq.Task, error) {
	payload, err := json.Marshal(NotificationsPersistPayload{ListingID: listingID, Notifications: ns})
	if err != nil {
		return nil, fmt.Errorf("marshal notifications payload: %w", err)
	}
	return asynq.NewTask(TypeNotificationsPersist, payload, asynq.MaxRetry(maxRetry), asynq.Timeout(taskTimeout)), nil
}

// --- Enqueuing ---

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer puts matching work on the queue. It satisfies listing.MatchDispatcher.
type Enqueuer struct {
	client taskClient
}

func NewEnqueuer(client taskClient) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) DispatchMatch(ctx context.Context, l domain.Listing) error {
	task, err := NewListingMatchTask(l)
	if err != nil {
		return err
	}
	info, err := e.client.EnqueueContext(ctx, task, asynq.Queue(queueDefault))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeListingMatch, err)
	}
	slog.Debug("enqueued task", "type", TypeListingMatch, "task_id", info.ID, "listing_id", l.ListingID)
	return nil
}

func (e *Enqueuer) EnqueuePersist(ctx context.Context, listingID string, ns []domain.Notification) error {
	task, err := NewNotificationsPersistTask(listingID, ns)
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue(queueDefault)); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeNotificationsPersist, err)
	}
	return nil
}

// --- Processing ---

type persistEnqueuer interface {
	EnqueuePersist(ctx context.Context, listingID string, ns []domain.Notification) error
}

// TaskProcessor holds the dependencies of the task handlers.
type TaskProcessor struct {
	matching matching.Service
	persist  persistEnqueuer
}

func NewTaskProcessor(svc matching.Service, persist persistEnqueuer) *TaskProcessor {
	return &TaskProcessor{matching: svc, persist: persist}
}

// HandleListingMatchTask matches the listing snapshot. When only storing the
// notifications failed, it queues the computed notifications on their own so
// the match is not recomputed.
func (p *TaskProcessor) HandleListingMatchTask(ctx context.Context, t *asynq.Task) error {
	var payload ListingMatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal %s payload: %v: %w", TypeListingMatch, err, asynq.SkipRetry)
	}
	res, err := p.matching.Run(ctx, payload.Listing)
	if errors.Is(err, matching.ErrPersist) {
		slog.Warn("notification persistence failed, queueing retry",
			"listing_id", payload.Listing.ListingID, "notifications", len(res.Notifications), "err", err)
		return p.persist.EnqueuePersist(ctx, res.ListingID, res.Notifications)
	}
	return err
}

func (p *TaskProcessor) HandleNotificationsPersistTask(ctx context.Context, t *asynq.Task) error {
	var payload NotificationsPersistPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal %s payload: %v: %w", TypeNotificationsPersist, err, asynq.SkipRetry)
	}
	return p.matching.Persist(ctx, payload.Notifications)
}

// SetupServer configures the asynq server and its handler mux.
func SetupServer(opt asynq.RedisConnOpt, concurrency int, p *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queueDefault: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			slog.Error("task failed", "type", task.Type(), "err", err)
		}),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeListingMatch, p.HandleListingMatchTask)
	mux.HandleFunc(TypeNotificationsPersist, p.HandleNotificationsPersistTask)
	return srv, mux
}
