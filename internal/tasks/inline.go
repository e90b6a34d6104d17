package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/telbozor/api/internal/application/matching"
	"github.com/telbozor/api/internal/domain"
)

// InlineDispatcher runs matching in-process when no queue is configured. The
// run outlives the request that created the listing; Wait blocks until all
// runs have finished.
type InlineDispatcher struct {
	matching matching.Service
	wg       sync.WaitGroup
}

func NewInlineDispatcher(svc matching.Service) *InlineDispatcher {
	return &InlineDispatcher{matching: svc}
}

func (d *InlineDispatcher) DispatchMatch(ctx context.Context, l domain.Listing) error {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		res, err := d.matching.Run(ctx, l)
		if errors.Is(err, matching.ErrPersist) {
			// One immediate retry of the storage step only.
			err = d.matching.Persist(ctx, res.Notifications)
		}
		if err != nil {
			slog.Error("inline match failed", "listing_id", l.ListingID, "err", err)
		}
	}()
	return nil
}

func (d *InlineDispatcher) Wait() { d.wg.Wait() }
