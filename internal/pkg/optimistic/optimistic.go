// Package optimistic runs a mutation behind a tentative local state change and
// compensates the local change when the mutation fails.
package optimistic

import (
	"context"
	"fmt"
)

// Step describes one optimistic transition. Apply and Revert must be inverses.
type Step struct {
	Apply  func(ctx context.Context) error
	Commit func(ctx context.Context) error
	Revert func(ctx context.Context) error
}

// Run applies the tentative state, commits, and reverts on commit failure.
// A failing Apply aborts before Commit. The commit error is always returned
// when commit fails; a revert failure is joined to it.
func Run(ctx context.Context, s Step) error {
	if s.Apply != nil {
		if err := s.Apply(ctx); err != nil {
			return fmt.Errorf("apply tentative state: %w", err)
		}
	}
	err := s.Commit(ctx)
	if err == nil {
		return nil
	}
	if s.Revert != nil {
		if rErr := s.Revert(ctx); rErr != nil {
			return fmt.Errorf("%w (revert failed: %v)", err, rErr)
		}
	}
	return err
}
