package services

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// batchLaunch issues one launch attempt for the pending titles.
type batchLaunch func(ctx context.Context, attempt int, pending []domain.Title)

// batchVerify returns the ids the host currently reports as running.
type batchVerify func(ctx context.Context) ([]int, error)

type batchOutcome struct {
	Confirmed []domain.Title
	Pending   []domain.Title
	Attempts  int
}

// retryBatch launches pending titles, waits for them to settle, and drops
// every title the host confirms. Unconfirmed titles are retried until the
// policy is exhausted. Only context cancellation is returned as an error.
func retryBatch(
	ctx context.Context,
	clock clockwork.Clock,
	policy domain.RetryPolicy,
	pending []domain.Title,
	launch batchLaunch,
	verify batchVerify,
) (batchOutcome, error) {
	var out batchOutcome
	out.Pending = pending

	for attempt := 1; attempt <= policy.Attempts() && len(out.Pending) > 0; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, clock, policy.Delay); err != nil {
				return out, err
			}
		}
		out.Attempts = attempt
		launch(ctx, attempt, out.Pending)

		if err := sleep(ctx, clock, policy.SettleDelay); err != nil {
			return out, err
		}
		running, err := verify(ctx)
		if err != nil {
			continue
		}
		var still []domain.Title
		for _, t := range out.Pending {
			if domain.ContainsID(running, t.ID) {
				out.Confirmed = append(out.Confirmed, t)
			} else {
				still = append(still, t)
			}
		}
		out.Pending = still
	}
	return out, nil
}

// sleep waits for d on clock or until ctx is done.
func sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
