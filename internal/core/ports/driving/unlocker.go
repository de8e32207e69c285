package driving

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// UnlockScheduler drives the achievement unlock state machine.
type UnlockScheduler interface {
	// Run executes an unlock run and blocks until it completes,
	// is cancelled, or fails.
	Run(ctx context.Context) error

	// Start runs in the background. Returns domain.ErrUnlockInProgress
	// if a run is active.
	Start(ctx context.Context) error

	// Cancel stops the active run. Cancelling with no run is a no-op.
	Cancel()

	// Wait blocks until the active run returns.
	Wait()

	// Snapshot returns the current state.
	Snapshot() domain.UnlockSnapshot
}
