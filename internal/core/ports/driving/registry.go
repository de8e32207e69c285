package driving

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// SessionRegistry owns the set of active per-title sessions.
type SessionRegistry interface {
	// Start idles one title. A title the host already runs yields
	// StartResult.AlreadyRunning and no error. When manual is true and the
	// title has an idle budget, the session stops itself once it is spent.
	Start(ctx context.Context, title domain.Title, manual bool) (domain.StartResult, error)

	// Stop ends a session. Stopping an unknown title is a no-op.
	// Host failures are logged and recorded, never returned.
	Stop(ctx context.Context, title domain.Title)

	// StartBulk starts a farming batch with no per-title budget.
	StartBulk(ctx context.Context, titles []domain.Title) error

	// StopBulk ends the farming batch.
	StopBulk(ctx context.Context)

	// Running returns the authoritative running list from the host.
	Running(ctx context.Context) ([]int, error)

	// Snapshot returns the tracked sessions.
	Snapshot() []domain.SessionSnapshot

	// StopFailures returns recent stop commands the host rejected.
	StopFailures() []domain.StopRecord

	// CancelAll clears every deferred stop and reconciliation poll.
	CancelAll()
}
