package driving

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// FarmingOrchestrator runs batch reward farming.
type FarmingOrchestrator interface {
	// Start validates credentials, resolves titles and starts the batch.
	Start(ctx context.Context) (*domain.FarmingReport, error)

	// Stop ends the batch and its drop cycle.
	Stop(ctx context.Context)

	// CheckCredentials validates stored credentials, purging them on rejection.
	CheckCredentials(ctx context.Context) (*domain.ProfileSummary, error)

	// Snapshot returns the current farming state.
	Snapshot() domain.FarmingSnapshot
}
