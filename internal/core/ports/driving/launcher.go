package driving

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// AutoIdleLauncher launches the persisted auto-idle list.
type AutoIdleLauncher interface {
	// Trigger runs one launch cycle. manual marks a user-initiated trigger,
	// which reports an empty list as domain.ErrNoTitles.
	// Launch failures never surface as errors; they are in the report.
	Trigger(ctx context.Context, manual bool) (*domain.LaunchReport, error)
}
