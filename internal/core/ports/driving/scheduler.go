package driving

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// Scheduler runs periodic automations (auto-idle, credential checks) in the daemon.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// Tasks returns every known task.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// History returns the most recent runs of a task, newest first.
	History(ctx context.Context, taskID string, limit int) ([]domain.TaskRun, error)
}
