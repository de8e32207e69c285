package driven

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// SchedulerStore keeps daemon task state and run history across restarts.
type SchedulerStore interface {
	// GetTask returns nil and no error when the task is unknown.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns every task ordered by ID.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask creates or replaces the task with the same ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// RecordRun appends a run to the task's history.
	RecordRun(ctx context.Context, run *domain.TaskRun) error

	// Runs returns the most recent runs of a task, newest first.
	// A limit of zero or less returns all of them.
	Runs(ctx context.Context, taskID string, limit int) ([]domain.TaskRun, error)

	// PruneRuns keeps the newest keep runs of every task.
	PruneRuns(ctx context.Context, keep int) error
}
