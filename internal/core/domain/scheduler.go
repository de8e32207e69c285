package domain

import "time"

// Built-in daemon tasks.
const (
	TaskIDAutoIdle         = "auto-idle"
	TaskIDCredentialsCheck = "credentials-check"
)

// HistoryRetention is how many runs are kept per task.
const HistoryRetention = 100

// ScheduledTask is a recurring automation the daemon runs on a fixed cadence.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time

	// LastError is empty after a successful run.
	LastError string
}

// Due reports whether an enabled task should run at now.
// A task that was never scheduled is due immediately.
func (t ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && !now.Before(t.NextRun)
}

// Finish records run on the task and schedules the next one.
func (t *ScheduledTask) Finish(run TaskRun) {
	t.LastRun = run.StartedAt
	t.NextRun = run.EndedAt.Add(t.Interval)
	t.LastError = run.Error
	if run.Success {
		t.LastSuccess = run.EndedAt
	}
}

// TaskRun is one recorded execution of a task.
type TaskRun struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// Titles counts the titles the run acted on: started by auto-idle,
	// or 1 for a validated credential set.
	Titles int

	// Summary is a one-line description shown by history.
	Summary string
}

// Duration returns how long the run took.
func (r TaskRun) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// TaskConfig enables a task and sets its cadence.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// SchedulerConfig holds the daemon task configuration.
type SchedulerConfig struct {
	// Enabled is the master switch.
	Enabled bool

	Tasks map[string]TaskConfig
}

// Task returns the configuration for taskID; unknown tasks are disabled.
func (c SchedulerConfig) Task(taskID string) TaskConfig {
	return c.Tasks[taskID]
}

// DefaultSchedulerConfig re-launches the auto-idle list every six hours
// and checks the farming credentials twice a day.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		Tasks: map[string]TaskConfig{
			TaskIDAutoIdle:         {Enabled: true, Interval: 6 * time.Hour},
			TaskIDCredentialsCheck: {Enabled: true, Interval: 12 * time.Hour},
		},
	}
}
