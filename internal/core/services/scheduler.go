package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
	"github.com/custodia-labs/idlekit/internal/metrics"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// checkInterval is how often the scheduler looks for due tasks.
const checkInterval = time.Minute

// builtinTasks lists the tasks the daemon knows how to run.
var builtinTasks = []struct{ id, name string }{
	{domain.TaskIDAutoIdle, "Auto Idle"},
	{domain.TaskIDCredentialsCheck, "Credentials Check"},
}

// taskOutcome is what a task body reports back.
type taskOutcome struct {
	titles  int
	summary string
}

// Scheduler runs the periodic automation tasks of the daemon.
type Scheduler struct {
	config   domain.SchedulerConfig
	store    driven.SchedulerStore
	launcher driving.AutoIdleLauncher
	farming  driving.FarmingOrchestrator
	clock    clockwork.Clock

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration. launcher and
// farming may be nil; their tasks then succeed without doing anything.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	launcher driving.AutoIdleLauncher,
	farming driving.FarmingOrchestrator,
	clock clockwork.Clock,
) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		config:   config,
		store:    store,
		launcher: launcher,
		farming:  farming,
		clock:    clock,
	}
}

// Start registers the configured tasks and runs due ones until ctx is
// done or Stop is called. A second Start while running returns nil.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		log.Printf("scheduler: failed to initialise tasks: %v", err)
	}

	s.checkAndRunDueTasks(ctx)

	ticker := s.clock.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.Chan():
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// Stop ends the loop and waits for in-flight tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Tasks returns every scheduled task.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	return s.store.ListTasks(ctx)
}

// History returns the most recent runs of a task.
func (s *Scheduler) History(ctx context.Context, taskID string, limit int) ([]domain.TaskRun, error) {
	return s.store.Runs(ctx, taskID, limit)
}

// initialiseTasks stores every enabled built-in task.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	for _, t := range builtinTasks {
		cfg := s.config.Task(t.id)
		if !cfg.Enabled {
			continue
		}
		if err := s.ensureTask(ctx, t.id, t.name, cfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates the task, or reschedules it from now when its
// interval changed.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	switch {
	case task == nil:
		task = &domain.ScheduledTask{ID: id, Name: name, Interval: cfg.Interval, NextRun: now.Add(cfg.Interval)}
	case task.Interval != cfg.Interval:
		task.Interval = cfg.Interval
		task.NextRun = now.Add(cfg.Interval)
	}
	task.Enabled = cfg.Enabled
	return s.store.SaveTask(ctx, task)
}

// checkAndRunDueTasks starts every task that is due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list tasks: %v", err)
		return
	}
	now := s.clock.Now()
	for i := range tasks {
		if tasks[i].Due(now) {
			s.runTask(ctx, &tasks[i])
		}
	}
}

// runTask executes task in the background and records the run.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	var body func(context.Context) (taskOutcome, error)
	switch task.ID {
	case domain.TaskIDAutoIdle:
		body = s.runAutoIdle
	case domain.TaskIDCredentialsCheck:
		body = s.runCredentialsCheck
	default:
		log.Printf("scheduler: unknown task ID: %s", task.ID)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		run := &domain.TaskRun{TaskID: task.ID, StartedAt: s.clock.Now()}
		outcome, err := body(ctx)
		run.EndedAt = s.clock.Now()
		run.Titles = outcome.titles
		run.Summary = outcome.summary
		run.Success = err == nil
		status := "success"
		if err != nil {
			status = "failed"
			run.Error = err.Error()
		}
		task.Finish(*run)

		metrics.TaskRuns.WithLabelValues(task.ID, status).Inc()
		metrics.TaskDuration.WithLabelValues(task.ID).Observe(run.Duration().Seconds())

		if err := s.store.SaveTask(ctx, task); err != nil {
			log.Printf("scheduler: failed to save task %s: %v", task.ID, err)
		}
		if err := s.store.RecordRun(ctx, run); err != nil {
			log.Printf("scheduler: failed to record run of %s: %v", task.ID, err)
		}
		if err := s.store.PruneRuns(ctx, domain.HistoryRetention); err != nil {
			log.Printf("scheduler: failed to prune history: %v", err)
		}
	}()
}

// runAutoIdle triggers the auto-idle launcher and reports the titles started.
func (s *Scheduler) runAutoIdle(ctx context.Context) (taskOutcome, error) {
	if s.launcher == nil {
		return taskOutcome{summary: "no launcher"}, nil
	}
	report, err := s.launcher.Trigger(ctx, false)
	if report == nil {
		return taskOutcome{}, err
	}
	out := taskOutcome{
		titles: len(report.Started),
		summary: fmt.Sprintf("%d started, %d already running, %d failed",
			len(report.Started), len(report.AlreadyRunning), len(report.Failed)),
	}
	if report.GaveUp {
		out.summary = "host never became ready"
	}
	return out, err
}

// runCredentialsCheck validates the stored community credentials.
// Missing credentials are not a failure.
func (s *Scheduler) runCredentialsCheck(ctx context.Context) (taskOutcome, error) {
	if s.farming == nil {
		return taskOutcome{summary: "no farming"}, nil
	}
	profile, err := s.farming.CheckCredentials(ctx)
	switch {
	case errors.Is(err, domain.ErrMissingCredentials):
		return taskOutcome{summary: "no credentials stored"}, nil
	case err != nil:
		return taskOutcome{}, err
	}
	name := ""
	if profile != nil {
		name = profile.Name
	}
	return taskOutcome{titles: 1, summary: "valid for " + name}, nil
}
