package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu      sync.Mutex
	tasks   map[string]domain.ScheduledTask
	runs    map[string][]domain.TaskRun
	listErr error
	saveErr error
	prunes  int
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks: make(map[string]domain.ScheduledTask),
		runs:  make(map[string][]domain.TaskRun),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[taskID]
	if !ok {
		return nil, nil
	}
	return &task, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	slices.SortFunc(tasks, func(a, b domain.ScheduledTask) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.tasks[task.ID] = *task
	return nil
}

func (m *mockSchedulerStore) RecordRun(_ context.Context, run *domain.TaskRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.TaskID] = append(m.runs[run.TaskID], *run)
	return nil
}

func (m *mockSchedulerStore) Runs(_ context.Context, taskID string, limit int) ([]domain.TaskRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := slices.Clone(m.runs[taskID])
	slices.Reverse(runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *mockSchedulerStore) PruneRuns(_ context.Context, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prunes++
	return nil
}

var _ driven.SchedulerStore = (*mockSchedulerStore)(nil)

func TestScheduler_StartStop(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, &mockLauncher{}, &mockFarming{}, nil)

	done := make(chan error, 1)
	go func() { done <- scheduler.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		task, _ := store.GetTask(context.Background(), domain.TaskIDAutoIdle)
		return task != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.NoError(t, <-done)
}

func TestScheduler_StartReturnsOnCancel(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- scheduler.Start(ctx) }()
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil, nil, nil)
	assert.NoError(t, scheduler.Stop())
}

func TestScheduler_DoubleStart(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- scheduler.Start(ctx) }()

	require.Eventually(t, func() bool {
		scheduler.mu.Lock()
		defer scheduler.mu.Unlock()
		return scheduler.running
	}, time.Second, 5*time.Millisecond)

	assert.NoError(t, scheduler.Start(context.Background()), "second start returns at once")

	require.NoError(t, scheduler.Stop())
	<-done
}

func TestScheduler_InitialiseTasks(t *testing.T) {
	store := newMockSchedulerStore()
	clock := clockwork.NewFakeClock()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, nil, nil, clock)
	ctx := context.Background()

	require.NoError(t, scheduler.initialiseTasks(ctx))

	autoIdle, err := store.GetTask(ctx, domain.TaskIDAutoIdle)
	require.NoError(t, err)
	require.NotNil(t, autoIdle)
	assert.Equal(t, "Auto Idle", autoIdle.Name)
	assert.True(t, autoIdle.Enabled)
	assert.Equal(t, 6*time.Hour, autoIdle.Interval)
	assert.Equal(t, clock.Now().Add(6*time.Hour), autoIdle.NextRun)

	check, err := store.GetTask(ctx, domain.TaskIDCredentialsCheck)
	require.NoError(t, err)
	require.NotNil(t, check)
	assert.Equal(t, "Credentials Check", check.Name)
}

func TestScheduler_InitialiseTasksSkipsDisabled(t *testing.T) {
	store := newMockSchedulerStore()
	config := domain.SchedulerConfig{Enabled: true, Tasks: map[string]domain.TaskConfig{
		domain.TaskIDAutoIdle: {Enabled: true, Interval: time.Hour},
	}}
	scheduler := NewScheduler(config, store, nil, nil, nil)

	require.NoError(t, scheduler.initialiseTasks(context.Background()))

	tasks, err := scheduler.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TaskIDAutoIdle, tasks[0].ID)
}

func TestScheduler_EnsureTaskReschedulesOnIntervalChange(t *testing.T) {
	store := newMockSchedulerStore()
	clock := clockwork.NewFakeClock()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, nil, nil, clock)
	ctx := context.Background()

	cfg := domain.TaskConfig{Enabled: true, Interval: time.Hour}
	require.NoError(t, scheduler.ensureTask(ctx, "test-task", "Test Task", cfg))

	clock.Advance(10 * time.Minute)
	require.NoError(t, scheduler.ensureTask(ctx, "test-task", "Test Task", cfg))
	task, err := store.GetTask(ctx, "test-task")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(50*time.Minute), task.NextRun, "same interval keeps the schedule")

	cfg.Interval = 2 * time.Hour
	require.NoError(t, scheduler.ensureTask(ctx, "test-task", "Test Task", cfg))
	task, err = store.GetTask(ctx, "test-task")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, task.Interval)
	assert.Equal(t, clock.Now().Add(2*time.Hour), task.NextRun)
}

func TestScheduler_EnsureTaskSaveError(t *testing.T) {
	store := newMockSchedulerStore()
	store.saveErr = errors.New("disk full")
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, nil, nil, nil)

	err := scheduler.initialiseTasks(context.Background())
	assert.EqualError(t, err, "disk full")
}

func TestScheduler_RunAutoIdle(t *testing.T) {
	launcher := &mockLauncher{report: &domain.LaunchReport{
		Started:        []domain.Title{{ID: 1}, {ID: 2}},
		AlreadyRunning: []domain.Title{{ID: 3}},
	}}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), launcher, nil, nil)

	out, err := scheduler.runAutoIdle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, out.titles)
	assert.Equal(t, "2 started, 1 already running, 0 failed", out.summary)
	assert.Equal(t, 1, launcher.callCount())

	launcher.report = &domain.LaunchReport{GaveUp: true}
	out, err = scheduler.runAutoIdle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "host never became ready", out.summary)
}

func TestScheduler_RunAutoIdle_NilLauncher(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil, nil, nil)

	out, err := scheduler.runAutoIdle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, out.titles)
}

func TestScheduler_RunCredentialsCheck(t *testing.T) {
	farming := &mockFarming{summary: &domain.ProfileSummary{Name: "gordon"}}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil, farming, nil)

	out, err := scheduler.runCredentialsCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, out.titles)
	assert.Equal(t, "valid for gordon", out.summary)

	farming.checkErr = domain.ErrMissingCredentials
	out, err = scheduler.runCredentialsCheck(context.Background())
	require.NoError(t, err, "missing credentials are not a failure")
	assert.Equal(t, 0, out.titles)
	assert.Equal(t, "no credentials stored", out.summary)

	farming.checkErr = domain.ErrCredentialsExpired
	_, err = scheduler.runCredentialsCheck(context.Background())
	assert.ErrorIs(t, err, domain.ErrCredentialsExpired)
}

func TestScheduler_CheckAndRunDueTasks(t *testing.T) {
	store := newMockSchedulerStore()
	launcher := &mockLauncher{report: &domain.LaunchReport{Started: []domain.Title{{ID: 9}}}}
	clock := clockwork.NewFakeClock()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, launcher, nil, clock)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDAutoIdle,
		Name:     "Auto Idle",
		Interval: time.Hour,
		NextRun:  clock.Now().Add(-time.Minute),
		Enabled:  true,
	}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDCredentialsCheck,
		Interval: time.Hour,
		NextRun:  clock.Now().Add(time.Minute),
		Enabled:  true,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.Equal(t, 1, launcher.callCount())

	task, err := store.GetTask(ctx, domain.TaskIDAutoIdle)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Hour), task.NextRun)
	assert.Equal(t, clock.Now(), task.LastSuccess)
	assert.Empty(t, task.LastError)

	history, err := scheduler.History(ctx, domain.TaskIDAutoIdle, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Equal(t, 1, history[0].Titles)
	assert.Equal(t, 1, store.prunes)

	none, err := scheduler.History(ctx, domain.TaskIDCredentialsCheck, 10)
	require.NoError(t, err)
	assert.Empty(t, none, "task not yet due")
}

func TestScheduler_CheckAndRunDueTasks_ListError(t *testing.T) {
	store := newMockSchedulerStore()
	store.listErr = errors.New("locked")
	launcher := &mockLauncher{}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, launcher, nil, nil)

	scheduler.checkAndRunDueTasks(context.Background())
	scheduler.wg.Wait()
	assert.Equal(t, 0, launcher.callCount())
}

func TestScheduler_RunTask_RecordsFailure(t *testing.T) {
	store := newMockSchedulerStore()
	farming := &mockFarming{checkErr: domain.ErrCredentialsExpired}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, nil, farming, clockwork.NewFakeClock())
	ctx := context.Background()

	scheduler.runTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDCredentialsCheck, Interval: time.Hour, Enabled: true})
	scheduler.wg.Wait()

	task, err := store.GetTask(ctx, domain.TaskIDCredentialsCheck)
	require.NoError(t, err)
	assert.Equal(t, domain.ErrCredentialsExpired.Error(), task.LastError)
	assert.True(t, task.LastSuccess.IsZero())

	history, err := scheduler.History(ctx, domain.TaskIDCredentialsCheck, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.Equal(t, domain.ErrCredentialsExpired.Error(), history[0].Error)
}

func TestScheduler_RunTask_UnknownTaskID(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, nil, nil, nil)

	scheduler.runTask(context.Background(), &domain.ScheduledTask{ID: "unknown-task", Enabled: true})
	scheduler.wg.Wait()

	history, err := scheduler.History(context.Background(), "unknown-task", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}
