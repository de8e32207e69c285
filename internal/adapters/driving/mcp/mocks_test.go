package mcp

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
)

// mockRegistry is a mock implementation of driving.SessionRegistry.
type mockRegistry struct {
	mu       sync.Mutex
	running  []int
	tracked  []domain.SessionSnapshot
	failures []domain.StopRecord
	result   domain.StartResult
	err      error
	listErr  error
	started  []domain.Title
	stopped  []int
}

func (m *mockRegistry) Start(_ context.Context, title domain.Title, _ bool) (domain.StartResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, title)
	return m.result, m.err
}

func (m *mockRegistry) Stop(_ context.Context, title domain.Title) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = append(m.stopped, title.ID)
}

func (m *mockRegistry) StartBulk(_ context.Context, _ []domain.Title) error { return nil }

func (m *mockRegistry) StopBulk(_ context.Context) {}

func (m *mockRegistry) Running(_ context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.running), m.listErr
}

func (m *mockRegistry) Snapshot() []domain.SessionSnapshot { return m.tracked }

func (m *mockRegistry) StopFailures() []domain.StopRecord { return m.failures }

func (m *mockRegistry) CancelAll() {}

// mockLauncher is a mock implementation of driving.AutoIdleLauncher.
type mockLauncher struct {
	report *domain.LaunchReport
	err    error
	manual bool
}

func (m *mockLauncher) Trigger(_ context.Context, manual bool) (*domain.LaunchReport, error) {
	m.manual = manual
	return m.report, m.err
}

// mockFarming is a mock implementation of driving.FarmingOrchestrator.
type mockFarming struct {
	report  *domain.FarmingReport
	err     error
	stopped bool
}

func (m *mockFarming) Start(_ context.Context) (*domain.FarmingReport, error) {
	return m.report, m.err
}

func (m *mockFarming) Stop(_ context.Context) { m.stopped = true }

func (m *mockFarming) CheckCredentials(_ context.Context) (*domain.ProfileSummary, error) {
	return nil, nil
}

func (m *mockFarming) Snapshot() domain.FarmingSnapshot { return domain.FarmingSnapshot{} }

// mockUnlocker is a mock implementation of driving.UnlockScheduler.
type mockUnlocker struct {
	snapshot  domain.UnlockSnapshot
	startErr  error
	started   bool
	cancelled bool
}

func (m *mockUnlocker) Run(_ context.Context) error { return nil }

func (m *mockUnlocker) Start(_ context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	return nil
}

func (m *mockUnlocker) Cancel() { m.cancelled = true }

func (m *mockUnlocker) Wait() {}

func (m *mockUnlocker) Snapshot() domain.UnlockSnapshot { return m.snapshot }

var (
	_ driving.SessionRegistry     = (*mockRegistry)(nil)
	_ driving.AutoIdleLauncher    = (*mockLauncher)(nil)
	_ driving.FarmingOrchestrator = (*mockFarming)(nil)
	_ driving.UnlockScheduler     = (*mockUnlocker)(nil)
)
