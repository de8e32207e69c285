package tui

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
)

// mockRegistry implements driving.SessionRegistry for testing.
type mockRegistry struct {
	mu       sync.Mutex
	running  []int
	sessions []domain.SessionSnapshot
	failures []domain.StopRecord
	err      error
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{}
}

func (m *mockRegistry) Start(_ context.Context, _ domain.Title, _ bool) (domain.StartResult, error) {
	return domain.StartResult{Started: true}, nil
}

func (m *mockRegistry) Stop(_ context.Context, _ domain.Title) {}

func (m *mockRegistry) StartBulk(_ context.Context, _ []domain.Title) error { return nil }

func (m *mockRegistry) StopBulk(_ context.Context) {}

func (m *mockRegistry) Running(_ context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.running), m.err
}

func (m *mockRegistry) Snapshot() []domain.SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sessions)
}

func (m *mockRegistry) StopFailures() []domain.StopRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.failures)
}

func (m *mockRegistry) CancelAll() {}

// mockUnlocker implements driving.UnlockScheduler for testing.
type mockUnlocker struct {
	mu        sync.Mutex
	snapshot  domain.UnlockSnapshot
	cancelled int
}

func (m *mockUnlocker) Run(_ context.Context) error { return nil }

func (m *mockUnlocker) Start(_ context.Context) error { return nil }

func (m *mockUnlocker) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled++
	m.snapshot.Phase = domain.UnlockIdle
}

func (m *mockUnlocker) Wait() {}

func (m *mockUnlocker) Snapshot() domain.UnlockSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// mockFarming implements driving.FarmingOrchestrator for testing.
type mockFarming struct {
	mu       sync.Mutex
	snapshot domain.FarmingSnapshot
	stops    int
}

func (m *mockFarming) Start(_ context.Context) (*domain.FarmingReport, error) {
	return &domain.FarmingReport{}, nil
}

func (m *mockFarming) Stop(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.snapshot.Active = false
}

func (m *mockFarming) CheckCredentials(_ context.Context) (*domain.ProfileSummary, error) {
	return nil, nil
}

func (m *mockFarming) Snapshot() domain.FarmingSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

var (
	_ driving.SessionRegistry     = (*mockRegistry)(nil)
	_ driving.UnlockScheduler     = (*mockUnlocker)(nil)
	_ driving.FarmingOrchestrator = (*mockFarming)(nil)
)
