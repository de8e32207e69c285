package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/idlekit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

type launcherFixture struct {
	host     *mockHost
	lists    *memory.ListStore
	diag     *mockDiag
	clock    *clockwork.FakeClock
	launcher *Launcher
}

func newLauncherFixture(t *testing.T, host driven.Host, titles ...domain.Title) *launcherFixture {
	t.Helper()
	lists := memory.NewListStore()
	require.NoError(t, lists.SaveList(context.Background(), testIdentity, domain.ListAutoIdle, titles))

	clock := clockwork.NewFakeClock()
	diag := &mockDiag{}
	registry := NewRegistry(host, nil, WithRegistryClock(clock))
	launcher := NewLauncher(host, registry, lists, memory.StaticIdentity(testIdentity), clock, DefaultLauncherConfig(), diag)

	f := &launcherFixture{lists: lists, diag: diag, clock: clock, launcher: launcher}
	if mh, ok := host.(*mockHost); ok {
		f.host = mh
	}
	return f
}

func (f *launcherFixture) trigger(t *testing.T, manual bool) (*domain.LaunchReport, error) {
	t.Helper()
	stop := pumpClock(f.clock, time.Minute)
	defer stop()
	return f.launcher.Trigger(context.Background(), manual)
}

func sampleTitles(n int) []domain.Title {
	titles := make([]domain.Title, n)
	for i := range titles {
		titles[i] = domain.Title{ID: 100 + i, Name: "Title"}
	}
	return titles
}

func TestLauncher_StartsAllTitles(t *testing.T) {
	f := newLauncherFixture(t, newMockHost(), sampleTitles(3)...)

	report, err := f.trigger(t, true)
	require.NoError(t, err)
	assert.Len(t, report.Started, 3)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 1, report.Attempts)
	assert.False(t, report.GaveUp)
}

// barrierHost fails a start unless every expected start is in flight at once.
type barrierHost struct {
	*mockHost
	arrived sync.WaitGroup
}

func (b *barrierHost) StartSession(ctx context.Context, title domain.Title) error {
	b.arrived.Done()
	done := make(chan struct{})
	go func() {
		b.arrived.Wait()
		close(done)
	}()
	select {
	case <-done:
		return b.mockHost.StartSession(ctx, title)
	case <-time.After(2 * time.Second):
		return errHostDown
	}
}

func TestLauncher_LaunchesConcurrently(t *testing.T) {
	host := &barrierHost{mockHost: newMockHost()}
	host.arrived.Add(4)
	f := newLauncherFixture(t, host, sampleTitles(4)...)

	report, err := f.trigger(t, true)
	require.NoError(t, err)
	assert.Len(t, report.Started, 4)
	assert.Equal(t, 1, report.Attempts)
}

func TestLauncher_SucceedsOnThirdAttempt(t *testing.T) {
	host := newMockHost()
	titles := sampleTitles(2)
	host.failStarts[titles[1].ID] = 2
	f := newLauncherFixture(t, host, titles...)

	report, err := f.trigger(t, true)
	require.NoError(t, err)
	assert.Len(t, report.Started, 2)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 3, report.Attempts)
	assert.Equal(t, 3, host.starts(titles[1].ID))
	assert.Equal(t, 1, host.starts(titles[0].ID))
	assert.Equal(t, 2, f.diag.count("failed to start"))
	assert.Equal(t, 0, f.diag.count("giving up"))
}

func TestLauncher_ExhaustedTitleLoggedOnce(t *testing.T) {
	host := newMockHost()
	titles := sampleTitles(2)
	host.failStarts[titles[0].ID] = 100
	f := newLauncherFixture(t, host, titles...)

	report, err := f.trigger(t, true)
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, titles[0].ID, report.Failed[0].ID)
	assert.Equal(t, []domain.Title{titles[1]}, report.Started)
	assert.Equal(t, 3, report.Attempts)
	assert.Equal(t, 3, host.starts(titles[0].ID))
	assert.Equal(t, 1, f.diag.count("giving up"))
}

func TestLauncher_EmptyList(t *testing.T) {
	f := newLauncherFixture(t, newMockHost())

	_, err := f.trigger(t, true)
	assert.ErrorIs(t, err, domain.ErrNoTitles)

	report, err := f.trigger(t, false)
	require.NoError(t, err)
	assert.Empty(t, report.Started)
	assert.Equal(t, 0, f.host.readyCalls)
}

func TestLauncher_SkipsAlreadyRunning(t *testing.T) {
	host := newMockHost()
	titles := sampleTitles(2)
	host.setRunning(titles[0].ID, true)
	f := newLauncherFixture(t, host, titles...)

	report, err := f.trigger(t, true)
	require.NoError(t, err)
	assert.Equal(t, []domain.Title{titles[0]}, report.AlreadyRunning)
	assert.Equal(t, []domain.Title{titles[1]}, report.Started)
	assert.Equal(t, 0, host.starts(titles[0].ID))
}

func TestLauncher_WaitsForReadiness(t *testing.T) {
	host := newMockHost()
	host.readyAfter = 2
	f := newLauncherFixture(t, host, sampleTitles(1)...)

	report, err := f.trigger(t, false)
	require.NoError(t, err)
	assert.False(t, report.GaveUp)
	assert.Len(t, report.Started, 1)
	// Two failed polls, the successful one, then the registry check.
	assert.Equal(t, 4, host.readyCalls)
}

func TestLauncher_GivesUpWhenHostNeverReady(t *testing.T) {
	host := newMockHost()
	host.ready = false
	f := newLauncherFixture(t, host, sampleTitles(1)...)

	report, err := f.trigger(t, false)
	require.NoError(t, err)
	assert.True(t, report.GaveUp)
	assert.Empty(t, report.Started)
	assert.Equal(t, 0, host.starts(100))
	assert.Equal(t, 1, f.diag.count("host not ready"))
}

func TestLauncher_CapsConfiguredTitles(t *testing.T) {
	f := newLauncherFixture(t, newMockHost(), sampleTitles(40)...)

	report, err := f.trigger(t, false)
	require.NoError(t, err)
	assert.Len(t, report.Configured, domain.MaxConcurrentSessions)
	assert.Len(t, report.Started, domain.MaxConcurrentSessions)
}

func TestLauncher_CancelledContext(t *testing.T) {
	host := newMockHost()
	host.ready = false
	f := newLauncherFixture(t, host, sampleTitles(1)...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.launcher.Trigger(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
}
