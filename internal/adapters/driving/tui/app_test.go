package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/idlekit/internal/core/domain"
)

type testPorts struct {
	registry *mockRegistry
	unlocker *mockUnlocker
	farming  *mockFarming
}

func newTestApp(t *testing.T) (*App, *testPorts) {
	t.Helper()
	tp := &testPorts{
		registry: newMockRegistry(),
		unlocker: &mockUnlocker{},
		farming:  &mockFarming{},
	}
	app, err := NewApp(&Ports{Registry: tp.registry, Unlocker: tp.unlocker, Farming: tp.farming})
	require.NoError(t, err)
	app.SetDimensions(120, 40)
	return app, tp
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(&Ports{Registry: newMockRegistry()})

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, DefaultRefreshInterval, app.interval)
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingRegistry)
	assert.Nil(t, app)
}

func TestApp_WithContextAndInterval(t *testing.T) {
	app, _ := newTestApp(t)

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")
	assert.Equal(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)

	app.WithInterval(0)
	assert.Equal(t, DefaultRefreshInterval, app.interval)
	app.WithInterval(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, app.interval)
}

func TestApp_Init(t *testing.T) {
	app, _ := newTestApp(t)

	assert.NotNil(t, app.Init())
}

func TestApp_View_NotReady(t *testing.T) {
	app, err := NewApp(&Ports{Registry: newMockRegistry()})
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Registry: newMockRegistry()})
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.ready)
	assert.Equal(t, 100, app.width)
	assert.Equal(t, 30, app.height)
}

func TestApp_Load(t *testing.T) {
	app, tp := newTestApp(t)
	tp.registry.running = []int{400}
	tp.registry.sessions = []domain.SessionSnapshot{{IdleSession: domain.IdleSession{
		Title: domain.Title{ID: 400, Name: "Portal"},
		Kind:  domain.SessionIdle,
	}}}
	tp.unlocker.snapshot = domain.UnlockSnapshot{RunID: "run-1", Phase: domain.UnlockUnlocking, QueueLength: 1}
	tp.farming.snapshot = domain.FarmingSnapshot{Active: true, Step: 2}

	msg, ok := app.load()().(messages.StateLoaded)
	require.True(t, ok)
	assert.Equal(t, []int{400}, msg.Running)
	require.Len(t, msg.Sessions, 1)
	require.NotNil(t, msg.Unlock)
	assert.Equal(t, domain.UnlockUnlocking, msg.Unlock.Phase)
	require.NotNil(t, msg.Farming)
	assert.Equal(t, 2, msg.Farming.Step)

	app.Update(msg)
	view := app.View()
	assert.Contains(t, view, "Portal")
	assert.Contains(t, view, "unlocking")
	assert.Contains(t, view, "1 session running")
}

func TestApp_Load_OptionalPortsMissing(t *testing.T) {
	app, err := NewApp(&Ports{Registry: newMockRegistry()})
	require.NoError(t, err)

	msg, ok := app.load()().(messages.StateLoaded)
	require.True(t, ok)
	assert.Nil(t, msg.Unlock)
	assert.Nil(t, msg.Farming)
}

func TestApp_Update_LoadError(t *testing.T) {
	app, tp := newTestApp(t)
	tp.registry.err = errors.New("host unavailable")

	app.Update(app.load()())

	assert.EqualError(t, app.Err(), "host unavailable")
	assert.Equal(t, status.StateError, app.bar.State())
	assert.Contains(t, app.View(), "Error: host unavailable")
}

func TestApp_Update_Tick(t *testing.T) {
	app, _ := newTestApp(t)

	model, cmd := app.Update(messages.Tick{At: time.Now()})

	assert.Equal(t, app, model)
	assert.NotNil(t, cmd)
}

func TestApp_Update_Quit(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(keyMsg('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_CancelUnlock(t *testing.T) {
	app, tp := newTestApp(t)
	tp.unlocker.snapshot = domain.UnlockSnapshot{RunID: "run-1", Phase: domain.UnlockWaitingForSchedule}

	_, cmd := app.Update(keyMsg('c'))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, messages.UnlockCancelled{}, msg)
	assert.Equal(t, 1, tp.unlocker.cancelled)

	_, cmd = app.Update(msg)
	assert.NotNil(t, cmd)
	assert.Equal(t, status.StateNotice, app.bar.State())
	assert.Equal(t, "Unlock run cancelled", app.bar.Message())
}

func TestApp_CancelUnlock_NoRun(t *testing.T) {
	app, tp := newTestApp(t)
	tp.unlocker.snapshot = domain.UnlockSnapshot{Phase: domain.UnlockComplete}

	_, cmd := app.Update(keyMsg('c'))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.Notice{Text: "No unlock run active"}, cmd())
	assert.Equal(t, 0, tp.unlocker.cancelled)
}

func TestApp_CancelUnlock_NoUnlocker(t *testing.T) {
	app, err := NewApp(&Ports{Registry: newMockRegistry()})
	require.NoError(t, err)

	_, cmd := app.Update(keyMsg('c'))
	assert.Nil(t, cmd)
	assert.Equal(t, "No unlocker in this process", app.bar.Message())
}

func TestApp_StopFarming(t *testing.T) {
	app, tp := newTestApp(t)
	tp.farming.snapshot = domain.FarmingSnapshot{Active: true}

	_, cmd := app.Update(keyMsg('f'))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.FarmingStopped{}, cmd())
	assert.Equal(t, 1, tp.farming.stops)

	_, cmd = app.Update(keyMsg('f'))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.Notice{Text: "Farming is not active"}, cmd())
}

func TestApp_NoticeOutlivesRefreshes(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(messages.Notice{Text: "Farming stopped"})
	for range noticeTicks - 1 {
		app.Update(messages.Tick{})
		app.Update(messages.StateLoaded{})
		assert.Equal(t, status.StateNotice, app.bar.State())
	}

	app.Update(messages.Tick{})
	app.Update(messages.StateLoaded{})
	assert.Equal(t, status.StateReady, app.bar.State())
}

func TestApp_HelpToggle(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(keyMsg('?'))
	assert.Contains(t, app.View(), "f: stop farming")
}

func TestApp_Update_ErrorOccurred(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.Equal(t, status.StateError, app.bar.State())
}
