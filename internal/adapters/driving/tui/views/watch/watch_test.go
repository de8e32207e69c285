package watch

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/idlekit/internal/core/domain"
)

func session(id int, name string, budget int, remaining time.Duration) domain.SessionSnapshot {
	s := domain.SessionSnapshot{
		IdleSession: domain.IdleSession{
			Title:         domain.Title{ID: id, Name: name},
			Kind:          domain.SessionIdle,
			BudgetMinutes: budget,
		},
		Remaining: remaining,
	}
	if budget > 0 {
		s.StopAt = time.Date(2024, 3, 9, 13, 0, 0, 0, time.UTC)
	}
	return s
}

func TestRows(t *testing.T) {
	msg := messages.StateLoaded{
		Running: []int{730, 400},
		Sessions: []domain.SessionSnapshot{
			session(400, "Portal", 30, 90*time.Second),
			session(620, "Portal 2", 0, 0),
		},
	}
	msg.Sessions[1].LastStopError = "helper refused"

	rows := Rows(msg)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"400", "Portal", "idle", "running", "00:01:30", ""}, []string(rows[0]))
	assert.Equal(t, []string{"620", "Portal 2", "idle", "stopping", "unlimited", "helper refused"}, []string(rows[1]))
	assert.Equal(t, "730", rows[2][0])
	assert.Equal(t, "external", rows[2][3])
}

func TestRows_Empty(t *testing.T) {
	assert.Empty(t, Rows(messages.StateLoaded{}))
}

func TestNewView_NilDeps(t *testing.T) {
	v := NewView(nil, nil)

	require.NotNil(t, v)
	assert.NotNil(t, v.styles)
	assert.NotNil(t, v.keymap)
	assert.Equal(t, 0, v.SelectedTitle())
}

func TestView_EmptyState(t *testing.T) {
	v := NewView(nil, nil)
	v.SetState(messages.StateLoaded{})

	out := v.View()
	assert.Contains(t, out, "No titles are being idled.")
	assert.Contains(t, out, "not available")
}

func TestView_RendersSessionsAndUnlock(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(120, 40)
	current := domain.Title{ID: 400, Name: "Portal"}
	v.SetState(messages.StateLoaded{
		Running:  []int{400},
		Sessions: []domain.SessionSnapshot{session(400, "Portal", 0, 0)},
		Unlock: &domain.UnlockSnapshot{
			RunID:               "run-1",
			CurrentTitle:        &current,
			UnlockedCount:       2,
			RemainingForCurrent: 3,
			QueueLength:         2,
			NextUnlockEta:       5 * time.Minute,
			Phase:               domain.UnlockWaitingForSchedule,
		},
		Farming: &domain.FarmingSnapshot{},
	})

	out := v.View()
	assert.Contains(t, out, "Portal")
	assert.Contains(t, out, "waiting_for_schedule")
	assert.Contains(t, out, "2 unlocked, 3 remaining")
	assert.Contains(t, out, "Queue:    1/2")
	assert.Contains(t, out, "00:05:00")
	assert.Contains(t, out, "inactive")
	assert.Equal(t, 400, v.SelectedTitle())
}

func TestView_IdleUnlocker(t *testing.T) {
	v := NewView(nil, nil)
	v.SetState(messages.StateLoaded{Unlock: &domain.UnlockSnapshot{Phase: domain.UnlockIdle}})

	assert.Contains(t, v.View(), "no run")
}

func TestView_Farming(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(120, 40)
	v.SetState(messages.StateLoaded{
		Farming: &domain.FarmingSnapshot{
			Active: true,
			Step:   1,
			Targets: []domain.FarmingTarget{
				{Title: domain.Title{ID: 500, Name: "Farm"}, Initial: 4, Remaining: 1, Target: 4},
			},
		},
	})

	out := v.View()
	assert.Contains(t, out, "Step: 1")
	assert.Contains(t, out, "Farm (500) 3/4")
}

func TestView_StopFailures(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(120, 40)
	v.SetState(messages.StateLoaded{
		StopFailures: []domain.StopRecord{{TitleID: 400, Error: "access denied"}},
	})

	assert.Contains(t, v.View(), "1 failed stop(s); last for 400: access denied")
}

func TestView_ToggleHelp(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(120, 40)
	assert.NotContains(t, v.View(), "stop farming")

	v.ToggleHelp()
	assert.Contains(t, v.View(), "f: stop farming")
}

func TestView_UpdateMovesCursor(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(120, 40)
	v.SetState(messages.StateLoaded{Running: []int{400, 620}})

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 620, v.SelectedTitle())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 400, v.SelectedTitle())
}
