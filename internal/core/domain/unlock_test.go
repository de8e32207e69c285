package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoTitleState() *UnlockState {
	return &UnlockState{
		Phase: UnlockUnlocking,
		Queue: []UnlockTarget{
			{Title: Title{ID: 1, Name: "One"}, Pending: []PendingAchievement{
				{Achievement: Achievement{ID: "a"}},
				{Achievement: Achievement{ID: "b"}},
			}},
			{Title: Title{ID: 2, Name: "Two"}, Pending: []PendingAchievement{
				{Achievement: Achievement{ID: "c"}},
			}},
		},
	}
}

func TestUnlockState_Advance(t *testing.T) {
	s := twoTitleState()

	next, ok := s.NextAchievement()
	require.True(t, ok)
	assert.Equal(t, "a", next.ID)

	assert.False(t, s.Advance())
	next, _ = s.NextAchievement()
	assert.Equal(t, "b", next.ID)

	assert.True(t, s.Advance())
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Equal(t, 0, s.UnlockedCountForCurrent)
	next, _ = s.NextAchievement()
	assert.Equal(t, "c", next.ID)

	assert.True(t, s.Advance())
	assert.True(t, s.Exhausted())
	_, ok = s.NextAchievement()
	assert.False(t, ok)
	assert.False(t, s.Advance())
}

func TestUnlockState_RecordCountsOnlySuccess(t *testing.T) {
	s := twoTitleState()

	handled, done := s.Record(false)
	assert.False(t, done)
	assert.Equal(t, 0, handled.Unlocked)
	assert.Equal(t, 0, s.TotalUnlocked)

	handled, done = s.Record(true)
	assert.True(t, done)
	assert.Equal(t, 1, handled.Title.ID)
	assert.Equal(t, 1, handled.Unlocked)
	assert.Equal(t, 1, s.TotalUnlocked)

	handled, done = s.Record(false)
	assert.True(t, done)
	assert.Equal(t, 2, handled.Title.ID)
	assert.Equal(t, 0, handled.Unlocked)
	assert.Equal(t, 1, s.TotalUnlocked)

	_, done = s.Record(true)
	assert.False(t, done)
	assert.Equal(t, 1, s.TotalUnlocked)
}

func TestUnlockState_Snapshot(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := twoTitleState()
	s.RunID = "run-1"
	s.TotalUnlocked = 1
	s.UnlockedCountForCurrent = 1
	s.NextUnlockAt = now.Add(90 * time.Second)

	snap := s.Snapshot(now)

	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, UnlockUnlocking, snap.Phase)
	require.NotNil(t, snap.CurrentTitle)
	assert.Equal(t, 1, snap.CurrentTitle.ID)
	assert.Equal(t, 1, snap.UnlockedCount)
	assert.Equal(t, 1, snap.RemainingForCurrent)
	assert.Equal(t, 2, snap.QueueLength)
	assert.Equal(t, 90*time.Second, snap.NextUnlockEta)
}

func TestUnlockState_SnapshotEmpty(t *testing.T) {
	var s UnlockState

	snap := s.Snapshot(time.Now())

	assert.Equal(t, UnlockIdle, snap.Phase)
	assert.Nil(t, snap.CurrentTitle)
	assert.Zero(t, snap.NextUnlockEta)
}

func TestUnlockPhase_IsTerminal(t *testing.T) {
	assert.True(t, UnlockComplete.IsTerminal())
	assert.True(t, UnlockPrivate.IsTerminal())
	assert.False(t, UnlockWaitingForSchedule.IsTerminal())
	assert.False(t, UnlockIdle.IsTerminal())
}
