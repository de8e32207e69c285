package domain

import "time"

// UnlockPhase is a state of the unlock state machine.
type UnlockPhase string

// Unlock phases.
const (
	UnlockIdle               UnlockPhase = "idle"
	UnlockCheckingAccess     UnlockPhase = "checking_access"
	UnlockUnlocking          UnlockPhase = "unlocking"
	UnlockWaitingForSchedule UnlockPhase = "waiting_for_schedule"
	UnlockPrivate            UnlockPhase = "private"
	UnlockComplete           UnlockPhase = "complete"
)

// IsTerminal returns true for phases that end a run.
func (p UnlockPhase) IsTerminal() bool {
	return p == UnlockPrivate || p == UnlockComplete
}

// String returns the string representation.
func (p UnlockPhase) String() string {
	return string(p)
}

// UnlockTarget is one title in the unlock queue.
type UnlockTarget struct {
	Title   Title                `json:"title"`
	Pending []PendingAchievement `json:"pending"`

	// Unlocked counts successful unlocks of Pending so far.
	Unlocked int `json:"unlocked"`
}

// UnlockState is the explicit state of an unlock run.
type UnlockState struct {
	// RunID identifies the run in logs and history.
	RunID string `json:"run_id"`

	// Queue is the ordered list of titles with pending achievements.
	Queue []UnlockTarget `json:"queue"`

	// CurrentIndex is the position in Queue.
	CurrentIndex int `json:"current_index"`

	// UnlockedCountForCurrent is how many achievements of Queue[CurrentIndex] were handled.
	UnlockedCountForCurrent int `json:"unlocked_count_for_current"`

	// TotalUnlocked counts successful unlocks across the run.
	TotalUnlocked int `json:"total_unlocked"`

	// Phase is the current state machine phase.
	Phase UnlockPhase `json:"phase"`

	// NextUnlockAt is when the next unlock is due. Zero when none is scheduled.
	NextUnlockAt time.Time `json:"next_unlock_at,omitempty"`
}

// Current returns the active target, or nil past the end of the queue.
func (s *UnlockState) Current() *UnlockTarget {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Queue) {
		return nil
	}
	return &s.Queue[s.CurrentIndex]
}

// NextAchievement returns the achievement at the current position.
func (s *UnlockState) NextAchievement() (PendingAchievement, bool) {
	cur := s.Current()
	if cur == nil || s.UnlockedCountForCurrent >= len(cur.Pending) {
		return PendingAchievement{}, false
	}
	return cur.Pending[s.UnlockedCountForCurrent], true
}

// Advance moves past the current achievement, stepping to the next title
// when the current one is exhausted. It returns true when the title changed.
func (s *UnlockState) Advance() bool {
	cur := s.Current()
	if cur == nil {
		return false
	}
	s.UnlockedCountForCurrent++
	if s.UnlockedCountForCurrent < len(cur.Pending) {
		return false
	}
	s.CurrentIndex++
	s.UnlockedCountForCurrent = 0
	return true
}

// Record marks the current achievement handled and moves past it. Only a
// successful unlock counts toward TotalUnlocked. It returns the title that
// was current, with its success count, and whether the title is finished.
func (s *UnlockState) Record(success bool) (UnlockTarget, bool) {
	cur := s.Current()
	if cur == nil {
		return UnlockTarget{}, false
	}
	if success {
		cur.Unlocked++
		s.TotalUnlocked++
	}
	handled := *cur
	return handled, s.Advance()
}

// Exhausted reports whether the whole queue has been processed.
func (s *UnlockState) Exhausted() bool {
	return s.Current() == nil
}

// Snapshot builds a read-only view at now.
func (s *UnlockState) Snapshot(now time.Time) UnlockSnapshot {
	snap := UnlockSnapshot{
		RunID:         s.RunID,
		Phase:         s.Phase,
		UnlockedCount: s.UnlockedCountForCurrent,
		TotalUnlocked: s.TotalUnlocked,
		QueueLength:   len(s.Queue),
		CurrentIndex:  s.CurrentIndex,
	}
	if cur := s.Current(); cur != nil {
		title := cur.Title
		snap.CurrentTitle = &title
		snap.RemainingForCurrent = len(cur.Pending) - s.UnlockedCountForCurrent
	}
	if snap.Phase == "" {
		snap.Phase = UnlockIdle
	}
	if !s.NextUnlockAt.IsZero() {
		snap.NextUnlockAt = s.NextUnlockAt
		if eta := s.NextUnlockAt.Sub(now); eta > 0 {
			snap.NextUnlockEta = eta
		}
	}
	return snap
}

// UnlockSnapshot is the serializable read-only view of an unlock run.
type UnlockSnapshot struct {
	RunID               string        `json:"run_id,omitempty"`
	CurrentTitle        *Title        `json:"current_title,omitempty"`
	UnlockedCount       int           `json:"unlocked_count"`
	RemainingForCurrent int           `json:"remaining_for_current"`
	TotalUnlocked       int           `json:"total_unlocked"`
	QueueLength         int           `json:"queue_length"`
	CurrentIndex        int           `json:"current_index"`
	NextUnlockAt        time.Time     `json:"next_unlock_at,omitempty"`
	NextUnlockEta       time.Duration `json:"next_unlock_eta"`
	Phase               UnlockPhase   `json:"phase"`
}
