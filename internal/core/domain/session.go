package domain

import "time"

// SessionKind distinguishes how a session was started.
type SessionKind string

// Session kinds.
const (
	// SessionIdle is a single-title session started by start().
	SessionIdle SessionKind = "idle"

	// SessionFarming is part of a bulk farming batch.
	SessionFarming SessionKind = "farming"
)

// IdleSession is an active automated presence in a title.
type IdleSession struct {
	// Title is the title being idled.
	Title Title `json:"title"`

	// Kind records whether the session is a single idle or part of a farming batch.
	Kind SessionKind `json:"kind"`

	// StartedAt is when the start command succeeded.
	StartedAt time.Time `json:"started_at"`

	// BudgetMinutes is the idle budget. Zero means unlimited.
	BudgetMinutes int `json:"budget_minutes"`

	// StopAt is when the deferred stop fires.
	// Zero when the session has no deferred stop.
	StopAt time.Time `json:"stop_at,omitempty"`
}

// Budgeted returns true if the session carries a deferred stop.
func (s IdleSession) Budgeted() bool {
	return !s.StopAt.IsZero()
}

// SessionSnapshot is a read-only view of a tracked session.
type SessionSnapshot struct {
	IdleSession

	// Remaining is the time until the deferred stop. Zero if unbudgeted.
	Remaining time.Duration `json:"remaining"`

	// LastStopError is set when the most recent stop for this title failed
	// and the session is still considered running.
	LastStopError string `json:"last_stop_error,omitempty"`
}

// StartResult describes the outcome of a single start call.
type StartResult struct {
	// Started is true when a new session was created.
	Started bool `json:"started"`

	// AlreadyRunning is true when the host already ran the title.
	// This is a warning, not an error.
	AlreadyRunning bool `json:"already_running"`

	// BudgetMinutes is the budget applied to the new session.
	BudgetMinutes int `json:"budget_minutes"`
}

// StopRecord captures a stop command the host rejected.
type StopRecord struct {
	// TitleID is the title that failed to stop.
	TitleID int `json:"title_id"`

	// At is when the failure happened.
	At time.Time `json:"at"`

	// Error is the host's error message.
	Error string `json:"error"`
}
