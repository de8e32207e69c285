package domain

import "time"

// RetryPolicy bounds how often a batch of titles is re-launched.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Delay is the pause between attempts.
	Delay time.Duration

	// SettleDelay is how long to wait after a launch before verifying it.
	SettleDelay time.Duration
}

// DefaultRetryPolicy returns the launch retry budget.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       5 * time.Second,
		SettleDelay: 2 * time.Second,
	}
}

// Attempts returns MaxAttempts, treating anything below one as one.
func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// LaunchReport summarises one auto-idle trigger.
type LaunchReport struct {
	// Configured is the capped list the launcher worked from.
	Configured []Title `json:"configured"`

	// AlreadyRunning holds titles that were running before launch.
	AlreadyRunning []Title `json:"already_running"`

	// Started holds titles confirmed running after launch.
	Started []Title `json:"started"`

	// Failed holds titles still pending once the retry budget ran out.
	Failed []Title `json:"failed"`

	// Attempts is how many launch attempts ran.
	Attempts int `json:"attempts"`

	// GaveUp is true when the host never became ready.
	GaveUp bool `json:"gave_up"`
}
