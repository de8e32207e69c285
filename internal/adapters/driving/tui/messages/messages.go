// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"time"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// Tick fires once per refresh interval.
type Tick struct {
	At time.Time
}

// StateLoaded carries one poll of the registry, unlocker and farming state.
type StateLoaded struct {
	// Running is the host's authoritative running list.
	Running []int

	// Sessions are the sessions this process tracks.
	Sessions []domain.SessionSnapshot

	// StopFailures are recent rejected stops.
	StopFailures []domain.StopRecord

	// Unlock is nil when no unlocker is wired.
	Unlock *domain.UnlockSnapshot

	// Farming is nil when no farming orchestrator is wired.
	Farming *domain.FarmingSnapshot

	// Err is set when the running list could not be read.
	Err error
}

// UnlockCancelled signals the unlock run was cancelled from the view.
type UnlockCancelled struct{}

// FarmingStopped signals the farming batch was stopped from the view.
type FarmingStopped struct{}

// Notice is a transient status bar message.
type Notice struct {
	Text string
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
