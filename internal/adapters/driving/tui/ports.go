// Package tui provides the terminal watch view for idlekit.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
)

// Ports aggregates the driving ports the watch view reads from.
type Ports struct {
	// Registry lists running and tracked sessions.
	Registry driving.SessionRegistry

	// Unlocker reports and cancels the unlock run. Optional.
	Unlocker driving.UnlockScheduler

	// Farming reports the farming batch. Optional.
	Farming driving.FarmingOrchestrator
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Registry == nil {
		return ErrMissingRegistry
	}
	return nil
}
