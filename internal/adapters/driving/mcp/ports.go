package mcp

import (
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Registry manages idle sessions.
	Registry driving.SessionRegistry

	// Launcher launches the auto-idle list.
	Launcher driving.AutoIdleLauncher

	// Farming runs batch card farming.
	Farming driving.FarmingOrchestrator

	// Unlocker runs the achievement unlocker.
	Unlocker driving.UnlockScheduler
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Registry == nil {
		return ErrMissingRegistry
	}
	// The automation services are optional; their tools report ErrServiceUnavailable.
	return nil
}
