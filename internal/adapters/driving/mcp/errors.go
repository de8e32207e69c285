// Package mcp provides an MCP (Model Context Protocol) server adapter for idlekit.
// It lets MCP clients start and stop sessions, trigger automations and
// inspect the unlocker while the daemon or a serve command runs.
package mcp

import "errors"

// ErrMissingRegistry is returned when the session registry is not provided.
var ErrMissingRegistry = errors.New("mcp: session registry is required")

// ErrServiceUnavailable is returned by tools whose service was not wired.
var ErrServiceUnavailable = errors.New("mcp: service not available")
