package tui

import "errors"

var (
	ErrMissingRegistry = errors.New("tui: session registry is required")
	ErrInvalidPorts    = errors.New("tui: ports are nil")
)
