// Package domain defines the core entities of idlekit.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Title: a host title that can be idled, unlocked or farmed
//   - IdleSession: an active automated presence in a title
//   - UnlockState: progress of the achievement unlock state machine
//   - ScheduleWindow: a daily wall-clock window for unlocking
//   - RetryPolicy: attempt budget shared by batch launchers
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
