package domain

import "errors"

// Domain errors represent automation failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates a port was not wired.
	ErrNotImplemented = errors.New("not implemented")

	// Host Errors.

	// ErrHostUnavailable indicates the host application is not running.
	ErrHostUnavailable = errors.New("host not running")

	// ErrIdentityMismatch indicates the host reports a different active account.
	// Reported to the user and never retried automatically.
	ErrIdentityMismatch = errors.New("account mismatch")

	// ErrTransientLaunch indicates a title failed to start for an unspecified reason.
	ErrTransientLaunch = errors.New("title failed to start")

	// ErrStopFailure indicates the host rejected a stop command.
	// Stop failures are logged and recorded, never returned to callers.
	ErrStopFailure = errors.New("title failed to stop")

	// ErrSessionLimit indicates the concurrent session cap is reached.
	ErrSessionLimit = errors.New("session limit reached")

	// ErrRegistryClosed indicates the session registry has been torn down.
	ErrRegistryClosed = errors.New("session registry closed")

	// Automation Errors.

	// ErrNoTitles indicates there is nothing to automate.
	ErrNoTitles = errors.New("no titles configured")

	// ErrNoIdentity indicates no account identity is configured.
	ErrNoIdentity = errors.New("no identity configured")

	// ErrAccessDenied indicates achievement data is not reachable (private profile).
	ErrAccessDenied = errors.New("achievement data not accessible")

	// ErrUnlockInProgress indicates an unlock run is already active.
	ErrUnlockInProgress = errors.New("unlock run in progress")

	// ErrFarmingInProgress indicates a farming run is already active.
	ErrFarmingInProgress = errors.New("farming in progress")

	// ErrFarmingStopped indicates Stop was called before Start finished.
	ErrFarmingStopped = errors.New("farming stopped while starting")

	// Credential Errors.

	// ErrMissingCredentials indicates no community session credentials are stored.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrCredentialsExpired indicates stored credentials were rejected and purged.
	// Requires explicit re-authentication.
	ErrCredentialsExpired = errors.New("credentials outdated")

	// ErrValidatorUnavailable indicates the validation service could not be reached.
	ErrValidatorUnavailable = errors.New("validation service unreachable")
)
