package driven

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// CredentialsStore persists community session credentials, one set per identity.
type CredentialsStore interface {
	// Save stores credentials. Creates if new, updates if exists.
	Save(ctx context.Context, creds domain.SessionCredentials) error

	// Get retrieves credentials for an identity.
	// Returns nil and no error if none are stored.
	Get(ctx context.Context, identity string) (*domain.SessionCredentials, error)

	// Delete removes credentials for an identity. Deleting nothing is not an error.
	Delete(ctx context.Context, identity string) error
}

// CredentialValidator checks credentials against the community site.
type CredentialValidator interface {
	// Validate returns the profile the credentials resolve to.
	// An explicit rejection returns nil and no error.
	// An unreachable service returns an error wrapping domain.ErrValidatorUnavailable.
	Validate(ctx context.Context, creds domain.SessionCredentials) (*domain.ProfileSummary, error)
}
