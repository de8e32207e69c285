package driven

import "context"

// IdentityProvider resolves the active account identity.
type IdentityProvider interface {
	// Current returns the identity, or domain.ErrNoIdentity when none is configured.
	Current(ctx context.Context) (string, error)
}
