package memory

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

// Ensure StaticIdentity implements the interface.
var _ driven.IdentityProvider = StaticIdentity("")

// StaticIdentity is a fixed identity. The empty value reports domain.ErrNoIdentity.
type StaticIdentity string

// Current returns the identity.
func (s StaticIdentity) Current(_ context.Context) (string, error) {
	if s == "" {
		return "", domain.ErrNoIdentity
	}
	return string(s), nil
}
