package driving

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// CredentialsService manages community session credentials for the active identity.
type CredentialsService interface {
	// Save stores credentials. SessionID and LoginSecure are required.
	Save(ctx context.Context, creds domain.SessionCredentials) error

	// Get returns stored credentials, or nil when none exist.
	Get(ctx context.Context) (*domain.SessionCredentials, error)

	// Clear removes the stored credentials.
	Clear(ctx context.Context) error
}
