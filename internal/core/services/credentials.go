package services

import (
	"context"
	"time"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
)

// Ensure CredentialsService implements the interface.
var _ driving.CredentialsService = (*CredentialsService)(nil)

// CredentialsService manages the community session credentials of the
// current identity.
type CredentialsService struct {
	store    driven.CredentialsStore
	identity driven.IdentityProvider
}

// NewCredentialsService creates a new credentials service.
func NewCredentialsService(store driven.CredentialsStore, identity driven.IdentityProvider) *CredentialsService {
	return &CredentialsService{
		store:    store,
		identity: identity,
	}
}

// Save creates or updates credentials. The identity defaults to the current one.
func (s *CredentialsService) Save(ctx context.Context, creds domain.SessionCredentials) error {
	if s.store == nil || s.identity == nil {
		return domain.ErrNotImplemented
	}
	if !creds.IsComplete() {
		return domain.ErrInvalidInput
	}
	id, err := s.identity.Current(ctx)
	if err != nil {
		return err
	}
	if creds.Identity == "" {
		creds.Identity = id
	}
	if creds.Identity != id {
		return domain.ErrIdentityMismatch
	}
	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = time.Now()
	}
	return s.store.Save(ctx, creds)
}

// Get returns the stored credentials, or nil if none exist.
func (s *CredentialsService) Get(ctx context.Context) (*domain.SessionCredentials, error) {
	if s.store == nil || s.identity == nil {
		return nil, domain.ErrNotImplemented
	}
	id, err := s.identity.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Clear removes the stored credentials.
func (s *CredentialsService) Clear(ctx context.Context) error {
	if s.store == nil || s.identity == nil {
		return domain.ErrNotImplemented
	}
	id, err := s.identity.Current(ctx)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}
