package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

// Ensure CredentialsStore implements the interface.
var _ driven.CredentialsStore = (*CredentialsStore)(nil)

// CredentialsStore is an in-memory implementation of driven.CredentialsStore.
type CredentialsStore struct {
	mu    sync.RWMutex
	creds map[string]domain.SessionCredentials
}

// NewCredentialsStore creates a new in-memory credentials store.
func NewCredentialsStore() *CredentialsStore {
	return &CredentialsStore{
		creds: make(map[string]domain.SessionCredentials),
	}
}

// Save stores credentials keyed by their identity.
func (s *CredentialsStore) Save(_ context.Context, creds domain.SessionCredentials) error {
	if creds.Identity == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[creds.Identity] = creds
	return nil
}

// Get returns credentials for identity, or nil.
func (s *CredentialsStore) Get(_ context.Context, identity string) (*domain.SessionCredentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[identity]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// Delete removes credentials for identity.
func (s *CredentialsStore) Delete(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, identity)
	return nil
}
