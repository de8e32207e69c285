package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore is an in-memory implementation of driven.SettingsStore.
type SettingsStore struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

// NewSettingsStore creates a new in-memory settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{
		values: make(map[string]map[string]string),
	}
}

// Get returns the value for key and whether it exists.
func (s *SettingsStore) Get(_ context.Context, identity, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[identity][key]
	return v, ok, nil
}

// Set stores value for key.
func (s *SettingsStore) Set(_ context.Context, identity, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values[identity] == nil {
		s.values[identity] = make(map[string]string)
	}
	s.values[identity][key] = value
	return nil
}

// Delete removes key.
func (s *SettingsStore) Delete(_ context.Context, identity, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values[identity], key)
	return nil
}

// All returns a copy of every stored value for identity.
func (s *SettingsStore) All(_ context.Context, identity string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values[identity]))
	maps.Copy(out, s.values[identity])
	return out, nil
}
