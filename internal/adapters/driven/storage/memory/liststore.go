package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

// Ensure ListStore implements the interface.
var _ driven.ListStore = (*ListStore)(nil)

type listKey struct {
	identity string
	name     domain.ListName
}

// ListStore is an in-memory implementation of driven.ListStore.
type ListStore struct {
	mu    sync.RWMutex
	lists map[listKey][]domain.Title
}

// NewListStore creates a new in-memory list store.
func NewListStore() *ListStore {
	return &ListStore{
		lists: make(map[listKey][]domain.Title),
	}
}

// GetList returns a copy of the list.
func (s *ListStore) GetList(_ context.Context, identity string, name domain.ListName) ([]domain.Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lists[listKey{identity, name}]), nil
}

// SaveList replaces the list.
func (s *ListStore) SaveList(_ context.Context, identity string, name domain.ListName, titles []domain.Title) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[listKey{identity, name}] = slices.Clone(titles)
	return nil
}
