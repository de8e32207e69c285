package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
)

// Ensure ListService implements the interface.
var _ driving.ListService = (*ListService)(nil)

// ListService edits the persisted title lists of the current identity.
type ListService struct {
	store    driven.ListStore
	identity driven.IdentityProvider
}

// NewListService creates a new list service.
func NewListService(store driven.ListStore, identity driven.IdentityProvider) *ListService {
	return &ListService{
		store:    store,
		identity: identity,
	}
}

// Get returns the titles of a list in order.
func (s *ListService) Get(ctx context.Context, name domain.ListName) ([]domain.Title, error) {
	id, err := s.resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.store.GetList(ctx, id, name)
}

// Add appends a title, or renames it in place if already listed.
func (s *ListService) Add(ctx context.Context, name domain.ListName, title domain.Title) error {
	if title.ID <= 0 {
		return fmt.Errorf("%w: title id must be positive", domain.ErrInvalidInput)
	}
	id, err := s.resolve(ctx, name)
	if err != nil {
		return err
	}
	titles, err := s.store.GetList(ctx, id, name)
	if err != nil {
		return err
	}
	for i := range titles {
		if titles[i].ID == title.ID {
			titles[i].Name = title.Name
			return s.store.SaveList(ctx, id, name, titles)
		}
	}
	return s.store.SaveList(ctx, id, name, append(titles, title))
}

// Remove drops a title. Missing titles are ignored.
func (s *ListService) Remove(ctx context.Context, name domain.ListName, titleID int) error {
	id, err := s.resolve(ctx, name)
	if err != nil {
		return err
	}
	return removeFromList(ctx, s.store, id, name, titleID)
}

// Clear empties a list.
func (s *ListService) Clear(ctx context.Context, name domain.ListName) error {
	id, err := s.resolve(ctx, name)
	if err != nil {
		return err
	}
	return s.store.SaveList(ctx, id, name, nil)
}

func (s *ListService) resolve(ctx context.Context, name domain.ListName) (string, error) {
	if s.store == nil || s.identity == nil {
		return "", domain.ErrNotImplemented
	}
	if !name.IsValid() {
		return "", fmt.Errorf("%w: unknown list %q", domain.ErrInvalidInput, name)
	}
	return s.identity.Current(ctx)
}

// removeFromList is shared with the automation services, which prune
// finished titles from their lists.
func removeFromList(ctx context.Context, store driven.ListStore, identity string, name domain.ListName, titleID int) error {
	titles, err := store.GetList(ctx, identity, name)
	if err != nil {
		return err
	}
	kept := titles[:0]
	for _, t := range titles {
		if t.ID != titleID {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(titles) {
		return nil
	}
	return store.SaveList(ctx, identity, name, kept)
}
