package driving

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// ListService manages the persisted title lists.
type ListService interface {
	// Get returns a list in order.
	Get(ctx context.Context, name domain.ListName) ([]domain.Title, error)

	// Add appends a title; adding a present title updates its name in place.
	Add(ctx context.Context, name domain.ListName, title domain.Title) error

	// Remove drops a title. Removing a missing title is a no-op.
	Remove(ctx context.Context, name domain.ListName, titleID int) error

	// Clear empties the list.
	Clear(ctx context.Context, name domain.ListName) error
}
