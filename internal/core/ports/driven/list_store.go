package driven

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// ListStore persists ordered title lists per identity.
type ListStore interface {
	// GetList returns the list in stored order. A missing list is empty.
	GetList(ctx context.Context, identity string, name domain.ListName) ([]domain.Title, error)

	// SaveList replaces the list.
	SaveList(ctx context.Context, identity string, name domain.ListName, titles []domain.Title) error
}
