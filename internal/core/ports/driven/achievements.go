package driven

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// AchievementSource reads and unlocks in-title achievements.
type AchievementSource interface {
	// Fetch returns all achievements of a title.
	// Returns domain.ErrAccessDenied when the data is not reachable and
	// domain.ErrIdentityMismatch when the host runs a different account.
	Fetch(ctx context.Context, titleID int) ([]domain.Achievement, error)

	// Unlock unlocks one achievement.
	Unlock(ctx context.Context, titleID int, achievementID string) error
}

// AchievementOrderStore persists custom unlock orders.
type AchievementOrderStore interface {
	// GetOrder returns the order for a title, or nil when none is stored.
	GetOrder(ctx context.Context, identity string, titleID int) (*domain.AchievementOrder, error)

	// SaveOrder stores an order, replacing any existing one.
	SaveOrder(ctx context.Context, identity string, order domain.AchievementOrder) error
}
