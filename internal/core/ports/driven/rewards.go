package driven

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// RewardSource reports collectible reward drops.
type RewardSource interface {
	// DropsRemaining returns the drops left for one title.
	DropsRemaining(ctx context.Context, creds domain.SessionCredentials, titleID int) (int, error)

	// TitlesWithDrops returns every title that still has drops.
	TitlesWithDrops(ctx context.Context, creds domain.SessionCredentials) ([]domain.TitleDrops, error)
}
