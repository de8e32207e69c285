package driving

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// SettingsService manages per-identity automation settings.
type SettingsService interface {
	// Get returns the settings merged over defaults.
	Get(ctx context.Context) (domain.AutomationSettings, error)

	// Title returns the per-title limits.
	Title(ctx context.Context, titleID int) (domain.TitleSettings, error)

	// IdleBudget returns the budget, in minutes, for a manual session.
	IdleBudget(ctx context.Context, titleID int) (int, error)

	// Set validates and stores one setting.
	Set(ctx context.Context, key, value string) error

	// Reset removes one stored setting, restoring its default.
	Reset(ctx context.Context, key string) error

	// Raw returns every stored key/value.
	Raw(ctx context.Context) (map[string]string, error)
}
