package services

import (
	"context"
	"strconv"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService resolves per-identity automation settings over defaults.
type SettingsService struct {
	store    driven.SettingsStore
	identity driven.IdentityProvider
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store driven.SettingsStore, identity driven.IdentityProvider) *SettingsService {
	return &SettingsService{
		store:    store,
		identity: identity,
	}
}

// Get returns the automation settings, falling back to defaults for
// missing or unparsable values.
func (s *SettingsService) Get(ctx context.Context) (domain.AutomationSettings, error) {
	raw, err := s.Raw(ctx)
	if err != nil {
		return domain.AutomationSettings{}, err
	}
	return parseAutomationSettings(raw), nil
}

// Title returns per-title overrides. Missing values are zero.
func (s *SettingsService) Title(ctx context.Context, titleID int) (domain.TitleSettings, error) {
	raw, err := s.Raw(ctx)
	if err != nil {
		return domain.TitleSettings{}, err
	}
	return parseTitleSettings(raw, titleID), nil
}

// IdleBudget returns the effective idle budget in minutes for a title.
func (s *SettingsService) IdleBudget(ctx context.Context, titleID int) (int, error) {
	raw, err := s.Raw(ctx)
	if err != nil {
		return 0, err
	}
	general := domain.GeneralSettings{MaxIdleMinutes: getInt(raw, domain.SettingMaxIdleMinutes, 0)}
	return domain.EffectiveBudget(general, parseTitleSettings(raw, titleID)), nil
}

// Set validates and stores a single setting.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if err := domain.ValidateSetting(key, value); err != nil {
		return err
	}
	id, err := s.currentIdentity(ctx)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, id, key, value)
}

// Reset removes a setting so its default applies again.
func (s *SettingsService) Reset(ctx context.Context, key string) error {
	id, err := s.currentIdentity(ctx)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, id, key)
}

// Raw returns every stored value for the current identity.
func (s *SettingsService) Raw(ctx context.Context) (map[string]string, error) {
	id, err := s.currentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.All(ctx, id)
}

func (s *SettingsService) currentIdentity(ctx context.Context) (string, error) {
	if s.store == nil || s.identity == nil {
		return "", domain.ErrNotImplemented
	}
	return s.identity.Current(ctx)
}

func parseAutomationSettings(raw map[string]string) domain.AutomationSettings {
	settings := domain.DefaultAutomationSettings()
	def := settings.Unlocker

	settings.General.MaxIdleMinutes = getInt(raw, domain.SettingMaxIdleMinutes, 0)

	interval := domain.JitterRange{
		MinMinutes: getInt(raw, domain.SettingUnlockIntervalMin, def.Interval.MinMinutes),
		MaxMinutes: getInt(raw, domain.SettingUnlockIntervalMax, def.Interval.MaxMinutes),
	}
	if interval.Validate() == nil {
		settings.Unlocker.Interval = interval
	}

	settings.Unlocker.Schedule = domain.ScheduleWindow{
		Enabled: getBool(raw, domain.SettingUnlockScheduleEnabled, def.Schedule.Enabled),
		From:    getTimeOfDay(raw, domain.SettingUnlockScheduleFrom, def.Schedule.From),
		To:      getTimeOfDay(raw, domain.SettingUnlockScheduleTo, def.Schedule.To),
	}
	settings.Unlocker.Idle = getBool(raw, domain.SettingUnlockIdle, def.Idle)
	settings.Unlocker.IncludeHidden = getBool(raw, domain.SettingUnlockIncludeHidden, def.IncludeHidden)
	if next := domain.NextTask(raw[domain.SettingUnlockNextTask]); next.IsValid() {
		settings.Unlocker.NextTask = next
	}

	settings.Farming.AllTitles = getBool(raw, domain.SettingFarmAllTitles, false)
	return settings
}

func parseTitleSettings(raw map[string]string, titleID int) domain.TitleSettings {
	return domain.TitleSettings{
		MaxIdleMinutes:        getInt(raw, domain.TitleSettingKey(titleID, domain.TitleFieldMaxIdleMinutes), 0),
		MaxAchievementUnlocks: getInt(raw, domain.TitleSettingKey(titleID, domain.TitleFieldMaxAchievementUnlocks), 0),
		MaxCardDrops:          getInt(raw, domain.TitleSettingKey(titleID, domain.TitleFieldMaxCardDrops), 0),
	}
}

func getInt(raw map[string]string, key string, def int) int {
	v, ok := raw[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getBool(raw map[string]string, key string, def bool) bool {
	v, ok := raw[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getTimeOfDay(raw map[string]string, key string, def domain.TimeOfDay) domain.TimeOfDay {
	v, ok := raw[key]
	if !ok {
		return def
	}
	t, err := domain.ParseTimeOfDay(v)
	if err != nil {
		return def
	}
	return t
}
