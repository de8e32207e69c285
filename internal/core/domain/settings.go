package domain

import (
	"fmt"
	"strconv"
)

// Setting keys stored per identity.
const (
	SettingMaxIdleMinutes        = "general.max_idle_minutes"
	SettingUnlockIntervalMin     = "unlocker.interval_min"
	SettingUnlockIntervalMax     = "unlocker.interval_max"
	SettingUnlockScheduleEnabled = "unlocker.schedule_enabled"
	SettingUnlockScheduleFrom    = "unlocker.schedule_from"
	SettingUnlockScheduleTo      = "unlocker.schedule_to"
	SettingUnlockIdle            = "unlocker.idle"
	SettingUnlockIncludeHidden   = "unlocker.include_hidden"
	SettingUnlockNextTask        = "unlocker.next_task"
	SettingFarmAllTitles         = "farming.all_titles"
	SettingFarmUserSummary       = "farming.user_summary"
)

// Per-title setting fields, used with TitleSettingKey.
const (
	TitleFieldMaxIdleMinutes        = "max_idle_minutes"
	TitleFieldMaxAchievementUnlocks = "max_achievement_unlocks"
	TitleFieldMaxCardDrops          = "max_card_drops"
)

// TitleSettingKey returns the key for a per-title setting.
func TitleSettingKey(titleID int, field string) string {
	return "title." + strconv.Itoa(titleID) + "." + field
}

// NextTask names the automation chained after an unlock run completes.
type NextTask string

// Next tasks.
const (
	NextTaskNone     NextTask = ""
	NextTaskAutoIdle NextTask = "auto_idle"
	NextTaskFarming  NextTask = "farming"
)

// IsValid returns true if the task is recognised.
func (t NextTask) IsValid() bool {
	switch t {
	case NextTaskNone, NextTaskAutoIdle, NextTaskFarming:
		return true
	default:
		return false
	}
}

// GeneralSettings apply to every title.
type GeneralSettings struct {
	// MaxIdleMinutes overrides per-title budgets when positive.
	MaxIdleMinutes int `json:"max_idle_minutes"`
}

// UnlockerSettings configures the achievement unlock scheduler.
type UnlockerSettings struct {
	Interval      JitterRange    `json:"interval"`
	Schedule      ScheduleWindow `json:"schedule"`
	Idle          bool           `json:"idle"`
	IncludeHidden bool           `json:"include_hidden"`
	NextTask      NextTask       `json:"next_task,omitempty"`
}

// FarmingSettings configures batch farming.
type FarmingSettings struct {
	// AllTitles farms every title with drops instead of the curated list.
	AllTitles bool `json:"all_titles"`
}

// TitleSettings are per-title limits. Zero means unlimited.
type TitleSettings struct {
	MaxIdleMinutes        int `json:"max_idle_minutes"`
	MaxAchievementUnlocks int `json:"max_achievement_unlocks"`
	MaxCardDrops          int `json:"max_card_drops"`
}

// AutomationSettings aggregates the per-identity settings.
type AutomationSettings struct {
	General  GeneralSettings  `json:"general"`
	Unlocker UnlockerSettings `json:"unlocker"`
	Farming  FarmingSettings  `json:"farming"`
}

// DefaultAutomationSettings returns the settings used when nothing is stored.
func DefaultAutomationSettings() AutomationSettings {
	return AutomationSettings{
		Unlocker: UnlockerSettings{
			Interval: JitterRange{MinMinutes: 30, MaxMinutes: 130},
			Schedule: ScheduleWindow{
				Enabled: false,
				From:    TimeOfDay{Hour: 8, Minute: 30},
				To:      TimeOfDay{Hour: 23, Minute: 0},
			},
			Idle:          true,
			IncludeHidden: true,
		},
	}
}

// EffectiveBudget returns the idle budget for a manual session.
// A positive global budget wins over the per-title value.
func EffectiveBudget(general GeneralSettings, title TitleSettings) int {
	if general.MaxIdleMinutes > 0 {
		return general.MaxIdleMinutes
	}
	if title.MaxIdleMinutes > 0 {
		return title.MaxIdleMinutes
	}
	return 0
}

// ValidateSetting checks that value is acceptable for key.
func ValidateSetting(key, value string) error {
	switch key {
	case SettingMaxIdleMinutes, SettingUnlockIntervalMin, SettingUnlockIntervalMax:
		return validateNonNegativeInt(key, value)
	case SettingUnlockScheduleEnabled, SettingUnlockIdle, SettingUnlockIncludeHidden, SettingFarmAllTitles:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %s must be true or false", ErrInvalidInput, key)
		}
		return nil
	case SettingUnlockScheduleFrom, SettingUnlockScheduleTo:
		_, err := ParseTimeOfDay(value)
		return err
	case SettingUnlockNextTask:
		if !NextTask(value).IsValid() {
			return fmt.Errorf("%w: unknown next task %q", ErrInvalidInput, value)
		}
		return nil
	}

	var id int
	var field string
	if n, _ := fmt.Sscanf(key, "title.%d.%s", &id, &field); n == 2 {
		switch field {
		case TitleFieldMaxIdleMinutes, TitleFieldMaxAchievementUnlocks, TitleFieldMaxCardDrops:
			return validateNonNegativeInt(key, value)
		}
	}
	return fmt.Errorf("%w: unknown setting %q", ErrInvalidInput, key)
}

func validateNonNegativeInt(key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidInput, key)
	}
	return nil
}
