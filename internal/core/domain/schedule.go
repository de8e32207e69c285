package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// TimeOfDay is a wall-clock time within a day.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: time of day %q", ErrInvalidInput, s)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: time of day %q out of range", ErrInvalidInput, s)
	}
	return t, nil
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// String formats as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ScheduleWindow is a daily window during which unlocking is allowed.
// A window whose To is before From wraps midnight.
type ScheduleWindow struct {
	// Enabled turns the window on. A disabled window always allows.
	Enabled bool `json:"enabled"`

	// From is the inclusive start of the window.
	From TimeOfDay `json:"from"`

	// To is the exclusive end of the window.
	To TimeOfDay `json:"to"`
}

// Contains reports whether now falls inside the window.
func (w ScheduleWindow) Contains(now time.Time) bool {
	if !w.Enabled {
		return true
	}
	cur := now.Hour()*60 + now.Minute()
	from, to := w.From.Minutes(), w.To.Minutes()
	if to < from {
		return cur >= from || cur < to
	}
	return cur >= from && cur < to
}

// JitterRange is an inclusive range of minutes between unlocks.
type JitterRange struct {
	MinMinutes int `json:"min_minutes"`
	MaxMinutes int `json:"max_minutes"`
}

// Validate checks the range is usable.
func (j JitterRange) Validate() error {
	if j.MinMinutes < 0 || j.MaxMinutes < j.MinMinutes {
		return fmt.Errorf("%w: interval %d-%d", ErrInvalidInput, j.MinMinutes, j.MaxMinutes)
	}
	return nil
}

// Sample draws a delay uniformly from [min, max] minutes at millisecond resolution.
func (j JitterRange) Sample(r *rand.Rand) time.Duration {
	lo := int64(j.MinMinutes) * int64(time.Minute/time.Millisecond)
	span := int64(j.MaxMinutes-j.MinMinutes) * int64(time.Minute/time.Millisecond)
	if span <= 0 {
		return time.Duration(lo) * time.Millisecond
	}
	return time.Duration(lo+r.Int64N(span+1)) * time.Millisecond
}

// FormatCountdown formats d as HH:MM:SS. Negative durations format as zero.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
