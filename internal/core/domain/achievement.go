package domain

import "sort"

// Achievement is one in-title achievement as reported by the helper.
type Achievement struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Achieved  bool    `json:"achieved"`
	Hidden    bool    `json:"hidden"`
	Percent   float64 `json:"percent"`
	Protected bool    `json:"protected_achievement"`
}

// OrderEntry positions one achievement in a custom unlock order.
type OrderEntry struct {
	// ID is the achievement ID.
	ID string `json:"id" yaml:"id"`

	// Skip removes the achievement from the run.
	Skip bool `json:"skip,omitempty" yaml:"skip,omitempty"`

	// DelayNextUnlock overrides the jitter after this unlock, in minutes.
	// Zero means use the jitter range.
	DelayNextUnlock int `json:"delay_next_unlock,omitempty" yaml:"delay_next_unlock,omitempty"`
}

// AchievementOrder is a user-defined unlock order for one title.
type AchievementOrder struct {
	TitleID int          `json:"title_id" yaml:"title_id"`
	Entries []OrderEntry `json:"entries" yaml:"entries"`
}

// PendingAchievement is an achievement queued for unlock.
type PendingAchievement struct {
	Achievement

	// DelayNextUnlock is the per-entry delay override, in minutes.
	DelayNextUnlock int `json:"delay_next_unlock,omitempty"`
}

// AnyProtected reports whether the title has server-protected achievements.
// Such titles cannot be unlocked from the client.
func AnyProtected(achievements []Achievement) bool {
	for _, a := range achievements {
		if a.Protected {
			return true
		}
	}
	return false
}

// PlanUnlocks filters achievements to the pending set and orders them.
// Entries named in order come first in that order, skipped ones dropped.
// The rest follow by unlock percentage, most common first.
// limit caps the result when positive.
func PlanUnlocks(achievements []Achievement, order *AchievementOrder, includeHidden bool, limit int) []PendingAchievement {
	byID := make(map[string]Achievement, len(achievements))
	for _, a := range achievements {
		if a.Achieved {
			continue
		}
		if a.Hidden && !includeHidden {
			continue
		}
		byID[a.ID] = a
	}

	plan := make([]PendingAchievement, 0, len(byID))
	if order != nil {
		for _, e := range order.Entries {
			a, ok := byID[e.ID]
			if !ok {
				continue
			}
			delete(byID, e.ID)
			if e.Skip {
				continue
			}
			plan = append(plan, PendingAchievement{Achievement: a, DelayNextUnlock: e.DelayNextUnlock})
		}
	}

	rest := make([]Achievement, 0, len(byID))
	for _, a := range achievements {
		if _, ok := byID[a.ID]; ok {
			rest = append(rest, a)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].Percent > rest[j].Percent
	})
	for _, a := range rest {
		plan = append(plan, PendingAchievement{Achievement: a})
	}

	if limit > 0 && len(plan) > limit {
		plan = plan[:limit]
	}
	return plan
}
