package domain

// ListName names a persisted, user-curated title list.
type ListName string

// Known lists.
const (
	ListAutoIdle            ListName = "auto_idle"
	ListAchievementUnlocker ListName = "achievement_unlocker"
	ListCardFarming         ListName = "card_farming"
	ListFavorites           ListName = "favorites"
)

// IsValid returns true if the list name is recognised.
func (n ListName) IsValid() bool {
	switch n {
	case ListAutoIdle, ListAchievementUnlocker, ListCardFarming, ListFavorites:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (n ListName) String() string {
	return string(n)
}

// AllLists returns every known list name.
func AllLists() []ListName {
	return []ListName{ListAutoIdle, ListAchievementUnlocker, ListCardFarming, ListFavorites}
}
