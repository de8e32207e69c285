package domain

import "strconv"

// MaxConcurrentSessions is the number of titles the host can idle at once.
const MaxConcurrentSessions = 32

// Title identifies a host title.
type Title struct {
	// ID is the host's numeric title identifier.
	ID int `json:"id" yaml:"id"`

	// Name is the display name passed to the helper.
	Name string `json:"name" yaml:"name"`
}

// String returns "name (id)" or just the id when the name is unknown.
func (t Title) String() string {
	if t.Name == "" {
		return strconv.Itoa(t.ID)
	}
	return t.Name + " (" + strconv.Itoa(t.ID) + ")"
}

// TitleIDs returns the IDs of titles in order.
func TitleIDs(titles []Title) []int {
	ids := make([]int, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}
	return ids
}

// ExcludeRunning returns titles whose IDs are not in running.
func ExcludeRunning(titles []Title, running []int) []Title {
	set := make(map[int]struct{}, len(running))
	for _, id := range running {
		set[id] = struct{}{}
	}
	out := make([]Title, 0, len(titles))
	for _, t := range titles {
		if _, ok := set[t.ID]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// ContainsID reports whether id is present in ids.
func ContainsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// CapTitles returns at most n titles from the front of the list.
func CapTitles(titles []Title, n int) []Title {
	if n <= 0 || len(titles) <= n {
		return titles
	}
	return titles[:n]
}
