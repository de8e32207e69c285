package domain

import "time"

// CycleAction is one step kind of the farming cycle.
type CycleAction string

// Cycle actions.
const (
	CycleStart CycleAction = "start"
	CycleStop  CycleAction = "stop"
)

// CycleStep runs Action and then holds it for Duration.
type CycleStep struct {
	Action   CycleAction
	Duration time.Duration
}

// DefaultFarmingCycle returns the start/stop pattern used to trigger drops.
// Drops are re-checked after every stop step.
func DefaultFarmingCycle() []CycleStep {
	return []CycleStep{
		{Action: CycleStart, Duration: 5 * time.Minute},
		{Action: CycleStop, Duration: time.Minute},
		{Action: CycleStart, Duration: 15 * time.Second},
		{Action: CycleStop, Duration: time.Minute},
		{Action: CycleStart, Duration: 30 * time.Minute},
		{Action: CycleStop, Duration: time.Minute},
		{Action: CycleStart, Duration: 15 * time.Second},
		{Action: CycleStop, Duration: time.Minute},
	}
}

// TitleDrops reports remaining reward drops for a title.
type TitleDrops struct {
	Title     Title `json:"title"`
	Remaining int   `json:"remaining"`
}

// FarmingTarget tracks one title in a farming run.
type FarmingTarget struct {
	Title Title `json:"title"`

	// Initial is the drop count when the run started.
	Initial int `json:"initial"`

	// Remaining is the last observed drop count.
	Remaining int `json:"remaining"`

	// Target is how many drops to farm. Equal to Initial unless capped.
	Target int `json:"target"`
}

// Farmed returns drops collected so far.
func (t FarmingTarget) Farmed() int {
	return t.Initial - t.Remaining
}

// Finished reports whether the title needs no more farming.
func (t FarmingTarget) Finished() bool {
	return t.Remaining <= 0 || t.Farmed() >= t.Target
}

// NewFarmingTarget builds a target capped at maxDrops when positive.
func NewFarmingTarget(title Title, remaining, maxDrops int) FarmingTarget {
	target := remaining
	if maxDrops > 0 && maxDrops < target {
		target = maxDrops
	}
	return FarmingTarget{Title: title, Initial: remaining, Remaining: remaining, Target: target}
}

// FarmingReport summarises a farming start.
type FarmingReport struct {
	RunID   string          `json:"run_id"`
	Profile *ProfileSummary `json:"profile,omitempty"`
	Targets []FarmingTarget `json:"targets"`
	Started []Title         `json:"started"`
	Failed  []Title         `json:"failed"`
}

// FarmingSnapshot is a read-only view of the farming run.
type FarmingSnapshot struct {
	Active  bool            `json:"active"`
	RunID   string          `json:"run_id,omitempty"`
	Step    int             `json:"step"`
	Targets []FarmingTarget `json:"targets"`
}
