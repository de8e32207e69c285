// Package sim provides an in-memory host for --simulate runs and tests.
// Sessions live only as long as the process.
package sim

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

var (
	_ driven.Host              = (*Host)(nil)
	_ driven.AchievementSource = (*Host)(nil)
)

// Host simulates the desktop host and its achievement data.
type Host struct {
	mu           sync.Mutex
	ready        bool
	running      map[int]bool
	farming      map[int]bool
	achievements map[int][]domain.Achievement
	private      map[int]bool
}

// New creates a ready host with nothing running.
func New() *Host {
	return &Host{
		ready:        true,
		running:      make(map[int]bool),
		farming:      make(map[int]bool),
		achievements: make(map[int][]domain.Achievement),
		private:      make(map[int]bool),
	}
}

// SetReady toggles readiness.
func (h *Host) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// SetAchievements replaces a title's achievement data.
func (h *Host) SetAchievements(titleID int, list []domain.Achievement) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.achievements[titleID] = slices.Clone(list)
}

// SetPrivate makes a title's achievement data unreachable.
func (h *Host) SetPrivate(titleID int, private bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.private[titleID] = private
}

// Terminate ends a session as if the user closed it outside idlekit.
func (h *Host) Terminate(titleID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.running, titleID)
	delete(h.farming, titleID)
}

// IsReady reports the simulated readiness.
func (h *Host) IsReady(_ context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ready, nil
}

// ListRunning returns the running titles, sorted.
func (h *Host) ListRunning(_ context.Context) ([]int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]int, 0, len(h.running))
	for id := range h.running {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// StartSession marks a title running.
func (h *Host) StartSession(_ context.Context, title domain.Title) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.ready {
		return domain.ErrHostUnavailable
	}
	h.running[title.ID] = true
	return nil
}

// StopSession marks a title stopped.
func (h *Host) StopSession(_ context.Context, titleID int) error {
	h.Terminate(titleID)
	return nil
}

// StartBulk marks every title running as part of the farming batch.
func (h *Host) StartBulk(_ context.Context, titles []domain.Title) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.ready {
		return domain.ErrHostUnavailable
	}
	for _, t := range titles {
		h.running[t.ID] = true
		h.farming[t.ID] = true
	}
	return nil
}

// StopBulk stops the farming batch only.
func (h *Host) StopBulk(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.farming {
		delete(h.running, id)
	}
	h.farming = make(map[int]bool)
	return nil
}

// Fetch returns the stored achievements.
func (h *Host) Fetch(_ context.Context, titleID int) ([]domain.Achievement, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.private[titleID] {
		return nil, fmt.Errorf("%w: title %d", domain.ErrAccessDenied, titleID)
	}
	return slices.Clone(h.achievements[titleID]), nil
}

// Unlock marks one achievement achieved.
func (h *Host) Unlock(_ context.Context, titleID int, achievementID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.achievements[titleID]
	for i := range list {
		if list[i].ID == achievementID {
			list[i].Achieved = true
			return nil
		}
	}
	return fmt.Errorf("%w: achievement %s of %d", domain.ErrNotFound, achievementID, titleID)
}
