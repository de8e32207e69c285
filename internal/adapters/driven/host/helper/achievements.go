package helper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

// apiInitFailure is printed by the helper when the host is signed in to a
// different account than the one requested.
const apiInitFailure = "Failed to initialize Steam API"

// Achievements implements driven.AchievementSource with helper commands.
type Achievements struct {
	path string
}

var _ driven.AchievementSource = (*Achievements)(nil)

// NewAchievements creates an achievement source using the helper at path.
func NewAchievements(path string) *Achievements {
	return &Achievements{path: path}
}

// achievementReply is the helper's get_achievement_data output.
type achievementReply struct {
	Error        string               `json:"error,omitempty"`
	Achievements []domain.Achievement `json:"achievements"`
}

// Fetch returns the title's achievements.
func (a *Achievements) Fetch(ctx context.Context, titleID int) ([]domain.Achievement, error) {
	out, err := a.run(ctx, "get_achievement_data", strconv.Itoa(titleID))
	if err != nil {
		return nil, err
	}
	if err := classify(out); err != nil {
		return nil, err
	}

	var reply achievementReply
	if err := json.Unmarshal(out, &reply); err != nil {
		return nil, fmt.Errorf("parsing achievement data for %d: %w", titleID, err)
	}
	if reply.Error != "" {
		return nil, replyError(reply.Error)
	}
	return reply.Achievements, nil
}

// Unlock unlocks one achievement.
func (a *Achievements) Unlock(ctx context.Context, titleID int, achievementID string) error {
	out, err := a.run(ctx, "unlock_achievement", strconv.Itoa(titleID), achievementID)
	if err != nil {
		return err
	}
	if err := classify(out); err != nil {
		return err
	}
	if bytes.Contains(bytes.ToLower(out), []byte("error")) {
		return fmt.Errorf("unlocking %s for %d: %s", achievementID, titleID, strings.TrimSpace(string(out)))
	}
	return nil
}

func (a *Achievements) run(ctx context.Context, args ...string) ([]byte, error) {
	if a.path == "" {
		return nil, ErrHelperNotConfigured
	}
	cmd := exec.CommandContext(ctx, a.path, args...)
	detach(cmd)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		// The helper prints its failure to stdout and may exit non-zero.
		if errors.As(err, &exitErr) && len(out) > 0 {
			return out, nil
		}
		return nil, fmt.Errorf("running helper %s: %w", args[0], err)
	}
	return out, nil
}

// classify maps well-known helper failures to domain errors.
func classify(out []byte) error {
	if bytes.Contains(out, []byte(apiInitFailure)) {
		return fmt.Errorf("%w: %s", domain.ErrIdentityMismatch, apiInitFailure)
	}
	return nil
}

func replyError(msg string) error {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "private") || strings.Contains(lower, "not accessible") {
		return fmt.Errorf("%w: %s", domain.ErrAccessDenied, msg)
	}
	return errors.New(msg)
}
