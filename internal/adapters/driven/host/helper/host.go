package helper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/logger"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultStartupGrace = time.Second
	stopWait            = 5 * time.Second
)

// ErrHelperNotConfigured indicates no helper path was configured.
var ErrHelperNotConfigured = errors.New("helper path not configured")

// errAlreadyRunning is returned by spawn when a live helper holds the title.
var errAlreadyRunning = errors.New("helper already running")

// Config configures the helper host.
type Config struct {
	// HelperPath is the helper executable.
	HelperPath string

	// ProbeCommand decides readiness: the host is ready when it exits 0.
	// Empty means ready whenever the helper executable exists.
	ProbeCommand []string

	// StartupGrace is how long a new helper must stay alive to count as started.
	StartupGrace time.Duration

	// StateDir holds one pid file per running session.
	StateDir string
}

// sessionFile is the pid file content.
type sessionFile struct {
	PID       int          `json:"pid"`
	Title     domain.Title `json:"title"`
	Farming   bool         `json:"farming,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// child is a helper started by this process.
type child struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Host implements driven.Host with helper processes.
type Host struct {
	cfg   Config
	clock clockwork.Clock

	spawnMu  sync.Mutex
	mu       sync.Mutex
	children map[int]*child // keyed by title ID
}

var _ driven.Host = (*Host)(nil)

// NewHost creates a helper host. The state directory is created if missing.
func NewHost(cfg Config, clock clockwork.Clock) (*Host, error) {
	if cfg.StartupGrace <= 0 {
		cfg.StartupGrace = DefaultStartupGrace
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".idlekit", "sessions")
	}
	if err := os.MkdirAll(cfg.StateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &Host{cfg: cfg, clock: clock, children: make(map[int]*child)}, nil
}

// IsReady runs the probe command, or checks the helper exists.
func (h *Host) IsReady(ctx context.Context) (bool, error) {
	if len(h.cfg.ProbeCommand) > 0 {
		cmd := exec.CommandContext(ctx, h.cfg.ProbeCommand[0], h.cfg.ProbeCommand[1:]...)
		err := cmd.Run()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			return true, nil
		case errors.As(err, &exitErr):
			return false, nil
		default:
			return false, fmt.Errorf("running probe: %w", err)
		}
	}

	if h.cfg.HelperPath == "" {
		return false, ErrHelperNotConfigured
	}
	if _, err := os.Stat(h.cfg.HelperPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListRunning returns the titles with a live helper, sorted. Stale pid
// files are removed.
func (h *Host) ListRunning(_ context.Context) ([]int, error) {
	sessions, err := h.readSessions()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// StartSession starts one idle helper and waits out the startup grace.
// A helper that exits within the grace period is reported as a failure.
// A title that already has a live helper is left as it is.
func (h *Host) StartSession(ctx context.Context, title domain.Title) error {
	c, err := h.spawn(title, false)
	if errors.Is(err, errAlreadyRunning) {
		return nil
	}
	if err != nil {
		return err
	}

	timer := h.clock.NewTimer(h.cfg.StartupGrace)
	defer timer.Stop()

	select {
	case <-c.done:
		if c.err != nil {
			return fmt.Errorf("helper exited during startup: %w", c.err)
		}
		return errors.New("helper exited during startup")
	case <-ctx.Done():
		h.kill(title.ID, c)
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

// StopSession kills the helper for titleID. A title without a helper
// is a no-op.
func (h *Host) StopSession(_ context.Context, titleID int) error {
	h.mu.Lock()
	c := h.children[titleID]
	h.mu.Unlock()
	if c != nil {
		return h.kill(titleID, c)
	}

	session, err := h.readSession(titleID)
	if err != nil || session == nil {
		return err
	}
	if !processAlive(session.PID) {
		h.removeSession(titleID, session.PID)
		return nil
	}
	p, err := os.FindProcess(session.PID)
	if err != nil {
		return fmt.Errorf("finding helper %d: %w", session.PID, err)
	}
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("killing helper %d: %w", session.PID, err)
	}
	h.removeSession(titleID, session.PID)
	return nil
}

// StartBulk starts one farming helper per title without a grace wait.
// Titles that already have a live helper keep it.
func (h *Host) StartBulk(_ context.Context, titles []domain.Title) error {
	var errs []error
	for _, t := range titles {
		_, err := h.spawn(t, true)
		if errors.Is(err, errAlreadyRunning) {
			logger.Debug("helper: %s already running, not starting a farming helper", t)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("start %s: %w", t, err))
		}
	}
	return errors.Join(errs...)
}

// StopBulk stops every farming helper.
func (h *Host) StopBulk(ctx context.Context) error {
	sessions, err := h.readSessions()
	if err != nil {
		return err
	}
	var errs []error
	for id, s := range sessions {
		if !s.Farming {
			continue
		}
		if err := h.StopSession(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// spawn fails with errAlreadyRunning when a live helper holds the title.
func (h *Host) spawn(title domain.Title, farming bool) (*child, error) {
	if h.cfg.HelperPath == "" {
		return nil, ErrHelperNotConfigured
	}
	h.spawnMu.Lock()
	defer h.spawnMu.Unlock()
	if h.alive(title.ID) {
		return nil, errAlreadyRunning
	}

	name := title.Name
	if name == "" {
		name = strconv.Itoa(title.ID)
	}
	cmd := exec.Command(h.cfg.HelperPath, "idle", strconv.Itoa(title.ID), name)
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting helper: %w", err)
	}

	c := &child{cmd: cmd, done: make(chan struct{})}
	pid := cmd.Process.Pid
	h.mu.Lock()
	h.children[title.ID] = c
	h.mu.Unlock()

	if err := h.writeSession(sessionFile{PID: pid, Title: title, Farming: farming, StartedAt: h.clock.Now()}); err != nil {
		logger.Warn("helper: recording session for %s: %v", title, err)
	}

	go func() {
		c.err = cmd.Wait()
		h.mu.Lock()
		if h.children[title.ID] == c {
			delete(h.children, title.ID)
		}
		h.mu.Unlock()
		h.removeSession(title.ID, pid)
		close(c.done)
		logger.Debug("helper: %s exited", title)
	}()

	return c, nil
}

// alive reports whether a helper started here, or by another process,
// still runs for titleID.
func (h *Host) alive(titleID int) bool {
	h.mu.Lock()
	c := h.children[titleID]
	h.mu.Unlock()
	if c != nil {
		select {
		case <-c.done:
		default:
			return true
		}
	}
	s, err := h.readSession(titleID)
	return err == nil && s != nil && processAlive(s.PID)
}

func (h *Host) kill(titleID int, c *child) error {
	select {
	case <-c.done:
		return nil
	default:
	}
	if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("killing helper for %d: %w", titleID, err)
	}
	select {
	case <-c.done:
		return nil
	case <-h.clock.After(stopWait):
		return fmt.Errorf("helper for %d did not exit", titleID)
	}
}

// ==================== Pid files ====================

func (h *Host) sessionPath(titleID int) string {
	return filepath.Join(h.cfg.StateDir, strconv.Itoa(titleID)+".pid")
}

func (h *Host) writeSession(s sessionFile) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(h.sessionPath(s.Title.ID), data, 0600)
}

// readSession returns nil when no live helper is recorded for titleID.
func (h *Host) readSession(titleID int) (*sessionFile, error) {
	data, err := os.ReadFile(h.sessionPath(titleID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s sessionFile
	if err := json.Unmarshal(data, &s); err != nil {
		// Unreadable files are treated as stale.
		_ = os.Remove(h.sessionPath(titleID))
		return nil, nil
	}
	return &s, nil
}

// readSessions returns every live session keyed by title ID.
func (h *Host) readSessions() (map[int]sessionFile, error) {
	entries, err := os.ReadDir(h.cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("reading state directory: %w", err)
	}

	h.mu.Lock()
	local := make(map[int]*child, len(h.children))
	for id, c := range h.children {
		local[id] = c
	}
	h.mu.Unlock()

	out := make(map[int]sessionFile)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".pid") {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(name, ".pid"))
		if err != nil {
			continue
		}
		s, err := h.readSession(id)
		if err != nil || s == nil {
			continue
		}
		if c, ok := local[id]; ok {
			select {
			case <-c.done:
				continue
			default:
				out[id] = *s
				continue
			}
		}
		if !processAlive(s.PID) {
			h.removeSession(id, s.PID)
			continue
		}
		out[id] = *s
	}
	return out, nil
}

// removeSession deletes the pid file only if it still names pid.
func (h *Host) removeSession(titleID, pid int) {
	s, err := h.readSession(titleID)
	if err != nil || s == nil || s.PID != pid {
		return
	}
	_ = os.Remove(h.sessionPath(titleID))
}
