package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/views/watch"
	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// DefaultRefreshInterval is how often the view polls the services.
const DefaultRefreshInterval = time.Second

// noticeTicks is how many refreshes a notice stays on the status bar.
const noticeTicks = 3

// App is the watch TUI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	ctx   context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap
	watch  *watch.View
	bar    *status.Bar

	interval time.Duration
	notice   int

	// err holds the last refresh error.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the watch application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	return &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   s,
		keymap:   km,
		watch:    watch.NewView(s, km),
		bar:      status.NewBar(s, km),
		interval: DefaultRefreshInterval,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// WithInterval overrides the refresh interval.
func (a *App) WithInterval(d time.Duration) *App {
	if d > 0 {
		a.interval = d
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("idlekit - watch"),
		a.load(),
		a.tick(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.Tick:
		if a.notice > 0 {
			a.notice--
		}
		return a, tea.Batch(a.load(), a.tick())

	case messages.StateLoaded:
		a.watch.SetState(msg)
		a.err = msg.Err
		if msg.Err != nil {
			a.bar.SetError(msg.Err)
		} else if a.notice == 0 {
			a.bar.SetReady(len(msg.Running))
		}
		return a, nil

	case messages.UnlockCancelled:
		a.setNotice("Unlock run cancelled")
		return a, a.load()

	case messages.FarmingStopped:
		a.setNotice("Farming stopped")
		return a, a.load()

	case messages.Notice:
		a.setNotice(msg.Text)
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.bar.SetError(msg.Err)
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.keymap.Lookup(msg) {
	case keymap.Quit:
		return a, tea.Quit
	case keymap.ToggleHelp:
		a.watch.ToggleHelp()
		return a, nil
	case keymap.Refresh:
		return a, a.load()
	case keymap.CancelUnlock:
		return a, a.cancelUnlock()
	case keymap.StopFarming:
		return a, a.stopFarming()
	}
	var cmd tea.Cmd
	a.watch, cmd = a.watch.Update(msg)
	return a, cmd
}

func (a *App) setNotice(text string) {
	a.bar.SetNotice(text)
	a.notice = noticeTicks
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(a.interval, func(t time.Time) tea.Msg {
		return messages.Tick{At: t}
	})
}

// load polls every port once.
func (a *App) load() tea.Cmd {
	ports := a.ports
	ctx := a.ctx
	return func() tea.Msg {
		msg := messages.StateLoaded{
			Sessions:     ports.Registry.Snapshot(),
			StopFailures: ports.Registry.StopFailures(),
		}
		msg.Running, msg.Err = ports.Registry.Running(ctx)
		if ports.Unlocker != nil {
			snap := ports.Unlocker.Snapshot()
			msg.Unlock = &snap
		}
		if ports.Farming != nil {
			snap := ports.Farming.Snapshot()
			msg.Farming = &snap
		}
		return msg
	}
}

func (a *App) cancelUnlock() tea.Cmd {
	unlocker := a.ports.Unlocker
	if unlocker == nil {
		a.setNotice("No unlocker in this process")
		return nil
	}
	return func() tea.Msg {
		if p := unlocker.Snapshot().Phase; p == domain.UnlockIdle || p.IsTerminal() {
			return messages.Notice{Text: "No unlock run active"}
		}
		unlocker.Cancel()
		return messages.UnlockCancelled{}
	}
}

func (a *App) stopFarming() tea.Cmd {
	farming := a.ports.Farming
	if farming == nil {
		a.setNotice("No farming in this process")
		return nil
	}
	ctx := a.ctx
	return func() tea.Msg {
		if !farming.Snapshot().Active {
			return messages.Notice{Text: "Farming is not active"}
		}
		farming.Stop(ctx)
		return messages.FarmingStopped{}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	var b strings.Builder
	b.WriteString(a.watch.View())
	b.WriteString("\n")
	b.WriteString(a.bar.View())
	return b.String()
}

// SetDimensions sets the terminal dimensions on the app and its views.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.watch.SetDimensions(width, height)
	a.bar.SetWidth(width)
}

// Err returns the last refresh error.
func (a *App) Err() error {
	return a.err
}
