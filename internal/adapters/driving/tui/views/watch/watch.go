// Package watch renders the live session and unlock view.
package watch

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// Row statuses.
const (
	statusRunning   = "running"
	statusUntracked = "external"
	statusStopping  = "stopping"
)

// reserved is the number of lines used outside the table.
const reserved = 14

// View shows running sessions, the unlock run and the farming batch.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	table  table.Model

	state    messages.StateLoaded
	loaded   bool
	showHelp bool

	width  int
	height int
}

// NewView creates a watch view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(8),
		table.WithStyles(s.Table()),
	)
	return &View{styles: s, keymap: km, table: t, width: 80, height: 24}
}

func columns(width int) []table.Column {
	name := width - 8 - 8 - 10 - 10 - 24 - 12
	if name < 16 {
		name = 16
	}
	return []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Title", Width: name},
		{Title: "Kind", Width: 8},
		{Title: "Status", Width: 10},
		{Title: "Remaining", Width: 10},
		{Title: "Note", Width: 24},
	}
}

// SetDimensions resizes the table to the terminal.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.table.SetColumns(columns(width))
	h := height - reserved
	if h < 3 {
		h = 3
	}
	v.table.SetHeight(h)
}

// SetState replaces the displayed state with a fresh poll.
func (v *View) SetState(msg messages.StateLoaded) {
	v.state = msg
	v.loaded = true
	v.table.SetRows(Rows(msg))
}

// ToggleHelp switches between the short and full help line.
func (v *View) ToggleHelp() {
	v.showHelp = !v.showHelp
}

// Update forwards navigation keys to the session table.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return v, cmd
}

// SelectedTitle returns the title ID under the cursor, or 0.
func (v *View) SelectedTitle() int {
	row := v.table.SelectedRow()
	if len(row) == 0 {
		return 0
	}
	id, _ := strconv.Atoi(row[0])
	return id
}

// View renders the sessions table and the run summaries.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("idlekit"))
	b.WriteString(v.styles.Muted.Render("  watch"))
	b.WriteString("\n\n")

	b.WriteString(v.styles.Subtitle.Render("Sessions"))
	b.WriteString("\n")
	if v.loaded && len(v.table.Rows()) == 0 {
		b.WriteString(v.styles.Muted.Render("No titles are being idled."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.table.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		v.styles.Panel.Render(v.unlockSummary()),
		" ",
		v.styles.Panel.Render(v.farmingSummary()),
	)
	b.WriteString(panels)
	b.WriteString("\n")

	if n := len(v.state.StopFailures); n > 0 {
		last := v.state.StopFailures[n-1]
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("%d failed stop(s); last for %d: %s", n, last.TitleID, last.Error)))
		b.WriteString("\n")
	}

	if v.showHelp {
		for _, group := range v.keymap.FullHelp() {
			b.WriteString(v.styles.Help.Render(status.HelpLine(group)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (v *View) unlockSummary() string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Unlock"))
	b.WriteString("\n")

	snap := v.state.Unlock
	if snap == nil {
		b.WriteString(v.styles.Muted.Render("not available"))
		return b.String()
	}
	if snap.RunID == "" && snap.Phase == domain.UnlockIdle {
		b.WriteString(v.styles.Muted.Render("no run"))
		return b.String()
	}

	b.WriteString("Phase:    " + v.phaseStyle(snap.Phase).Render(snap.Phase.String()) + "\n")
	if snap.CurrentTitle != nil {
		b.WriteString("Title:    " + snap.CurrentTitle.String() + "\n")
		b.WriteString(fmt.Sprintf("Progress: %d unlocked, %d remaining\n", snap.UnlockedCount, snap.RemainingForCurrent))
	}
	b.WriteString(fmt.Sprintf("Queue:    %d/%d\n", min(snap.CurrentIndex+1, snap.QueueLength), snap.QueueLength))
	if snap.Phase == domain.UnlockWaitingForSchedule || snap.Phase == domain.UnlockUnlocking {
		b.WriteString("Next in:  " + domain.FormatCountdown(snap.NextUnlockEta) + "\n")
	}
	b.WriteString(fmt.Sprintf("Total:    %d", snap.TotalUnlocked))
	return b.String()
}

func (v *View) phaseStyle(p domain.UnlockPhase) lipgloss.Style {
	switch p {
	case domain.UnlockComplete:
		return v.styles.Success
	case domain.UnlockPrivate:
		return v.styles.Warning
	default:
		return v.styles.Normal
	}
}

func (v *View) farmingSummary() string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Farming"))
	b.WriteString("\n")

	snap := v.state.Farming
	if snap == nil {
		b.WriteString(v.styles.Muted.Render("not available"))
		return b.String()
	}
	if !snap.Active {
		b.WriteString(v.styles.Muted.Render("inactive"))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Step: %d\n", snap.Step))
	for i, t := range snap.Targets {
		line := fmt.Sprintf("%s %d/%d", t.Title, t.Farmed(), t.Target)
		if t.Finished() {
			line = v.styles.Success.Render(line)
		}
		b.WriteString(line)
		if i < len(snap.Targets)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Rows builds the session table rows: every running title plus tracked
// sessions the host no longer reports.
func Rows(msg messages.StateLoaded) []table.Row {
	tracked := make(map[int]domain.SessionSnapshot, len(msg.Sessions))
	for _, s := range msg.Sessions {
		tracked[s.Title.ID] = s
	}

	ids := slices.Clone(msg.Running)
	for id := range tracked {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		s, ok := tracked[id]
		running := slices.Contains(msg.Running, id)
		if !ok {
			rows = append(rows, table.Row{strconv.Itoa(id), "", "", statusUntracked, "", ""})
			continue
		}

		st := statusRunning
		if !running {
			st = statusStopping
		}
		remaining := "unlimited"
		if s.Budgeted() {
			remaining = domain.FormatCountdown(s.Remaining)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(id),
			s.Title.Name,
			string(s.Kind),
			st,
			remaining,
			s.LastStopError,
		})
	}
	return rows
}
