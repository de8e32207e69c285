// Package status provides the status bar for the watch view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui/styles"
)

// State is what the bar reports on its left side.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateNotice  State = "notice"
	StateError   State = "error"
)

// Bar displays the refresh state and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	state    State
	message  string
	sessions int
	width    int
}

// NewBar creates a status bar.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateLoading, width: 80}
}

// View renders the bar at its width.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateLoading:
		return s.styles.Muted.Render("Loading...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	case StateNotice:
		return s.styles.Warning.Render(s.message)
	case StateReady:
	}
	switch s.sessions {
	case 0:
		return s.styles.Muted.Render("No sessions running")
	case 1:
		return s.styles.Normal.Render("1 session running")
	default:
		return s.styles.Normal.Render(fmt.Sprintf("%d sessions running", s.sessions))
	}
}

func (s *Bar) renderRight() string {
	return s.styles.Muted.Render(HelpLine(s.keymap.ShortHelp()))
}

// HelpLine joins binding hints as "key: desc | key: desc".
func HelpLine(bindings []key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return strings.Join(hints, " | ")
}

// SetReady reports a successful refresh with n running sessions.
func (s *Bar) SetReady(n int) {
	s.state = StateReady
	s.message = ""
	s.sessions = n
}

// SetNotice shows a transient message until the next refresh.
func (s *Bar) SetNotice(message string) {
	s.state = StateNotice
	s.message = message
}

// SetError shows an error until the next successful refresh.
func (s *Bar) SetError(err error) {
	s.state = StateError
	s.message = ""
	if err != nil {
		s.message = err.Error()
	}
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}
