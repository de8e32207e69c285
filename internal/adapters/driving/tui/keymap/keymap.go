// Package keymap holds the watch view key bindings.
package keymap

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
)

// Action is what a key press asks the app to do.
type Action int

const (
	None Action = iota
	Quit
	ToggleHelp
	Refresh
	CancelUnlock
	StopFarming
)

// KeyMap binds keys to actions. Up and Down are handled by the session
// table and appear here only for help.
type KeyMap struct {
	Quit         key.Binding
	Help         key.Binding
	Up           key.Binding
	Down         key.Binding
	Refresh      key.Binding
	CancelUnlock key.Binding
	StopFarming  key.Binding
}

func binding(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:         binding("q", "quit", "q", "ctrl+c"),
		Help:         binding("?", "help", "?"),
		Up:           binding("↑/k", "up", "up", "k"),
		Down:         binding("↓/j", "down", "down", "j"),
		Refresh:      binding("r", "refresh", "r"),
		CancelUnlock: binding("c", "cancel unlock", "c"),
		StopFarming:  binding("f", "stop farming", "f"),
	}
}

// Lookup maps a key press to an action. Unbound keys return None.
func (k *KeyMap) Lookup(msg fmt.Stringer) Action {
	switch {
	case key.Matches(msg, k.Quit):
		return Quit
	case key.Matches(msg, k.Help):
		return ToggleHelp
	case key.Matches(msg, k.Refresh):
		return Refresh
	case key.Matches(msg, k.CancelUnlock):
		return CancelUnlock
	case key.Matches(msg, k.StopFarming):
		return StopFarming
	}
	return None
}

// ShortHelp is shown in the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.CancelUnlock, k.Refresh, k.Help, k.Quit}
}

func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Refresh},
		{k.CancelUnlock, k.StopFarming},
		{k.Help, k.Quit},
	}
}
