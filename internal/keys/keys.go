// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// SearchKeyMap defines the keybindings of the search screen.
type SearchKeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding

	// Search
	FocusInput key.Binding
	Submit     key.Binding
	Cancel     key.Binding
	Reset      key.Binding

	// Results
	Details key.Binding

	// General
	Logs   key.Binding
	Help   key.Binding
	Escape key.Binding
	Quit   key.Binding
}

// Search holds the bindings used by the search screen.
var Search = SearchKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "previous tour"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "next tour"),
	),

	FocusInput: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "edit search"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "search"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("ctrl+x", "cancel search"),
	),
	Reset: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "reset"),
	),

	Details: key.NewBinding(
		key.WithKeys("enter", "d"),
		key.WithHelp("enter/d", "hotel details"),
	),

	Logs: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "toggle logs"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp returns keybindings for the short help view.
func (k SearchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.FocusInput, k.Cancel, k.Reset, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k SearchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Details},                   // Results
		{k.FocusInput, k.Submit, k.Cancel, k.Reset}, // Search
		{k.Logs, k.Help, k.Escape, k.Quit},          // General
	}
}
