package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Navigate  key.Binding
	Select    key.Binding
	Dismiss   key.Binding
	Focus     key.Binding
	Quit      key.Binding
	Interrupt key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Navigate: key.NewBinding(
			key.WithKeys("up", "down", "ctrl+p", "ctrl+n"),
			key.WithHelp("↑/↓", "navigate"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", "tab"),
			key.WithHelp("enter/tab", "select"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "switch field"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "quit"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
	}
}

// helpFor returns the bindings shown in the footer for the current state.
func (k keyMap) helpFor(menuOpen bool) []key.Binding {
	if menuOpen {
		return []key.Binding{k.Navigate, k.Select, k.Dismiss}
	}
	return []key.Binding{k.Focus, k.Quit}
}
