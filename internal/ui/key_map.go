package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	requests key.Binding
	accept   key.Binding
	decline  key.Binding
	remove   key.Binding
	yes      key.Binding
	no       key.Binding
	refresh  key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "compare")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		requests: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "requests")),
		accept:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "accept")),
		decline:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "decline")),
		remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove friend")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.requests, k.accept, k.decline},
		{k.remove, k.yes, k.no},
		{k.back, k.refresh, k.quit},
	}
}
