package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	left    key.Binding
	right   key.Binding
	enter   key.Binding
	duo     key.Binding
	history key.Binding
	next    key.Binding
	back    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "shorter range")),
		right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "longer range")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "roast me")),
		duo:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "duo roast")),
		history: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "past roasts")),
		next:    key.NewBinding(key.WithKeys("n", "enter", " ", "right", "l"), key.WithHelp("n/→", "next")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.left, k.right, k.enter},
		{k.duo, k.history, k.next},
		{k.back, k.quit},
	}
}
