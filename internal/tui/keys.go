package tui

import "github.com/charmbracelet/bubbles/key"

// ---------------------------------------------------------------------------
// Key bindings
// ---------------------------------------------------------------------------

type keyMap struct {
	Toggle      key.Binding
	Faster      key.Binding
	Slower      key.Binding
	Focus       key.Binding
	Panel       key.Binding
	Help        key.Binding
	Quit        key.Binding
	Unfocus     key.Binding
	NextControl key.Binding
	PrevControl key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/stop")),
		Faster:      key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "faster")),
		Slower:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "slower")),
		Focus:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "panel focus")),
		Panel:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open/close panel")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Unfocus:     key.NewBinding(key.WithKeys("esc", "tab"), key.WithHelp("esc", "leave panel")),
		NextControl: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next control")),
		PrevControl: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "prev control")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Slower, k.Faster, k.Focus, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Slower, k.Faster},
		{k.Panel, k.Focus, k.Help, k.Quit},
	}
}

// panelKeyMap is shown while the panel has keyboard focus.
type panelKeyMap struct {
	keyMap
}

func (k panelKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextControl, k.PrevControl, k.Unfocus}
}

func (k panelKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.NextControl, k.PrevControl, k.Unfocus}}
}
