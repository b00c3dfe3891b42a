package tui

import "github.com/charmbracelet/bubbles/key"

type keymap struct {
	quit     key.Binding
	up       key.Binding
	down     key.Binding
	complete key.Binding
	open     key.Binding
	more     key.Binding
	reset    key.Binding
	back     key.Binding
}

func newKeymap() keymap {
	return keymap{
		quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		up:       key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "up")),
		down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		complete: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "use title")),
		open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		more:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "load more")),
		reset:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		back:     key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	}
}

func (k keymap) searchHelp() []key.Binding {
	return []key.Binding{k.up, k.down, k.complete, k.open, k.more, k.reset, k.quit}
}

func (k keymap) detailHelp() []key.Binding {
	return []key.Binding{k.back, k.quit}
}
