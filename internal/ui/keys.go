package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Stop  key.Binding
	New   key.Binding
	Help  key.Binding
	Quit  key.Binding
	Enter key.Binding
	Esc   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Stop:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop crawl")),
		New:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "track another job")),
		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "track")),
		Esc:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Stop, k.New, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Stop, k.New},
		{k.Enter, k.Esc},
		{k.Help, k.Quit},
	}
}
