package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Go      key.Binding
	Pause   key.Binding
	Reset   key.Binding
	Mode    key.Binding
	Display key.Binding
	Sound   key.Binding
	Marks   key.Binding
	Dark    key.Binding
	Export  key.Binding
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	Tab     key.Binding
	Help    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Go: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "go/pause"),
	),
	Pause: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "pause/resume"),
	),
	Reset: key.NewBinding(
		key.WithKeys("esc", "x"),
		key.WithHelp("esc", "reset"),
	),
	Mode: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "mode"),
	),
	Display: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "analog/digital"),
	),
	Sound: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sound"),
	),
	Marks: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "marks"),
	),
	Dark: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "dark/light"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Tab1: key.NewBinding(
		key.WithKeys("f1"),
		key.WithHelp("F1", "timer"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("f2"),
		key.WithHelp("F2", "history"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("f3"),
		key.WithHelp("F3", "settings"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Go, k.Reset, k.Mode, k.Tab, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Go, k.Pause, k.Reset},
		{k.Mode, k.Display, k.Marks, k.Sound, k.Dark},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab, k.Export},
		{k.Up, k.Down, k.Left, k.Right, k.Quit},
	}
}
