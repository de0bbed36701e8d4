package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	TabNext  key.Binding
	TabPrev  key.Binding
	Cleaner  key.Binding
	Insights key.Binding
	History  key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Edit     key.Binding
	Delete   key.Binding
	AddRow   key.Binding
	Upload   key.Binding
	Cancel   key.Binding
	Save     key.Binding
	Download key.Binding
	Archive  key.Binding
	Chart    key.Binding
	Theme    key.Binding
	Help     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		TabNext:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		TabPrev:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Cleaner:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "cleaner")),
		Insights: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "insights")),
		History:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "history")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Edit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit/load")),
		Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete row")),
		AddRow:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add row")),
		Upload:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save & new")),
		Download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download csv")),
		Archive:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "archive history")),
		Chart:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "export chart")),
		Theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Upload, k.TabNext, k.Edit, k.Save, k.Download, k.Theme, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TabNext, k.TabPrev, k.Cleaner, k.Insights, k.History},
		{k.Up, k.Down, k.Left, k.Right, k.Edit},
		{k.Delete, k.AddRow, k.Upload, k.Cancel, k.Save},
		{k.Download, k.Archive, k.Chart, k.Theme, k.Quit},
	}
}
