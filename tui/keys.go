package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the global bindings shown in the help bar
type keyMap struct {
	OpenFolder key.Binding
	Focus      key.Binding
	Save       key.Binding
	Mark       key.Binding
	Transform  key.Binding
	Ask        key.Binding
	Undo       key.Binding
	NewFile    key.Binding
	NewFolder  key.Binding
	Accept     key.Binding
	Reject     key.Binding
	Copy       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		OpenFolder: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open folder")),
		Focus:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Mark:       key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "mark selection")),
		Transform:  key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "AI edit")),
		Ask:        key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "ask")),
		Undo:       key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "undo AI edit")),
		NewFile:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new file")),
		NewFolder:  key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new folder")),
		Accept:     key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "accept")),
		Reject:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "reject")),
		Copy:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.OpenFolder, k.Focus, k.Save, k.Mark, k.Transform, k.Ask, k.Undo, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.OpenFolder, k.Focus, k.Save, k.Quit},
		{k.Mark, k.Transform, k.Ask, k.Undo},
		{k.NewFile, k.NewFolder},
	}
}

// proposalKeys are the bindings while a proposal is shown
type proposalKeys struct {
	Accept key.Binding
	Reject key.Binding
	Copy   key.Binding
}

// ShortHelp implements help.KeyMap
func (k proposalKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Accept, k.Reject, k.Copy}
}

// FullHelp implements help.KeyMap
func (k proposalKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
