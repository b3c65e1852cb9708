package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	NewTab     key.Binding
	CloseTab   key.Binding
	NextTab    key.Binding
	Open       key.Binding
	Save       key.Binding
	Undo       key.Binding
	Redo       key.Binding
	Visibility key.Binding
	Delete     key.Binding
	Duplicate  key.Binding
	Move       key.Binding
	Opacity    key.Binding
	Feather    key.Binding
	Zoom       key.Binding
	Rename     key.Binding
	Generate   key.Binding
	Edit       key.Binding
	Settings   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NewTab:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		CloseTab:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "close")),
		NextTab:    key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch tab")),
		Open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		Save:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Undo:       key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Redo:       key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("^r", "redo")),
		Visibility: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "show/hide")),
		Delete:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Duplicate:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "duplicate")),
		Move:       key.NewBinding(key.WithKeys("K", "J"), key.WithHelp("K/J", "move layer")),
		Opacity:    key.NewBinding(key.WithKeys("<", ">"), key.WithHelp("</>", "opacity")),
		Feather:    key.NewBinding(key.WithKeys("[", "]"), key.WithHelp("[/]", "feather")),
		Zoom:       key.NewBinding(key.WithKeys("+", "-", "="), key.WithHelp("+/-", "zoom")),
		Rename:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "rename")),
		Generate:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "generate")),
		Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit layer")),
		Settings:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "settings")),
	}
}
