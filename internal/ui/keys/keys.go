// Package keys defines the key bindings shared by every view.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding used by the views
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Enter key.Binding
	Back  key.Binding
	Quit  key.Binding
	Tab   key.Binding
	Help  key.Binding

	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Search key.Binding
	Filter key.Binding

	NextStatus key.Binding
	PrevStatus key.Binding
	TaskStatus key.Binding
	Board      key.Binding
	Collab     key.Binding
	Save       key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
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
			key.WithHelp("←/h", "column left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "column right"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "x"),
			key.WithHelp("d", "delete"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "tag filter"),
		),
		NextStatus: key.NewBinding(
			key.WithKeys("s", " "),
			key.WithHelp("s", "next status"),
		),
		PrevStatus: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "prev status"),
		),
		TaskStatus: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "task status"),
		),
		Board: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "list/board"),
		),
		Collab: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "collaborator"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
	}
}
