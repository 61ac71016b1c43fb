package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the key bindings. It implements help.KeyMap.
type KeyMap struct {
	Quit        key.Binding
	Search      key.Binding
	NextPane    key.Binding
	ViewAll     key.Binding
	ViewClasses key.Binding
	ViewRegions key.Binding
	ViewDistr   key.Binding
	Reset       key.Binding
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Select      key.Binding
	Toggle      key.Binding
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	Fit         key.Binding
	Close       key.Binding
	Copy        key.Binding
	List        key.Binding
	Legend      key.Binding
	Help        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		NextPane:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		ViewAll:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
		ViewClasses: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "by class")),
		ViewRegions: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "by region")),
		ViewDistr:   key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "by district")),
		Reset:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset filters")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Select:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Toggle:      key.NewBinding(key.WithKeys(" ", "space", "x"), key.WithHelp("space", "toggle")),
		ZoomIn:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Fit:         key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit all")),
		Close:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Copy:        key.NewBinding(key.WithKeys("y", "C"), key.WithHelp("y", "copy school")),
		List:        key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "school list")),
		Legend:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "legend")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.NextPane, k.ViewAll, k.ViewClasses, k.ViewRegions, k.ViewDistr, k.Reset, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.NextPane, k.Close, k.Help, k.Quit},
		{k.ViewAll, k.ViewClasses, k.ViewRegions, k.ViewDistr, k.Reset},
		{k.Up, k.Down, k.Left, k.Right, k.Select, k.Toggle},
		{k.ZoomIn, k.ZoomOut, k.Fit, k.Copy, k.List, k.Legend},
	}
}
