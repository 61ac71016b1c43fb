package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// ansiClassColors approximates the class palette on 16-color terminals.
var ansiClassColors = map[model.ClassLevel]lipgloss.ANSIColor{
	1: 11, // bright yellow
	2: 3,  // yellow/orange
	3: 5,  // magenta
	4: 2,  // green
	5: 4,  // blue
	6: 1,  // red
}

// MarkerColor maps a marker fill to a terminal colour. The class palette is
// used as-is on ANSI256+ terminals.
func MarkerColor(fill string, class model.ClassLevel) lipgloss.TerminalColor {
	if TermProfile >= colorprofile.ANSI256 {
		return lipgloss.Color(fill)
	}
	if c, ok := ansiClassColors[class]; ok {
		return c
	}
	return lipgloss.ANSIColor(8)
}

// Theme holds the pre-computed styles for every pane.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Base       lipgloss.Style
	Header     lipgloss.Style
	NavActive  lipgloss.Style
	NavIdle    lipgloss.Style
	Pane       lipgloss.Style
	PaneFocus  lipgloss.Style
	Selected   lipgloss.Style
	MutedText  lipgloss.Style
	Status     lipgloss.Style
	StatusErr  lipgloss.Style
	Tooltip    lipgloss.Style
	GroupTitle lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},
		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Danger:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})
	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	t.NavActive = r.NewStyle().Foreground(t.Primary).Bold(true).Underline(true)
	t.NavIdle = r.NewStyle().Foreground(t.Subtext)
	t.Pane = r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border)
	t.PaneFocus = t.Pane.BorderForeground(t.Primary)
	t.Selected = r.NewStyle().Background(t.Highlight).Bold(true)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.Status = r.NewStyle().Foreground(t.Subtext)
	t.StatusErr = r.NewStyle().Foreground(t.Danger).Bold(true)
	t.Tooltip = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.GroupTitle = r.NewStyle().Foreground(t.Secondary).Bold(true)
	return t
}

// NewRenderer returns a renderer for w with the background forced for the
// "dark" and "light" themes. "auto" keeps terminal detection.
func NewRenderer(w io.Writer, theme string) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	switch theme {
	case "dark":
		r.SetHasDarkBackground(true)
	case "light":
		r.SetHasDarkBackground(false)
	}
	return r
}
