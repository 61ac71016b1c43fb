package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// VHSLURL is linked from every detail panel.
const VHSLURL = "https://www.vhsl.org"

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
// Uses go-runewidth to handle wide characters correctly.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	targetWidth := maxWidth - suffixWidth
	return runewidth.Truncate(s, targetWidth, "") + suffix
}

// truncate shortens s to maxWidth cells with an ellipsis.
func truncate(s string, maxWidth int) string {
	return truncateRunesHelper(s, maxWidth, "…")
}

// padRight pads s with spaces to width cells.
func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// DetailMarkdown renders the detail panel body for a school.
func DetailMarkdown(e model.Entity) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", e.Name)
	fmt.Fprintf(&sb, "- **Class:** %s\n", e.Class)
	fmt.Fprintf(&sb, "- **Region:** %s\n", orNA(e.Region))
	fmt.Fprintf(&sb, "- **District:** %s\n", orNA(e.District))
	fmt.Fprintf(&sb, "- **Location:** %.4f, %.4f\n\n", e.Coord.Lat(), e.Coord.Lon())
	fmt.Fprintf(&sb, "[View on VHSL website](%s)\n", VHSLURL)
	return sb.String()
}

// ClipboardText is what the copy key puts on the clipboard.
func ClipboardText(e model.Entity) string {
	return fmt.Sprintf("%s (%.5f, %.5f)", e.Name, e.Coord.Lat(), e.Coord.Lon())
}

// MarkdownRenderer renders detail markdown with glamour, rebuilding the
// term renderer only when the width changes.
type MarkdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer returns a renderer for theme "dark", "light" or "auto".
func NewMarkdownRenderer(theme string) *MarkdownRenderer {
	style := theme
	if style != "dark" && style != "light" {
		style = "auto"
	}
	return &MarkdownRenderer{style: style}
}

// Render renders md wrapped at width. On failure the raw markdown is returned.
func (m *MarkdownRenderer) Render(md string, width int) string {
	if width < 10 {
		width = 10
	}
	if m.renderer == nil || m.width != width {
		opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
		if m.style == "auto" {
			opts = append(opts, glamour.WithAutoStyle())
		} else {
			opts = append(opts, glamour.WithStandardStyle(m.style))
		}
		r, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return md
		}
		m.renderer, m.width = r, width
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	// glamour pads with blank lines
	return strings.Trim(out, "\n")
}
