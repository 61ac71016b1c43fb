// Package export writes static artifacts from a loaded school dataset: map
// snapshots (SVG or PNG) of the current filter view and a SQLite lookup
// database that the datasource package can read back.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
	"gonum.org/v1/gonum/floats"

	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/viewsync"
)

// MapSnapshotOptions controls map snapshot export behaviour.
type MapSnapshotOptions struct {
	Path        string              // Output path; format inferred from extension when Format empty
	Format      string              // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title       string              // Optional title rendered in the header
	Description string              // Filter description, e.g. "Classes: Class 3"
	Entities    []model.Entity      // Every school; hidden ones are left out of the drawing
	Visibility  viewsync.Visibility // nil shows every school
	Highlighted string              // Name drawn with the highlight style
	Labels      bool                // Draw every visible school's name
	Width       int                 // Canvas width in pixels (default 1200)
	Height      int                 // Canvas height in pixels (default 900)
	Styles      *viewsync.StyleCache
}

const (
	defaultSnapshotWidth  = 1200
	defaultSnapshotHeight = 900
	headerHeight          = 120.0
	mapPadding            = 40.0
)

// SaveMapSnapshot renders the visible markers to an SVG or PNG file.
func SaveMapSnapshot(opts MapSnapshotOptions) error {
	if len(opts.Entities) == 0 {
		return fmt.Errorf("no schools to export")
	}

	format, path, err := resolveFormat(opts.Format, opts.Path)
	if err != nil {
		return err
	}
	opts.Path = path

	if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	layout := buildLayout(opts)
	switch format {
	case "png":
		return renderPNG(opts.Path, layout)
	default:
		file, err := os.Create(opts.Path)
		if err != nil {
			return err
		}
		if err := renderSVG(file, layout); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	}
}

// WriteMapSVG renders the snapshot as SVG to w.
func WriteMapSVG(w io.Writer, opts MapSnapshotOptions) error {
	if len(opts.Entities) == 0 {
		return fmt.Errorf("no schools to export")
	}
	return renderSVG(w, buildLayout(opts))
}

func resolveFormat(format, path string) (string, string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if path != "" && filepath.Ext(path) == "" {
				path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return "", "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if path == "" {
		path = "schoolmap." + format
	}
	return format, path, nil
}

// --- layout ----------------------------------------------------------------

type layoutMarker struct {
	Name  string
	X, Y  float64
	Style model.MarkerStyle
}

type layoutResult struct {
	Markers []layoutMarker
	Width   int
	Height  int
	Title   string
	Summary []string
}

// bounds returns the lon/lat extent of the entities, padded when every
// school shares one coordinate.
func bounds(entities []model.Entity) (minLon, maxLon, minLat, maxLat float64) {
	lons := make([]float64, len(entities))
	lats := make([]float64, len(entities))
	for i, e := range entities {
		lons[i] = e.Coord.Lon()
		lats[i] = e.Coord.Lat()
	}
	minLon, maxLon = floats.Min(lons), floats.Max(lons)
	minLat, maxLat = floats.Min(lats), floats.Max(lats)
	if maxLon-minLon < 1e-6 {
		minLon -= 0.01
		maxLon += 0.01
	}
	if maxLat-minLat < 1e-6 {
		minLat -= 0.01
		maxLat += 0.01
	}
	return minLon, maxLon, minLat, maxLat
}

func buildLayout(opts MapSnapshotOptions) layoutResult {
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = defaultSnapshotWidth
	}
	if height <= 0 {
		height = defaultSnapshotHeight
	}
	styles := opts.Styles
	if styles == nil {
		styles = viewsync.NewStyleCache()
	}
	band := viewsync.ZoomBandNoLabel
	if opts.Labels {
		band = viewsync.ZoomBandLabel
	}

	// Bounds cover every school so the frame does not jump between filters.
	minLon, maxLon, minLat, maxLat := bounds(opts.Entities)
	plotW := float64(width) - 2*mapPadding
	plotH := float64(height) - headerHeight - 2*mapPadding
	sx := plotW / (maxLon - minLon)
	sy := plotH / (maxLat - minLat)

	visible := 0
	markers := make([]layoutMarker, 0, len(opts.Entities))
	var top *layoutMarker
	for _, e := range opts.Entities {
		shown := opts.Visibility == nil || opts.Visibility[e.Name]
		if !shown {
			continue
		}
		visible++
		st := styles.StyleFor(e, true, e.Name == opts.Highlighted, band)
		m := layoutMarker{
			Name:  e.Name,
			X:     mapPadding + (e.Coord.Lon()-minLon)*sx,
			Y:     headerHeight + mapPadding + (maxLat-e.Coord.Lat())*sy,
			Style: st,
		}
		if st.Highlighted {
			top = &m
			continue
		}
		markers = append(markers, m)
	}
	// highlighted marker last so it draws on top
	if top != nil {
		markers = append(markers, *top)
	}

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "VHSL Schools"
	}
	desc := opts.Description
	if desc == "" {
		desc = "All schools"
	}
	return layoutResult{
		Markers: markers,
		Width:   width,
		Height:  height,
		Title:   title,
		Summary: []string{
			desc,
			fmt.Sprintf("%d of %d schools shown", visible, len(opts.Entities)),
		},
	}
}

// --- rendering -------------------------------------------------------------

var (
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLegendBG = color.RGBA{0xee, 0xee, 0xee, 0xff}
	colorFrame    = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
)

type legendEntry struct {
	Color string
	Label string
}

func legendEntries() []legendEntry {
	entries := make([]legendEntry, 0, int(model.MaxClass)+1)
	for c := model.MinClass; c <= model.MaxClass; c++ {
		entries = append(entries, legendEntry{Color: c.Color(), Label: c.Label()})
	}
	return append(entries, legendEntry{Color: model.ColorUnset, Label: "Unassigned"})
}

func renderPNG(path string, layout layoutResult) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, headerHeight-24, 10)
	dc.Fill()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Title, 32, 44, 0, 0.5)
	dc.SetColor(colorSubtle)
	for i, line := range layout.Summary {
		dc.DrawStringAnchored(line, 32, 64+float64(i)*20, 0, 0.5)
	}
	drawLegend(dc, layout)

	for _, m := range layout.Markers {
		r := float64(m.Style.Radius)
		dc.DrawCircle(m.X, m.Y, r)
		dc.SetColor(hexColor(m.Style.Fill))
		dc.FillPreserve()
		dc.SetColor(hexColor(m.Style.Stroke))
		dc.SetLineWidth(float64(m.Style.StrokeWidth))
		dc.Stroke()
		if m.Style.Label != "" {
			dc.SetColor(colorText)
			dc.DrawStringAnchored(m.Style.Label, m.X+r+4, m.Y, 0, 0.5)
		}
	}

	return dc.SavePNG(path)
}

func drawLegend(dc *gg.Context, layout layoutResult) {
	entries := legendEntries()
	boxW := 150.0
	boxH := 24 + float64(len(entries))*13
	x := float64(layout.Width) - boxW - 24
	y := 20.0
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 8)
	dc.Fill()
	dc.SetColor(colorFrame)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 8)
	dc.Stroke()

	for i, le := range entries {
		rowY := y + 16 + float64(i)*13
		dc.SetColor(hexColor(le.Color))
		dc.DrawRoundedRectangle(x+10, rowY-5, 10, 10, 2)
		dc.Fill()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(le.Label, x+28, rowY, 0, 0.5)
	}
}

func renderSVG(w io.Writer, layout layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, layout.Width-32, int(headerHeight-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	canvas.Text(32, 44, layout.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	for i, line := range layout.Summary {
		canvas.Text(32, 64+i*20, line, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	}
	drawLegendSVG(canvas, layout)

	for _, m := range layout.Markers {
		x, y := int(m.X), int(m.Y)
		canvas.Circle(x, y, m.Style.Radius,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%d", m.Style.Fill, m.Style.Stroke, m.Style.StrokeWidth))
		if m.Style.Label != "" {
			canvas.Text(x+m.Style.Radius+4, y+4, m.Style.Label,
				fmt.Sprintf("fill:%s;font-size:11px;font-family:sans-serif", css(colorText)))
		}
	}

	canvas.End()
	return nil
}

func drawLegendSVG(canvas *svg.SVG, layout layoutResult) {
	entries := legendEntries()
	boxW := 150
	boxH := 24 + len(entries)*13
	x := layout.Width - boxW - 24
	y := 20
	canvas.Roundrect(x, y, boxW, boxH, 8, 8, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorFrame)))
	for i, le := range entries {
		rowY := y + 16 + i*13
		canvas.Roundrect(x+10, rowY-5, 10, 10, 2, 2, fmt.Sprintf("fill:%s", le.Color))
		canvas.Text(x+28, rowY+4, le.Label, fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}
}

// --- helpers ---------------------------------------------------------------

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// hexColor parses "#rrggbb". Malformed input yields the unset grey.
func hexColor(s string) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.TrimPrefix(s, "#"), "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{0x99, 0x99, 0x99, 0xff}
	}
	return color.RGBA{r, g, b, 0xff}
}
