package ui

import (
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/paulmach/orb"

	"github.com/vanderheijden86/schoolmap/pkg/controller"
	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// Zoom limits for the canvas.
const (
	MinZoom = 4.0
	MaxZoom = 16.0
)

// A terminal cell stands in for an 8x16 pixel block of a 256px web map tile.
const (
	tileSize     = 256.0
	cellWidthPx  = 8.0
	cellHeightPx = 16.0
)

const (
	glyphMarker      = '●'
	glyphHighlighted = '◉'
	glyphCursor      = '+'
)

// Canvas is the character-cell map surface. It implements controller.MapView
// with a linear lon/lat to cell mapping.
type Canvas struct {
	entities []model.Entity
	index    map[string]int
	styles   map[string]model.MarkerStyle

	center orb.Point
	zoom   float64
	width  int
	height int
	cursor controller.Pixel

	lastAnimation time.Duration
	zoomDirty     bool
}

// NewCanvas returns a canvas over entities centred on center.
func NewCanvas(entities []model.Entity, center orb.Point, zoom float64) *Canvas {
	c := &Canvas{center: center, zoom: clampZoom(zoom), width: 80, height: 24}
	c.SetEntities(entities)
	c.cursor = controller.Pixel{X: c.width / 2, Y: c.height / 2}
	return c
}

// SetEntities replaces the markers. Styles are cleared until the next sync.
func (c *Canvas) SetEntities(entities []model.Entity) {
	c.entities = entities
	c.index = make(map[string]int, len(entities))
	c.styles = make(map[string]model.MarkerStyle, len(entities))
	for i, e := range entities {
		c.index[e.Name] = i
	}
}

// SetMarkerStyle implements viewsync.MapSink.
func (c *Canvas) SetMarkerStyle(name string, style model.MarkerStyle) {
	if _, ok := c.index[name]; ok {
		c.styles[name] = style
	}
}

// MarkerStyle returns the style last applied to name.
func (c *Canvas) MarkerStyle(name string) (model.MarkerStyle, bool) {
	st, ok := c.styles[name]
	return st, ok
}

// PanZoomTo implements controller.MapView. The terminal has no animation;
// the duration is recorded and the view moves at once.
func (c *Canvas) PanZoomTo(center orb.Point, zoom float64, d time.Duration) {
	c.center = center
	c.lastAnimation = d
	c.setZoom(zoom)
}

// Pan moves the view by whole cells.
func (c *Canvas) Pan(dCols, dRows int) {
	c.center = orb.Point{
		c.center.Lon() + float64(dCols)/colsPerDegree(c.zoom),
		c.center.Lat() - float64(dRows)/rowsPerDegree(c.zoom),
	}
}

// ZoomBy changes the zoom level by delta, keeping the centre.
func (c *Canvas) ZoomBy(delta float64) {
	c.setZoom(c.zoom + delta)
}

func (c *Canvas) setZoom(z float64) {
	z = clampZoom(z)
	if z != c.zoom {
		c.zoom = z
		c.zoomDirty = true
	}
}

// TakeZoomChange reports a zoom change since the last call.
func (c *Canvas) TakeZoomChange() (float64, bool) {
	if !c.zoomDirty {
		return c.zoom, false
	}
	c.zoomDirty = false
	return c.zoom, true
}

// Resize sets the canvas size in cells and keeps the cursor inside it.
func (c *Canvas) Resize(width, height int) {
	c.width = max(width, 1)
	c.height = max(height, 1)
	c.MoveCursor(0, 0)
}

// Size returns the canvas size in cells.
func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

// Center returns the current centre.
func (c *Canvas) Center() orb.Point {
	return c.center
}

// Zoom returns the current zoom level.
func (c *Canvas) Zoom() float64 {
	return c.zoom
}

// LastAnimation returns the duration requested by the last PanZoomTo.
func (c *Canvas) LastAnimation() time.Duration {
	return c.lastAnimation
}

// Cursor returns the keyboard pointer position.
func (c *Canvas) Cursor() controller.Pixel {
	return c.cursor
}

// SetCursor moves the pointer to p, clamped to the canvas.
func (c *Canvas) SetCursor(p controller.Pixel) {
	c.cursor = controller.Pixel{
		X: min(max(p.X, 0), c.width-1),
		Y: min(max(p.Y, 0), c.height-1),
	}
}

// MoveCursor moves the pointer by a cell offset.
func (c *Canvas) MoveCursor(dx, dy int) {
	c.SetCursor(controller.Pixel{X: c.cursor.X + dx, Y: c.cursor.Y + dy})
}

func clampZoom(z float64) float64 {
	return math.Min(math.Max(z, MinZoom), MaxZoom)
}

func colsPerDegree(zoom float64) float64 {
	return tileSize * math.Pow(2, zoom) / 360 / cellWidthPx
}

func rowsPerDegree(zoom float64) float64 {
	return tileSize * math.Pow(2, zoom) / 360 / cellHeightPx
}

// Project maps a coordinate to a cell. ok is false outside the canvas.
func (c *Canvas) Project(p orb.Point) (col, row int, ok bool) {
	fc := (p.Lon()-c.center.Lon())*colsPerDegree(c.zoom) + float64(c.width)/2
	fr := (c.center.Lat()-p.Lat())*rowsPerDegree(c.zoom) + float64(c.height)/2
	col, row = int(math.Floor(fc)), int(math.Floor(fr))
	return col, row, col >= 0 && col < c.width && row >= 0 && row < c.height
}

// Unproject maps a cell centre back to a coordinate.
func (c *Canvas) Unproject(p controller.Pixel) orb.Point {
	return orb.Point{
		c.center.Lon() + (float64(p.X)+0.5-float64(c.width)/2)/colsPerDegree(c.zoom),
		c.center.Lat() - (float64(p.Y)+0.5-float64(c.height)/2)/rowsPerDegree(c.zoom),
	}
}

// HitTest implements controller.MapView. It returns the drawn marker nearest
// to p within one cell; hidden markers are never hit.
func (c *Canvas) HitTest(p controller.Pixel) (string, bool) {
	best, bestDist := "", math.MaxInt
	for _, e := range c.entities {
		st, ok := c.styles[e.Name]
		if !ok || st.Hidden {
			continue
		}
		col, row, in := c.Project(e.Coord)
		if !in {
			continue
		}
		dx, dy := col-p.X, row-p.Y
		if dx < -1 || dx > 1 || dy < -1 || dy > 1 {
			continue
		}
		if d := dx*dx + dy*dy; d < bestDist {
			best, bestDist = e.Name, d
		}
	}
	return best, best != ""
}

// FitBounds centres the view on every marker and picks the largest zoom
// that shows them all.
func (c *Canvas) FitBounds() {
	if len(c.entities) == 0 {
		return
	}
	mp := make(orb.MultiPoint, len(c.entities))
	for i, e := range c.entities {
		mp[i] = e.Coord
	}
	b := mp.Bound()
	c.center = b.Center()
	z := MaxZoom
	for z > MinZoom {
		if b.Right()-b.Left() <= float64(c.width-2)/colsPerDegree(z) &&
			b.Top()-b.Bottom() <= float64(c.height-2)/rowsPerDegree(z) {
			break
		}
		z--
	}
	c.setZoom(z)
}

type cell struct {
	ch    rune
	color lipgloss.TerminalColor
	key   string
	bold  bool
	cont  bool // right half of a wide rune
}

// Render draws the visible markers, their labels and the cursor.
func (c *Canvas) Render(r *lipgloss.Renderer, showCursor bool) string {
	grid := make([][]cell, c.height)
	for i := range grid {
		grid[i] = make([]cell, c.width)
		for j := range grid[i] {
			grid[i][j].ch = ' '
		}
	}

	type placed struct {
		e        model.Entity
		st       model.MarkerStyle
		col, row int
	}
	var normal, top []placed
	for _, e := range c.entities {
		st, ok := c.styles[e.Name]
		if !ok || st.Hidden {
			continue
		}
		col, row, in := c.Project(e.Coord)
		if !in {
			continue
		}
		p := placed{e: e, st: st, col: col, row: row}
		if st.Highlighted {
			top = append(top, p)
		} else {
			normal = append(normal, p)
		}
	}
	all := append(normal, top...)

	for _, p := range all {
		g := glyphMarker
		if p.st.Highlighted {
			g = glyphHighlighted
		}
		grid[p.row][p.col] = cell{ch: g, color: MarkerColor(p.st.Fill, p.e.Class), key: p.st.Fill, bold: p.st.Highlighted}
	}
	for _, p := range all {
		if p.st.Label != "" {
			drawLabel(grid[p.row], p.col+2, p.st.Label, p.st.Highlighted)
		}
	}
	if showCursor && c.cursor.Y < len(grid) && c.cursor.X < c.width {
		at := &grid[c.cursor.Y][c.cursor.X]
		if at.ch == ' ' {
			at.ch = glyphCursor
		}
		at.bold = true
		at.key += "|cursor"
	}

	styles := make(map[string]lipgloss.Style)
	var sb strings.Builder
	for i, line := range grid {
		if i > 0 {
			sb.WriteByte('\n')
		}
		renderRow(&sb, r, styles, line)
	}
	return sb.String()
}

// drawLabel writes text into free cells starting at col, stopping at the
// first occupied cell or the edge.
func drawLabel(line []cell, col int, text string, bold bool) {
	if col >= len(line) {
		return
	}
	avail := 0
	for i := col; i < len(line) && line[i].ch == ' ' && !line[i].cont; i++ {
		avail++
	}
	if avail < 3 {
		return
	}
	text = runewidth.Truncate(text, avail, "…")
	i := col
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		if w == 0 || i+w > len(line) {
			continue
		}
		line[i] = cell{ch: ch, bold: bold, key: labelKey(bold)}
		if w == 2 {
			line[i+1] = cell{cont: true}
		}
		i += w
	}
}

func labelKey(bold bool) string {
	if bold {
		return "label|bold"
	}
	return ""
}

func renderRow(sb *strings.Builder, r *lipgloss.Renderer, styles map[string]lipgloss.Style, line []cell) {
	var run strings.Builder
	runKey := ""
	var runCell cell
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if runKey == "" {
			sb.WriteString(run.String())
		} else {
			st, ok := styles[runKey]
			if !ok {
				st = r.NewStyle().Bold(runCell.bold)
				if runCell.color != nil {
					st = st.Foreground(runCell.color)
				}
				if strings.HasSuffix(runKey, "|cursor") {
					st = st.Reverse(true)
				}
				styles[runKey] = st
			}
			sb.WriteString(st.Render(run.String()))
		}
		run.Reset()
	}
	for _, cl := range line {
		if cl.cont {
			continue
		}
		if cl.key != runKey {
			flush()
			runKey, runCell = cl.key, cl
		}
		run.WriteRune(cl.ch)
	}
	flush()
}
