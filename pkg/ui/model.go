// Package ui is the terminal host for schoolmap: a Bubble Tea program that
// renders the school map, sidebar and search box, and turns keyboard and
// mouse input into controller events.
package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/schoolmap/pkg/controller"
	"github.com/vanderheijden86/schoolmap/pkg/debug"
	"github.com/vanderheijden86/schoolmap/pkg/metrics"
	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/viewsync"
	"github.com/vanderheijden86/schoolmap/pkg/watcher"
)

// Layout constants (in cells).
const (
	SidebarWidth    = 38
	defaultWidth    = 120
	defaultHeight   = 40
	reloadTimeout   = 30 * time.Second
	minCanvasHeight = 3
)

// focus represents which pane has keyboard focus
type focus int

const (
	focusMap focus = iota
	focusFilters
	focusList
	focusSearch
	focusResults
	focusDetail
)

func (f focus) String() string {
	switch f {
	case focusFilters:
		return "filters"
	case focusList:
		return "list"
	case focusSearch:
		return "search"
	case focusResults:
		return "results"
	case focusDetail:
		return "detail"
	default:
		return "map"
	}
}

// LoadFunc loads a fresh dataset for live reload.
type LoadFunc func(ctx context.Context) (*controller.Dataset, error)

// FileChangedMsg is sent when the watched data changes on disk
type FileChangedMsg struct{}

// DatasetLoadedMsg carries the result of a reload.
type DatasetLoadedMsg struct {
	Dataset *controller.Dataset
	Err     error
}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// Options configure the Model.
type Options struct {
	Controller controller.Options
	Theme      string // auto, dark, light
	Loader     LoadFunc
	Watcher    *watcher.Watcher
	Renderer   *lipgloss.Renderer // defaults to stdout
}

// Model is the main Bubble Tea model for schoolmap
type Model struct {
	ctrl    *controller.Controller
	canvas  *Canvas
	panels  *Panels
	list    *viewsync.ListModel
	filters *FilterControls
	status  *StatusLine
	sched   *TickScheduler

	search   textinput.Model
	viewport viewport.Model
	help     help.Model
	keys     KeyMap
	md       *MarkdownRenderer
	theme    Theme
	opts     Options

	focused    focus
	listCursor int
	width      int
	height     int
	showHelp   bool
	showLegend bool
	lastQuery  string

	statusMsg     string
	statusIsError bool
}

// NewModel builds the host and its controller over ds.
func NewModel(ds *controller.Dataset, opts Options) Model {
	r := opts.Renderer
	if r == nil {
		r = NewRenderer(os.Stdout, opts.Theme)
	}
	theme := DefaultTheme(r)

	entities := ds.Store.All()
	canvas := NewCanvas(entities, opts.Controller.Center, opts.Controller.Zoom)
	panels := NewPanels()
	list := viewsync.NewListModel(entities)
	filters := NewFilterControls(ds.Categories)
	status := &StatusLine{}
	sched := &TickScheduler{}

	ctrl := controller.New(ds, controller.Deps{
		Map:       canvas,
		Panel:     panels,
		Scheduler: sched,
		List:      list,
		Controls:  filters,
		Status:    status,
	}, opts.Controller)

	ti := textinput.New()
	ti.Placeholder = "Search schools, regions, districts"
	ti.Prompt = "/ "
	ti.CharLimit = 80
	ti.PromptStyle = r.NewStyle().Foreground(theme.Primary)

	m := Model{
		ctrl:     ctrl,
		canvas:   canvas,
		panels:   panels,
		list:     list,
		filters:  filters,
		status:   status,
		sched:    sched,
		search:   ti,
		viewport: viewport.New(SidebarWidth-2, 10),
		help:     help.New(),
		keys:     DefaultKeyMap(),
		md:       NewMarkdownRenderer(opts.Theme),
		theme:    theme,
		opts:     opts,

		showLegend: true,
	}
	// Usable before the first WindowSizeMsg arrives.
	m.layout(defaultWidth, defaultHeight)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.opts.Watcher != nil {
		return WatchFileCmd(m.opts.Watcher)
	}
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout(msg.Width, msg.Height)
		m.dispatch(controller.Resized{Width: msg.Width, Height: msg.Height})

	case timerMsg:
		m.dispatch(msg.ev)

	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case FileChangedMsg:
		if m.opts.Watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
		}
		if m.opts.Loader != nil {
			cmds = append(cmds, reloadCmd(m.opts.Loader))
		}

	case DatasetLoadedMsg:
		if msg.Err != nil {
			m.setError(fmt.Sprintf("Reload failed: %v", msg.Err))
		} else {
			m.applyReload(msg.Dataset)
		}
	}

	m.afterDispatch()
	cmds = append(cmds, m.sched.Drain())
	return m, tea.Batch(cmds...)
}

func reloadCmd(load LoadFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		ds, err := load(ctx)
		return DatasetLoadedMsg{Dataset: ds, Err: err}
	}
}

// dispatch forwards ev and shows any error in the status bar.
func (m *Model) dispatch(ev controller.Event) {
	if err := m.ctrl.Dispatch(ev); err != nil {
		debug.Log("dispatch %T: %v", ev, err)
		m.setError(err.Error())
	}
}

// afterDispatch reports canvas zoom changes and refreshes the detail pane.
func (m *Model) afterDispatch() {
	if z, ok := m.canvas.TakeZoomChange(); ok {
		m.dispatch(controller.ResolutionChanged{Zoom: z})
	}
	if m.panels.takeDetailChange() {
		m.refreshDetail()
		if _, ok := m.panels.Detail(); !ok && m.focused == focusDetail {
			m.focused = focusMap
		}
	}
	if _, shown := m.panels.Results(); !shown && m.focused == focusResults {
		m.focused = focusMap
	}
	m.clampListCursor()
}

func (m *Model) setError(msg string) {
	m.statusMsg = msg
	m.statusIsError = true
}

func (m *Model) setInfo(msg string) {
	m.statusMsg = msg
	m.statusIsError = false
}

func (m *Model) applyReload(ds *controller.Dataset) {
	entities := ds.Store.All()
	m.canvas.SetEntities(entities)
	m.list.Reset(entities)
	m.filters.SetCategories(ds.Categories)
	dropped := m.ctrl.Reload(ds)
	msg := fmt.Sprintf("Reloaded %d schools", ds.Store.Len())
	if len(dropped) > 0 {
		msg += fmt.Sprintf(" (dropped filters: %s)", strings.Join(dropped, ", "))
	}
	m.setInfo(msg)
}

// --- layout ----------------------------------------------------------------

func (m Model) narrow() bool {
	return m.width < m.opts.Controller.NarrowWidth
}

// chromeHeight is the number of rows outside the body: header, search,
// status, legend and help.
func (m Model) chromeHeight() int {
	h := 3 + lipgloss.Height(m.helpView())
	if m.showLegend {
		h++
	}
	return h
}

func (m Model) bodyHeight() int {
	return max(m.height-m.chromeHeight(), minCanvasHeight+2)
}

func (m Model) mapWidth() int {
	if m.narrow() {
		return m.width
	}
	return max(m.width-SidebarWidth, 20)
}

// mapOrigin is the screen cell of the canvas's top-left corner.
func (m Model) mapOrigin() (int, int) {
	return 1, 2 + 1
}

func (m *Model) layout(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width
	m.search.Width = max(width-4, 10)
	m.canvas.Resize(m.mapWidth()-2, m.bodyHeight()-2)
	m.viewport.Width = SidebarWidth - 4
	m.viewport.Height = max(m.bodyHeight()/2-3, 3)
	m.refreshDetail()
}

func (m *Model) refreshDetail() {
	e, ok := m.panels.Detail()
	if !ok {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(m.md.Render(DetailMarkdown(e), m.viewport.Width))
	m.viewport.GotoTop()
}

// --- input -----------------------------------------------------------------

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.focused == focusSearch {
		return m.handleSearchKeys(msg), false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return nil, true
	case key.Matches(msg, m.keys.Search):
		m.focused = focusSearch
		return m.search.Focus(), false
	case key.Matches(msg, m.keys.NextPane):
		m.cycleFocus()
		return nil, false
	case key.Matches(msg, m.keys.ViewAll):
		m.navigate(model.ViewAll)
		return nil, false
	case key.Matches(msg, m.keys.ViewClasses):
		m.navigate(model.ViewClasses)
		return nil, false
	case key.Matches(msg, m.keys.ViewRegions):
		m.navigate(model.ViewRegions)
		return nil, false
	case key.Matches(msg, m.keys.ViewDistr):
		m.navigate(model.ViewDistricts)
		return nil, false
	case key.Matches(msg, m.keys.Reset):
		m.dispatch(controller.ResetFilters{})
		m.filters.ResetCursor()
		m.setInfo("Filters cleared")
		return nil, false
	case key.Matches(msg, m.keys.Close):
		m.closeTop()
		return nil, false
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.layout(m.width, m.height)
		return nil, false
	case key.Matches(msg, m.keys.Legend):
		m.showLegend = !m.showLegend
		m.layout(m.width, m.height)
		return nil, false
	case key.Matches(msg, m.keys.Copy):
		m.copySchool()
		return nil, false
	case key.Matches(msg, m.keys.List):
		if m.narrow() {
			if m.panels.SlideOver() {
				m.panels.CloseSlideOver()
				m.focused = focusMap
			} else {
				m.panels.OpenSlideOver()
				m.focused = focusList
			}
		}
		return nil, false
	}

	switch m.focused {
	case focusMap:
		m.handleMapKeys(msg)
	case focusFilters:
		m.handleFilterKeys(msg)
	case focusList:
		m.handleListKeys(msg)
	case focusResults:
		m.handleResultKeys(msg)
	case focusDetail:
		m.handleDetailKeys(msg)
	}
	return nil, false
}

func (m *Model) navigate(mode model.ViewMode) {
	m.dispatch(controller.NavClick{Mode: mode})
	m.filters.ResetCursor()
	m.setInfo("")
}

func (m *Model) cycleFocus() {
	order := []focus{focusMap, focusFilters, focusList}
	if _, shown := m.panels.Results(); shown {
		order = []focus{focusMap, focusResults, focusList}
	}
	if _, ok := m.panels.Detail(); ok {
		order = append(order, focusDetail)
	}
	next := order[0]
	for i, f := range order {
		if f == m.focused {
			next = order[(i+1)%len(order)]
			break
		}
	}
	m.focused = next
}

// closeTop closes the innermost overlay: results, detail, then slide-over.
func (m *Model) closeTop() {
	if _, shown := m.panels.Results(); shown {
		m.search.SetValue("")
		m.lastQuery = ""
		m.dispatch(controller.SearchSubmit{Text: ""})
		m.focused = focusMap
		return
	}
	if _, ok := m.panels.Detail(); ok {
		m.dispatch(controller.CloseDetail{})
		m.focused = focusMap
		return
	}
	if m.panels.SlideOver() {
		m.panels.CloseSlideOver()
		m.focused = focusMap
	}
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC:
		return tea.Quit
	case tea.KeyEsc:
		m.search.Blur()
		m.focused = focusMap
		return nil
	case tea.KeyTab:
		m.search.Blur()
		m.cycleFocus()
		return nil
	case tea.KeyEnter:
		m.lastQuery = m.search.Value()
		m.dispatch(controller.SearchSubmit{Text: m.lastQuery})
		if items, shown := m.panels.Results(); shown && len(items) > 0 {
			m.search.Blur()
			m.focused = focusResults
		}
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != m.lastQuery {
		m.lastQuery = v
		m.dispatch(controller.SearchInput{Text: v})
	}
	return cmd
}

func (m *Model) handleMapKeys(msg tea.KeyMsg) {
	dx, dy := 0, 0
	switch {
	case key.Matches(msg, m.keys.Up):
		dy = -1
	case key.Matches(msg, m.keys.Down):
		dy = 1
	case key.Matches(msg, m.keys.Left):
		dx = -1
	case key.Matches(msg, m.keys.Right):
		dx = 1
	case key.Matches(msg, m.keys.ZoomIn):
		m.canvas.ZoomBy(1)
		return
	case key.Matches(msg, m.keys.ZoomOut):
		m.canvas.ZoomBy(-1)
		return
	case key.Matches(msg, m.keys.Fit):
		m.canvas.FitBounds()
		return
	case key.Matches(msg, m.keys.Select):
		m.dispatch(controller.MapClick{Pixel: m.canvas.Cursor()})
		if _, ok := m.panels.Detail(); ok {
			m.focused = focusDetail
		}
		return
	default:
		return
	}
	m.moveCursor(dx, dy)
}

// moveCursor moves the map pointer, panning when it would leave the canvas.
func (m *Model) moveCursor(dx, dy int) {
	w, h := m.canvas.Size()
	cur := m.canvas.Cursor()
	nx, ny := cur.X+dx, cur.Y+dy
	if nx < 0 || nx >= w || ny < 0 || ny >= h {
		m.canvas.Pan(dx, dy)
	} else {
		m.canvas.MoveCursor(dx, dy)
	}
	m.dispatch(controller.PointerMove{Pixel: m.canvas.Cursor()})
}

func (m *Model) handleFilterKeys(msg tea.KeyMsg) {
	mode := m.panels.Exposed()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.filters.Move(mode, -1)
	case key.Matches(msg, m.keys.Down):
		m.filters.Move(mode, 1)
	case key.Matches(msg, m.keys.Toggle), key.Matches(msg, m.keys.Select):
		row, ok := m.filters.Selected(mode)
		if !ok {
			return
		}
		m.dispatch(controller.CheckboxChanged{
			Dimension: string(row.Dimension),
			Value:     row.Value,
			Checked:   !row.Checked,
		})
	}
}

func (m *Model) clampListCursor() {
	n := len(m.list.VisibleItems())
	if m.listCursor >= n {
		m.listCursor = n - 1
	}
	if m.listCursor < 0 {
		m.listCursor = 0
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) {
	items := m.list.VisibleItems()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.listCursor--
	case key.Matches(msg, m.keys.Down):
		m.listCursor++
	case key.Matches(msg, m.keys.Select):
		if m.listCursor < len(items) {
			m.dispatch(controller.ListItemClick{Name: items[m.listCursor].Entity.Name})
		}
		if m.narrow() {
			m.focused = focusMap
		} else {
			m.focused = focusDetail
		}
	}
	m.clampListCursor()
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.panels.moveResult(-1)
	case key.Matches(msg, m.keys.Down):
		m.panels.moveResult(1)
	case key.Matches(msg, m.keys.Select):
		item, ok := m.panels.selectedResult()
		if !ok {
			return
		}
		m.dispatch(item.Event())
		m.search.SetValue("")
		m.lastQuery = ""
		if item.Kind == ResultSchool {
			m.focused = focusDetail
		} else {
			m.focused = focusFilters
			m.filters.ResetCursor()
		}
	}
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	ox, oy := m.mapOrigin()
	p := controller.Pixel{X: msg.X - ox, Y: msg.Y - oy}
	w, h := m.canvas.Size()
	if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h {
		return
	}
	if m.narrow() && m.panels.SlideOver() {
		return
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.canvas.ZoomBy(1)
	case msg.Button == tea.MouseButtonWheelDown:
		m.canvas.ZoomBy(-1)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.canvas.SetCursor(p)
		m.dispatch(controller.MapClick{Pixel: p})
	case msg.Action == tea.MouseActionMotion:
		m.canvas.SetCursor(p)
		m.dispatch(controller.PointerMove{Pixel: p, Dragging: msg.Button == tea.MouseButtonLeft})
	}
}

// copySchool copies the school in the detail panel, or the hovered one.
func (m *Model) copySchool() {
	name := m.ctrl.Detail()
	if name == "" {
		name = m.ctrl.Hovered()
	}
	e, ok := m.ctrl.Dataset().Store.ByName(name)
	if !ok {
		m.setError("No school selected")
		return
	}
	if err := clipboard.WriteAll(ClipboardText(e)); err != nil {
		m.setError(fmt.Sprintf("Clipboard error: %v", err))
		return
	}
	m.setInfo(fmt.Sprintf("Copied %s to clipboard", e.Name))
}

// --- accessors -------------------------------------------------------------

// Controller returns the controller driven by the model.
func (m Model) Controller() *controller.Controller { return m.ctrl }

// Canvas returns the map surface.
func (m Model) Canvas() *Canvas { return m.canvas }

// Panels returns the overlay state.
func (m Model) Panels() *Panels { return m.panels }

// FocusState returns the focused pane name.
func (m Model) FocusState() string { return m.focused.String() }

// StatusMessage returns the transient status text and whether it is an error.
func (m Model) StatusMessage() (string, bool) { return m.statusMsg, m.statusIsError }

// --- view ------------------------------------------------------------------

// View implements tea.Model.
func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	header := m.renderHeader()
	search := m.search.View()
	body := m.renderBody()
	status := m.renderStatus()
	rows := []string{header, search, body, status}
	if m.showLegend {
		rows = append(rows, m.renderLegend())
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(rows, m.helpView())...)
}

// renderLegend is the class colour key, one marker per class plus unset.
func (m Model) renderLegend() string {
	parts := []string{m.theme.MutedText.Render("Legend:")}
	for c := model.ClassLevel(1); c <= 6; c++ {
		parts = append(parts, m.legendEntry(c, c.Label()))
	}
	parts = append(parts, m.legendEntry(0, "Unset"))
	return truncateANSI(strings.Join(parts, "  "), m.width)
}

func (m Model) legendEntry(c model.ClassLevel, label string) string {
	dot := m.theme.Renderer.NewStyle().Foreground(MarkerColor(c.Color(), c)).Render(string(glyphMarker))
	return dot + " " + label
}

// LegendVisible reports whether the class legend is shown.
func (m Model) LegendVisible() bool {
	return m.showLegend
}

func (m Model) helpView() string {
	if m.showHelp {
		return m.help.FullHelpView(m.keys.FullHelp())
	}
	return m.help.ShortHelpView(m.keys.ShortHelp())
}

func (m Model) renderHeader() string {
	var tabs []string
	for _, mode := range model.ViewModes {
		st := m.theme.NavIdle
		if mode == m.ctrl.Mode() {
			st = m.theme.NavActive
		}
		tabs = append(tabs, st.Render(mode.Title()))
	}
	title := m.theme.Header.Render("VHSL Schools")
	return truncateANSI(title+" "+strings.Join(tabs, "  "), m.width)
}

func truncateANSI(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func (m Model) pane(content string, width, height int, focused bool) string {
	st := m.theme.Pane
	if focused {
		st = m.theme.PaneFocus
	}
	return st.Width(width - 2).Height(height - 2).MaxHeight(height).Render(content)
}

func (m Model) renderBody() string {
	h := m.bodyHeight()
	if m.narrow() {
		if m.panels.SlideOver() {
			return m.pane(m.renderList(m.width-4, h-2), m.width, h, true)
		}
		return m.renderMap(m.width, h)
	}
	mapView := m.renderMap(m.mapWidth(), h)
	return lipgloss.JoinHorizontal(lipgloss.Top, mapView, m.renderSidebar(h))
}

func (m Model) renderMap(width, height int) string {
	content := m.canvas.Render(m.theme.Renderer, m.focused == focusMap)
	return m.pane(content, width, height, m.focused == focusMap)
}

func (m Model) renderSidebar(height int) string {
	topH := height / 2
	botH := height - topH
	inner := SidebarWidth - 4

	var top string
	if _, shown := m.panels.Results(); shown {
		top = m.pane(m.renderResults(inner, topH-2), SidebarWidth, topH, m.focused == focusResults)
	} else {
		top = m.pane(m.renderFilters(inner, topH-2), SidebarWidth, topH, m.focused == focusFilters)
	}

	var bottom string
	if _, ok := m.panels.Detail(); ok {
		bottom = m.pane(m.viewport.View(), SidebarWidth, botH, m.focused == focusDetail)
	} else {
		bottom = m.pane(m.renderList(inner, botH-2), SidebarWidth, botH, m.focused == focusList)
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

// window returns the [start, end) range of n rows that keeps cursor in view.
func window(n, cursor, height int) (int, int) {
	if height <= 0 || n == 0 {
		return 0, 0
	}
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	return start, min(start+height, n)
}

func (m Model) renderFilters(width, height int) string {
	mode := m.panels.Exposed()
	rows := m.filters.Rows(mode)
	if len(rows) == 0 {
		return m.theme.MutedText.Render("No filters")
	}
	var lines []string
	start, end := window(len(rows), m.filters.Cursor(), height)
	var lastDim model.Dimension
	for i := start; i < end; i++ {
		row := rows[i]
		if row.Dimension != lastDim && len(groups(mode)) > 1 {
			lines = append(lines, m.theme.GroupTitle.Render(row.Dimension.Title()))
			lastDim = row.Dimension
		}
		box := "[ ]"
		if row.Checked {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, row.Value)
		count := fmt.Sprintf("%d", row.Count)
		line = padRight(truncate(line, width-len(count)-1), width-len(count)) + count
		if m.focused == focusFilters && i == m.filters.Cursor() {
			line = m.theme.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderList(width, height int) string {
	items := m.list.VisibleItems()
	if len(items) == 0 {
		return m.theme.MutedText.Render("No schools match the filters")
	}
	var lines []string
	start, end := window(len(items), m.listCursor, height)
	for i := start; i < end; i++ {
		e := items[i].Entity
		dot := m.theme.Renderer.NewStyle().Foreground(MarkerColor(e.Class.Color(), e.Class)).Render(string(glyphMarker))
		line := truncate(e.Name, width-2)
		if m.focused == focusList && i == m.listCursor {
			line = m.theme.Selected.Render(padRight(line, width-2))
		}
		lines = append(lines, dot+" "+line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderResults(width, height int) string {
	items, _ := m.panels.Results()
	if len(items) == 0 {
		return m.theme.MutedText.Render(fmt.Sprintf("No results for %q", m.panels.resultTerm))
	}
	var lines []string
	start, end := window(len(items), m.panels.resultIdx, height)
	for i := start; i < end; i++ {
		it := items[i]
		line := truncate(it.Value, width/2)
		meta := truncate(it.Meta, width-lipgloss.Width(line)-1)
		line = padRight(line, width-lipgloss.Width(meta)) + m.theme.MutedText.Render(meta)
		if m.focused == focusResults && i == m.panels.resultIdx {
			line = m.theme.Selected.Render(padRight(truncate(it.Value, width), width))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatus() string {
	var text string
	switch {
	case m.statusMsg != "" && m.statusIsError:
		text = m.theme.StatusErr.Render(m.statusMsg)
	default:
		text = m.theme.Status.Render(fmt.Sprintf("%s · %d of %d schools", m.status.Description, m.status.Visible, m.ctrl.Dataset().Store.Len()))
		if m.statusMsg != "" {
			text += "  " + m.theme.MutedText.Render(m.statusMsg)
		}
	}
	if e, _, ok := m.panels.Tooltip(); ok {
		text = m.theme.Tooltip.Render(string(glyphHighlighted)+" "+e.Name) + " " + text
	}
	return truncateANSI(text, m.width)
}
