// Package controller turns user and timer events into filter, search and
// map operations.
//
// All state changes happen inside Dispatch. Debounced work is never run on a
// timer goroutine: the controller asks its Scheduler to deliver a TimerFired
// event later, and ignores it if the timer was re-armed or the dataset was
// reloaded in the meantime.
package controller

import (
	"fmt"
	"slices"
	"time"

	"github.com/paulmach/orb"

	"github.com/vanderheijden86/schoolmap/pkg/debounce"
	"github.com/vanderheijden86/schoolmap/pkg/debug"
	"github.com/vanderheijden86/schoolmap/pkg/filter"
	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/search"
	"github.com/vanderheijden86/schoolmap/pkg/viewsync"
)

// Debounce timer keys.
const (
	KeySearch     = "search"
	KeyHover      = "hover"
	KeyResize     = "resize"
	KeyResolution = "resolution"
)

// MapView is the map surface.
type MapView interface {
	viewsync.MapSink
	PanZoomTo(center orb.Point, zoom float64, d time.Duration)
	HitTest(p Pixel) (name string, ok bool)
}

// Panel is the set of overlays around the map.
type Panel interface {
	ShowDetail(e model.Entity)
	HideDetail()
	ShowSearchResults(r search.Result)
	HideSearchResults()
	ShowTooltip(e model.Entity, p Pixel)
	HideTooltip()
	CloseSlideOver()
	ExposeFilterGroups(mode model.ViewMode)
}

// Scheduler delivers ev back to Dispatch after d.
type Scheduler interface {
	Schedule(d time.Duration, ev TimerFired)
}

// Deps are the collaborators the controller drives. Map, Panel and
// Scheduler are required; the sinks are optional.
type Deps struct {
	Map       MapView
	Panel     Panel
	Scheduler Scheduler
	List      viewsync.ListSink
	Controls  viewsync.ControlsSink
	Status    viewsync.StatusSink
}

// Options are the map defaults and debounce delays.
type Options struct {
	Center      orb.Point
	Zoom        float64
	JumpZoom    float64
	Animation   time.Duration
	NarrowWidth int

	SearchDelay     time.Duration
	HoverDelay      time.Duration
	ResizeDelay     time.Duration
	ResolutionDelay time.Duration
}

// DefaultOptions centres the overview on Virginia.
func DefaultOptions() Options {
	return Options{
		Center:          orb.Point{-79.5, 37.8},
		Zoom:            7,
		JumpZoom:        12,
		Animation:       500 * time.Millisecond,
		NarrowWidth:     100,
		SearchDelay:     200 * time.Millisecond,
		HoverDelay:      50 * time.Millisecond,
		ResizeDelay:     250 * time.Millisecond,
		ResolutionDelay: 100 * time.Millisecond,
	}
}

// Controller owns the filter state and coordinates every view. It is not
// safe for concurrent use.
type Controller struct {
	ds     *Dataset
	deps   Deps
	opts   Options
	state  *filter.State
	sync   *viewsync.Synchronizer
	timers *debounce.Timers

	pendingQuery string
	results      search.Result
	showResults  bool

	pointer Pixel
	zoom    float64
	width   int
	height  int
	narrow  bool
	detail  string
}

// New builds a controller over ds and applies the initial, unfiltered view.
func New(ds *Dataset, deps Deps, opts Options) *Controller {
	c := &Controller{
		ds:    ds,
		deps:  deps,
		opts:  opts,
		state: filter.New(ds.Categories),
		timers: debounce.NewTimers(map[string]time.Duration{
			KeySearch:     opts.SearchDelay,
			KeyHover:      opts.HoverDelay,
			KeyResize:     opts.ResizeDelay,
			KeyResolution: opts.ResolutionDelay,
		}),
		zoom: opts.Zoom,
	}
	c.sync = viewsync.New(viewsync.Sinks{
		Map:      deps.Map,
		List:     deps.List,
		Controls: deps.Controls,
		Status:   deps.Status,
	}, nil)
	c.sync.SetZoomBand(viewsync.ZoomBandFor(opts.Zoom))
	c.sync.Sync(ds.Store, c.state)
	return c
}

// Dispatch handles one event. Invalid filter input is returned as
// ErrInvalidDimension or ErrInvalidValue; the state is unchanged in that case.
func (c *Controller) Dispatch(ev Event) error {
	switch ev := ev.(type) {
	case NavClick:
		if !slices.Contains(model.ViewModes, ev.Mode) {
			return fmt.Errorf("%w: unknown view mode %q", model.ErrInvalidValue, ev.Mode)
		}
		c.resetView(ev.Mode)
	case ResetFilters:
		c.resetView(model.ViewAll)
	case CheckboxChanged:
		return c.toggle(ev)
	case SearchInput:
		c.pendingQuery = ev.Text
		c.arm(KeySearch)
	case SearchSubmit:
		c.timers.Cancel(KeySearch)
		c.pendingQuery = ev.Text
		return c.runSearch(ev.Text)
	case SearchResultJump:
		c.hideResults()
		c.jump(ev.Name)
	case SearchResultFilter:
		return c.filterOnly(ev)
	case ListItemClick:
		c.jump(ev.Name)
	case MapClick:
		c.mapClick(ev.Pixel)
	case PointerMove:
		if ev.Dragging {
			return nil
		}
		c.pointer = ev.Pixel
		c.arm(KeyHover)
	case ResolutionChanged:
		c.zoom = ev.Zoom
		c.arm(KeyResolution)
	case Resized:
		c.width, c.height = ev.Width, ev.Height
		c.arm(KeyResize)
	case CloseDetail:
		c.hideDetail()
	case TimerFired:
		return c.fire(ev)
	default:
		return fmt.Errorf("unhandled event %T", ev)
	}
	return nil
}

func (c *Controller) arm(key string) {
	tok := c.timers.Arm(key)
	c.deps.Scheduler.Schedule(c.timers.Delay(key), TimerFired{Key: key, Token: tok})
}

func (c *Controller) fire(ev TimerFired) error {
	if !c.timers.Fire(ev.Key, ev.Token) {
		return nil
	}
	switch ev.Key {
	case KeySearch:
		return c.runSearch(c.pendingQuery)
	case KeyHover:
		c.hover()
	case KeyResolution:
		if c.sync.SetZoomBand(viewsync.ZoomBandFor(c.zoom)) {
			debug.Log("zoom %.1f: marker band %s", c.zoom, c.sync.ZoomBand())
		}
	case KeyResize:
		narrow := c.width < c.opts.NarrowWidth
		if c.narrow && !narrow {
			c.deps.Panel.CloseSlideOver()
		}
		c.narrow = narrow
	}
	return nil
}

// syncViews pushes the filter state to every view. A hovered school the
// filter just hid loses its tooltip.
func (c *Controller) syncViews() {
	hovered := c.sync.Highlighted()
	c.sync.Sync(c.ds.Store, c.state)
	if hovered != "" && c.sync.Highlighted() == "" {
		c.deps.Panel.HideTooltip()
	}
}

func (c *Controller) resetView(mode model.ViewMode) {
	c.state.Reset()
	c.state.SetMode(mode)
	c.syncViews()
	c.deps.Map.PanZoomTo(c.opts.Center, c.opts.Zoom, c.opts.Animation)
	c.hideDetail()
	c.deps.Panel.ExposeFilterGroups(mode)
}

func (c *Controller) toggle(ev CheckboxChanged) error {
	dim, err := model.ParseDimension(ev.Dimension)
	if err != nil {
		return err
	}
	if err := c.state.Toggle(dim, ev.Value, ev.Checked); err != nil {
		return err
	}
	c.syncViews()
	return nil
}

func (c *Controller) filterOnly(ev SearchResultFilter) error {
	dim, err := model.ParseDimension(ev.Dimension)
	if err != nil {
		return err
	}
	if err := c.state.Only(dim, ev.Value); err != nil {
		return err
	}
	c.syncViews()
	c.deps.Panel.ExposeFilterGroups(c.state.Mode())
	c.hideResults()
	c.hideDetail()
	c.deps.Map.PanZoomTo(c.opts.Center, c.opts.Zoom, c.opts.Animation)
	return nil
}

func (c *Controller) runSearch(text string) error {
	term := search.Normalize(text)
	if len([]rune(term)) < c.ds.Search.Config().MinQueryLen {
		c.hideResults()
		return nil
	}
	res, err := c.ds.Search.Query(term)
	if err != nil {
		return err
	}
	c.results = res
	c.showResults = true
	c.deps.Panel.ShowSearchResults(res)
	return nil
}

func (c *Controller) hideResults() {
	c.results = search.Result{}
	c.showResults = false
	c.deps.Panel.HideSearchResults()
}

// jump centres the map on a school and opens its details. Unknown names are
// ignored.
func (c *Controller) jump(name string) {
	e, ok := c.ds.Store.ByName(name)
	if !ok {
		debug.Log("jump: no school named %q", name)
		return
	}
	c.deps.Map.PanZoomTo(e.Coord, c.opts.JumpZoom, c.opts.Animation)
	c.showDetail(e)
	if c.narrow {
		c.deps.Panel.CloseSlideOver()
	}
}

func (c *Controller) mapClick(p Pixel) {
	if name, ok := c.deps.Map.HitTest(p); ok && c.sync.Last().Visible(name) {
		if e, ok := c.ds.Store.ByName(name); ok {
			c.showDetail(e)
			return
		}
	}
	c.hideDetail()
}

func (c *Controller) showDetail(e model.Entity) {
	c.detail = e.Name
	c.deps.Panel.ShowDetail(e)
}

func (c *Controller) hideDetail() {
	c.detail = ""
	c.deps.Panel.HideDetail()
}

func (c *Controller) hover() {
	name, ok := c.deps.Map.HitTest(c.pointer)
	if !ok || !c.sync.Last().Visible(name) {
		name = ""
	}
	if name == c.sync.Highlighted() {
		return
	}
	c.sync.SetHighlighted(name)
	if name == "" {
		c.deps.Panel.HideTooltip()
		return
	}
	if e, ok := c.ds.Store.ByName(name); ok {
		c.deps.Panel.ShowTooltip(e, c.pointer)
	}
}

// Reload swaps in a new dataset. Pending timers become stale, filter values
// that no longer exist are dropped and returned, and the views are synced.
func (c *Controller) Reload(ds *Dataset) []string {
	c.timers.Bump()
	c.ds = ds
	dropped := c.state.SetValidator(ds.Categories)
	if c.sync.Highlighted() != "" {
		c.sync.SetHighlighted("")
		c.deps.Panel.HideTooltip()
	}
	if c.showResults {
		c.hideResults()
	}
	if _, ok := ds.Store.ByName(c.detail); c.detail != "" && !ok {
		c.hideDetail()
	}
	c.sync.Sync(ds.Store, c.state)
	debug.Log("reload: %d schools, dropped filters %v", ds.Store.Len(), dropped)
	return dropped
}

// Dataset returns the current dataset.
func (c *Controller) Dataset() *Dataset {
	return c.ds
}

// VisibleCount returns the number of schools passing the filter.
func (c *Controller) VisibleCount() int {
	return c.sync.VisibleCount()
}

// StatusDescription returns the status line text.
func (c *Controller) StatusDescription() string {
	return c.sync.StatusDescription()
}

// Snapshot returns the last snapshot applied to the views.
func (c *Controller) Snapshot() viewsync.Snapshot {
	return c.sync.Last()
}

// State returns a copy of the filter selection.
func (c *Controller) State() filter.Snapshot {
	return c.state.Snapshot()
}

// Mode returns the current view mode.
func (c *Controller) Mode() model.ViewMode {
	return c.state.Mode()
}

// Hovered returns the highlighted school, or "".
func (c *Controller) Hovered() string {
	return c.sync.Highlighted()
}

// Detail returns the school shown in the detail panel, or "".
func (c *Controller) Detail() string {
	return c.detail
}

// Results returns the search results on display and whether they are shown.
func (c *Controller) Results() (search.Result, bool) {
	return c.results, c.showResults
}

// Narrow reports whether the layout is in narrow mode.
func (c *Controller) Narrow() bool {
	return c.narrow
}

// Zoom returns the last reported zoom level.
func (c *Controller) Zoom() float64 {
	return c.zoom
}

// Options returns the controller options.
func (c *Controller) Options() Options {
	return c.opts
}
