package controller

import (
	"github.com/vanderheijden86/schoolmap/pkg/debounce"
	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// Event is a user or timer input handled by Controller.Dispatch.
type Event interface {
	event()
}

// Pixel is a position on the map surface.
type Pixel struct {
	X, Y int
}

// NavClick switches the view mode. Selecting any mode, including all,
// clears the filters.
type NavClick struct {
	Mode model.ViewMode
}

// ResetFilters clears the filters and returns to the overview.
type ResetFilters struct{}

// CheckboxChanged toggles one filter value. Dimension is the raw UI name.
type CheckboxChanged struct {
	Dimension string
	Value     string
	Checked   bool
}

// SearchInput is a keystroke in the search box. Queries are debounced.
type SearchInput struct {
	Text string
}

// SearchSubmit runs the query immediately.
type SearchSubmit struct {
	Text string
}

// SearchResultJump selects a school from the search results.
type SearchResultJump struct {
	Name string
}

// SearchResultFilter selects a region or district from the search results.
type SearchResultFilter struct {
	Dimension string
	Value     string
}

// ListItemClick selects a school in the sidebar list.
type ListItemClick struct {
	Name string
}

// MapClick is a click on the map surface.
type MapClick struct {
	Pixel Pixel
}

// PointerMove is a pointer movement over the map. Drags are ignored.
type PointerMove struct {
	Pixel    Pixel
	Dragging bool
}

// ResolutionChanged reports a new map zoom level.
type ResolutionChanged struct {
	Zoom float64
}

// Resized reports a new viewport size.
type Resized struct {
	Width, Height int
}

// CloseDetail hides the detail panel.
type CloseDetail struct{}

// TimerFired is delivered by the Scheduler when a debounce delay expires.
type TimerFired struct {
	Key   string
	Token debounce.Token
}

func (NavClick) event() {}
func (ResetFilters) event() {}
func (CheckboxChanged) event() {}
func (SearchInput) event() {}
func (SearchSubmit) event() {}
func (SearchResultJump) event() {}
func (SearchResultFilter) event() {}
func (ListItemClick) event() {}
func (MapClick) event() {}
func (PointerMove) event() {}
func (ResolutionChanged) event() {}
func (Resized) event() {}
func (CloseDetail) event() {}
func (TimerFired) event() {}
