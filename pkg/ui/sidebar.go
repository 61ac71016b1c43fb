package ui

import (
	"github.com/vanderheijden86/schoolmap/pkg/category"
	"github.com/vanderheijden86/schoolmap/pkg/filter"
	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// FilterRow is one checkbox in the filter pane.
type FilterRow struct {
	Dimension model.Dimension
	Value     string
	Count     int
	Checked   bool
}

// FilterControls is the checkbox pane. It implements viewsync.ControlsSink.
type FilterControls struct {
	cats    *category.Index
	checked filter.Snapshot
	cursor  int
}

// NewFilterControls lists the values of cats.
func NewFilterControls(cats *category.Index) *FilterControls {
	return &FilterControls{cats: cats}
}

// SetCategories swaps the value lists after a reload.
func (f *FilterControls) SetCategories(cats *category.Index) {
	f.cats = cats
	f.cursor = 0
}

// SetChecked implements viewsync.ControlsSink.
func (f *FilterControls) SetChecked(sel filter.Snapshot) {
	f.checked = sel
}

// Checked returns the selection last applied.
func (f *FilterControls) Checked() filter.Snapshot {
	return f.checked
}

// groups returns the dimensions shown for a mode: all three for ViewAll.
func groups(mode model.ViewMode) []model.Dimension {
	if dim, ok := mode.Dimension(); ok {
		return []model.Dimension{dim}
	}
	return model.Dimensions
}

// Rows lists the checkboxes exposed by mode.
func (f *FilterControls) Rows(mode model.ViewMode) []FilterRow {
	if f.cats == nil {
		return nil
	}
	var rows []FilterRow
	for _, dim := range groups(mode) {
		for _, v := range f.cats.Values(dim) {
			rows = append(rows, FilterRow{
				Dimension: dim,
				Value:     v,
				Count:     f.cats.Count(dim, v),
				Checked:   f.checked.Contains(dim, v),
			})
		}
	}
	return rows
}

// Move moves the cursor within the rows of mode.
func (f *FilterControls) Move(mode model.ViewMode, delta int) {
	n := len(f.Rows(mode))
	if n == 0 {
		f.cursor = 0
		return
	}
	f.cursor = min(max(f.cursor+delta, 0), n-1)
}

// Cursor returns the cursor position.
func (f *FilterControls) Cursor() int { return f.cursor }

// ResetCursor returns the cursor to the first row.
func (f *FilterControls) ResetCursor() { f.cursor = 0 }

// Selected returns the row under the cursor.
func (f *FilterControls) Selected(mode model.ViewMode) (FilterRow, bool) {
	rows := f.Rows(mode)
	if f.cursor < 0 || f.cursor >= len(rows) {
		return FilterRow{}, false
	}
	return rows[f.cursor], true
}

// StatusLine is the filter status text. It implements viewsync.StatusSink.
type StatusLine struct {
	Description string
	Visible     int
	Updates     int
}

// SetStatus implements viewsync.StatusSink.
func (s *StatusLine) SetStatus(description string, visible int) {
	s.Description = description
	s.Visible = visible
	s.Updates++
}
