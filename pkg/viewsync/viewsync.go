// Package viewsync pushes the result of the active filter to every view that
// shows schools: map markers, the sidebar list, the filter controls and the
// status line.
//
// Each Sync computes one Snapshot and hands that same snapshot to every
// sink in a fixed order, so no view can observe a different filter state
// than another.
package viewsync

import (
	"github.com/vanderheijden86/schoolmap/pkg/debug"
	"github.com/vanderheijden86/schoolmap/pkg/filter"
	"github.com/vanderheijden86/schoolmap/pkg/metrics"
	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/store"
)

// Visibility maps school name to whether it passes the filter.
type Visibility map[string]bool

// Recompute evaluates the filter for every school. It does not modify its
// inputs.
func Recompute(s *store.Store, st *filter.State) Visibility {
	defer metrics.Timer(metrics.Recompute)()

	vis := make(Visibility, s.Len())
	s.Each(func(e model.Entity) {
		vis[e.Name] = st.IsVisible(e)
	})
	return vis
}

// MapSink receives marker styles.
type MapSink interface {
	SetMarkerStyle(name string, style model.MarkerStyle)
}

// ListSink shows or hides sidebar rows.
type ListSink interface {
	SetItemVisible(name string, visible bool)
}

// ControlsSink reflects the selection in the filter checkboxes.
type ControlsSink interface {
	SetChecked(sel filter.Snapshot)
}

// StatusSink receives the status line.
type StatusSink interface {
	SetStatus(description string, visible int)
}

// Sinks are the views kept in step. Nil sinks are skipped.
type Sinks struct {
	Map      MapSink
	List     ListSink
	Controls ControlsSink
	Status   StatusSink
}

// Snapshot is the state applied to every sink by one Sync.
type Snapshot struct {
	Generation   uint64          `json:"generation"`
	Visibility   Visibility      `json:"-"`
	Filter       filter.Snapshot `json:"filter"`
	Description  string          `json:"description"`
	VisibleCount int             `json:"visible"`
	Total        int             `json:"total"`
}

// Visible reports whether name is shown in this snapshot.
func (s Snapshot) Visible(name string) bool {
	return s.Visibility[name]
}

// Synchronizer owns the sinks and the marker styling inputs (zoom band and
// highlighted school). It is not safe for concurrent use.
type Synchronizer struct {
	sinks       Sinks
	styles      *StyleCache
	store       *store.Store
	generation  uint64
	last        Snapshot
	band        ZoomBand
	highlighted string
}

// New returns a Synchronizer. A nil cache gets a fresh one.
func New(sinks Sinks, styles *StyleCache) *Synchronizer {
	if styles == nil {
		styles = NewStyleCache()
	}
	return &Synchronizer{
		sinks:  sinks,
		styles: styles,
		last:   Snapshot{Description: filter.DescribeAll},
	}
}

// Sync recomputes visibility for st and applies the snapshot to every sink in
// the order map, list, controls, status.
func (y *Synchronizer) Sync(s *store.Store, st *filter.State) Snapshot {
	y.store = s
	vis := Recompute(s, st)

	count := 0
	for _, v := range vis {
		if v {
			count++
		}
	}

	y.generation++
	snap := Snapshot{
		Generation:   y.generation,
		Visibility:   vis,
		Filter:       st.Snapshot(),
		Description:  st.Describe(),
		VisibleCount: count,
		Total:        s.Len(),
	}
	if y.highlighted != "" && !vis[y.highlighted] {
		y.highlighted = ""
	}

	y.Apply(snap)
	debug.Log("sync #%d: %d/%d visible (%s)", snap.Generation, snap.VisibleCount, snap.Total, snap.Description)
	return snap
}

// Apply pushes an already computed snapshot to every sink and records it as
// the last one.
func (y *Synchronizer) Apply(snap Snapshot) {
	defer metrics.Timer(metrics.SinkApply)()

	y.last = snap
	y.ApplyToMap(snap)
	y.ApplyToList(snap)
	y.ApplyToControls(snap)
	y.ApplyToStatus(snap)
}

// ApplyToMap restyles every marker. Markers are never added or removed.
func (y *Synchronizer) ApplyToMap(snap Snapshot) {
	if y.sinks.Map == nil || y.store == nil {
		return
	}
	y.store.Each(func(e model.Entity) {
		y.sinks.Map.SetMarkerStyle(e.Name, y.styleFor(e, snap.Visibility[e.Name]))
	})
}

// ApplyToList shows or hides every row without reordering.
func (y *Synchronizer) ApplyToList(snap Snapshot) {
	if y.sinks.List == nil || y.store == nil {
		return
	}
	y.store.Each(func(e model.Entity) {
		y.sinks.List.SetItemVisible(e.Name, snap.Visibility[e.Name])
	})
}

// ApplyToControls checks exactly the selected filter values.
func (y *Synchronizer) ApplyToControls(snap Snapshot) {
	if y.sinks.Controls != nil {
		y.sinks.Controls.SetChecked(snap.Filter)
	}
}

// ApplyToStatus writes the filter description and visible count.
func (y *Synchronizer) ApplyToStatus(snap Snapshot) {
	if y.sinks.Status != nil {
		y.sinks.Status.SetStatus(snap.Description, snap.VisibleCount)
	}
}

func (y *Synchronizer) styleFor(e model.Entity, visible bool) model.MarkerStyle {
	return y.styles.StyleFor(e, visible, e.Name == y.highlighted, y.band)
}

// Restyle reapplies the marker style of the named schools using the last
// snapshot's visibility. With no names every marker is restyled.
func (y *Synchronizer) Restyle(names ...string) {
	if y.sinks.Map == nil || y.store == nil {
		return
	}
	if len(names) == 0 {
		y.ApplyToMap(y.last)
		return
	}
	for _, n := range names {
		if e, ok := y.store.ByName(n); ok {
			y.sinks.Map.SetMarkerStyle(n, y.styleFor(e, y.last.Visibility[n]))
		}
	}
}

// SetHighlighted highlights name (or clears the highlight with "") and
// restyles the affected markers. Hidden schools cannot be highlighted.
// It returns the previously highlighted school.
func (y *Synchronizer) SetHighlighted(name string) string {
	prev := y.highlighted
	if name != "" && !y.last.Visibility[name] {
		name = ""
	}
	if name == prev {
		return prev
	}
	y.highlighted = name
	var touched []string
	for _, n := range []string{prev, name} {
		if n != "" {
			touched = append(touched, n)
		}
	}
	y.Restyle(touched...)
	return prev
}

// Highlighted returns the highlighted school, or "".
func (y *Synchronizer) Highlighted() string {
	return y.highlighted
}

// SetZoomBand switches the label band and restyles every marker when it
// changes. It reports whether the band changed.
func (y *Synchronizer) SetZoomBand(b ZoomBand) bool {
	if b == y.band {
		return false
	}
	y.band = b
	y.Restyle()
	return true
}

// ZoomBand returns the current label band.
func (y *Synchronizer) ZoomBand() ZoomBand {
	return y.band
}

// StyleCache returns the cache used for marker styles.
func (y *Synchronizer) StyleCache() *StyleCache {
	return y.styles
}

// Last returns the most recently applied snapshot.
func (y *Synchronizer) Last() Snapshot {
	return y.last
}

// VisibleCount returns the number of schools visible in the last snapshot.
func (y *Synchronizer) VisibleCount() int {
	return y.last.VisibleCount
}

// StatusDescription returns the status text of the last snapshot.
func (y *Synchronizer) StatusDescription() string {
	return y.last.Description
}
