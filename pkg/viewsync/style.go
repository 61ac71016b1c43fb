package viewsync

import (
	"sync"

	"github.com/vanderheijden86/schoolmap/pkg/metrics"
	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// ZoomBand groups zoom levels that draw markers the same way.
type ZoomBand int

const (
	ZoomBandNoLabel ZoomBand = iota
	ZoomBandLabel
)

// LabelZoom is the zoom level above which every marker carries its name.
const LabelZoom = 10

// ZoomBandFor returns the band for a map zoom level.
func ZoomBandFor(zoom float64) ZoomBand {
	if zoom > LabelZoom {
		return ZoomBandLabel
	}
	return ZoomBandNoLabel
}

func (b ZoomBand) String() string {
	if b == ZoomBandLabel {
		return "label"
	}
	return "no-label"
}

// StyleKey identifies a cached marker style.
type StyleKey struct {
	Class       model.ClassLevel
	Highlighted bool
	Band        ZoomBand
}

// ShowLabel reports whether markers with this key carry a name label.
func (k StyleKey) ShowLabel() bool {
	return k.Highlighted || k.Band == ZoomBandLabel
}

// StyleCache memoizes marker styles. It is safe for concurrent use.
type StyleCache struct {
	mu     sync.Mutex
	styles map[StyleKey]model.MarkerStyle
}

// NewStyleCache returns an empty cache.
func NewStyleCache() *StyleCache {
	return &StyleCache{styles: make(map[StyleKey]model.MarkerStyle)}
}

// Get returns the style for k, building it on first use. The returned style
// has no label text; callers fill it in with StyleFor.
func (c *StyleCache) Get(k StyleKey) model.MarkerStyle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st, ok := c.styles[k]; ok {
		metrics.StyleCache.Hit()
		return st
	}
	metrics.StyleCache.Miss()

	st := model.MarkerStyle{
		Fill:        k.Class.Color(),
		Stroke:      model.ColorStroke,
		StrokeWidth: 2,
		Radius:      model.RadiusDefault,
	}
	if k.Highlighted {
		st.Stroke = model.ColorHighlight
		st.StrokeWidth = 3
		st.Radius = model.RadiusHighlighted
		st.Highlighted = true
	}
	c.styles[k] = st
	metrics.StyleCache.SetSize(len(c.styles))
	return st
}

// Len returns the number of cached styles.
func (c *StyleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.styles)
}

// StyleFor returns the marker style for e. Hidden entities get MutedStyle.
func (c *StyleCache) StyleFor(e model.Entity, visible, highlighted bool, band ZoomBand) model.MarkerStyle {
	if !visible {
		return model.MutedStyle
	}
	k := StyleKey{Class: e.Class, Highlighted: highlighted, Band: band}
	st := c.Get(k)
	if k.ShowLabel() {
		st.Label = e.Name
	}
	return st
}
