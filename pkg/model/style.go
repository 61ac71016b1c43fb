package model

// MarkerStyle describes how a school marker is drawn. The map host decides
// what a radius or colour means on its surface.
type MarkerStyle struct {
	Fill        string `json:"fill"`
	Stroke      string `json:"stroke"`
	StrokeWidth int    `json:"stroke_width"`
	Radius      int    `json:"radius"`
	Label       string `json:"label,omitempty"`
	Highlighted bool   `json:"highlighted,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
}

// MutedStyle is applied to markers excluded by the active filter.
var MutedStyle = MarkerStyle{Hidden: true}

// Class palette.
const (
	ColorUnset     = "#999999"
	ColorStroke    = "#ffffff"
	ColorHighlight = "#000000"
)

// Marker radii.
const (
	RadiusDefault     = 6
	RadiusHighlighted = 8
)

var classColors = map[ClassLevel]string{
	1: "#ffff33",
	2: "#ff7f00",
	3: "#984ea3",
	4: "#4daf4a",
	5: "#377eb8",
	6: "#e41a1c",
}

// Color returns the marker fill colour for a class.
func (c ClassLevel) Color() string {
	if col, ok := classColors[c]; ok {
		return col
	}
	return ColorUnset
}
