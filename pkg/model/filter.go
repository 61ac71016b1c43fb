package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned across packages. Wrap with %w and test with errors.Is.
var (
	ErrInvalidDimension = errors.New("invalid filter dimension")
	ErrInvalidValue     = errors.New("invalid filter value")
	ErrNotReady         = errors.New("search index not ready")
	ErrLoad             = errors.New("failed to load school data")
)

// Dimension names a filterable attribute.
type Dimension string

const (
	DimClasses   Dimension = "classes"
	DimRegions   Dimension = "regions"
	DimDistricts Dimension = "districts"
)

// Dimensions lists every dimension in display order.
var Dimensions = []Dimension{DimClasses, DimRegions, DimDistricts}

// ParseDimension validates a dimension name coming from the UI.
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(s))); d {
	case DimClasses, DimRegions, DimDistricts:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDimension, s)
}

// Title is the capitalized dimension name used in status text.
func (d Dimension) Title() string {
	switch d {
	case DimClasses:
		return "Classes"
	case DimRegions:
		return "Regions"
	case DimDistricts:
		return "Districts"
	}
	return string(d)
}

// Mode returns the view mode that shows this dimension's filter group.
func (d Dimension) Mode() ViewMode {
	switch d {
	case DimClasses:
		return ViewClasses
	case DimRegions:
		return ViewRegions
	case DimDistricts:
		return ViewDistricts
	}
	return ViewAll
}

// ViewMode selects which filter group the sidebar exposes.
type ViewMode string

const (
	ViewAll       ViewMode = "all"
	ViewClasses   ViewMode = "classes"
	ViewRegions   ViewMode = "regions"
	ViewDistricts ViewMode = "districts"
)

// ViewModes lists every mode in navigation order.
var ViewModes = []ViewMode{ViewAll, ViewClasses, ViewRegions, ViewDistricts}

// ParseViewMode validates a mode name. The empty string maps to ViewAll.
func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ViewAll, nil
	case ViewAll, ViewClasses, ViewRegions, ViewDistricts:
		return m, nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

// Dimension returns the dimension exposed by the mode. ok is false for ViewAll.
func (m ViewMode) Dimension() (Dimension, bool) {
	switch m {
	case ViewClasses:
		return DimClasses, true
	case ViewRegions:
		return DimRegions, true
	case ViewDistricts:
		return DimDistricts, true
	}
	return "", false
}

// Title is the label shown in the navigation bar.
func (m ViewMode) Title() string {
	switch m {
	case ViewClasses:
		return "By Class"
	case ViewRegions:
		return "By Region"
	case ViewDistricts:
		return "By District"
	}
	return "All Schools"
}
