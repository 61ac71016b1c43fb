// Package model defines the core data types shared by every schoolmap
// component: schools, filter dimensions, view modes and marker styles.
package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

// ClassLevel is a school's competitive class. Zero means the class is unknown.
type ClassLevel int

// Valid class levels.
const (
	ClassUnset ClassLevel = 0
	MinClass   ClassLevel = 1
	MaxClass   ClassLevel = 6
)

// Valid reports whether c is one of the six assigned classes.
func (c ClassLevel) Valid() bool {
	return c >= MinClass && c <= MaxClass
}

// Label returns the filter value for the class, e.g. "Class 3".
// An unset class has no label.
func (c ClassLevel) Label() string {
	if !c.Valid() {
		return ""
	}
	return fmt.Sprintf("Class %d", int(c))
}

// String renders the class for detail views.
func (c ClassLevel) String() string {
	if !c.Valid() {
		return "N/A"
	}
	return c.Label()
}

// ParseClassLabel converts "Class N" back to a ClassLevel.
func ParseClassLabel(label string) (ClassLevel, bool) {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(label), "Class %d", &n); err != nil {
		return ClassUnset, false
	}
	c := ClassLevel(n)
	return c, c.Valid()
}

// Entity is a single school on the map. Name is the unique key.
type Entity struct {
	Name     string     `json:"name"`
	Class    ClassLevel `json:"class,omitempty"`
	Region   string     `json:"region,omitempty"`
	District string     `json:"district,omitempty"`
	Coord    orb.Point  `json:"coord"`
}

// Value returns the entity's value in the given filter dimension, or ""
// when the attribute is unset.
func (e Entity) Value(dim Dimension) string {
	switch dim {
	case DimClasses:
		return e.Class.Label()
	case DimRegions:
		return e.Region
	case DimDistricts:
		return e.District
	default:
		return ""
	}
}

// Meta is the one-line secondary text shown beneath a school in search
// results: "Class 3 | Region 3B | Northern". Unset parts are left blank.
func (e Entity) Meta() string {
	return strings.Join([]string{e.Class.Label(), e.Region, e.District}, " | ")
}

// Validate checks that the entity can be placed on the map.
func (e Entity) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("school name cannot be empty")
	}
	lon, lat := e.Coord.Lon(), e.Coord.Lat()
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return fmt.Errorf("school %q has a non-finite coordinate", e.Name)
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return fmt.Errorf("school %q coordinate out of range: %v", e.Name, e.Coord)
	}
	return nil
}
