// Package filter holds the active filter selection and the current view
// mode, and decides whether a school passes the selection.
//
// Within a dimension values are OR-ed; across dimensions they are AND-ed.
// An empty dimension places no constraint.
package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// Validator reports whether a value exists for a dimension.
// *category.Index satisfies it.
type Validator interface {
	Has(dim model.Dimension, value string) bool
}

// State is the mutable filter selection. It is not safe for concurrent use.
type State struct {
	active    map[model.Dimension][]string
	mode      model.ViewMode
	validator Validator
}

// New returns an empty state in ViewAll mode. A nil validator accepts any
// non-empty value.
func New(v Validator) *State {
	return &State{
		active:    make(map[model.Dimension][]string, len(model.Dimensions)),
		mode:      model.ViewAll,
		validator: v,
	}
}

// SetValidator replaces the validator, e.g. after a dataset reload. Values
// the new validator rejects are dropped and returned.
func (s *State) SetValidator(v Validator) []string {
	s.validator = v
	var dropped []string
	for _, d := range model.Dimensions {
		kept := s.active[d][:0]
		for _, val := range s.active[d] {
			if v == nil || v.Has(d, val) {
				kept = append(kept, val)
			} else {
				dropped = append(dropped, val)
			}
		}
		s.active[d] = kept
	}
	return dropped
}

func (s *State) check(dim model.Dimension, value string) error {
	switch dim {
	case model.DimClasses, model.DimRegions, model.DimDistricts:
	default:
		return fmt.Errorf("%w: %q", model.ErrInvalidDimension, dim)
	}
	if value == "" {
		return fmt.Errorf("%w: empty %s value", model.ErrInvalidValue, dim)
	}
	if s.validator != nil && !s.validator.Has(dim, value) {
		return fmt.Errorf("%w: %q is not a known %s value", model.ErrInvalidValue, value, dim)
	}
	return nil
}

// Toggle adds value to (on) or removes it from (off) a dimension. Adding a
// present value or removing an absent one is a no-op.
func (s *State) Toggle(dim model.Dimension, value string, on bool) error {
	if err := s.check(dim, value); err != nil {
		return err
	}
	cur := s.active[dim]
	i := slices.Index(cur, value)
	switch {
	case on && i < 0:
		s.active[dim] = append(cur, value)
	case !on && i >= 0:
		s.active[dim] = slices.Delete(cur, i, i+1)
	}
	return nil
}

// Reset clears every dimension and returns to ViewAll.
func (s *State) Reset() {
	for _, d := range model.Dimensions {
		s.active[d] = nil
	}
	s.mode = model.ViewAll
}

// Only resets the state, selects exactly one value and switches to the
// dimension's view mode.
func (s *State) Only(dim model.Dimension, value string) error {
	if err := s.check(dim, value); err != nil {
		return err
	}
	s.Reset()
	s.active[dim] = []string{value}
	s.mode = dim.Mode()
	return nil
}

// SetMode switches the view mode without touching the selection.
func (s *State) SetMode(m model.ViewMode) {
	s.mode = m
}

// Mode returns the current view mode.
func (s *State) Mode() model.ViewMode {
	return s.mode
}

// Active returns the selected values of a dimension in selection order.
func (s *State) Active(dim model.Dimension) []string {
	return slices.Clone(s.active[dim])
}

// Contains reports whether value is selected in dim.
func (s *State) Contains(dim model.Dimension, value string) bool {
	return slices.Contains(s.active[dim], value)
}

// IsEmpty reports whether no dimension has a selection.
func (s *State) IsEmpty() bool {
	for _, d := range model.Dimensions {
		if len(s.active[d]) > 0 {
			return false
		}
	}
	return true
}

// IsVisible reports whether e passes every non-empty dimension. An unset
// attribute never matches a non-empty dimension.
func (s *State) IsVisible(e model.Entity) bool {
	for _, d := range model.Dimensions {
		vals := s.active[d]
		if len(vals) == 0 {
			continue
		}
		v := e.Value(d)
		if v == "" || !slices.Contains(vals, v) {
			return false
		}
	}
	return true
}

// DescribeAll is the status text when nothing is selected.
const DescribeAll = "Showing all schools"

// Describe renders the selection for the status line, e.g.
// "Filtered by Classes: Class 3; Districts: Northern".
func (s *State) Describe() string {
	return s.Snapshot().Describe()
}

// Snapshot returns an immutable copy of the state.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{Mode: s.mode}
	snap.Classes = slices.Clone(s.active[model.DimClasses])
	snap.Regions = slices.Clone(s.active[model.DimRegions])
	snap.Districts = slices.Clone(s.active[model.DimDistricts])
	return snap
}

// Snapshot is a point-in-time copy of a State.
type Snapshot struct {
	Mode      model.ViewMode `json:"mode"`
	Classes   []string       `json:"classes,omitempty"`
	Regions   []string       `json:"regions,omitempty"`
	Districts []string       `json:"districts,omitempty"`
}

// Values returns the selection of one dimension.
func (s Snapshot) Values(dim model.Dimension) []string {
	switch dim {
	case model.DimClasses:
		return s.Classes
	case model.DimRegions:
		return s.Regions
	case model.DimDistricts:
		return s.Districts
	}
	return nil
}

// Contains reports whether value is selected in dim.
func (s Snapshot) Contains(dim model.Dimension, value string) bool {
	return slices.Contains(s.Values(dim), value)
}

// Describe renders the status text for the snapshot.
func (s Snapshot) Describe() string {
	var parts []string
	for _, d := range model.Dimensions {
		if vals := s.Values(d); len(vals) > 0 {
			parts = append(parts, d.Title()+": "+strings.Join(vals, ", "))
		}
	}
	if len(parts) == 0 {
		return DescribeAll
	}
	return "Filtered by " + strings.Join(parts, "; ")
}

// Equal reports whether two snapshots hold the same mode and selections in
// the same order.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Mode == o.Mode &&
		slices.Equal(s.Classes, o.Classes) &&
		slices.Equal(s.Regions, o.Regions) &&
		slices.Equal(s.Districts, o.Districts)
}
