// Package category derives the distinct filter options (classes, regions,
// districts) present in the loaded schools.
package category

import (
	"sort"

	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/store"
)

// Index is the sorted set of distinct values per dimension. It is built once
// per dataset and never mutated.
type Index struct {
	values map[model.Dimension][]string
	counts map[model.Dimension]map[string]int
}

// Build scans the store once. Unset attributes contribute nothing.
func Build(s *store.Store) *Index {
	idx := &Index{
		values: make(map[model.Dimension][]string, len(model.Dimensions)),
		counts: make(map[model.Dimension]map[string]int, len(model.Dimensions)),
	}
	for _, d := range model.Dimensions {
		idx.counts[d] = make(map[string]int)
	}

	s.Each(func(e model.Entity) {
		for _, d := range model.Dimensions {
			if v := e.Value(d); v != "" {
				idx.counts[d][v]++
			}
		}
	})

	for _, d := range model.Dimensions {
		vals := make([]string, 0, len(idx.counts[d]))
		for v := range idx.counts[d] {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		idx.values[d] = vals
	}
	return idx
}

// Values returns the sorted distinct values of a dimension. The slice is a copy.
func (idx *Index) Values(dim model.Dimension) []string {
	if idx == nil {
		return nil
	}
	vals := idx.values[dim]
	out := make([]string, len(vals))
	copy(out, vals)
	return out
}

// Classes returns the distinct "Class N" labels.
func (idx *Index) Classes() []string { return idx.Values(model.DimClasses) }

// Regions returns the distinct region values.
func (idx *Index) Regions() []string { return idx.Values(model.DimRegions) }

// Districts returns the distinct district values.
func (idx *Index) Districts() []string { return idx.Values(model.DimDistricts) }

// Has reports whether value occurs in the dimension.
func (idx *Index) Has(dim model.Dimension, value string) bool {
	if idx == nil {
		return false
	}
	return idx.counts[dim][value] > 0
}

// Count returns how many schools carry value in the dimension.
func (idx *Index) Count(dim model.Dimension, value string) int {
	if idx == nil {
		return 0
	}
	return idx.counts[dim][value]
}

// Len returns the number of distinct values in the dimension.
func (idx *Index) Len(dim model.Dimension) int {
	if idx == nil {
		return 0
	}
	return len(idx.values[dim])
}
