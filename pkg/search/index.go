// Package search answers free-text queries over school names, regions and
// districts.
//
// Matching is a case-insensitive substring test. Each result group is sorted
// ascending and capped; because the index keeps every group pre-sorted with
// pre-lowercased keys, a query is one linear scan that stops at the cap.
package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vanderheijden86/schoolmap/pkg/category"
	"github.com/vanderheijden86/schoolmap/pkg/debug"
	"github.com/vanderheijden86/schoolmap/pkg/metrics"
	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/store"
)

type entityKey struct {
	lower  string
	entity model.Entity
}

type valueKey struct {
	lower string
	value string
}

// Index is an immutable search index. A nil *Index is not ready.
type Index struct {
	cfg       Config
	entities  []entityKey
	regions   []valueKey
	districts []valueKey
}

// Build indexes every school in s and every region and district in idx.
func Build(s *store.Store, idx *category.Index, cfg Config) *Index {
	defer metrics.Timer(metrics.IndexBuild)()

	ix := &Index{cfg: cfg.Normalized()}
	// Store order is already name-ascending.
	s.Each(func(e model.Entity) {
		ix.entities = append(ix.entities, entityKey{lower: strings.ToLower(e.Name), entity: e})
	})
	ix.regions = valueKeys(idx.Regions())
	ix.districts = valueKeys(idx.Districts())

	debug.Log("search index: %d schools, %d regions, %d districts", len(ix.entities), len(ix.regions), len(ix.districts))
	return ix
}

func valueKeys(sorted []string) []valueKey {
	out := make([]valueKey, len(sorted))
	for i, v := range sorted {
		out[i] = valueKey{lower: strings.ToLower(v), value: v}
	}
	return out
}

// Result holds the three capped, sorted result groups.
type Result struct {
	Term      string         `json:"term"`
	Entities  []model.Entity `json:"schools"`
	Regions   []string       `json:"regions"`
	Districts []string       `json:"districts"`
}

// Empty reports whether every group is empty.
func (r Result) Empty() bool {
	return len(r.Entities) == 0 && len(r.Regions) == 0 && len(r.Districts) == 0
}

// Total returns the number of results across all groups.
func (r Result) Total() int {
	return len(r.Entities) + len(r.Regions) + len(r.Districts)
}

// Normalize trims and lowercases a raw input term.
func Normalize(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// Config returns the caps the index was built with.
func (ix *Index) Config() Config {
	if ix == nil {
		return DefaultConfig()
	}
	return ix.cfg
}

// Ready reports whether the index can answer queries.
func (ix *Index) Ready() bool {
	return ix != nil
}

// Query returns the schools, regions and districts whose text contains term.
// Terms shorter than the configured minimum return an empty result without
// scanning.
func (ix *Index) Query(term string) (Result, error) {
	if ix == nil {
		return Result{}, fmt.Errorf("%w", model.ErrNotReady)
	}
	term = Normalize(term)
	res := Result{Term: term}
	if utf8.RuneCountInString(term) < ix.cfg.MinQueryLen {
		return res, nil
	}
	defer metrics.Timer(metrics.SearchQuery)()

	for _, k := range ix.entities {
		if len(res.Entities) == ix.cfg.MaxEntities {
			break
		}
		if strings.Contains(k.lower, term) {
			res.Entities = append(res.Entities, k.entity)
		}
	}
	res.Regions = matchValues(ix.regions, term, ix.cfg.MaxRegions)
	res.Districts = matchValues(ix.districts, term, ix.cfg.MaxDistricts)
	return res, nil
}

func matchValues(keys []valueKey, term string, limit int) []string {
	var out []string
	for _, k := range keys {
		if len(out) == limit {
			break
		}
		if strings.Contains(k.lower, term) {
			out = append(out, k.value)
		}
	}
	return out
}
