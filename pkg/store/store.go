// Package store holds the immutable set of schools produced by merging
// geometry features with the lookup table.
package store

import (
	"fmt"
	"sort"

	"github.com/vanderheijden86/schoolmap/pkg/debug"
	"github.com/vanderheijden86/schoolmap/pkg/loader"
	"github.com/vanderheijden86/schoolmap/pkg/metrics"
	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// Options configures Load.
type Options struct {
	// WarningHandler receives per-school warnings. If nil, warnings go to the
	// debug log.
	WarningHandler func(string)
}

// Stats summarizes what happened during enrichment.
type Stats struct {
	Features  int `json:"features"`
	Enriched  int `json:"enriched"`
	Unmatched int `json:"unmatched"`
	Skipped   int `json:"skipped"`
}

// Store is the read-only entity collection. It is safe for concurrent reads.
type Store struct {
	entities []model.Entity
	byName   map[string]int
	stats    Stats
}

// Load merges features with the lookup, keyed by school name.
//
// A lookup class overwrites the geometry's class. Region and district are
// taken from the lookup only when the geometry lacks them. A school with no
// lookup entry keeps whatever the geometry carried. Duplicate names keep the
// first feature.
func Load(features []loader.Feature, lookup loader.Lookup, opts Options) (*Store, error) {
	defer metrics.Timer(metrics.Enrichment)()

	warn := opts.WarningHandler
	if warn == nil {
		warn = func(msg string) { debug.Log("store: %s", msg) }
	}

	s := &Store{
		entities: make([]model.Entity, 0, len(features)),
		byName:   make(map[string]int, len(features)),
		stats:    Stats{Features: len(features)},
	}

	for _, f := range features {
		e := model.Entity{
			Name:     f.Name,
			Class:    f.Class,
			Region:   f.Region,
			District: f.District,
			Coord:    f.Coord,
		}
		if err := e.Validate(); err != nil {
			warn(fmt.Sprintf("skipping school: %v", err))
			s.stats.Skipped++
			continue
		}
		if _, dup := s.byName[e.Name]; dup {
			warn(fmt.Sprintf("skipping duplicate school %q", e.Name))
			s.stats.Skipped++
			continue
		}

		if entry, ok := lookup.Get(e.Name); ok {
			e = enrich(e, entry)
			s.stats.Enriched++
		} else {
			warn(fmt.Sprintf("no lookup entry for %q", e.Name))
			s.stats.Unmatched++
		}

		s.byName[e.Name] = len(s.entities)
		s.entities = append(s.entities, e)
	}

	if len(s.entities) == 0 {
		return nil, fmt.Errorf("%w: no valid schools among %d features", model.ErrLoad, len(features))
	}
	s.sortByName()

	debug.Log("Enriched %d schools (%d unmatched, %d skipped)", s.stats.Enriched, s.stats.Unmatched, s.stats.Skipped)
	return s, nil
}

func enrich(e model.Entity, entry loader.LookupEntry) model.Entity {
	if c := entry.ClassLevel(); c.Valid() {
		e.Class = c
	}
	if e.Region == "" {
		e.Region = entry.Region
	}
	if e.District == "" {
		e.District = entry.District
	}
	return e
}

// FromEntities builds a store directly from entities, bypassing enrichment.
// Invalid and duplicate entities are rejected.
func FromEntities(entities []model.Entity) (*Store, error) {
	s := &Store{
		entities: make([]model.Entity, 0, len(entities)),
		byName:   make(map[string]int, len(entities)),
		stats:    Stats{Features: len(entities)},
	}
	for _, e := range entities {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate school %q", e.Name)
		}
		s.byName[e.Name] = len(s.entities)
		s.entities = append(s.entities, e)
	}
	s.sortByName()
	return s, nil
}

func (s *Store) sortByName() {
	sort.SliceStable(s.entities, func(i, j int) bool {
		return s.entities[i].Name < s.entities[j].Name
	})
	for i, e := range s.entities {
		s.byName[e.Name] = i
	}
}

// All returns every entity in name order. The slice is a copy.
func (s *Store) All() []model.Entity {
	if s == nil {
		return nil
	}
	out := make([]model.Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

// Each calls fn for every entity in name order without copying the slice.
func (s *Store) Each(fn func(model.Entity)) {
	if s == nil {
		return
	}
	for _, e := range s.entities {
		fn(e)
	}
}

// ByName returns the entity with the given name.
func (s *Store) ByName(name string) (model.Entity, bool) {
	if s == nil {
		return model.Entity{}, false
	}
	i, ok := s.byName[name]
	if !ok {
		return model.Entity{}, false
	}
	return s.entities[i], true
}

// Len returns the number of entities.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entities)
}

// Stats returns the enrichment summary.
func (s *Store) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return s.stats
}
