package store

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/vanderheijden86/schoolmap/pkg/loader"
	"github.com/vanderheijden86/schoolmap/pkg/model"
)

func feature(name string, class model.ClassLevel, region, district string) loader.Feature {
	return loader.Feature{Name: name, Class: class, Region: region, District: district, Coord: orb.Point{-78, 37.5}}
}

func TestLoadEnrichment(t *testing.T) {
	features := []loader.Feature{
		feature("Bravo", 2, "Region 2A", ""),
		feature("Alpha", 0, "", ""),
		feature("Charlie", 4, "Region 4C", "Old District"),
	}
	lookup := loader.Lookup{
		"Alpha":   {Name: "Alpha", Size: 1, Region: "Region 1A", District: "North"},
		"Bravo":   {Name: "Bravo", Size: 3, Region: "Region 3B", District: "Central"},
		"Charlie": {Name: "Charlie", Class: "Class 5", Region: "Region 5C", District: "New District"},
	}

	var warnings []string
	s, err := Load(features, lookup, Options{WarningHandler: func(m string) { warnings = append(warnings, m) }})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings %v", warnings)
	}

	alpha, _ := s.ByName("Alpha")
	if alpha.Class != 1 || alpha.Region != "Region 1A" || alpha.District != "North" {
		t.Errorf("Alpha should be fully backfilled, got %+v", alpha)
	}

	bravo, _ := s.ByName("Bravo")
	if bravo.Class != 3 {
		t.Errorf("lookup class should overwrite geometry, got %d", bravo.Class)
	}
	if bravo.Region != "Region 2A" {
		t.Errorf("geometry region should be kept, got %q", bravo.Region)
	}
	if bravo.District != "Central" {
		t.Errorf("missing district should be backfilled, got %q", bravo.District)
	}

	charlie, _ := s.ByName("Charlie")
	if charlie.Class != 5 {
		t.Errorf("class label should overwrite, got %d", charlie.Class)
	}
	if charlie.District != "Old District" || charlie.Region != "Region 4C" {
		t.Errorf("present attributes must not be replaced, got %+v", charlie)
	}

	st := s.Stats()
	if st.Enriched != 3 || st.Unmatched != 0 || st.Skipped != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestLoadKeepsUnmatched(t *testing.T) {
	var warnings []string
	s, err := Load([]loader.Feature{feature("Lonely", 0, "", "")}, loader.Lookup{}, Options{
		WarningHandler: func(m string) { warnings = append(warnings, m) },
	})
	if err != nil {
		t.Fatal(err)
	}
	e, ok := s.ByName("Lonely")
	if !ok {
		t.Fatal("unmatched school must be kept")
	}
	if e.Class != model.ClassUnset || e.Region != "" || e.District != "" {
		t.Errorf("unmatched school should have unset attributes, got %+v", e)
	}
	if len(warnings) != 1 || s.Stats().Unmatched != 1 {
		t.Errorf("expected one unmatched warning, got %v", warnings)
	}
}

func TestLoadSkipsDuplicatesAndInvalid(t *testing.T) {
	bad := feature("Far", 1, "", "")
	bad.Coord = orb.Point{500, 0}
	features := []loader.Feature{
		feature("Alpha", 1, "Region 1A", ""),
		feature("Alpha", 2, "Region 2A", ""),
		bad,
	}
	s, err := Load(features, nil, Options{WarningHandler: func(string) {}})
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entity, got %d", s.Len())
	}
	if a, _ := s.ByName("Alpha"); a.Region != "Region 1A" {
		t.Errorf("first duplicate should win, got %+v", a)
	}
	if s.Stats().Skipped != 2 {
		t.Errorf("skipped = %d, want 2", s.Stats().Skipped)
	}
}

func TestLoadNoValidSchools(t *testing.T) {
	_, err := Load(nil, nil, Options{})
	if !errors.Is(err, model.ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestAllIsSortedCopy(t *testing.T) {
	s, err := FromEntities([]model.Entity{
		{Name: "Zeta", Coord: orb.Point{0, 0}},
		{Name: "Alpha", Coord: orb.Point{0, 0}},
		{Name: "Mu", Coord: orb.Point{0, 0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	all := s.All()
	if all[0].Name != "Alpha" || all[1].Name != "Mu" || all[2].Name != "Zeta" {
		t.Errorf("All() not name-sorted: %v", all)
	}
	all[0].Name = "mutated"
	if _, ok := s.ByName("Alpha"); !ok {
		t.Error("mutating All() result must not affect the store")
	}
	if again := s.All(); again[0].Name != "Alpha" {
		t.Error("store contents changed after caller mutation")
	}

	var names []string
	s.Each(func(e model.Entity) { names = append(names, e.Name) })
	if len(names) != 3 {
		t.Errorf("Each visited %d entities", len(names))
	}
}

func TestFromEntitiesRejectsDuplicates(t *testing.T) {
	_, err := FromEntities([]model.Entity{
		{Name: "A", Coord: orb.Point{0, 0}},
		{Name: "A", Coord: orb.Point{1, 1}},
	})
	if err == nil {
		t.Fatal("expected duplicate error")
	}
}

func TestNilStore(t *testing.T) {
	var s *Store
	if s.Len() != 0 || s.All() != nil {
		t.Error("nil store should be empty")
	}
	if _, ok := s.ByName("x"); ok {
		t.Error("nil store should not find anything")
	}
}
