package filter

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/testutil"
)

type allowList map[model.Dimension]map[string]bool

func (a allowList) Has(d model.Dimension, v string) bool { return a[d][v] }

func TestToggleValidation(t *testing.T) {
	s := New(allowList{model.DimRegions: {"Region 1A": true}})

	if err := s.Toggle("colors", "red", true); !errors.Is(err, model.ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}
	if err := s.Toggle(model.DimRegions, "", true); !errors.Is(err, model.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for empty value, got %v", err)
	}
	if err := s.Toggle(model.DimRegions, "Region 9Z", true); !errors.Is(err, model.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for unknown value, got %v", err)
	}
	if err := s.Toggle(model.DimRegions, "Region 1A", true); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !s.Contains(model.DimRegions, "Region 1A") {
		t.Error("value not added")
	}
}

func TestToggleIdempotent(t *testing.T) {
	s := New(nil)
	_ = s.Toggle(model.DimDistricts, "Northern", true)
	_ = s.Toggle(model.DimDistricts, "Northern", true)
	if got := s.Active(model.DimDistricts); len(got) != 1 {
		t.Errorf("double add should be a no-op, got %v", got)
	}
	_ = s.Toggle(model.DimDistricts, "Capital", false)
	if got := s.Active(model.DimDistricts); len(got) != 1 {
		t.Errorf("removing absent value should be a no-op, got %v", got)
	}
}

func TestIsVisibleSemantics(t *testing.T) {
	a := model.Entity{Name: "A", Class: 3, Region: "Region 3B", District: "Northern"}
	b := model.Entity{Name: "B", Class: 3, Region: "Region 3A", District: "Capital"}
	c := model.Entity{Name: "C", Class: 4, Region: "Region 4B", District: "Northern"}
	unset := model.Entity{Name: "D"}

	s := New(nil)
	for _, e := range []model.Entity{a, b, c, unset} {
		if !s.IsVisible(e) {
			t.Errorf("%s should be visible with no filters", e.Name)
		}
	}

	_ = s.Toggle(model.DimClasses, "Class 3", true)
	_ = s.Toggle(model.DimDistricts, "Northern", true)

	if !s.IsVisible(a) {
		t.Error("A matches both dimensions")
	}
	if s.IsVisible(b) {
		t.Error("B fails the district dimension")
	}
	if s.IsVisible(c) {
		t.Error("C fails the class dimension")
	}
	if s.IsVisible(unset) {
		t.Error("unset attributes never match a non-empty dimension")
	}

	_ = s.Toggle(model.DimDistricts, "Capital", true)
	if !s.IsVisible(b) {
		t.Error("values within a dimension are OR-ed")
	}
}

func TestDescribe(t *testing.T) {
	s := New(nil)
	if got := s.Describe(); got != "Showing all schools" {
		t.Errorf("empty Describe() = %q", got)
	}

	_ = s.Toggle(model.DimClasses, "Class 3", true)
	_ = s.Toggle(model.DimDistricts, "Northern", true)
	if got := s.Describe(); got != "Filtered by Classes: Class 3; Districts: Northern" {
		t.Errorf("Describe() = %q", got)
	}

	_ = s.Toggle(model.DimRegions, "Region 2B", true)
	_ = s.Toggle(model.DimClasses, "Class 1", true)
	want := "Filtered by Classes: Class 3, Class 1; Regions: Region 2B; Districts: Northern"
	if got := s.Describe(); got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestResetAndOnly(t *testing.T) {
	s := New(nil)
	_ = s.Toggle(model.DimClasses, "Class 2", true)
	s.SetMode(model.ViewClasses)

	if err := s.Only(model.DimRegions, "Region 1A"); err != nil {
		t.Fatal(err)
	}
	if s.Mode() != model.ViewRegions {
		t.Errorf("mode = %s, want regions", s.Mode())
	}
	if len(s.Active(model.DimClasses)) != 0 {
		t.Error("Only must clear other dimensions")
	}
	if got := s.Active(model.DimRegions); len(got) != 1 || got[0] != "Region 1A" {
		t.Errorf("regions = %v", got)
	}

	s.Reset()
	if !s.IsEmpty() || s.Mode() != model.ViewAll {
		t.Errorf("Reset left state %+v", s.Snapshot())
	}
}

func TestSetValidatorDropsStaleValues(t *testing.T) {
	s := New(nil)
	_ = s.Toggle(model.DimDistricts, "Northern", true)
	_ = s.Toggle(model.DimDistricts, "Gone", true)

	dropped := s.SetValidator(allowList{model.DimDistricts: {"Northern": true}})
	if len(dropped) != 1 || dropped[0] != "Gone" {
		t.Errorf("dropped = %v", dropped)
	}
	if got := s.Active(model.DimDistricts); len(got) != 1 || got[0] != "Northern" {
		t.Errorf("remaining = %v", got)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New(nil)
	_ = s.Toggle(model.DimClasses, "Class 1", true)
	snap := s.Snapshot()
	_ = s.Toggle(model.DimClasses, "Class 2", true)
	if len(snap.Classes) != 1 {
		t.Error("snapshot changed after mutation")
	}
	if snap.Equal(s.Snapshot()) {
		t.Error("snapshots should differ")
	}
}

func drawOp(t *rapid.T) (model.Dimension, string, bool) {
	dim := rapid.SampledFrom(model.Dimensions).Draw(t, "dim")
	var pool []string
	switch dim {
	case model.DimClasses:
		pool = []string{"Class 1", "Class 2", "Class 3"}
	case model.DimRegions:
		pool = testutil.RapidRegions[1:]
	default:
		pool = testutil.RapidDistricts[1:]
	}
	return dim, rapid.SampledFrom(pool).Draw(t, "value"), rapid.Bool().Draw(t, "on")
}

// With no selection every school is visible.
func TestPropertyNoFilterIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(nil)
		for _, e := range testutil.RapidEntities(t) {
			if !s.IsVisible(e) {
				t.Fatalf("%+v hidden with no filters", e)
			}
		}
	})
}

// Adding then removing a value that was absent restores the prior state.
func TestPropertyToggleRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(nil)
		for i := rapid.IntRange(0, 8).Draw(t, "ops"); i > 0; i-- {
			d, v, on := drawOp(t)
			_ = s.Toggle(d, v, on)
		}
		before := s.Snapshot()
		d, v, _ := drawOp(t)
		if s.Contains(d, v) {
			t.Skip("value already present")
		}
		_ = s.Toggle(d, v, true)
		_ = s.Toggle(d, v, false)
		if !before.Equal(s.Snapshot()) {
			t.Fatalf("round trip changed state: %+v -> %+v", before, s.Snapshot())
		}
	})
}

// Reset from any state yields the empty ViewAll state.
func TestPropertyReset(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(nil)
		for i := rapid.IntRange(0, 10).Draw(t, "ops"); i > 0; i-- {
			d, v, on := drawOp(t)
			_ = s.Toggle(d, v, on)
		}
		s.SetMode(rapid.SampledFrom(model.ViewModes).Draw(t, "mode"))
		s.Reset()
		if !s.Snapshot().Equal(New(nil).Snapshot()) {
			t.Fatalf("reset left %+v", s.Snapshot())
		}
		if s.Describe() != DescribeAll {
			t.Fatalf("Describe after reset = %q", s.Describe())
		}
	})
}

// A school is visible exactly when every non-empty dimension contains its value.
func TestPropertyVisibilityMatchesDefinition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(nil)
		for i := rapid.IntRange(0, 6).Draw(t, "ops"); i > 0; i-- {
			d, v, on := drawOp(t)
			_ = s.Toggle(d, v, on)
		}
		e := testutil.RapidEntity(t, "probe")
		want := true
		for _, d := range model.Dimensions {
			if vals := s.Active(d); len(vals) > 0 {
				hit := false
				for _, v := range vals {
					if e.Value(d) == v {
						hit = true
					}
				}
				want = want && hit
			}
		}
		if got := s.IsVisible(e); got != want {
			t.Fatalf("IsVisible(%+v) = %v, want %v under %+v", e, got, want, s.Snapshot())
		}
	})
}
