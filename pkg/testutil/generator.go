// Package testutil provides deterministic school fixtures for tests: entity
// sets, the GeoJSON and lookup documents that describe them, and rapid
// generators for property tests.
package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"pgregory.net/rapid"

	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// GeneratorConfig controls school generation.
type GeneratorConfig struct {
	Seed int64 // Random seed for determinism (0 = use 42)
	// UnsetRate is the probability that a school's district is left unset
	UnsetRate float64
	// Center and Spread place schools around a point (default central Virginia)
	Center orb.Point
	Spread float64
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:   42,
		Center: orb.Point{-79.5, 37.8},
		Spread: 2.5,
	}
}

// Generator creates school fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.Spread == 0 {
		cfg.Spread = 2.5
	}
	if cfg.Center == (orb.Point{}) {
		cfg.Center = orb.Point{-79.5, 37.8}
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

var (
	namePrefixes = []string{"Washington", "Jefferson", "Madison", "Monroe", "Lee", "Henry", "Grayson", "Floyd", "Patrick", "Giles", "Bath", "Surry"}
	nameSuffixes = []string{"High", "County", "Central", "Memorial", "Academy", "Senior"}
	districtPool = []string{"Northern", "Capital", "Piedmont", "Blue Ridge", "Mountain Empire", "Southside", "Tidewater", "Shenandoah"}
)

// Schools generates n schools with unique names, spread across the six
// classes and their A-D regions.
func (g *Generator) Schools(n int) []model.Entity {
	out := make([]model.Entity, 0, n)
	for i := 0; i < n; i++ {
		class := model.ClassLevel(1 + g.rng.Intn(6))
		letter := "ABCD"[g.rng.Intn(4)]
		e := model.Entity{
			Name:   fmt.Sprintf("%s %s %03d", namePrefixes[g.rng.Intn(len(namePrefixes))], nameSuffixes[g.rng.Intn(len(nameSuffixes))], i),
			Class:  class,
			Region: fmt.Sprintf("Region %d%c", int(class), letter),
			Coord: orb.Point{
				g.cfg.Center.Lon() + (g.rng.Float64()*2-1)*g.cfg.Spread,
				g.cfg.Center.Lat() + (g.rng.Float64()*2-1)*g.cfg.Spread/2,
			},
		}
		if g.rng.Float64() >= g.cfg.UnsetRate {
			e.District = districtPool[g.rng.Intn(len(districtPool))]
		}
		out = append(out, e)
	}
	return out
}

// QuickSchools returns n schools from the default generator.
func QuickSchools(n int) []model.Entity {
	return NewDefault().Schools(n)
}

// FeatureCollection renders entities as GeoJSON with geometry-side
// properties only (name and region), the shape of a per-region file.
func FeatureCollection(entities []model.Entity) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range entities {
		f := geojson.NewFeature(e.Coord)
		f.Properties["name"] = e.Name
		if e.Region != "" {
			f.Properties["region"] = e.Region
		}
		fc.Append(f)
	}
	return fc
}

// LookupDocument renders the lookup table for entities, with size encoded
// as a string.
func LookupDocument(entities []model.Entity) map[string]map[string]string {
	doc := make(map[string]map[string]string, len(entities))
	for _, e := range entities {
		size := ""
		if e.Class.Valid() {
			size = strconv.Itoa(int(e.Class))
		}
		doc[e.Name] = map[string]string{
			"name":     e.Name,
			"size":     size,
			"class":    e.Class.Label(),
			"region":   e.Region,
			"district": e.District,
		}
	}
	return doc
}

// WriteDataDir writes one "<region>.geojson" file per region plus
// school_lookup.json into dir and returns the region file names.
func WriteDataDir(t testing.TB, dir string, entities []model.Entity) []string {
	t.Helper()

	byRegion := make(map[string][]model.Entity)
	for _, e := range entities {
		key := e.Region
		if key == "" {
			key = "Region 0X"
		}
		byRegion[key] = append(byRegion[key], e)
	}

	var files []string
	for region, es := range byRegion {
		name := region + ".geojson"
		writeJSON(t, filepath.Join(dir, name), FeatureCollection(es))
		files = append(files, name)
	}
	sort.Strings(files)

	writeJSON(t, filepath.Join(dir, "school_lookup.json"), LookupDocument(entities))
	return files
}

func writeJSON(t testing.TB, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// Small value pools keep collisions likely in property tests.
var (
	RapidRegions   = []string{"", "Region 1A", "Region 2B", "Region 3C", "Region 4D"}
	RapidDistricts = []string{"", "Northern", "Capital", "Piedmont"}
)

// RapidEntity draws a single school with the given unique name.
func RapidEntity(t *rapid.T, name string) model.Entity {
	return model.Entity{
		Name:     name,
		Class:    model.ClassLevel(rapid.IntRange(0, 6).Draw(t, "class")),
		Region:   rapid.SampledFrom(RapidRegions).Draw(t, "region"),
		District: rapid.SampledFrom(RapidDistricts).Draw(t, "district"),
		Coord:    orb.Point{-79.5, 37.8},
	}
}

// RapidEntities draws up to 30 schools with unique names.
func RapidEntities(t *rapid.T) []model.Entity {
	n := rapid.IntRange(0, 30).Draw(t, "n")
	out := make([]model.Entity, n)
	for i := range out {
		out[i] = RapidEntity(t, fmt.Sprintf("School %02d", i))
	}
	return out
}
