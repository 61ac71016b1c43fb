package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/paulmach/orb"

	"github.com/vanderheijden86/schoolmap/pkg/config"
	"github.com/vanderheijden86/schoolmap/pkg/controller"
	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/testutil"
)

func fixtureSchools() []model.Entity {
	return []model.Entity{
		{Name: "Abingdon High School", Class: 3, Region: "Region 3D", District: "Mountain Empire", Coord: orb.Point{-81.9, 36.7}},
		{Name: "Atlee High School", Class: 5, Region: "Region 5B", District: "Capital", Coord: orb.Point{-77.4, 37.6}},
		{Name: "Hanover High School", Class: 5, Region: "Region 5B", District: "Capital", Coord: orb.Point{-77.3, 37.7}},
		{Name: "Bath County High School", Class: 1, Region: "Region 1B", District: "Pioneer", Coord: orb.Point{-79.8, 38.0}},
	}
}

func loadFixture(t *testing.T) *controller.Dataset {
	t.Helper()
	dir := t.TempDir()
	files := testutil.WriteDataDir(t, dir, fixtureSchools())

	cfg := config.DefaultConfig()
	applyFlagOverrides(&cfg, dir, "", "", false)
	cfg.Data.RegionFiles = files

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ds, err := loadDataset(ctx, cfg, func(msg string) { t.Log(msg) })
	if err != nil {
		t.Fatalf("loadDataset: %v", err)
	}
	return ds
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	applyFlagOverrides(&cfg, "/srv/geo", "", "light", true)
	if cfg.Data.GeometryBase != "/srv/geo" || cfg.Data.Lookup != "/srv/geo" {
		t.Errorf("data flags: %+v", cfg.Data)
	}
	if cfg.UI.Theme != "light" || !cfg.Data.Watch {
		t.Errorf("theme %q watch %v", cfg.UI.Theme, cfg.Data.Watch)
	}

	cfg = config.DefaultConfig()
	applyFlagOverrides(&cfg, "/srv/geo", "https://example.org/lookup.json", "", false)
	if cfg.Data.Lookup != "https://example.org/lookup.json" {
		t.Errorf("lookup %q", cfg.Data.Lookup)
	}
	if cfg.UI.Theme != "auto" || cfg.Data.Watch {
		t.Errorf("unset flags changed config: theme %q watch %v", cfg.UI.Theme, cfg.Data.Watch)
	}
}

func TestLoadDatasetEnriches(t *testing.T) {
	ds := loadFixture(t)
	if ds.Store.Len() != 4 {
		t.Fatalf("loaded %d schools, want 4", ds.Store.Len())
	}
	e, ok := ds.Store.ByName("Atlee High School")
	if !ok || e.Class != 5 || e.District != "Capital" {
		t.Errorf("Atlee = %+v", e)
	}
}

func TestLoadDatasetMissingData(t *testing.T) {
	cfg := config.DefaultConfig()
	applyFlagOverrides(&cfg, t.TempDir(), "", "", false)
	_, err := loadDataset(context.Background(), cfg, func(string) {})
	if err == nil {
		t.Fatal("expected a load error for an empty directory")
	}
}

func TestParseOnly(t *testing.T) {
	ds := loadFixture(t)

	st, err := parseOnly(ds, []string{"regions=Region 5B", "classes = Class 5"})
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode() != model.ViewClasses {
		t.Errorf("mode %q, want last dimension's mode", st.Mode())
	}
	if !st.Contains(model.DimRegions, "Region 5B") || !st.Contains(model.DimClasses, "Class 5") {
		t.Errorf("selection %+v", st.Snapshot())
	}

	for _, bad := range []string{"regions", "colors=red", "regions=Region 9Z"} {
		if _, err := parseOnly(ds, []string{bad}); err == nil {
			t.Errorf("parseOnly(%q) should fail", bad)
		}
	}
}

func TestBuildSearchOutput(t *testing.T) {
	ds := loadFixture(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	out, err := buildSearchOutput(ds, "  CAPITAL ", now)
	if err != nil {
		t.Fatal(err)
	}
	if out.Query != "capital" || out.GeneratedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("header %+v", out)
	}
	if len(out.Schools) != 0 || len(out.Districts) != 1 || out.Districts[0] != "Capital" || out.Total != 1 {
		t.Errorf("results %+v", out)
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, out); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if regions, ok := decoded["regions"].([]any); !ok || len(regions) != 0 {
		t.Errorf("regions should encode as an empty list, got %v", decoded["regions"])
	}

	out, err = buildSearchOutput(ds, "high", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Schools) != 4 || out.Schools[0].Name != "Abingdon High School" || out.Schools[0].Class != "Class 3" {
		t.Errorf("schools %+v", out.Schools)
	}
}

func TestRunExports(t *testing.T) {
	ds := loadFixture(t)
	dir := t.TempDir()
	svgPath := filepath.Join(dir, "map.svg")
	dbPath := filepath.Join(dir, "out", "schools.db")

	out, err := runExports(ds, robotOptions{
		SVG:    svgPath,
		SQLite: dbPath,
		Only:   []string{"districts=Capital"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Visible != 2 || out.Total != 4 || out.Rows != 4 {
		t.Errorf("summary %+v", out)
	}
	if !strings.Contains(out.Description, "Capital") {
		t.Errorf("description %q", out.Description)
	}

	data, err := os.ReadFile(svgPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "<circle"); got != 2 {
		t.Errorf("svg has %d markers, want 2", got)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("sqlite export missing: %v", err)
	}
}

func TestRunExportsBadFilter(t *testing.T) {
	ds := loadFixture(t)
	_, err := runExports(ds, robotOptions{SVG: filepath.Join(t.TempDir(), "x.svg"), Only: []string{"bogus"}})
	if err == nil {
		t.Fatal("expected an error for a malformed --only")
	}
}

func TestRunExportsHooks(t *testing.T) {
	ds := loadFixture(t)
	hooksDir := t.TempDir()
	outDir := t.TempDir()
	marker := filepath.Join(outDir, "posted.txt")
	hooksYAML := "hooks:\n" +
		"  post-export:\n" +
		"    - name: record\n" +
		"      command: 'echo \"$SCHOOLMAP_EXPORT_FORMAT $SCHOOLMAP_VISIBLE_COUNT\" >> " + marker + "'\n"
	if err := os.WriteFile(filepath.Join(hooksDir, "hooks.yaml"), []byte(hooksYAML), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runExports(ds, robotOptions{
		SVG:      filepath.Join(outDir, "map.svg"),
		Only:     []string{"districts=Capital"},
		HooksDir: hooksDir,
	})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("post-export hook did not run: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "svg 2" {
		t.Errorf("hook saw %q", got)
	}
	if len(out.Hooks) != 1 || !strings.Contains(out.Hooks[0], "1 succeeded") {
		t.Errorf("hook summary %v", out.Hooks)
	}

	_, err = runExports(ds, robotOptions{
		SVG:      filepath.Join(outDir, "skipped.svg"),
		HooksDir: hooksDir,
		NoHooks:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(marker)
	if strings.Count(string(data), "\n") != 1 {
		t.Errorf("--no-hooks still ran hooks: %q", data)
	}
}

func TestRunExportsPreHookBlocks(t *testing.T) {
	ds := loadFixture(t)
	hooksDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(hooksDir, "hooks.yaml"),
		[]byte("hooks:\n  pre-export:\n    - name: gate\n      command: exit 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	svgPath := filepath.Join(t.TempDir(), "map.svg")
	_, err := runExports(ds, robotOptions{SVG: svgPath, HooksDir: hooksDir})
	if err == nil || !strings.Contains(err.Error(), "gate") {
		t.Fatalf("err = %v", err)
	}
	if _, statErr := os.Stat(svgPath); !os.IsNotExist(statErr) {
		t.Errorf("artifact written despite failing pre-export hook")
	}
}
