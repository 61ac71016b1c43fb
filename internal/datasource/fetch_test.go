package datasource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/vanderheijden86/schoolmap/pkg/model"
)

func pointCollection(names ...string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf(`{"type":"Feature","geometry":{"type":"Point","coordinates":[-78.%d,37.5]},"properties":{"name":%q}}`, i+1, n)
	}
	return `{"type":"FeatureCollection","features":[` + strings.Join(parts, ",") + `]}`
}

func TestDefaultRegionFiles(t *testing.T) {
	files := DefaultRegionFiles()
	if len(files) != 24 {
		t.Fatalf("expected 24 region files, got %d", len(files))
	}
	if files[0] != "Region 1A.geojson" || files[23] != "Region 6D.geojson" {
		t.Errorf("unexpected bounds %q .. %q", files[0], files[23])
	}
}

func TestSourcesLocations(t *testing.T) {
	remote := Sources{GeometryBase: "https://example.com/geo/", RegionFiles: []string{"Region 1A.geojson"}}
	if got := remote.Locations()[0]; got != "https://example.com/geo/Region%201A.geojson" {
		t.Errorf("remote location = %q", got)
	}
	local := Sources{GeometryBase: "/data", RegionFiles: []string{"Region 1A.geojson"}}
	if got := local.Locations()[0]; got != filepath.Join("/data", "Region 1A.geojson") {
		t.Errorf("local location = %q", got)
	}
}

func TestFetchLocalSkipsMissingRegion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Region 1A.geojson"), pointCollection("Alpha", "Bravo"))
	writeFile(t, filepath.Join(dir, "Region 2B.geojson"), pointCollection("Charlie"))
	writeFile(t, filepath.Join(dir, LookupFileName), `{"Alpha":{"size":"1"}}`)

	var mu sync.Mutex
	var warnings []string
	res, err := Fetch(context.Background(), Sources{
		GeometryBase: dir,
		RegionFiles:  []string{"Region 1A.geojson", "Region 2B.geojson", "Region 3C.geojson"},
		Lookup:       dir,
	}, FetchOptions{WarningHandler: func(msg string) {
		mu.Lock()
		warnings = append(warnings, msg)
		mu.Unlock()
	}})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(res.Features) != 3 {
		t.Errorf("expected 3 features, got %d", len(res.Features))
	}
	if res.Features[0].Name != "Alpha" || res.Features[2].Name != "Charlie" {
		t.Errorf("features should keep file order, got %v", res.Features)
	}
	if len(res.Failed) != 1 || !strings.HasSuffix(res.Failed[0], "Region 3C.geojson") {
		t.Errorf("expected Region 3C to fail, got %v", res.Failed)
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning, got %v", warnings)
	}
	if res.LookupSource.Type != SourceTypeJSON || len(res.Lookup) != 1 {
		t.Errorf("unexpected lookup source %+v", res.LookupSource)
	}
}

func TestFetchLookupFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Region 1A.geojson"), pointCollection("Alpha"))

	_, err := Fetch(context.Background(), Sources{
		GeometryBase: dir,
		RegionFiles:  []string{"Region 1A.geojson"},
		Lookup:       filepath.Join(dir, LookupFileName),
	}, FetchOptions{WarningHandler: func(string) {}})
	if !errors.Is(err, model.ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("cause lost from %v", err)
	}
}

func TestFetchNoFeaturesIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, LookupFileName), `{"Alpha":{"size":"1"}}`)

	_, err := Fetch(context.Background(), Sources{
		GeometryBase: dir,
		RegionFiles:  []string{"Region 1A.geojson"},
		Lookup:       filepath.Join(dir, LookupFileName),
	}, FetchOptions{WarningHandler: func(string) {}})
	if !errors.Is(err, model.ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestFetchRemote(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "schoolmap/") {
			t.Errorf("missing user agent, got %q", r.Header.Get("User-Agent"))
		}
		switch r.URL.Path {
		case "/geo/Region 1A.geojson":
			fmt.Fprint(w, pointCollection("Alpha"))
		case "/school_lookup.json":
			fmt.Fprint(w, `{"Alpha":{"size":"4","region":"Region 4A"}}`)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(handler)
	defer srv.Close()

	res, err := Fetch(context.Background(), Sources{
		GeometryBase: srv.URL + "/geo",
		RegionFiles:  []string{"Region 1A.geojson", "Region 1B.geojson"},
		Lookup:       srv.URL + "/school_lookup.json",
	}, FetchOptions{Client: srv.Client(), WarningHandler: func(string) {}})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(res.Features) != 1 || len(res.Failed) != 1 {
		t.Errorf("expected 1 feature and 1 failure, got %d / %v", len(res.Features), res.Failed)
	}
	if res.LookupSource.Type != SourceTypeRemote {
		t.Errorf("lookup source type = %s", res.LookupSource.Type)
	}
	if res.Lookup["Alpha"].ClassLevel() != 4 {
		t.Errorf("lookup not decoded: %+v", res.Lookup)
	}
}

func TestFetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	_, err := Fetch(ctx, Sources{
		GeometryBase: srv.URL,
		RegionFiles:  []string{"Region 1A.geojson"},
		Lookup:       srv.URL + "/lookup.json",
	}, FetchOptions{Client: srv.Client(), WarningHandler: func(string) {}})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
