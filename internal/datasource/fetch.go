package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/schoolmap/pkg/debug"
	"github.com/vanderheijden86/schoolmap/pkg/loader"
	"github.com/vanderheijden86/schoolmap/pkg/metrics"
	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/version"
)

// RegionLetters are the four regions within each class.
var RegionLetters = []string{"A", "B", "C", "D"}

// DefaultRegionFiles returns the 24 per-region geometry file names,
// "Region 1A.geojson" through "Region 6D.geojson".
func DefaultRegionFiles() []string {
	files := make([]string, 0, int(model.MaxClass)*len(RegionLetters))
	for c := model.MinClass; c <= model.MaxClass; c++ {
		for _, letter := range RegionLetters {
			files = append(files, fmt.Sprintf("Region %d%s.geojson", int(c), letter))
		}
	}
	return files
}

// Sources locates the geometry files and the lookup. GeometryBase and
// Lookup are either local paths or http(s) URLs.
type Sources struct {
	GeometryBase string
	RegionFiles  []string
	Lookup       string
}

// Locations returns the resolved location of each region file.
func (s Sources) Locations() []string {
	files := s.RegionFiles
	if len(files) == 0 {
		files = DefaultRegionFiles()
	}
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = joinLocation(s.GeometryBase, f)
	}
	return out
}

func joinLocation(base, file string) string {
	if IsRemote(base) {
		return strings.TrimRight(base, "/") + "/" + url.PathEscape(file)
	}
	return filepath.Join(base, file)
}

// FetchOptions controls concurrency and transport.
type FetchOptions struct {
	// Concurrency bounds the number of in-flight requests (0 = 8)
	Concurrency int
	// Timeout applies to each remote request (0 = 30s)
	Timeout time.Duration
	// Client overrides the HTTP client used for remote sources
	Client *http.Client
	// WarningHandler receives per-file failures and parser warnings
	WarningHandler func(string)
}

// Result is the combined output of a fetch.
type Result struct {
	Features []loader.Feature
	Lookup   loader.Lookup
	// Failed lists geometry locations that could not be loaded
	Failed []string
	// LookupSource describes where the lookup came from
	LookupSource DataSource
}

// Fetch loads every geometry file and the lookup concurrently. A failed
// geometry file is reported and skipped; a failed lookup, or no features at
// all, fails the whole load with model.ErrLoad.
func Fetch(ctx context.Context, src Sources, opts FetchOptions) (*Result, error) {
	defer metrics.Timer(metrics.DataFetch)()
	defer debug.LogEnterExit("datasource.Fetch")()

	warn := opts.WarningHandler
	if warn == nil {
		warn = loader.DefaultWarningHandler()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 8
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	parseOpts := loader.ParseOptions{WarningHandler: warn}

	locations := src.Locations()
	perFile := make([][]loader.Feature, len(locations))
	var (
		mu     sync.Mutex
		failed []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var lookup loader.Lookup
	var lookupSource DataSource
	g.Go(func() error {
		l, ds, err := fetchLookup(gctx, client, src.Lookup, parseOpts)
		if err != nil {
			return fmt.Errorf("%w: lookup %s: %w", model.ErrLoad, src.Lookup, err)
		}
		lookup, lookupSource = l, ds
		return nil
	})

	for i, loc := range locations {
		g.Go(func() error {
			features, err := fetchFeatures(gctx, client, loc, parseOpts)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				warn(fmt.Sprintf("skipping %s: %v", loc, err))
				mu.Lock()
				failed = append(failed, loc)
				mu.Unlock()
				return nil
			}
			perFile[i] = features
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var features []loader.Feature
	for _, fs := range perFile {
		features = append(features, fs...)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no school geometry could be loaded (%d of %d files failed)",
			model.ErrLoad, len(failed), len(locations))
	}
	sort.Strings(failed)

	debug.Log("fetched %d features from %d files (%d failed), %d lookup entries",
		len(features), len(locations)-len(failed), len(failed), len(lookup))

	return &Result{
		Features:     features,
		Lookup:       lookup,
		Failed:       failed,
		LookupSource: lookupSource,
	}, nil
}

func fetchFeatures(ctx context.Context, client *http.Client, loc string, opts loader.ParseOptions) ([]loader.Feature, error) {
	opts.Source = filepath.Base(loc)
	if !IsRemote(loc) {
		return loader.LoadFeatureFile(loc, opts)
	}
	body, err := open(ctx, client, loc)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return loader.ParseFeatureCollection(body, opts)
}

// fetchLookup resolves the lookup location. A directory is scanned for the
// freshest valid source; a file or URL is read directly.
func fetchLookup(ctx context.Context, client *http.Client, loc string, opts loader.ParseOptions) (loader.Lookup, DataSource, error) {
	if loc == "" {
		return nil, DataSource{}, fmt.Errorf("no lookup location configured")
	}
	if IsRemote(loc) {
		ds := DataSource{Type: SourceTypeRemote, Path: loc, Priority: PriorityRemote, Valid: true}
		body, err := open(ctx, client, loc)
		if err != nil {
			return nil, ds, err
		}
		defer body.Close()
		opts.Source = loc
		lookup, err := loader.ParseLookup(body, opts)
		ds.SchoolCount = len(lookup)
		return lookup, ds, err
	}

	info, err := os.Stat(loc)
	if err != nil {
		return nil, DataSource{}, fmt.Errorf("failed to stat lookup: %w", err)
	}

	var ds DataSource
	if info.IsDir() {
		sources, err := DiscoverLookupSources(DiscoveryOptions{
			Dir:                    loc,
			ValidateAfterDiscovery: true,
			Logger:                 func(msg string) { debug.Log("%s", msg) },
		})
		if err != nil {
			return nil, DataSource{}, err
		}
		if ds, err = SelectBestSource(sources); err != nil {
			return nil, DataSource{}, err
		}
	} else {
		ds = DataSource{Type: SourceTypeJSON, Path: loc, Priority: PriorityJSON, ModTime: info.ModTime(), Size: info.Size()}
		if strings.HasSuffix(strings.ToLower(loc), ".db") {
			ds.Type, ds.Priority = SourceTypeSQLite, PrioritySQLite
		}
	}

	lookup, err := ReadLookup(ds, opts)
	if err != nil {
		return nil, ds, err
	}
	ds.Valid = true
	ds.SchoolCount = len(lookup)
	return lookup, ds, nil
}

func open(ctx context.Context, client *http.Client, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
