// Package loader decodes the two school data formats: GeoJSON feature
// collections carrying point geometry, and the school lookup table keyed by
// school name.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/vanderheijden86/schoolmap/pkg/metrics"
	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// DefaultMaxDocumentSize caps a single decoded document (32MB).
const DefaultMaxDocumentSize = 32 * 1024 * 1024

// ParseOptions configures the behavior of the parsers.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., skipped features).
	// If nil, warnings are printed to os.Stderr.
	WarningHandler func(string)

	// MaxSize rejects documents larger than this many bytes.
	// If 0, uses DefaultMaxDocumentSize.
	MaxSize int64

	// Source names the document in warnings, e.g. "Region 3B.geojson".
	Source string
}

func (o ParseOptions) warn() func(string) {
	if o.WarningHandler != nil {
		return o.WarningHandler
	}
	return DefaultWarningHandler()
}

// DefaultWarningHandler prints warnings to stderr, or drops them when
// SCHOOLMAP_ROBOT=1 so robot output stays machine-readable.
func DefaultWarningHandler() func(string) {
	if os.Getenv("SCHOOLMAP_ROBOT") == "1" {
		return func(string) {}
	}
	return func(msg string) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
}

// Feature is a school as described by a geometry file, before enrichment.
type Feature struct {
	Name     string
	Class    model.ClassLevel
	Region   string
	District string
	Coord    orb.Point
}

// ParseFeatureCollection decodes a GeoJSON FeatureCollection. Non-point
// geometries and unnamed features are skipped with a warning.
func ParseFeatureCollection(r io.Reader, opts ParseOptions) ([]Feature, error) {
	defer metrics.Timer(metrics.DataDecode)()

	data, err := readAll(r, opts)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	if err := json.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("parsing geojson%s: %w", sourceSuffix(opts.Source), err)
	}

	warn := opts.warn()
	features := make([]Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		name := strings.TrimSpace(stringProp(f.Properties, "name"))
		if name == "" {
			warn(fmt.Sprintf("skipping feature %d%s: missing name", i, sourceSuffix(opts.Source)))
			continue
		}
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			warn(fmt.Sprintf("skipping %q%s: unsupported geometry %T", name, sourceSuffix(opts.Source), f.Geometry))
			continue
		}
		features = append(features, Feature{
			Name:     name,
			Class:    classProp(f.Properties),
			Region:   strings.TrimSpace(stringProp(f.Properties, "region")),
			District: strings.TrimSpace(stringProp(f.Properties, "district")),
			Coord:    pt,
		})
	}
	return features, nil
}

// LoadFeatureFile reads a GeoJSON file from disk.
func LoadFeatureFile(path string, opts ParseOptions) ([]Feature, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geometry file: %w", err)
	}
	defer file.Close()

	if opts.Source == "" {
		opts.Source = path
	}
	return ParseFeatureCollection(file, opts)
}

func readAll(r io.Reader, opts ParseOptions) ([]byte, error) {
	limit := opts.MaxSize
	if limit <= 0 {
		limit = DefaultMaxDocumentSize
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", describeSource(opts.Source), err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s exceeds %d bytes", describeSource(opts.Source), limit)
	}
	return stripBOM(data), nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}

func sourceSuffix(src string) string {
	if src == "" {
		return ""
	}
	return " in " + src
}

func describeSource(src string) string {
	if src == "" {
		return "document"
	}
	return src
}

func stringProp(props geojson.Properties, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// classProp reads the class from "size" (a number or numeric string),
// falling back to a "Class N" label in "class".
func classProp(props geojson.Properties) model.ClassLevel {
	if c := parseClass(props["size"]); c.Valid() {
		return c
	}
	if s, ok := props["class"].(string); ok {
		if c, ok := model.ParseClassLabel(s); ok {
			return c
		}
	}
	return model.ClassUnset
}

func parseClass(v any) model.ClassLevel {
	switch t := v.(type) {
	case float64:
		c := model.ClassLevel(int(t))
		if float64(c) == t && c.Valid() {
			return c
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil && model.ClassLevel(n).Valid() {
			return model.ClassLevel(n)
		}
	}
	return model.ClassUnset
}
