// Package datasource locates, validates and fetches school data. Geometry
// comes as one GeoJSON file per region; the lookup table comes from either a
// JSON document or a SQLite database, and the freshest valid one wins.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/schoolmap/pkg/loader"
)

// SourceType identifies the type of lookup source
type SourceType string

const (
	// SourceTypeSQLite is a SQLite database with a schools table
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSON is a local school_lookup.json document
	SourceTypeJSON SourceType = "json"
	// SourceTypeRemote is a lookup document served over HTTP
	SourceTypeRemote SourceType = "remote"
)

// Priority values for source types (higher = more authoritative)
const (
	PrioritySQLite = 100
	PriorityJSON   = 50
	PriorityRemote = 10
)

// Well-known file names inside a data directory.
const (
	LookupFileName   = "school_lookup.json"
	DatabaseFileName = "schools.db"
)

// DataSource represents a potential source of lookup data
type DataSource struct {
	Type     SourceType `json:"type"`
	Path     string     `json:"path"`
	Priority int        `json:"priority"`
	ModTime  time.Time  `json:"mod_time"`
	Valid    bool       `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// SchoolCount is the number of lookup entries (set during validation)
	SchoolCount int   `json:"school_count"`
	Size        int64 `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, schools=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.SchoolCount, status)
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// Dir is the local data directory to scan
	Dir string
	// ValidateAfterDiscovery runs validation on each discovered source
	ValidateAfterDiscovery bool
	// IncludeInvalid includes sources that failed validation in results
	IncludeInvalid bool
	// Logger receives discovery progress messages
	Logger func(msg string)
}

// DiscoverLookupSources finds every candidate lookup source in a data
// directory, sorted freshest first with priority breaking ties.
func DiscoverLookupSources(opts DiscoveryOptions) ([]DataSource, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}
	if opts.Dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if _, err := os.Stat(opts.Dir); err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	opts.Logger(fmt.Sprintf("Discovering lookup sources in: %s", opts.Dir))

	var sources []DataSource
	candidates := []struct {
		name     string
		typ      SourceType
		priority int
	}{
		{DatabaseFileName, SourceTypeSQLite, PrioritySQLite},
		{LookupFileName, SourceTypeJSON, PriorityJSON},
	}
	for _, c := range candidates {
		path := filepath.Join(opts.Dir, c.name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		sources = append(sources, DataSource{
			Type:     c.typ,
			Path:     path,
			Priority: c.priority,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
		opts.Logger(fmt.Sprintf("Found %s: %s (mod=%s)", c.typ, path, info.ModTime().Format(time.RFC3339)))
	}

	if opts.ValidateAfterDiscovery {
		for i := range sources {
			if err := ValidateSource(&sources[i]); err != nil {
				opts.Logger(fmt.Sprintf("Validation failed for %s: %v", sources[i].Path, err))
			}
		}
		if !opts.IncludeInvalid {
			valid := sources[:0]
			for _, s := range sources {
				if s.Valid {
					valid = append(valid, s)
				}
			}
			sources = valid
		}
	}

	sortSources(sources)
	opts.Logger(fmt.Sprintf("Discovered %d sources", len(sources)))
	return sources, nil
}

func sortSources(sources []DataSource) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
}

// ValidateSource opens the source, counts its entries and records the result
// on the source itself.
func ValidateSource(s *DataSource) error {
	lookup, err := ReadLookup(*s, loader.ParseOptions{WarningHandler: func(string) {}})
	if err == nil && len(lookup) == 0 {
		err = fmt.Errorf("source contains no schools")
	}
	if err != nil {
		s.Valid = false
		s.ValidationError = err.Error()
		return err
	}
	s.Valid = true
	s.ValidationError = ""
	s.SchoolCount = len(lookup)
	return nil
}

// SelectBestSource picks the freshest valid source. Ties go to the higher
// priority type.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	var valid []DataSource
	for _, s := range sources {
		if s.Valid {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return DataSource{}, fmt.Errorf("no valid lookup source among %d candidates", len(sources))
	}
	sortSources(valid)
	return valid[0], nil
}

// ReadLookup loads the lookup table from any source type.
func ReadLookup(s DataSource, opts loader.ParseOptions) (loader.Lookup, error) {
	switch s.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(s)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", s.Path, err)
		}
		defer reader.Close()
		return reader.LoadLookup()
	case SourceTypeJSON:
		return loader.LoadLookupFile(s.Path, opts)
	case SourceTypeRemote:
		return nil, fmt.Errorf("remote source %s must be fetched", s.Path)
	default:
		return nil, fmt.Errorf("unknown source type: %s", s.Type)
	}
}

// IsRemote reports whether a location is an http(s) URL.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
