package loader

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/schoolmap/pkg/metrics"
	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// LookupEntry is the authoritative class/region/district record for a school.
type LookupEntry struct {
	Name     string           `json:"name,omitempty"`
	Size     model.ClassLevel `json:"size,omitempty"`
	Class    string           `json:"class,omitempty"`
	Region   string           `json:"region,omitempty"`
	District string           `json:"district,omitempty"`
}

// ClassLevel resolves the entry's class from size, then from the "Class N" label.
func (e LookupEntry) ClassLevel() model.ClassLevel {
	if e.Size.Valid() {
		return e.Size
	}
	if c, ok := model.ParseClassLabel(e.Class); ok {
		return c
	}
	return model.ClassUnset
}

// UnmarshalJSON accepts size as a number, a numeric string or "".
func (e *LookupEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     string `json:"name"`
		Size     any    `json:"size"`
		Class    string `json:"class"`
		Region   string `json:"region"`
		District string `json:"district"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Name = strings.TrimSpace(raw.Name)
	e.Size = parseClass(raw.Size)
	e.Class = strings.TrimSpace(raw.Class)
	e.Region = strings.TrimSpace(raw.Region)
	e.District = strings.TrimSpace(raw.District)
	return nil
}

// Lookup maps school name to its lookup entry.
type Lookup map[string]LookupEntry

// Get returns the entry for a school name.
func (l Lookup) Get(name string) (LookupEntry, bool) {
	e, ok := l[name]
	return e, ok
}

// ParseLookup decodes the school lookup document: a JSON object keyed by
// school name. Entries that fail to decode are skipped with a warning.
func ParseLookup(r io.Reader, opts ParseOptions) (Lookup, error) {
	defer metrics.Timer(metrics.DataDecode)()

	data, err := readAll(r, opts)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing school lookup%s: %w", sourceSuffix(opts.Source), err)
	}

	warn := opts.warn()
	lookup := make(Lookup, len(raw))
	for key, msg := range raw {
		name := strings.TrimSpace(key)
		if name == "" {
			warn("skipping lookup entry with empty name")
			continue
		}
		var entry LookupEntry
		if err := json.Unmarshal(msg, &entry); err != nil {
			warn(fmt.Sprintf("skipping malformed lookup entry %q: %v", name, err))
			continue
		}
		entry.Name = name
		lookup[name] = entry
	}
	return lookup, nil
}

// LoadLookupFile reads a lookup JSON file from disk.
func LoadLookupFile(path string, opts ParseOptions) (Lookup, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup file: %w", err)
	}
	defer file.Close()

	if opts.Source == "" {
		opts.Source = path
	}
	return ParseLookup(file, opts)
}
