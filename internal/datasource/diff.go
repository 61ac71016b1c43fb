package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/schoolmap/pkg/loader"
)

// AuditReport describes how the geometry files and the lookup disagree.
type AuditReport struct {
	GeometryCount int `json:"geometry_count"`
	LookupCount   int `json:"lookup_count"`
	// MissingInLookup lists schools with geometry but no lookup entry
	MissingInLookup []string `json:"missing_in_lookup,omitempty"`
	// MissingGeometry lists lookup entries with no geometry
	MissingGeometry []string `json:"missing_geometry,omitempty"`
	// Duplicates lists names that appear in more than one geometry feature
	Duplicates []string `json:"duplicates,omitempty"`
	// Mismatches lists schools whose attributes differ between the two
	Mismatches []FieldMismatch `json:"mismatches,omitempty"`
}

// FieldMismatch is a single attribute disagreement for one school.
type FieldMismatch struct {
	Name     string `json:"name"`
	Field    string `json:"field"`
	Geometry string `json:"geometry"`
	Lookup   string `json:"lookup"`
}

// HasInconsistencies returns true if there are any differences between sources
func (r AuditReport) HasInconsistencies() bool {
	return len(r.MissingInLookup) > 0 || len(r.MissingGeometry) > 0 ||
		len(r.Duplicates) > 0 || len(r.Mismatches) > 0
}

// Summary returns a human-readable summary of the differences
func (r AuditReport) Summary() string {
	if !r.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d schools)", r.GeometryCount)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Inconsistencies found (%d geometry features, %d lookup entries):\n", r.GeometryCount, r.LookupCount)
	writeList(&b, "schools missing from lookup", r.MissingInLookup)
	writeList(&b, "lookup entries without geometry", r.MissingGeometry)
	writeList(&b, "duplicate geometry names", r.Duplicates)
	if len(r.Mismatches) > 0 {
		fmt.Fprintf(&b, "  - %d attribute mismatches\n", len(r.Mismatches))
		for i, m := range r.Mismatches {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "    - %s %s: %q vs %q\n", m.Name, m.Field, m.Geometry, m.Lookup)
		}
	}
	return b.String()
}

func writeList(b *strings.Builder, label string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(b, "  - %d %s\n", len(names), label)
	if len(names) <= 5 {
		for _, n := range names {
			fmt.Fprintf(b, "    - %s\n", n)
		}
	}
}

// Audit compares geometry features against the lookup. Only attributes
// present on both sides are compared.
func Audit(features []loader.Feature, lookup loader.Lookup) AuditReport {
	report := AuditReport{
		GeometryCount: len(features),
		LookupCount:   len(lookup),
	}

	seen := make(map[string]int, len(features))
	for _, f := range features {
		seen[f.Name]++
		if seen[f.Name] == 2 {
			report.Duplicates = append(report.Duplicates, f.Name)
		}
		if seen[f.Name] > 1 {
			continue
		}

		entry, ok := lookup[f.Name]
		if !ok {
			report.MissingInLookup = append(report.MissingInLookup, f.Name)
			continue
		}
		if c := entry.ClassLevel(); f.Class.Valid() && c.Valid() && f.Class != c {
			report.Mismatches = append(report.Mismatches, FieldMismatch{f.Name, "class", f.Class.Label(), c.Label()})
		}
		if f.Region != "" && entry.Region != "" && f.Region != entry.Region {
			report.Mismatches = append(report.Mismatches, FieldMismatch{f.Name, "region", f.Region, entry.Region})
		}
		if f.District != "" && entry.District != "" && f.District != entry.District {
			report.Mismatches = append(report.Mismatches, FieldMismatch{f.Name, "district", f.District, entry.District})
		}
	}

	for name := range lookup {
		if seen[name] == 0 {
			report.MissingGeometry = append(report.MissingGeometry, name)
		}
	}

	sort.Strings(report.MissingInLookup)
	sort.Strings(report.MissingGeometry)
	sort.Strings(report.Duplicates)
	sort.Slice(report.Mismatches, func(i, j int) bool {
		if report.Mismatches[i].Name != report.Mismatches[j].Name {
			return report.Mismatches[i].Name < report.Mismatches[j].Name
		}
		return report.Mismatches[i].Field < report.Mismatches[j].Field
	})
	return report
}
