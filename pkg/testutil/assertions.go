package testutil

import (
	"reflect"
	"sort"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// AssertNoDuplicateNames verifies all school names are unique.
func AssertNoDuplicateNames(t *testing.T, entities []model.Entity) {
	t.Helper()
	seen := make(map[string]bool)
	for _, e := range entities {
		if seen[e.Name] {
			t.Errorf("duplicate school name: %s", e.Name)
		}
		seen[e.Name] = true
	}
}

// AssertAllValid verifies all schools pass validation.
func AssertAllValid(t *testing.T, entities []model.Entity) {
	t.Helper()
	for i, e := range entities {
		if err := e.Validate(); err != nil {
			t.Errorf("school %d (%s) invalid: %v", i, e.Name, err)
		}
	}
}

// AssertNames compares the names of entities against want, in order.
func AssertNames(t *testing.T, entities []model.Entity, want ...string) {
	t.Helper()
	got := Names(entities)
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("names mismatch:\nexpected: %v\nactual:   %v", want, got)
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Names returns the names of entities in order.
func Names(entities []model.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Name
	}
	return out
}

// SortedNames returns the names of entities sorted ascending.
func SortedNames(entities []model.Entity) []string {
	out := Names(entities)
	sort.Strings(out)
	return out
}

// CountBy groups entities by their value in a dimension. Unset values are
// counted under "".
func CountBy(entities []model.Entity, dim model.Dimension) map[string]int {
	counts := make(map[string]int)
	for _, e := range entities {
		counts[e.Value(dim)]++
	}
	return counts
}
