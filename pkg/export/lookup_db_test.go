package export

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/schoolmap/internal/datasource"
	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/testutil"
)

func TestWriteLookupDB_ReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", datasource.DatabaseFileName)
	schools := sampleSchools()

	n, err := WriteLookupDB(path, schools)
	if err != nil {
		t.Fatalf("WriteLookupDB: %v", err)
	}
	if n != len(schools) {
		t.Fatalf("wrote %d rows, want %d", n, len(schools))
	}

	reader, err := datasource.NewSQLiteReader(datasource.DataSource{Type: datasource.SourceTypeSQLite, Path: path})
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer reader.Close()

	lookup, err := reader.LoadLookup()
	if err != nil {
		t.Fatalf("LoadLookup: %v", err)
	}
	if len(lookup) != len(schools) {
		t.Fatalf("lookup has %d entries, want %d", len(lookup), len(schools))
	}

	atlee, ok := lookup.Get("Atlee")
	if !ok {
		t.Fatal("Atlee missing")
	}
	if atlee.ClassLevel() != 5 || atlee.Region != "Region 5B" || atlee.District != "Capital" {
		t.Errorf("Atlee = %+v", atlee)
	}
	unset, _ := lookup.Get("Lee & Grant")
	if unset.ClassLevel() != model.ClassUnset || unset.Region != "" || unset.District != "" {
		t.Errorf("unset school should read back empty, got %+v", unset)
	}
}

func TestWriteLookupDB_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schools.db")
	if _, err := WriteLookupDB(path, testutil.QuickSchools(30)); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteLookupDB(path, sampleSchools()); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schools`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("expected 3 rows after replace, got %d", count)
	}
	var version, recorded string
	if err := db.QueryRow(`SELECT value FROM export_meta WHERE key = 'schema_version'`).Scan(&version); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT value FROM export_meta WHERE key = 'school_count'`).Scan(&recorded); err != nil {
		t.Fatal(err)
	}
	if version != "1" || recorded != "3" {
		t.Errorf("meta = version %q count %q", version, recorded)
	}
}

func TestWriteLookupDB_DuplicateNamesKeepFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schools.db")
	schools := append(sampleSchools(), model.Entity{Name: "Atlee", Class: 2})
	n, err := WriteLookupDB(path, schools)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("duplicate should be skipped, wrote %d", n)
	}

	src := datasource.DataSource{Type: datasource.SourceTypeSQLite, Path: path}
	reader, err := datasource.NewSQLiteReader(src)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	lookup, err := reader.LoadLookup()
	if err != nil {
		t.Fatal(err)
	}
	if e, _ := lookup.Get("Atlee"); e.ClassLevel() != 5 {
		t.Errorf("first Atlee should win, got class %d", e.ClassLevel())
	}
}

func TestWriteLookupDB_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteLookupDB(filepath.Join(blocker, "schools.db"), sampleSchools()); err == nil {
		t.Error("expected error when parent is a file")
	}
}
