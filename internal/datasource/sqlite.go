package datasource

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/schoolmap/pkg/debug"
	"github.com/vanderheijden86/schoolmap/pkg/loader"
	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// SQLiteReader provides read access to a schools SQLite database
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("sqlite pragma %q failed: %v", pragma, err)
		}
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadLookup reads every row of the schools table.
func (r *SQLiteReader) LoadLookup() (loader.Lookup, error) {
	rows, err := r.db.Query(`
		SELECT name, size, class, region, district
		FROM schools
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying schools in %s: %w", r.path, err)
	}
	defer rows.Close()

	lookup := make(loader.Lookup)
	for rows.Next() {
		var name string
		var size, class, region, district sql.NullString
		if err := rows.Scan(&name, &size, &class, &region, &district); err != nil {
			return nil, fmt.Errorf("scanning school row: %w", err)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		entry := loader.LookupEntry{
			Name:     name,
			Class:    strings.TrimSpace(class.String),
			Region:   strings.TrimSpace(region.String),
			District: strings.TrimSpace(district.String),
		}
		if n, err := strconv.Atoi(strings.TrimSpace(size.String)); err == nil && model.ClassLevel(n).Valid() {
			entry.Size = model.ClassLevel(n)
		}
		lookup[name] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schools: %w", err)
	}
	return lookup, nil
}

// CountSchools returns the number of rows in the schools table.
func (r *SQLiteReader) CountSchools() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM schools`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting schools: %w", err)
	}
	return n, nil
}
