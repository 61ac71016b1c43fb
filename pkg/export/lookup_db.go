package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/schoolmap/pkg/model"
)

// LookupSchemaVersion is written to the meta table of exported databases.
const LookupSchemaVersion = 1

// WriteLookupDB writes the entities to a SQLite database with a schools
// table, replacing any existing file. It returns the number of rows written.
func WriteLookupDB(path string, entities []model.Entity) (int, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, fmt.Errorf("open database: %w", err)
	}
	dbClosed := false
	defer func() {
		if !dbClosed {
			db.Close()
		}
	}()

	if err := createLookupSchema(db); err != nil {
		return 0, fmt.Errorf("create schema: %w", err)
	}
	n, err := insertSchools(db, entities)
	if err != nil {
		return 0, fmt.Errorf("insert schools: %w", err)
	}
	if err := insertLookupMeta(db, n); err != nil {
		return 0, fmt.Errorf("insert meta: %w", err)
	}
	if _, err := db.Exec("ANALYZE"); err != nil {
		return 0, fmt.Errorf("analyze: %w", err)
	}

	if err := db.Close(); err != nil {
		return 0, fmt.Errorf("close database: %w", err)
	}
	dbClosed = true
	return n, nil
}

func createLookupSchema(db *sql.DB) error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS schools (
			name TEXT PRIMARY KEY,
			size INTEGER,
			class TEXT,
			region TEXT,
			district TEXT,
			lon REAL NOT NULL,
			lat REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_schools_region ON schools(region)`,
		`CREATE INDEX IF NOT EXISTS idx_schools_district ON schools(district)`,
		`CREATE TABLE IF NOT EXISTS export_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// insertSchools writes one row per distinct name. Unset attributes are NULL.
func insertSchools(db *sql.DB, entities []model.Entity) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO schools (name, size, class, region, district, lon, lat)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, e := range entities {
		var size sql.NullInt64
		var class sql.NullString
		if e.Class.Valid() {
			size = sql.NullInt64{Int64: int64(e.Class), Valid: true}
			class = sql.NullString{String: e.Class.Label(), Valid: true}
		}
		res, err := stmt.Exec(e.Name, size, class, nullable(e.Region), nullable(e.District), e.Coord.Lon(), e.Coord.Lat())
		if err != nil {
			return 0, fmt.Errorf("insert school %s: %w", e.Name, err)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			n++
		}
	}
	return n, tx.Commit()
}

func insertLookupMeta(db *sql.DB, count int) error {
	meta := map[string]string{
		"schema_version": fmt.Sprint(LookupSchemaVersion),
		"exported_at":    time.Now().UTC().Format(time.RFC3339),
		"school_count":   fmt.Sprint(count),
	}
	for k, v := range meta {
		if _, err := db.Exec(`INSERT OR REPLACE INTO export_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return err
		}
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
