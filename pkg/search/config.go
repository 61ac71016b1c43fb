package search

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Default result caps and minimum query length.
const (
	DefaultMaxEntities  = 10
	DefaultMaxRegions   = 5
	DefaultMaxDistricts = 5
	DefaultMinQueryLen  = 2
)

const (
	EnvMaxEntities  = "SCHOOLMAP_SEARCH_MAX_ENTITIES"
	EnvMaxRegions   = "SCHOOLMAP_SEARCH_MAX_REGIONS"
	EnvMaxDistricts = "SCHOOLMAP_SEARCH_MAX_DISTRICTS"
	EnvMinQueryLen  = "SCHOOLMAP_SEARCH_MIN_LEN"
)

// Config caps each result group and sets the shortest term that is searched.
type Config struct {
	MaxEntities  int `yaml:"max_entities,omitempty" json:"max_entities"`
	MaxRegions   int `yaml:"max_regions,omitempty" json:"max_regions"`
	MaxDistricts int `yaml:"max_districts,omitempty" json:"max_districts"`
	MinQueryLen  int `yaml:"min_query_len,omitempty" json:"min_query_len"`
}

// DefaultConfig returns the standard caps: 10 schools, 5 regions, 5 districts.
func DefaultConfig() Config {
	return Config{
		MaxEntities:  DefaultMaxEntities,
		MaxRegions:   DefaultMaxRegions,
		MaxDistricts: DefaultMaxDistricts,
		MinQueryLen:  DefaultMinQueryLen,
	}
}

// Normalized fills zero fields with defaults.
func (c Config) Normalized() Config {
	d := DefaultConfig()
	if c.MaxEntities <= 0 {
		c.MaxEntities = d.MaxEntities
	}
	if c.MaxRegions <= 0 {
		c.MaxRegions = d.MaxRegions
	}
	if c.MaxDistricts <= 0 {
		c.MaxDistricts = d.MaxDistricts
	}
	if c.MinQueryLen <= 0 {
		c.MinQueryLen = d.MinQueryLen
	}
	return c
}

// ConfigFromEnv overlays environment variables on base. Values must be
// positive integers.
func ConfigFromEnv(base Config) (Config, error) {
	cfg := base
	fields := []struct {
		env string
		dst *int
	}{
		{EnvMaxEntities, &cfg.MaxEntities},
		{EnvMaxRegions, &cfg.MaxRegions},
		{EnvMaxDistricts, &cfg.MaxDistricts},
		{EnvMinQueryLen, &cfg.MinQueryLen},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(os.Getenv(f.env))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %s: %q (expected a positive integer)", f.env, raw)
		}
		*f.dst = n
	}
	return cfg.Normalized(), nil
}
