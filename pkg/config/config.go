// Package config handles loading and saving schoolmap configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/schoolmap/config.yaml
//   - Data:    ~/.local/share/schoolmap/ (cached region files, schools.db)
//   - State:   ~/.local/state/schoolmap/ (last view)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/schoolmap/pkg/controller"
	"github.com/vanderheijden86/schoolmap/pkg/search"
)

const appName = "schoolmap"

// DataConfig locates the school data.
type DataConfig struct {
	GeometryBase string   `yaml:"geometry_base,omitempty"` // directory or http(s) URL holding "Region 1A.geojson"...
	RegionFiles  []string `yaml:"region_files,omitempty"`  // overrides the 24 default file names
	Lookup       string   `yaml:"lookup,omitempty"`        // JSON file, SQLite db, directory or URL
	Concurrency  int      `yaml:"concurrency,omitempty"`
	Timeout      Duration `yaml:"timeout,omitempty"`
	Watch        bool     `yaml:"watch,omitempty"` // reload when local files change
}

// MapConfig holds the overview and jump settings.
type MapConfig struct {
	Center    []float64 `yaml:"center,flow,omitempty"` // lon, lat
	Zoom      float64   `yaml:"zoom,omitempty"`
	JumpZoom  float64   `yaml:"jump_zoom,omitempty"`
	Animation Duration  `yaml:"animation,omitempty"`
}

// DebounceConfig holds per-action debounce delays.
type DebounceConfig struct {
	Search     Duration `yaml:"search,omitempty"`
	Hover      Duration `yaml:"hover,omitempty"`
	Resize     Duration `yaml:"resize,omitempty"`
	Resolution Duration `yaml:"resolution,omitempty"`
}

// UIConfig holds terminal preferences.
type UIConfig struct {
	NarrowWidth int    `yaml:"narrow_width,omitempty"` // columns below which the list becomes a slide-over
	Theme       string `yaml:"theme,omitempty"`        // auto, dark, light
}

// Config is the top-level configuration for schoolmap.
type Config struct {
	Data     DataConfig     `yaml:"data,omitempty"`
	Map      MapConfig      `yaml:"map,omitempty"`
	Debounce DebounceConfig `yaml:"debounce,omitempty"`
	Search   search.Config  `yaml:"search,omitempty"`
	UI       UIConfig       `yaml:"ui,omitempty"`
}

// Duration is a time.Duration written as "250ms" in YAML.
type Duration time.Duration

// MarshalYAML renders the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts "250ms" style strings or integer milliseconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if parsed, err := time.ParseDuration(s); err == nil {
		*d = Duration(parsed)
		return nil
	}
	var ms int64
	if err := node.Decode(&ms); err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	opts := controller.DefaultOptions()
	return Config{
		Data: DataConfig{
			GeometryBase: "data",
			Lookup:       "data",
			Concurrency:  8,
			Timeout:      Duration(30 * time.Second),
		},
		Map: MapConfig{
			Center:    []float64{opts.Center.Lon(), opts.Center.Lat()},
			Zoom:      opts.Zoom,
			JumpZoom:  opts.JumpZoom,
			Animation: Duration(opts.Animation),
		},
		Debounce: DebounceConfig{
			Search:     Duration(opts.SearchDelay),
			Hover:      Duration(opts.HoverDelay),
			Resize:     Duration(opts.ResizeDelay),
			Resolution: Duration(opts.ResolutionDelay),
		},
		Search: search.DefaultConfig(),
		UI: UIConfig{
			NarrowWidth: opts.NarrowWidth,
			Theme:       "auto",
		},
	}
}

// ControllerOptions converts the map, debounce and UI settings. Zero
// values fall back to the defaults.
func (c Config) ControllerOptions() controller.Options {
	opts := controller.DefaultOptions()
	if len(c.Map.Center) == 2 {
		opts.Center = orb.Point{c.Map.Center[0], c.Map.Center[1]}
	}
	setFloat(&opts.Zoom, c.Map.Zoom)
	setFloat(&opts.JumpZoom, c.Map.JumpZoom)
	setDuration(&opts.Animation, c.Map.Animation)
	setDuration(&opts.SearchDelay, c.Debounce.Search)
	setDuration(&opts.HoverDelay, c.Debounce.Hover)
	setDuration(&opts.ResizeDelay, c.Debounce.Resize)
	setDuration(&opts.ResolutionDelay, c.Debounce.Resolution)
	if c.UI.NarrowWidth > 0 {
		opts.NarrowWidth = c.UI.NarrowWidth
	}
	return opts
}

func setFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v Duration) {
	if v > 0 {
		*dst = v.Std()
	}
}

// Validate rejects settings the map cannot use.
func (c Config) Validate() error {
	switch len(c.Map.Center) {
	case 0:
	case 2:
		lon, lat := c.Map.Center[0], c.Map.Center[1]
		if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return fmt.Errorf("map.center out of range: %v", c.Map.Center)
		}
	default:
		return fmt.Errorf("map.center must be [lon, lat], got %v", c.Map.Center)
	}
	if c.Map.Zoom < 0 || c.Map.JumpZoom < 0 {
		return fmt.Errorf("map zoom levels must not be negative")
	}
	switch c.UI.Theme {
	case "", "auto", "dark", "light":
	default:
		return fmt.Errorf("ui.theme must be auto, dark or light, got %q", c.UI.Theme)
	}
	return nil
}

// ConfigDir returns the XDG config directory for schoolmap.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the XDG data directory for schoolmap.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// StateDir returns the XDG state directory for schoolmap.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Data.GeometryBase = expandHome(cfg.Data.GeometryBase)
	cfg.Data.Lookup = expandHome(cfg.Data.Lookup)
	cfg.Search = cfg.Search.Normalized()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
