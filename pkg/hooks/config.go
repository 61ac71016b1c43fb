// Package hooks runs user commands around schoolmap exports.
// Hooks are configured in hooks.yaml next to config.yaml and run before
// (pre-export) and after (post-export) each artifact is written.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HookPhase represents when a hook runs
type HookPhase string

const (
	// PreExport runs before an artifact is written. Failure cancels it.
	PreExport HookPhase = "pre-export"
	// PostExport runs after an artifact is written. Failure is reported only.
	PostExport HookPhase = "post-export"
)

// FileName is the hooks file looked up in the config directory.
const FileName = "hooks.yaml"

// DefaultTimeout is the default hook execution timeout
const DefaultTimeout = 30 * time.Second

// Hook is one configured command.
type Hook struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"` // run with sh -c
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"` // values are $-expanded
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"`
}

// Config holds all hook configurations
type Config struct {
	Hooks HooksByPhase `yaml:"hooks" json:"hooks"`
}

// HooksByPhase organizes hooks by their execution phase
type HooksByPhase struct {
	PreExport  []Hook `yaml:"pre-export,omitempty" json:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty" json:"post-export,omitempty"`
}

// ExportContext describes the artifact being written. It reaches hooks as
// SCHOOLMAP_* environment variables.
type ExportContext struct {
	ExportPath   string
	ExportFormat string // svg, png or sqlite
	SchoolCount  int
	VisibleCount int
	Filter       string
	Timestamp    time.Time
}

// ToEnv converts export context to environment variables
func (c ExportContext) ToEnv() []string {
	return []string{
		"SCHOOLMAP_EXPORT_PATH=" + c.ExportPath,
		"SCHOOLMAP_EXPORT_FORMAT=" + c.ExportFormat,
		fmt.Sprintf("SCHOOLMAP_SCHOOL_COUNT=%d", c.SchoolCount),
		fmt.Sprintf("SCHOOLMAP_VISIBLE_COUNT=%d", c.VisibleCount),
		"SCHOOLMAP_FILTER=" + c.Filter,
		"SCHOOLMAP_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

// Loader reads hooks.yaml from a directory.
type Loader struct {
	dir      string
	config   *Config
	warnings []string
}

// NewLoader returns a loader for dir/hooks.yaml.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Path returns the hooks file location.
func (l *Loader) Path() string {
	return filepath.Join(l.dir, FileName)
}

// Load reads the hooks file. A missing file means no hooks.
func (l *Loader) Load() error {
	data, err := os.ReadFile(l.Path())
	if err != nil {
		if os.IsNotExist(err) {
			l.config = &Config{}
			return nil
		}
		return fmt.Errorf("reading hooks config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing %s: %w", l.Path(), err)
	}
	config.Hooks.PreExport, l.warnings = normalizeHooks(config.Hooks.PreExport, PreExport, l.warnings)
	config.Hooks.PostExport, l.warnings = normalizeHooks(config.Hooks.PostExport, PostExport, l.warnings)
	l.config = &config
	return nil
}

// normalizeHooks applies defaults, drops empty commands, and accumulates warnings.
func normalizeHooks(hooks []Hook, phase HookPhase, warnings []string) ([]Hook, []string) {
	var out []Hook
	for i, hook := range hooks {
		if strings.TrimSpace(hook.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if hook.Timeout <= 0 {
			hook.Timeout = DefaultTimeout
		}
		if hook.OnError == "" {
			hook.OnError = "continue"
			if phase == PreExport {
				hook.OnError = "fail"
			}
		}
		if hook.Name == "" {
			hook.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		out = append(out, hook)
	}
	return out, warnings
}

// Config returns the loaded configuration (or empty if not loaded)
func (l *Loader) Config() *Config {
	if l.config == nil {
		return &Config{}
	}
	return l.config
}

// HasHooks returns true if any hooks are configured
func (l *Loader) HasHooks() bool {
	c := l.Config()
	return len(c.Hooks.PreExport) > 0 || len(c.Hooks.PostExport) > 0
}

// GetHooks returns hooks for a specific phase
func (l *Loader) GetHooks(phase HookPhase) []Hook {
	switch phase {
	case PreExport:
		return l.Config().Hooks.PreExport
	case PostExport:
		return l.Config().Hooks.PostExport
	default:
		return nil
	}
}

// Warnings returns any warnings from loading
func (l *Loader) Warnings() []string {
	return l.warnings
}

// UnmarshalYAML accepts timeouts as durations ("5s") or plain seconds.
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	type hookDTO struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}

	var dto hookDTO
	if err := node.Decode(&dto); err != nil {
		return err
	}
	*h = Hook{Name: dto.Name, Command: dto.Command, Env: dto.Env, OnError: dto.OnError}

	if dto.Timeout == "" {
		return nil
	}
	if d, err := time.ParseDuration(dto.Timeout); err == nil {
		h.Timeout = d
		return nil
	}
	var seconds float64
	if _, err := fmt.Sscanf(dto.Timeout, "%f", &seconds); err != nil {
		return fmt.Errorf("invalid timeout %q", dto.Timeout)
	}
	h.Timeout = time.Duration(seconds * float64(time.Second))
	return nil
}
