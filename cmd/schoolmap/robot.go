package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/schoolmap/pkg/controller"
	"github.com/vanderheijden86/schoolmap/pkg/export"
	"github.com/vanderheijden86/schoolmap/pkg/hooks"
	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/viewsync"
)

type robotOptions struct {
	Search    string
	SVG       string
	PNG       string
	SQLite    string
	Only      []string
	ShowNames bool
	HooksDir  string // holds hooks.yaml; empty disables hooks
	NoHooks   bool
}

type robotSchool struct {
	Name     string  `json:"name"`
	Class    string  `json:"class,omitempty"`
	Region   string  `json:"region,omitempty"`
	District string  `json:"district,omitempty"`
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
}

type robotSearchOutput struct {
	GeneratedAt string        `json:"generated_at"`
	Query       string        `json:"query"`
	Total       int           `json:"total"`
	Schools     []robotSchool `json:"schools"`
	Regions     []string      `json:"regions"`
	Districts   []string      `json:"districts"`
}

type robotExportOutput struct {
	Description string   `json:"description"`
	Visible     int      `json:"visible"`
	Total       int      `json:"total"`
	SVG         string   `json:"svg,omitempty"`
	PNG         string   `json:"png,omitempty"`
	SQLite      string   `json:"sqlite,omitempty"`
	Rows        int      `json:"sqlite_rows,omitempty"`
	Hooks       []string `json:"hooks,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func toRobotSchool(e model.Entity) robotSchool {
	return robotSchool{
		Name:     e.Name,
		Class:    e.Class.Label(),
		Region:   e.Region,
		District: e.District,
		Lon:      e.Coord.Lon(),
		Lat:      e.Coord.Lat(),
	}
}

func buildSearchOutput(ds *controller.Dataset, term string, now time.Time) (robotSearchOutput, error) {
	res, err := ds.Search.Query(term)
	if err != nil {
		return robotSearchOutput{}, err
	}
	out := robotSearchOutput{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Query:       res.Term,
		Total:       res.Total(),
		Schools:     make([]robotSchool, 0, len(res.Entities)),
		Regions:     res.Regions,
		Districts:   res.Districts,
	}
	for _, e := range res.Entities {
		out.Schools = append(out.Schools, toRobotSchool(e))
	}
	if out.Regions == nil {
		out.Regions = []string{}
	}
	if out.Districts == nil {
		out.Districts = []string{}
	}
	return out, nil
}

// runRobot handles the non-interactive modes. Search output goes to stdout;
// exports print a JSON summary.
func runRobot(ds *controller.Dataset, opts robotOptions) error {
	if opts.Search != "" {
		out, err := buildSearchOutput(ds, opts.Search, time.Now())
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if err := writeJSON(os.Stdout, out); err != nil {
			return err
		}
	}
	if opts.SVG == "" && opts.PNG == "" && opts.SQLite == "" {
		return nil
	}
	summary, err := runExports(ds, opts)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, summary)
}

func runExports(ds *controller.Dataset, opts robotOptions) (robotExportOutput, error) {
	st, err := parseOnly(ds, opts.Only)
	if err != nil {
		return robotExportOutput{}, err
	}
	vis := viewsync.Recompute(ds.Store, st)
	visible := 0
	for _, v := range vis {
		if v {
			visible++
		}
	}
	out := robotExportOutput{
		Description: st.Describe(),
		Visible:     visible,
		Total:       ds.Store.Len(),
	}

	snap := export.MapSnapshotOptions{
		Description: out.Description,
		Entities:    ds.Store.All(),
		Visibility:  vis,
		Labels:      opts.ShowNames,
	}
	for _, path := range []string{opts.SVG, opts.PNG} {
		if path == "" {
			continue
		}
		snap.Path = path
		snap.Format = "svg"
		if path == opts.PNG {
			snap.Format = "png"
		}
		err := withHooks(opts, &out, snap.Format, path, func() error {
			return export.SaveMapSnapshot(snap)
		})
		if err != nil {
			return out, err
		}
	}
	out.SVG, out.PNG = opts.SVG, opts.PNG

	if opts.SQLite != "" {
		err := withHooks(opts, &out, "sqlite", opts.SQLite, func() error {
			n, err := export.WriteLookupDB(opts.SQLite, ds.Store.All())
			out.Rows = n
			return err
		})
		if err != nil {
			return out, err
		}
		out.SQLite = opts.SQLite
	}
	return out, nil
}

// withHooks runs write between the pre- and post-export hooks. A failing
// pre-export hook skips the artifact.
func withHooks(opts robotOptions, out *robotExportOutput, format, path string, write func() error) error {
	ex, err := hooks.RunHooks(opts.HooksDir, hooks.ExportContext{
		ExportPath:   path,
		ExportFormat: format,
		SchoolCount:  out.Total,
		VisibleCount: out.Visible,
		Filter:       out.Description,
		Timestamp:    time.Now(),
	}, opts.NoHooks)
	if err != nil {
		return fmt.Errorf("hooks: %w", err)
	}
	if ex == nil {
		if err := write(); err != nil {
			return fmt.Errorf("export %s: %w", path, err)
		}
		return nil
	}
	defer func() {
		if s := ex.Summary(); s != "" {
			out.Hooks = append(out.Hooks, strings.TrimSpace(s))
		}
	}()
	if err := ex.RunPreExport(); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := write(); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	// Post-export failures are reported in the summary only.
	_ = ex.RunPostExport()
	return nil
}
