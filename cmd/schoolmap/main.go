package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vanderheijden86/schoolmap/internal/datasource"
	"github.com/vanderheijden86/schoolmap/pkg/config"
	"github.com/vanderheijden86/schoolmap/pkg/controller"
	"github.com/vanderheijden86/schoolmap/pkg/debug"
	"github.com/vanderheijden86/schoolmap/pkg/filter"
	"github.com/vanderheijden86/schoolmap/pkg/loader"
	"github.com/vanderheijden86/schoolmap/pkg/metrics"
	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/store"
	"github.com/vanderheijden86/schoolmap/pkg/ui"
	"github.com/vanderheijden86/schoolmap/pkg/version"
	"github.com/vanderheijden86/schoolmap/pkg/viewsync"
	"github.com/vanderheijden86/schoolmap/pkg/watcher"
)

// filterFlags collects repeated --only dimension=value flags.
type filterFlags []string

func (f *filterFlags) String() string { return strings.Join(*f, ",") }

func (f *filterFlags) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file (default: ~/.config/schoolmap/config.yaml)")
	dataFlag := flag.String("data", "", "Directory or URL holding the region GeoJSON files")
	lookupFlag := flag.String("lookup", "", "Lookup JSON file, SQLite db, directory or URL")
	themeFlag := flag.String("theme", "", "Color theme: auto, dark or light")
	watchFlag := flag.Bool("watch", false, "Reload when local data files change")
	searchFlag := flag.String("search", "", "Print search results for a term as JSON and exit")
	auditFlag := flag.Bool("audit", false, "Compare geometry and lookup sources, print JSON and exit")
	metricsFlag := flag.Bool("metrics", false, "Print timing and cache metrics as JSON on exit")
	exportSVG := flag.String("export-svg", "", "Write an SVG map snapshot and exit")
	exportPNG := flag.String("export-png", "", "Write a PNG map snapshot and exit")
	exportDB := flag.String("export-sqlite", "", "Write the enriched schools as a SQLite lookup db and exit")
	noHooks := flag.Bool("no-hooks", false, "Skip export hooks from hooks.yaml")
	var only filterFlags
	flag.Var(&only, "only", "Filter exports, e.g. --only regions=\"Region 5B\" (repeatable)")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: schoolmap [options]")
		fmt.Println("\nAn interactive terminal map of VHSL member schools.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("schoolmap %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	applyFlagOverrides(&cfg, *dataFlag, *lookupFlag, *themeFlag, *watchFlag)

	robot := *searchFlag != "" || *auditFlag || *exportSVG != "" || *exportPNG != "" || *exportDB != ""
	if !robot && !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: schoolmap needs a terminal. Use --search, --audit or --export-* for scripted use.")
		os.Exit(2)
	}

	warn := loader.DefaultWarningHandler()
	if robot {
		// Keep stdout clean for JSON consumers.
		warn = func(msg string) { debug.Log("%s", msg) }
	}

	if *metricsFlag {
		defer printMetrics(os.Stderr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *auditFlag {
		res, err := fetch(ctx, cfg, warn)
		if err != nil {
			exitLoadError(err)
		}
		report := datasource.Audit(res.Features, res.Lookup)
		if err := writeJSON(os.Stdout, report); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ds, err := loadDataset(ctx, cfg, warn)
	if err != nil {
		exitLoadError(err)
	}

	if robot {
		if err := runRobot(ds, robotOptions{
			Search:    *searchFlag,
			SVG:       *exportSVG,
			PNG:       *exportPNG,
			SQLite:    *exportDB,
			Only:      only,
			ShowNames: cfg.Map.Zoom > viewsync.LabelZoom,
			HooksDir:  config.ConfigDir(),
			NoHooks:   *noHooks,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opts := ui.Options{
		Controller: cfg.ControllerOptions(),
		Theme:      cfg.UI.Theme,
		Loader: func(ctx context.Context) (*controller.Dataset, error) {
			return loadDataset(ctx, cfg, func(msg string) { debug.Log("%s", msg) })
		},
	}
	if cfg.Data.Watch {
		w, err := startWatcher(cfg.Data.GeometryBase)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
		} else {
			defer w.Stop()
			opts.Watcher = w
		}
	}

	if err := runTUIProgram(ui.NewModel(ds, opts)); err != nil {
		fmt.Fprintf(os.Stderr, "Error running schoolmap: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	cfg, err := config.Load()
	if err != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

// applyFlagOverrides lets command line flags win over the config file.
func applyFlagOverrides(cfg *config.Config, data, lookup, theme string, watch bool) {
	if data != "" {
		cfg.Data.GeometryBase = data
		if lookup == "" {
			cfg.Data.Lookup = data
		}
	}
	if lookup != "" {
		cfg.Data.Lookup = lookup
	}
	if theme != "" {
		cfg.UI.Theme = theme
	}
	if watch {
		cfg.Data.Watch = true
	}
}

func fetch(ctx context.Context, cfg config.Config, warn func(string)) (*datasource.Result, error) {
	return datasource.Fetch(ctx, datasource.Sources{
		GeometryBase: cfg.Data.GeometryBase,
		RegionFiles:  cfg.Data.RegionFiles,
		Lookup:       cfg.Data.Lookup,
	}, datasource.FetchOptions{
		Concurrency:    cfg.Data.Concurrency,
		Timeout:        cfg.Data.Timeout.Std(),
		WarningHandler: warn,
	})
}

// loadDataset fetches every source and builds the indexes.
func loadDataset(ctx context.Context, cfg config.Config, warn func(string)) (*controller.Dataset, error) {
	res, err := fetch(ctx, cfg, warn)
	if err != nil {
		return nil, err
	}
	if len(res.Failed) > 0 {
		warn(fmt.Sprintf("%d region files could not be loaded", len(res.Failed)))
	}
	return controller.NewDataset(res.Features, res.Lookup, controller.DatasetConfig{
		Store:  store.Options{WarningHandler: warn},
		Search: cfg.Search,
	})
}

func startWatcher(path string) (*watcher.Watcher, error) {
	if datasource.IsRemote(path) {
		return nil, fmt.Errorf("%s is not a local path", path)
	}
	w, err := watcher.NewWatcher(path, watcher.WithMatch(watcher.DataFiles))
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

// exitLoadError prints load guidance and exits. No TUI is shown.
func exitLoadError(err error) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FF5555")).
		Padding(1, 3)
	title := lipgloss.NewStyle().Bold(true).Render("Could not load school data")
	body := fmt.Sprintf("%s\n\n%v\n\nPlease try again, or check your network connection\nand the --data / --lookup locations.", title, err)
	fmt.Fprintln(os.Stderr, box.Render(body))
	os.Exit(1)
}

// parseOnly applies --only flags to a fresh filter state.
func parseOnly(ds *controller.Dataset, only []string) (*filter.State, error) {
	st := filter.New(ds.Categories)
	for _, f := range only {
		dimStr, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --only %q: expected dimension=value", f)
		}
		dim, err := model.ParseDimension(strings.TrimSpace(dimStr))
		if err != nil {
			return nil, fmt.Errorf("invalid --only %q: %w", f, err)
		}
		if err := st.Toggle(dim, strings.TrimSpace(value), true); err != nil {
			return nil, fmt.Errorf("invalid --only %q: %w", f, err)
		}
		st.SetMode(dim.Mode())
	}
	return st, nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set SCHOOLMAP_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("SCHOOLMAP_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}

func printMetrics(w io.Writer) {
	if err := writeJSON(w, metrics.Snapshot()); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
	}
}
