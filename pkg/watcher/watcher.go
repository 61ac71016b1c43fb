// Package watcher reports changes to local school data so the map can reload
// without a restart. It watches either a single file or a data directory
// (region GeoJSON files plus the lookup) using fsnotify, falling back to
// polling on network filesystems or when fsnotify is unavailable.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/schoolmap/pkg/debounce"
	"github.com/vanderheijden86/schoolmap/pkg/debug"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// DefaultDebounceDuration coalesces the burst of writes a data refresh makes.
const DefaultDebounceDuration = 500 * time.Millisecond

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

// WithOnChange sets the callback invoked when the data changes.
func WithOnChange(fn func()) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// WithMatch restricts a directory watch to file names accepted by fn.
// Ignored when watching a single file.
func WithMatch(fn func(name string) bool) WatcherOption {
	return func(w *Watcher) {
		w.match = fn
	}
}

// DataFiles matches region GeoJSON files and lookup sources.
func DataFiles(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".geojson", ".json", ".db":
		return true
	}
	return false
}

// Watcher monitors a file or directory for changes.
type Watcher struct {
	path             string
	dir              bool
	match            func(string) bool
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool
	forcePollEnv     bool
	fsType           FilesystemType

	fsWatcher   *fsnotify.Watcher
	debouncer   *debounce.Debouncer
	useFallback bool
	last        fingerprint

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// fingerprint summarises the watched files for polling comparisons.
type fingerprint struct {
	mtime time.Time
	size  int64
	count int
}

func (f fingerprint) exists() bool {
	return f.count > 0
}

// NewWatcher creates a watcher for path, which may be a file or a directory.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:             absPath,
		match:            DataFiles,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		onError:          func(error) {},
		changeCh:         make(chan struct{}, 1),
	}
	if info, err := os.Stat(absPath); err == nil && info.IsDir() {
		w.dir = true
	}

	for _, opt := range opts {
		opt(w)
	}
	if w.debounceDuration <= 0 {
		w.debounceDuration = DefaultDebounceDuration
	}
	w.debouncer = debounce.New(w.debounceDuration)

	return w, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.useFallback = false
	w.forcePollEnv = envBool("SCHOOLMAP_FORCE_POLL")

	w.fsType = detectFilesystemTypeFunc(w.path)
	if isRemoteFilesystem(w.fsType) {
		w.useFallback = true
	}

	forcePoll := w.forcePoll || w.forcePollEnv
	if forcePoll {
		w.useFallback = true
	}

	fp, err := w.fingerprint()
	if err != nil && os.IsPermission(err) {
		return ErrPermission
	}
	// A missing path is fine; it may be created later.
	w.last = fp

	if !w.useFallback {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			target := w.path
			if !w.dir {
				// The parent survives atomic rename-over writes.
				target = filepath.Dir(w.path)
			}
			if err := fsw.Add(target); err != nil {
				fsw.Close()
				w.useFallback = true
			} else {
				w.fsWatcher = fsw
				go w.watchFsnotify()
			}
		} else {
			w.useFallback = true
		}
	}

	if w.useFallback {
		go w.watchPolling()
	}

	debug.Log("watcher: %s (dir=%v fs=%s polling=%v)", w.path, w.dir, w.fsType, w.useFallback)
	w.started = true
	return nil
}

// Stop stops watching. The change channel stays open so a goroutine blocked
// on Changed does not spin.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}

	if w.cancel != nil {
		w.cancel()
	}

	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}

	w.debouncer.Cancel()
	w.started = false
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.useFallback
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that receives when the data changes.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Path returns the watched path.
func (w *Watcher) Path() string {
	return w.path
}

// IsDir reports whether a directory is being watched.
func (w *Watcher) IsDir() bool {
	return w.dir
}

// FilesystemType returns the best-effort filesystem classification for the watched path.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// relevant reports whether an fsnotify event name concerns the watched data.
func (w *Watcher) relevant(name string) bool {
	if w.dir {
		return filepath.Dir(name) == w.path && (w.match == nil || w.match(filepath.Base(name)))
	}
	return filepath.Base(name) == filepath.Base(w.path)
}

func (w *Watcher) watchFsnotify() {
	// Capture channels so Stop can nil fsWatcher without racing us.
	w.mu.RLock()
	if w.fsWatcher == nil {
		w.mu.RUnlock()
		return
	}
	events := w.fsWatcher.Events
	errs := w.fsWatcher.Errors
	w.mu.RUnlock()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Remove != 0 && !w.dir:
				w.onError(ErrFileRemoved)

			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0:
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// fingerprint stats the watched file, or every matching file in the
// watched directory.
func (w *Watcher) fingerprint() (fingerprint, error) {
	if !w.dir {
		info, err := os.Stat(w.path)
		if err != nil {
			return fingerprint{}, err
		}
		return fingerprint{mtime: info.ModTime(), size: info.Size(), count: 1}, nil
	}

	entries, err := os.ReadDir(w.path)
	if err != nil {
		return fingerprint{}, err
	}
	var fp fingerprint
	for _, e := range entries {
		if e.IsDir() || (w.match != nil && !w.match(e.Name())) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		fp.count++
		fp.size += info.Size()
		if info.ModTime().After(fp.mtime) {
			fp.mtime = info.ModTime()
		}
	}
	return fp, nil
}

func (w *Watcher) watchPolling() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			fp, err := w.fingerprint()
			if err != nil {
				switch {
				case os.IsNotExist(err):
					w.mu.RLock()
					hadData := w.last.exists()
					w.mu.RUnlock()
					if hadData {
						w.onError(ErrFileRemoved)
					}
				case os.IsPermission(err):
					w.onError(ErrPermission)
				default:
					w.onError(err)
				}
				continue
			}

			w.mu.Lock()
			changed := fp != w.last
			w.last = fp
			w.mu.Unlock()

			if changed {
				w.debouncer.Trigger(w.notifyChange)
			}
		}
	}
}

// notifyChange invokes the onChange callback and signals the change channel.
func (w *Watcher) notifyChange() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()

	if !started {
		return
	}

	w.onChange()

	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
