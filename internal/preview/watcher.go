// Package preview keeps an output tree current while the source tree is being
// edited, and optionally serves it over HTTP.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitebuild/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// ErrWatcherClosed is returned by Run when the file watcher stops delivering
// events before the context is done.
var ErrWatcherClosed = errors.New("file watcher closed")

// BuildFunc runs one full build.
type BuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	Root     string        // source root to watch
	Output   string        // output root; changes below it are ignored
	Debounce time.Duration // zero means DefaultDebounce
}

// Watcher rebuilds the site whenever the source tree changes. At most one
// build runs at a time; changes arriving during a build queue one more.
type Watcher struct {
	opts   Options
	build  BuildFunc
	status *BuildStatus
}

// NewWatcher creates a watcher. Root and Output are resolved to absolute paths.
func NewWatcher(opts Options, build BuildFunc) (*Watcher, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	output, err := filepath.Abs(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("resolve output: %w", err)
	}
	if st, statErr := os.Stat(root); statErr != nil || !st.IsDir() {
		return nil, fmt.Errorf("source root not found or not a directory: %s", root)
	}
	opts.Root, opts.Output = root, output
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{opts: opts, build: build, status: &BuildStatus{}}, nil
}

// Status returns the shared build status.
func (w *Watcher) Status() *BuildStatus { return w.status }

// Run performs an initial build, then rebuilds on change until ctx is done.
// Build failures are logged and recorded, never returned. It returns
// ErrWatcherClosed if the file watcher shuts down on its own.
func (w *Watcher) Run(ctx context.Context) error {
	w.runBuild(ctx, "initial")

	watcher, err := w.setupFileWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	rebuildReq, trigger, stop := setupRebuildDebouncer(w.opts.Debounce)
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.rebuildWorker(ctx, rebuildReq)
	}()

	slog.Info("Watching for changes", logfields.Root(w.opts.Root), logfields.Output(w.opts.Output))
	return watchEvents(ctx, watcher.Events, watcher.Errors, func(ev fsnotify.Event) {
		w.handleFileEvent(watcher, ev, trigger)
	})
}

// watchEvents dispatches events until ctx is done. Closed event channels end
// the loop with ErrWatcherClosed.
func watchEvents(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, handle func(fsnotify.Event)) error {
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping watcher")
			return nil
		case ev, ok := <-events:
			if !ok {
				return ErrWatcherClosed
			}
			handle(ev)
		case err, ok := <-errs:
			if !ok {
				return ErrWatcherClosed
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) runBuild(ctx context.Context, reason string) {
	err := w.build(ctx)
	w.status.record(err)
	if err != nil {
		slog.Warn("Build failed", logfields.Reason(reason), logfields.Error(err))
		return
	}
	slog.Debug("Build finished", logfields.Reason(reason))
}

// rebuildWorker serializes rebuilds. Requests arriving while a build runs
// collapse into the channel's single slot, so they yield one follow-up build.
func (w *Watcher) rebuildWorker(ctx context.Context, rebuildReq chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			slog.Info("Change detected; rebuilding site")
			w.runBuild(ctx, "change")
		}
	}
}

func (w *Watcher) setupFileWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := w.addDirsRecursive(watcher, w.opts.Root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

// setupRebuildDebouncer returns the rebuild channel, a trigger that restarts
// the quiet period, and a stop func for the pending timer.
func setupRebuildDebouncer(delay time.Duration) (chan struct{}, func(), func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return rebuildReq, trigger, stop
}

func (w *Watcher) handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if w.ignored(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func (w *Watcher) ignored(path string) bool {
	return isWithin(w.opts.Output, path) || shouldIgnoreEvent(path)
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.opts.Root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for filesystem events that should not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}

func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
