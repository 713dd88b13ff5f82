package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reruns a conversion whenever one of its input files changes.
// Runs never overlap: they execute on the Start goroutine.
type Watcher struct {
	paths    []string
	debounce time.Duration
	run      func(ctx context.Context)
	log      *slog.Logger

	trigger chan struct{}
}

// NewWatcher returns a watcher for paths. A zero debounce uses DefaultDebounce
// and a nil logger uses slog.Default().
func NewWatcher(paths []string, debounce time.Duration, run func(ctx context.Context), logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		paths:    paths,
		debounce: debounce,
		run:      run,
		log:      logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger schedules a rerun as if an input had changed. Safe to call from
// any goroutine.
func (w *Watcher) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Start runs once, then watches until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	// Watch parent directories so files replaced by rename are still seen.
	targets := make(map[string]bool)
	watched := make(map[string]bool)
	for _, p := range w.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("bad path %q: %w", p, err)
		}
		targets[abs] = true

		dir := filepath.Dir(abs)
		if watched[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched[dir] = true
	}
	w.log.Info("watching inputs", "files", len(targets), "dirs", len(watched))

	w.run(ctx)

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			if !targets[abs] {
				continue
			}
			w.log.Debug("input changed", "file", abs, "op", event.Op.String())
			schedule()
		case <-w.trigger:
			schedule()
		case <-fire:
			if ctx.Err() != nil {
				return nil
			}
			w.run(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}
