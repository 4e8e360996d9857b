// Package watch re-runs a callback when files under a project root change.
// Changes are debounced and the callback never runs concurrently with
// itself.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Config configures a Watcher
type Config struct {
	Root       string
	IgnoreDirs []string      // directory names never watched
	Debounce   time.Duration // quiet period before the callback runs
	Logger     *zap.Logger
}

// Watcher watches a project tree recursively
type Watcher struct {
	root     string
	ignore   map[string]struct{}
	debounce time.Duration
	logger   *zap.Logger
	fsw      *fsnotify.Watcher
	skip     func(path string) bool

	pending map[string]fsnotify.Op
}

// New creates a watcher over cfg.Root. Hidden directories are never
// watched. Changed paths are reported as absolute paths.
func New(cfg Config) (*Watcher, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300 * time.Millisecond
	}
	ignore := make(map[string]struct{}, len(cfg.IgnoreDirs))
	for _, d := range cfg.IgnoreDirs {
		ignore[d] = struct{}{}
	}
	return &Watcher{
		root:     root,
		ignore:   ignore,
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
		fsw:      fsw,
		pending:  make(map[string]fsnotify.Op),
	}, nil
}

// Skip installs a filter for changed files. It runs on the watch loop, so
// it may read state the callback writes without locking.
func (w *Watcher) Skip(fn func(path string) bool) {
	w.skip = fn
}

// Run watches until ctx is done, calling fn with the sorted changed paths
// after each quiet period. An error from fn is logged, not returned.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, changed []string) error) error {
	defer w.fsw.Close()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.logger.Info("watching", zap.String("root", w.root), zap.Duration("debounce", w.debounce))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			changed := w.flush()
			if len(changed) == 0 {
				continue
			}
			w.logger.Debug("change detected", zap.Strings("paths", changed))
			if err := fn(ctx, changed); err != nil {
				w.logger.Error("watch callback failed", zap.Error(err))
			}
		}
	}
}

// handle records a change and reports whether it should reset the debounce.
func (w *Watcher) handle(event fsnotify.Event) bool {
	path := event.Name
	if event.Op == fsnotify.Chmod {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.ignored(filepath.Base(path)) {
				return false
			}
			if err := w.addRecursive(path); err != nil {
				w.logger.Warn("watch new directory", zap.String("path", path), zap.Error(err))
			}
		}
	}
	if w.skip != nil && w.skip(path) {
		return false
	}
	w.pending[path] |= event.Op
	return true
}

func (w *Watcher) flush() []string {
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	sort.Strings(changed)
	clear(w.pending)
	return changed
}

func (w *Watcher) ignored(base string) bool {
	if _, ok := w.ignore[base]; ok {
		return true
	}
	return strings.HasPrefix(base, ".") && base != "."
}

// addRecursive watches dir and every non-ignored directory below it.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}
