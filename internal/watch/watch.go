// Package watch rebuilds the site when dataset files change.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/jonathan/permitindex/internal/logging"
)

// DefaultDebounce is how long to wait for more changes before rebuilding.
const DefaultDebounce = 500 * time.Millisecond

// Root returns the directory to watch for a loader pattern: the static
// prefix of a glob, or the containing directory of a single file.
func Root(pattern string) string {
	if info, err := os.Stat(pattern); err == nil {
		if info.IsDir() {
			return pattern
		}
		return filepath.Dir(pattern)
	}
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	return filepath.FromSlash(base)
}

// Watcher watches a directory tree for CSV changes.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	log      *logging.Logger
}

// New creates a Watcher over root and every directory below it.
func New(root string, debounce time.Duration, log *logging.Logger) (*Watcher, error) {
	if log == nil {
		log = logging.Nop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{root: root, debounce: debounce, fsw: fsw, log: log}
	if err := w.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		w.log.Debug("watching directory", "path", path)
		return nil
	})
}

// Run blocks until ctx is done, calling rebuild once per burst of CSV
// changes. A failed rebuild is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, rebuild func(ctx context.Context, changed []string) error) error {
	paths := make(chan string)
	go func() {
		defer close(paths)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = w.addRecursive(event.Name)
						continue
					}
				}
				if !relevant(event) {
					continue
				}
				select {
				case paths <- event.Name:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.log.Warn("watch error", "error", err)
			}
		}
	}()

	Debounce(ctx, paths, w.debounce, func(changed []string) {
		w.log.Info("dataset changed, rebuilding", "files", len(changed))
		if err := rebuild(ctx, changed); err != nil {
			w.log.Error("rebuild failed", "error", err)
		}
	})
	return ctx.Err()
}

func relevant(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// Debounce collects values from in and calls fire with the distinct values
// once delay has passed without a new one. It returns when in is closed or
// ctx is done; pending values are flushed when in closes.
func Debounce(ctx context.Context, in <-chan string, delay time.Duration, fire func([]string)) {
	pending := make(map[string]bool)
	timer := time.NewTimer(delay)
	if !timer.Stop() {
		<-timer.C
	}

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}
		sort.Strings(batch)
		pending = make(map[string]bool)
		fire(batch)
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case p, ok := <-in:
			if !ok {
				timer.Stop()
				flush()
				return
			}
			pending[p] = true
			timer.Reset(delay)
		case <-timer.C:
			flush()
		}
	}
}
