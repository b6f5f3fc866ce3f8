// Package watch waits for changes to the files scanned by a run so the CLI
// can resolve includes again.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gubarz/semtex/internal/source"
)

// DefaultDebounce is how long Wait lets changes settle before returning
const DefaultDebounce = 200 * time.Millisecond

// ErrClosed is returned by Wait after Close
var ErrClosed = errors.New("watcher closed")

// Watcher tracks a set of files. Directories are watched rather than files
// so editors that replace a file on save are still seen.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	files    map[string]struct{}
	dirs     map[string]struct{}
}

// New creates a watcher. A zero debounce uses DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
	}, nil
}

// Track adds files to the watched set. It is not safe to call concurrently
// with Wait.
func (w *Watcher) Track(files ...string) error {
	for _, f := range files {
		path := source.Canonical(f)
		w.files[path] = struct{}{}

		dir := filepath.Dir(path)
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.dirs[dir] = struct{}{}
	}
	return nil
}

// Tracked returns the number of watched files
func (w *Watcher) Tracked() int {
	return len(w.files)
}

// Wait blocks until at least one tracked file changes and no further change
// arrives within the debounce window. It returns the changed files, sorted.
func (w *Watcher) Wait(ctx context.Context) ([]string, error) {
	changed := make(map[string]struct{})
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil, ErrClosed
			}
			if !w.relevant(event) {
				continue
			}
			changed[source.Canonical(event.Name)] = struct{}{}
			settle = time.After(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil, ErrClosed
			}
			return nil, fmt.Errorf("watch error: %w", err)

		case <-settle:
			paths := make([]string, 0, len(changed))
			for p := range changed {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			return paths, nil
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	_, ok := w.files[source.Canonical(event.Name)]
	return ok
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
