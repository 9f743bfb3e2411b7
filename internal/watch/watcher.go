package watch

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dicom-browser/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the event bursts a file copy produces into one
// re-import trigger.
const DefaultDebounce = 2 * time.Second

// Watcher monitors directory sources and invokes a callback, debounced per
// source, when their contents change. Re-imports are idempotent, so firing
// on any event is safe.
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	onChange func(root string)

	mu     sync.Mutex
	roots  map[string]bool
	timers map[string]*time.Timer
	closed bool
}

// New creates a watcher that calls onChange with the source root after its
// contents have been quiet for the debounce window.
func New(debounce time.Duration, onChange func(root string)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fw:       fw,
		debounce: debounce,
		onChange: onChange,
		roots:    make(map[string]bool),
		timers:   make(map[string]*time.Timer),
	}
	go w.loop()
	return w, nil
}

// Add starts watching a directory source root.
func (w *Watcher) Add(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if err := w.fw.Add(abs); err != nil {
		return err
	}

	w.mu.Lock()
	w.roots[abs] = true
	w.mu.Unlock()

	logging.Debug("Watching source %s for changes", abs)
	return nil
}

// Remove stops watching a source root and drops any pending trigger.
func (w *Watcher) Remove(root string) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return
	}

	w.mu.Lock()
	delete(w.roots, abs)
	if timer, ok := w.timers[abs]; ok {
		timer.Stop()
		delete(w.timers, abs)
	}
	w.mu.Unlock()

	// fsnotify returns an error if the path was never watched; ignore it.
	_ = w.fw.Remove(abs)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for root, timer := range w.timers {
		timer.Stop()
		delete(w.timers, root)
	}
	w.mu.Unlock()
	return w.fw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if root, ok := w.rootFor(event.Name); ok {
				w.trigger(root)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logging.Warn("Watcher error: %v", err)
		}
	}
}

// rootFor maps an event path back to the registered source root.
func (w *Watcher) rootFor(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root, true
		}
	}
	return "", false
}

// trigger arms or resets the debounce timer for a root.
func (w *Watcher) trigger(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if timer, ok := w.timers[root]; ok {
		timer.Reset(w.debounce)
		return
	}

	w.timers[root] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, root)
		live := w.roots[root] && !w.closed
		w.mu.Unlock()

		if live {
			logging.Info("Change detected in %s, triggering re-import", root)
			w.onChange(root)
		}
	})
}
