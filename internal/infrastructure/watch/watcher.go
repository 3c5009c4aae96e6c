// Package watch re-plans a spec document whenever it changes on disk,
// coalescing editor save bursts into a single pass.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a single document for changes using fsnotify. The
// parent directory is watched rather than the file itself so that editors
// that save via rename-and-replace keep triggering.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func()
}

// NewFileWatcher creates a watcher for the document at path.
func NewFileWatcher(path string, debounce time.Duration, onChange func()) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	return &FileWatcher{
		watcher:  w,
		path:     abs,
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *FileWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	q := &quiet{window: w.debounce, fn: func() {
		if w.onChange != nil {
			w.onChange()
		}
	}}
	defer q.cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			q.signal()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *FileWatcher) relevant(event fsnotify.Event) bool {
	abs, err := filepath.Abs(event.Name)
	if err != nil || abs != w.path {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}

// quiet runs fn once the window elapses with no further signals. Each signal
// during a burst pushes the deadline out; cancel discards a pending run.
type quiet struct {
	window time.Duration
	fn     func()

	mu    sync.Mutex
	timer *time.Timer
}

func (q *quiet) signal() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timer == nil {
		q.timer = time.AfterFunc(q.window, q.fn)
		return
	}
	q.timer.Stop()
	q.timer.Reset(q.window)
}

func (q *quiet) cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timer != nil {
		q.timer.Stop()
	}
}
