package server

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to a single dataset file.
//
// It watches the file's directory rather than the file, since editors and
// deploy tools usually replace files by rename and a watch on the old inode
// would go silent. Bursts of events within the debounce window collapse into
// one notification.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   *log.Logger

	mu     sync.Mutex
	target string // absolute path, empty when idle
	dir    string
}

// NewWatcher creates an idle watcher. Call Watch to pick a file and Run to
// start delivering changes.
func NewWatcher(logger *log.Logger, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{fs: fw, debounce: debounce, logger: logger}, nil
}

// Watch switches the watched file to path. An empty path stops watching.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if path == "" {
		w.unwatchLocked()
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if dir != w.dir {
		w.unwatchLocked()
		if err := w.fs.Add(dir); err != nil {
			return err
		}
		w.dir = dir
	}
	w.target = abs
	w.logger.Debug("watching dataset", "path", abs)
	return nil
}

func (w *Watcher) unwatchLocked() {
	if w.dir != "" {
		_ = w.fs.Remove(w.dir)
	}
	w.dir, w.target = "", ""
}

func (w *Watcher) matches(name string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	abs, err := filepath.Abs(name)
	if err != nil || w.target == "" {
		return "", false
	}
	return w.target, abs == w.target
}

// Run delivers debounced changes to onChange until ctx is cancelled or the
// watcher is closed. onChange runs on Run's goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			target, ok := w.matches(event.Name)
			if !ok {
				continue
			}
			pending = target
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if pending != "" {
				onChange(pending)
				pending = ""
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
