package generate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-runs a function whenever one of a set of files changes.
// Events are debounced so an editor's write-rename sequence triggers a
// single run.
type Watcher struct {
	Debounce time.Duration
	Logger   *slog.Logger
	// Refresh, when set, is called after every run and its files are
	// added to the watched set.
	Refresh func() []string

	files map[string]bool
	dirs  map[string]bool
}

// NewWatcher watches files. Their parent directories are watched so files
// replaced by rename keep being observed.
func NewWatcher(logger *slog.Logger, files ...string) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		Debounce: 200 * time.Millisecond,
		Logger:   logger,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}
	for _, f := range files {
		w.add(f)
	}
	return w
}

// add watches file and returns its directory when that is not watched yet.
func (w *Watcher) add(file string) (string, bool) {
	if file == "" {
		return "", false
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		abs = file
	}
	w.files[abs] = true
	dir := filepath.Dir(abs)
	if w.dirs[dir] {
		return "", false
	}
	w.dirs[dir] = true
	return dir, true
}

// Run calls fn for every debounced change until ctx is done. Errors from
// fn are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context, fn func(changed string) error) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	for dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.Logger.Debug("watching directory", "path", dir)
	}

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		changed string
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.Logger.Debug("file event", "path", event.Name, "op", event.Op.String())
			changed = event.Name
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := fn(changed); err != nil {
				w.Logger.Error("run after change failed", "path", changed, "error", err)
			}
			w.refresh(fsw)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) refresh(fsw *fsnotify.Watcher) {
	if w.Refresh == nil {
		return
	}
	for _, f := range w.Refresh() {
		dir, added := w.add(f)
		if !added {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.Logger.Warn("failed to watch directory", "path", dir, "error", err)
			continue
		}
		w.Logger.Debug("watching directory", "path", dir)
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}
