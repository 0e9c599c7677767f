package registry

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DirWatcher watches a directory of callback manifests and reapplies every
// binding found whenever a .yml/.yaml file is written, created, or renamed
// into place, debounced so a burst of saves from an editor triggers one
// reload instead of several.
type DirWatcher struct {
	dir          string
	registry     *Registry
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
}

// NewDirWatcher creates a watcher for dir. Call Start to begin watching.
func NewDirWatcher(dir string, reg *Registry) (*DirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	return &DirWatcher{
		dir:          abs,
		registry:     reg,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
	}, nil
}

// Start performs an initial scan of the directory and then watches it for
// changes until ctx is cancelled. It blocks until the initial scan and
// watch registration complete, then returns; the watch loop runs in its
// own goroutine.
func (w *DirWatcher) Start(ctx context.Context) error {
	if _, err := w.registry.UpdateFromDirectory(w.dir); err != nil {
		w.registry.logger.Warn("initial manifest scan failed", "dir", w.dir, "error", err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		w.watcher.Close()
		return err
	}
	go w.loop(ctx)
	return nil
}

// Close stops the underlying fsnotify watcher.
func (w *DirWatcher) Close() error {
	return w.watcher.Close()
}

func (w *DirWatcher) loop(ctx context.Context) {
	reload := make(chan struct{}, 1)
	trigger := func() {
		select {
		case reload <- struct{}{}:
		default:
		}
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yml" && ext != ".yaml" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				trigger()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.registry.logger.Error("directory watch error", "dir", w.dir, "error", err)
		case <-reload:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounceTime, func() {
				applied, err := w.registry.UpdateFromDirectory(w.dir)
				if err != nil {
					w.registry.logger.Error("manifest reload failed", "dir", w.dir, "error", err)
					return
				}
				w.registry.logger.Info("manifest reload applied", "dir", w.dir, "bindings", applied)
			})
		}
	}
}
