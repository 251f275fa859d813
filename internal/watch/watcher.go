// Package watch reloads the corpus when files under its directory change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before a reload.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc rebuilds the corpus. Errors are logged and the watcher keeps
// running.
type ReloadFunc func(ctx context.Context) error

// Watcher watches a directory tree and calls a ReloadFunc once changes to
// matching files settle.
type Watcher struct {
	dir      string
	match    func(name string) bool
	reload   ReloadFunc
	debounce time.Duration
	log      *slog.Logger

	fsw  *fsnotify.Watcher
	dirs map[string]bool
}

// New creates a watcher over every non-hidden directory below dir. match
// decides which file names are corpus files.
func New(dir string, match func(string) bool, reload ReloadFunc, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	w := &Watcher{
		dir:      dir,
		match:    match,
		reload:   reload,
		debounce: debounce,
		log:      log.With("component", "watch", "dir", dir),
		fsw:      fsw,
		dirs:     make(map[string]bool),
	}
	if err := w.addTree(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree registers dir and its non-hidden subdirectories.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			w.log.Warn("skipping unreadable directory", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.dir && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if w.dirs[path] {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			w.log.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		w.dirs[path] = true
		w.log.Debug("watching directory", "path", path)
		return nil
	})
}

// relevant reports whether ev should schedule a reload, registering newly
// created directories as a side effect.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Create) {
		if ok, _ := isDir(ev.Name); ok {
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				return false
			}
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn("failed to watch new directory", "path", ev.Name, "error", err)
			}
			return true
		}
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if w.dirs[ev.Name] {
			delete(w.dirs, ev.Name)
			return true
		}
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return w.match(filepath.Base(ev.Name))
}

// Run processes events until ctx is done. Reloads run on this goroutine, so
// they never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	w.log.Info("file watcher started", "debounce", w.debounce.String())
	for {
		select {
		case <-ctx.Done():
			w.log.Info("file watcher stopped")
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("corpus change", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("file watcher error", "error", err)

		case <-timer.C:
			start := time.Now()
			if err := w.reload(ctx); err != nil {
				w.log.Error("reload failed", "error", err)
				continue
			}
			w.log.Info("reloaded after change", "duration_ms", time.Since(start).Milliseconds())
		}
	}
}

func isDir(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
