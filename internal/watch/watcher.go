// Package watch feeds filesystem events into a session so external edits
// (editor saves, git checkouts) flow through the same debounced reparse path
// as interactive edits.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
)

// Target is the session surface the watcher drives.
type Target interface {
	Root() string
	UpdateFile(path, content string)
	RemoveFile(path string)
}

// Watcher mirrors filesystem changes under a project root into a Target.
type Watcher struct {
	target  Target
	exclude map[string]bool
	logger  *slog.Logger

	// MaxFileBytes skips files larger than this. Zero means 1MiB.
	MaxFileBytes int
}

// New returns a Watcher for target. excludeDirs are directory names never
// descended into (.git is always excluded).
func New(target Target, excludeDirs []string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	exclude := make(map[string]bool, len(excludeDirs)+1)
	exclude[".git"] = true
	for _, d := range excludeDirs {
		exclude[d] = true
	}
	return &Watcher{target: target, exclude: exclude, logger: logger}
}

// Run watches the project tree until ctx is cancelled. The watcher itself
// never mutates the index directly; everything goes through the Target.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	root := w.target.Root()
	if err := w.addDirs(fw, root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, root, ev)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// addDirs registers root and every non-excluded subdirectory.
func (w *Watcher) addDirs(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.exclude[d.Name()] && path != root {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			w.logger.Warn("cannot watch directory", "path", path, "err", err)
		}
		return nil
	})
}

func (w *Watcher) handle(fw *fsnotify.Watcher, root string, ev fsnotify.Event) {
	rel, err := filepath.Rel(root, ev.Name)
	if err != nil || rel == "." {
		return
	}
	rel = filepath.ToSlash(rel)

	switch {
	case ev.Op.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if !w.exclude[filepath.Base(ev.Name)] {
				w.addDirs(fw, ev.Name)
			}
			return
		}
		w.upsert(rel, ev.Name)

	case ev.Op.Has(fsnotify.Write):
		w.upsert(rel, ev.Name)

	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.target.RemoveFile(rel)
		w.logger.Debug("file removed", "path", rel)
	}
}

// upsert reads a changed file and routes it into the session. Non-text and
// oversized files are ignored, matching the bulk loader's policy.
func (w *Watcher) upsert(rel, abs string) {
	maxBytes := w.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return // transient during saves; the next event retries
	}
	if len(data) > maxBytes || !utf8.Valid(data) {
		// The path may already be tracked from an earlier event (a partial
		// read during the save, or the file was text before). Evict it so no
		// stale content survives; removal of an untracked path is a no-op.
		w.target.RemoveFile(rel)
		w.logger.Debug("file no longer indexable", "path", rel, "bytes", len(data))
		return
	}
	w.target.UpdateFile(rel, string(data))
	w.logger.Debug("file updated", "path", rel, "bytes", len(data))
}
