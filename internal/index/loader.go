package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// FileLister enumerates the files to track under a project root, as paths
// relative to that root. Implementations own ignore semantics (gitignore and
// friends); the index consumes the list as-is.
type FileLister interface {
	List(root string) ([]string, error)
}

// WalkLister is the default FileLister: a plain tree walk that skips .git and
// the configured directory names. It does not interpret ignore files.
type WalkLister struct {
	ExcludeDirs []string
}

// List walks root and returns relative paths of all regular files.
func (w *WalkLister) List(root string) ([]string, error) {
	excluded := make(map[string]bool, len(w.ExcludeDirs)+1)
	excluded[".git"] = true
	for _, d := range w.ExcludeDirs {
		excluded[d] = true
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if d.IsDir() {
			if excluded[d.Name()] && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Loader populates a SourceIndex from disk at session start. Files are read
// and parsed in parallel; the debounce machinery is bypassed because nothing
// is being typed yet.
type Loader struct {
	idx    *SourceIndex
	logger *slog.Logger

	// MaxFileBytes skips files larger than this. Zero means 1MiB.
	MaxFileBytes int

	// Parallelism bounds concurrent file reads and parses. Zero means 8.
	Parallelism int
}

// NewLoader returns a Loader for idx.
func NewLoader(idx *SourceIndex, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{idx: idx, logger: logger}
}

// Load reads every listed file under root into the index and parses it.
// Unreadable, oversized and non-text files are skipped, never fatal; the
// only error returned is context cancellation.
func (l *Loader) Load(ctx context.Context, root string, paths []string) error {
	maxBytes := l.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	limit := l.Parallelism
	if limit <= 0 {
		limit = 8
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				l.logger.Debug("skipping unreadable file", "path", rel, "err", err)
				return nil
			}
			if len(data) > maxBytes {
				l.logger.Debug("skipping oversized file", "path", rel, "bytes", len(data))
				return nil
			}
			if !utf8.Valid(data) {
				l.logger.Debug("skipping non-text file", "path", rel)
				return nil
			}

			tf := l.idx.lookup(rel, true)
			tf.mu.Lock()
			tf.content = string(data)
			tf.dirty = true
			tf.mu.Unlock()

			if err := l.idx.Reparse(gctx, rel); err != nil {
				l.logger.Warn("initial parse failed", "path", rel, "err", err)
			}
			return nil
		})
	}

	return g.Wait()
}
