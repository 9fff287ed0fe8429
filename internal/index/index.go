package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUntracked is returned for operations that require an already-tracked path.
var ErrUntracked = errors.New("file not tracked")

// EditNotifier receives a notification after every content change to a
// tracked file. The reparse scheduler implements this; a nil notifier is
// valid and means edits are never reparsed automatically.
type EditNotifier interface {
	NoteEdit(path string)
}

// trackedFile is the per-file state owned by the SourceIndex. The mutex
// serializes every upsert/apply/reparse sequence for the file; operations on
// different files never contend.
type trackedFile struct {
	mu       sync.Mutex
	path     string
	lang     Language
	content  string
	symbols  []Symbol
	dirty    bool
	parseErr bool
	parsed   bool // at least one successful parse happened
}

// SourceIndex is the per-session symbol map, keyed by project-relative path.
// Content updates never parse synchronously; parsing is deferred to the
// scheduler so rapid successive edits do not each pay for a full reparse.
type SourceIndex struct {
	mu       sync.RWMutex
	files    map[string]*trackedFile
	registry *Registry
	notifier EditNotifier
}

// NewSourceIndex returns an empty index using the given grammar registry.
func NewSourceIndex(registry *Registry) *SourceIndex {
	return &SourceIndex{
		files:    make(map[string]*trackedFile),
		registry: registry,
	}
}

// SetNotifier installs the edit notifier. Must be called before concurrent
// use; the scheduler does this during construction.
func (x *SourceIndex) SetNotifier(n EditNotifier) {
	x.notifier = n
}

// lookup returns the tracked file for path, creating it when create is set.
func (x *SourceIndex) lookup(path string, create bool) *trackedFile {
	x.mu.RLock()
	tf := x.files[path]
	x.mu.RUnlock()
	if tf != nil || !create {
		return tf
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if tf = x.files[path]; tf == nil {
		tf = &trackedFile{path: path, lang: LanguageForPath(path)}
		x.files[path] = tf
	}
	return tf
}

// UpsertFile replaces the stored content for path and marks the file dirty.
// The previous symbol map stays visible until the next successful reparse.
func (x *SourceIndex) UpsertFile(path, content string) {
	tf := x.lookup(path, true)
	tf.mu.Lock()
	tf.content = content
	tf.dirty = true
	tf.mu.Unlock()

	if x.notifier != nil {
		x.notifier.NoteEdit(path)
	}
}

// Update runs fn under the file's exclusive section, passing the current
// content. When fn succeeds its return value becomes the new content and the
// file is marked dirty. When fn fails the stored content is left unchanged.
// Untracked paths are an error; committing a patch to an evicted file must
// not resurrect it.
func (x *SourceIndex) Update(path string, fn func(current string) (string, error)) error {
	tf := x.lookup(path, false)
	if tf == nil {
		return fmt.Errorf("%w: %s", ErrUntracked, path)
	}

	tf.mu.Lock()
	newContent, err := fn(tf.content)
	if err != nil {
		tf.mu.Unlock()
		return err
	}
	tf.content = newContent
	tf.dirty = true
	tf.mu.Unlock()

	if x.notifier != nil {
		x.notifier.NoteEdit(path)
	}
	return nil
}

// Content returns the stored content for path.
func (x *SourceIndex) Content(path string) (string, bool) {
	tf := x.lookup(path, false)
	if tf == nil {
		return "", false
	}
	tf.mu.Lock()
	defer tf.mu.Unlock()
	return tf.content, true
}

// Symbols returns the last successfully parsed symbol map for path. The map's
// Dirty flag tells the caller whether it corresponds to older content.
func (x *SourceIndex) Symbols(path string) (SymbolMap, bool) {
	tf := x.lookup(path, false)
	if tf == nil {
		return SymbolMap{}, false
	}

	tf.mu.Lock()
	defer tf.mu.Unlock()
	out := SymbolMap{
		Path:     path,
		Language: tf.lang,
		Symbols:  make([]Symbol, len(tf.symbols)),
		Dirty:    tf.dirty,
		ParseErr: tf.parseErr,
	}
	copy(out.Symbols, tf.symbols)
	return out, true
}

// RemoveFile evicts content and symbols for path. Idempotent: removing an
// untracked path is a no-op.
func (x *SourceIndex) RemoveFile(path string) {
	x.mu.Lock()
	delete(x.files, path)
	x.mu.Unlock()
}

// Reparse parses the stored content for path and atomically replaces its
// symbol map. It is the only dirty-to-clean transition; the scheduler is its
// only caller in production. Files without a grammar clear dirty with an
// empty symbol map. A parse failure leaves dirty set.
func (x *SourceIndex) Reparse(ctx context.Context, path string) error {
	tf := x.lookup(path, false)
	if tf == nil {
		return fmt.Errorf("%w: %s", ErrUntracked, path)
	}

	tf.mu.Lock()
	defer tf.mu.Unlock()

	grammar := x.registry.Resolve(path)
	if grammar == nil {
		tf.symbols = nil
		tf.dirty = false
		tf.parseErr = false
		tf.parsed = true
		return nil
	}

	result, err := grammar.Parse(ctx, path, []byte(tf.content))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	tf.symbols = result.Symbols
	tf.dirty = false
	tf.parseErr = result.HadErrors
	tf.parsed = true
	return nil
}

// Paths returns all tracked paths in unspecified order.
func (x *SourceIndex) Paths() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]string, 0, len(x.files))
	for p := range x.files {
		out = append(out, p)
	}
	return out
}

// QuerySymbols returns up to limit symbols whose name contains query
// (case-insensitive) across all tracked files. A limit <= 0 returns all.
func (x *SourceIndex) QuerySymbols(query string, limit int) []Symbol {
	paths := x.Paths()
	var results []Symbol
	for _, p := range paths {
		sm, ok := x.Symbols(p)
		if !ok {
			continue
		}
		for _, sym := range sm.Symbols {
			if containsFold(sym.Name, query) {
				results = append(results, sym)
				if limit > 0 && len(results) >= limit {
					return results
				}
			}
		}
	}
	return results
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Stats returns counts over the tracked file set.
func (x *SourceIndex) Stats() IndexStats {
	var stats IndexStats
	for _, p := range x.Paths() {
		sm, ok := x.Symbols(p)
		if !ok {
			continue
		}
		stats.FileCount++
		stats.SymbolCount += len(sm.Symbols)
		if sm.Dirty {
			stats.DirtyCount++
		}
	}
	return stats
}
