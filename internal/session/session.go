// Package session ties the source index, reparse scheduler and patch engine
// into one explicit project object. There is no process-wide state: every
// operation hangs off a Session created for a working directory.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/srcmap/internal/config"
	"github.com/dusk-indust/srcmap/internal/index"
	"github.com/dusk-indust/srcmap/internal/patch"
)

// ErrNoPending is returned when committing or rejecting an unknown patch id.
var ErrNoPending = errors.New("no pending patch with that id")

// errConflict marks a stale pending patch inside the commit critical section.
var errConflict = errors.New("content changed since propose")

// PendingPatch is a proposed edit awaiting an approve/reject decision. The
// diff shown to the reviewer was computed against base; commit re-checks that
// base still matches before touching anything.
type PendingPatch struct {
	ID        string         `json:"id"`
	Proposal  patch.Proposal `json:"proposal"`
	Result    patch.Result   `json:"result"`
	CreatedAt time.Time      `json:"createdAt"`

	base string
}

// Session owns all per-project state for one interactive run.
type Session struct {
	root    string
	idx     *index.SourceIndex
	sched   *index.Scheduler
	engine  *patch.Engine
	history *History
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]*PendingPatch
}

// Open creates a session for root, enumerates its files through lister and
// bulk-loads the index. A nil cfg uses defaults; a nil lister uses a plain
// tree walk honoring cfg.ExcludeDirs.
func Open(ctx context.Context, root string, cfg *config.ProjectConfig, lister index.FileLister, logger *slog.Logger) (*Session, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if cfg == nil {
		cfg = &config.ProjectConfig{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if lister == nil {
		lister = &index.WalkLister{ExcludeDirs: cfg.ExcludeDirs}
	}

	idx := index.NewSourceIndex(index.NewRegistry())
	sched := index.NewScheduler(idx, index.SchedulerConfig{
		EditThreshold: cfg.EditThreshold,
		QuietPeriod:   cfg.QuietPeriod(),
		RetryBackoff:  cfg.RetryBackoff(),
		ParseTimeout:  cfg.ParseTimeout(),
	}, logger)

	paths, err := lister.List(absRoot)
	if err != nil {
		sched.Close()
		return nil, fmt.Errorf("enumerate %s: %w", absRoot, err)
	}

	loader := index.NewLoader(idx, logger)
	loader.MaxFileBytes = cfg.MaxFileBytes
	if err := loader.Load(ctx, absRoot, paths); err != nil {
		sched.Close()
		return nil, fmt.Errorf("load %s: %w", absRoot, err)
	}

	logger.Debug("session opened", "root", absRoot, "files", len(paths))

	return &Session{
		root:    absRoot,
		idx:     idx,
		sched:   sched,
		engine:  patch.NewEngine(),
		history: &History{},
		logger:  logger,
		pending: make(map[string]*PendingPatch),
	}, nil
}

// Root returns the absolute project root.
func (s *Session) Root() string {
	return s.root
}

// Index exposes the source index for read-side collaborators.
func (s *Session) Index() *index.SourceIndex {
	return s.idx
}

// UpdateFile routes an external content change (keystroke burst, editor
// save) into the index and the debounced reparse path.
func (s *Session) UpdateFile(path, content string) {
	s.idx.UpsertFile(path, content)
}

// RemoveFile evicts a file and cancels its pending reparse. Idempotent.
func (s *Session) RemoveFile(path string) {
	s.sched.Cancel(path)
	s.idx.RemoveFile(path)
}

// Symbols returns the last parsed symbol map for path, with its Dirty flag.
func (s *Session) Symbols(path string) (index.SymbolMap, bool) {
	return s.idx.Symbols(path)
}

// FreshSymbols forces a reparse of path and returns the resulting map, for
// callers that refuse stale data.
func (s *Session) FreshSymbols(ctx context.Context, path string) (index.SymbolMap, error) {
	if err := s.sched.Flush(ctx, path); err != nil {
		return index.SymbolMap{}, err
	}
	sm, ok := s.idx.Symbols(path)
	if !ok {
		return index.SymbolMap{}, fmt.Errorf("%w: %s", index.ErrUntracked, path)
	}
	return sm, nil
}

// Propose runs a search/replace proposal against the file's current content.
// The returned PendingPatch carries the diff for review; nothing is
// committed. Unsuccessful outcomes (NotFound, Ambiguous, ...) are returned
// on the patch itself, not as errors, and are not registered for commit.
func (s *Session) Propose(ctx context.Context, p patch.Proposal) (*PendingPatch, error) {
	content, ok := s.idx.Content(p.File)
	if !ok {
		return nil, fmt.Errorf("%w: %s", index.ErrUntracked, p.File)
	}

	result := s.engine.Apply(ctx, p, content)
	pp := &PendingPatch{
		ID:        uuid.NewString(),
		Proposal:  p,
		Result:    result,
		CreatedAt: time.Now(),
		base:      content,
	}

	if result.Outcome != patch.OutcomeApplied {
		s.history.Add(Record{ID: pp.ID, File: p.File, Outcome: result.Outcome, At: pp.CreatedAt})
		return pp, nil
	}

	s.mu.Lock()
	s.pending[pp.ID] = pp
	s.mu.Unlock()
	return pp, nil
}

// ProposeUnified parses a multi-file unified diff and stages one pending
// patch per target file.
func (s *Session) ProposeUnified(ctx context.Context, diffText []byte) ([]*PendingPatch, error) {
	files, err := patch.ParseUnified(diffText)
	if err != nil {
		return nil, err
	}

	var out []*PendingPatch
	for _, uf := range files {
		content, ok := s.idx.Content(uf.Path)
		if !ok {
			return nil, fmt.Errorf("%w: %s", index.ErrUntracked, uf.Path)
		}

		result := s.engine.ApplyUnified(ctx, uf, content)
		pp := &PendingPatch{
			ID:        uuid.NewString(),
			Proposal:  patch.Proposal{File: uf.Path},
			Result:    result,
			CreatedAt: time.Now(),
			base:      content,
		}
		if result.Outcome == patch.OutcomeApplied {
			s.mu.Lock()
			s.pending[pp.ID] = pp
			s.mu.Unlock()
		} else {
			s.history.Add(Record{ID: pp.ID, File: uf.Path, Outcome: result.Outcome, At: pp.CreatedAt})
		}
		out = append(out, pp)
	}
	return out, nil
}

// Pending returns the staged patch for id, if any.
func (s *Session) Pending(id string) (*PendingPatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pp, ok := s.pending[id]
	return pp, ok
}

// Commit applies an approved pending patch: under the file's exclusive
// section it verifies the content is still what the diff was computed
// against, writes the new content through to disk, and updates the index
// (which marks the file dirty and queues its reparse). A conflict or a
// failed disk write leaves both index and file untouched.
func (s *Session) Commit(ctx context.Context, id string) (patch.Outcome, error) {
	s.mu.Lock()
	pp, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()
	if !ok {
		return "", ErrNoPending
	}

	if err := ctx.Err(); err != nil {
		s.record(pp, patch.OutcomeTimeout)
		return patch.OutcomeTimeout, nil
	}

	outcome := patch.OutcomeApplied
	err := s.idx.Update(pp.Proposal.File, func(current string) (string, error) {
		if current != pp.base {
			return "", errConflict
		}
		if err := s.writeThrough(pp.Proposal.File, pp.Result.NewContent); err != nil {
			return "", fmt.Errorf("write %s: %w", pp.Proposal.File, err)
		}
		return pp.Result.NewContent, nil
	})

	switch {
	case errors.Is(err, errConflict):
		outcome = patch.OutcomeConflict
	case err != nil:
		s.logger.Warn("commit failed", "file", pp.Proposal.File, "err", err)
		outcome = patch.OutcomeCommitFailed
	}

	s.record(pp, outcome)
	return outcome, nil
}

// Reject discards a pending patch and records the decision.
func (s *Session) Reject(id string) error {
	s.mu.Lock()
	pp, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()
	if !ok {
		return ErrNoPending
	}
	s.record(pp, patch.OutcomeRejected)
	return nil
}

// History returns the session's patch log.
func (s *Session) History() []Record {
	return s.history.Records()
}

// Close cancels all pending reparse timers and waits for in-flight parses.
func (s *Session) Close() {
	s.sched.Close()
}

// record appends a history entry for a resolved pending patch.
func (s *Session) record(pp *PendingPatch, outcome patch.Outcome) {
	s.history.Add(Record{
		ID:      pp.ID,
		File:    pp.Proposal.File,
		Span:    pp.Result.Span,
		Unified: pp.Result.Unified,
		Outcome: outcome,
		At:      time.Now(),
	})
}

// writeThrough persists new content to the file on disk, preserving its
// mode when the file already exists.
func (s *Session) writeThrough(rel, content string) error {
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(abs); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(abs, []byte(content), mode)
}
