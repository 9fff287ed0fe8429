package index

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// SchedulerConfig tunes the debounce policy.
type SchedulerConfig struct {
	// EditThreshold triggers a reparse once this many edits accumulate for
	// one file.
	EditThreshold int

	// QuietPeriod triggers a reparse once this long passes after the last
	// edit, so slow typing never leaves symbols stale indefinitely.
	QuietPeriod time.Duration

	// RetryBackoff delays the retry after a failed parse.
	RetryBackoff time.Duration

	// ParseTimeout bounds a single parse; an exceeded deadline is a parse
	// failure, not a hang.
	ParseTimeout time.Duration
}

// DefaultSchedulerConfig returns the production defaults: three accumulated
// edits or 400ms of quiet, whichever comes first.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		EditThreshold: 3,
		QuietPeriod:   400 * time.Millisecond,
		RetryBackoff:  2 * time.Second,
		ParseTimeout:  5 * time.Second,
	}
}

// pendingReparse is the per-file debounce state.
type pendingReparse struct {
	edits    int
	timer    *time.Timer
	inFlight bool
}

// Scheduler decides when a file's edits have settled enough to reparse.
// It is the SourceIndex's EditNotifier and the single driver of the
// dirty-to-clean transition. Timers run independently per file and are
// cancelled deterministically on file removal or Close.
type Scheduler struct {
	idx    *SourceIndex
	cfg    SchedulerConfig
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingReparse
	closed  bool
	wg      sync.WaitGroup
}

// NewScheduler wires a Scheduler to idx and installs itself as the index's
// edit notifier. Zero config fields fall back to defaults.
func NewScheduler(idx *SourceIndex, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	def := DefaultSchedulerConfig()
	if cfg.EditThreshold <= 0 {
		cfg.EditThreshold = def.EditThreshold
	}
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = def.QuietPeriod
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.ParseTimeout <= 0 {
		cfg.ParseTimeout = def.ParseTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		idx:     idx,
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string]*pendingReparse),
	}
	idx.SetNotifier(s)
	return s
}

// NoteEdit records one edit to path and triggers a reparse when the edit
// threshold is reached; otherwise it (re)arms the quiet-period timer.
func (s *Scheduler) NoteEdit(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	st := s.pending[path]
	if st == nil {
		st = &pendingReparse{}
		s.pending[path] = st
	}
	st.edits++

	if st.inFlight {
		// A reparse is running against older content; completion handling
		// reschedules for the edits counted here.
		return
	}

	if st.edits >= s.cfg.EditThreshold {
		s.trigger(path, st)
		return
	}
	s.armTimer(path, st, s.cfg.QuietPeriod)
}

// armTimer (re)sets the file's timer to fire after d. Caller holds s.mu.
func (s *Scheduler) armTimer(path string, st *pendingReparse, d time.Duration) {
	if st.timer != nil {
		st.timer.Reset(d)
		return
	}
	st.timer = time.AfterFunc(d, func() { s.timerFire(path) })
}

// timerFire runs when a quiet-period or backoff timer elapses.
func (s *Scheduler) timerFire(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.pending[path]
	if s.closed || st == nil || st.inFlight {
		return
	}
	s.trigger(path, st)
}

// trigger starts an asynchronous reparse for path. Caller holds s.mu.
func (s *Scheduler) trigger(path string, st *pendingReparse) {
	if st.timer != nil {
		st.timer.Stop()
	}
	st.inFlight = true
	st.edits = 0
	s.wg.Add(1)
	go s.runReparse(path)
}

// runReparse performs one bounded reparse and reschedules as needed.
func (s *Scheduler) runReparse(path string) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ParseTimeout)
	err := s.idx.Reparse(ctx, path)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.pending[path]
	if st == nil {
		// Cancelled while in flight; drop the result silently.
		return
	}
	st.inFlight = false

	switch {
	case errors.Is(err, ErrUntracked):
		delete(s.pending, path)

	case err != nil:
		s.logger.Warn("reparse failed", "path", path, "err", err)
		if !s.closed {
			s.armTimer(path, st, s.cfg.RetryBackoff)
		}

	case st.edits > 0:
		// Edits arrived while parsing; debounce them as a fresh burst.
		if s.closed {
			delete(s.pending, path)
			return
		}
		if st.edits >= s.cfg.EditThreshold {
			s.trigger(path, st)
			return
		}
		s.armTimer(path, st, s.cfg.QuietPeriod)

	default:
		delete(s.pending, path)
	}
}

// Cancel discards any pending timer and edit count for path, without side
// effects on the file's content or symbols.
func (s *Scheduler) Cancel(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.pending[path]
	if st == nil {
		return
	}
	if st.timer != nil {
		st.timer.Stop()
	}
	delete(s.pending, path)
}

// Flush reparses path immediately, discarding any pending debounce state.
// Callers that refuse stale symbols use this instead of waiting.
func (s *Scheduler) Flush(ctx context.Context, path string) error {
	s.Cancel(path)
	return s.idx.Reparse(ctx, path)
}

// Close cancels all pending timers and waits for in-flight reparses.
// Further edits are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for path, st := range s.pending {
		if st.timer != nil {
			st.timer.Stop()
		}
		if !st.inFlight {
			delete(s.pending, path)
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}
