// Package patch converts model-authored search/replace blocks into
// reviewable line diffs and new file content. Apply is a pure computation;
// committing the result to the index and disk is the session's job, so an
// interactive approve/reject step can sit between the two.
package patch

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Proposal is a model-proposed edit: find Search verbatim in the target
// file, replace it with Replace. Consumed once and discarded.
type Proposal struct {
	File    string `json:"file"`
	Search  string `json:"search"`
	Replace string `json:"replace"`
}

// Outcome classifies the result of applying or committing a proposal.
// Failures are values; nothing here terminates the process.
type Outcome string

const (
	// OutcomeApplied: exactly one match; NewContent and Diff are populated.
	OutcomeApplied Outcome = "applied"

	// OutcomeNotFound: the search text does not occur in the content.
	OutcomeNotFound Outcome = "not-found"

	// OutcomeAmbiguous: the search text occurs more than once. The caller
	// must request a block with more context; the engine never guesses.
	OutcomeAmbiguous Outcome = "ambiguous"

	// OutcomeEncodingError: content or proposal is not valid UTF-8.
	OutcomeEncodingError Outcome = "encoding-error"

	// OutcomeConflict: the file changed between propose and commit.
	OutcomeConflict Outcome = "conflict"

	// OutcomeCommitFailed: the write-through to disk failed; index content
	// is unchanged.
	OutcomeCommitFailed Outcome = "commit-failed"

	// OutcomeRejected: the reviewer declined the pending patch.
	OutcomeRejected Outcome = "rejected"

	// OutcomeTimeout: diff computation exceeded its deadline.
	OutcomeTimeout Outcome = "timeout"
)

// Result is the output of Engine.Apply. Nothing is committed: NewContent is
// what the file would become if the reviewer approves.
type Result struct {
	Outcome    Outcome `json:"outcome"`
	NewContent string  `json:"-"`
	Span       Span    `json:"span"`
	Diff       []Line  `json:"diff,omitempty"`
	Unified    string  `json:"unified,omitempty"`
}

// Engine applies search/replace proposals to file content.
type Engine struct {
	// ContextLines is the number of unchanged lines shown around a change.
	ContextLines int
}

// NewEngine returns an Engine with three context lines.
func NewEngine() *Engine {
	return &Engine{ContextLines: 3}
}

// Apply locates the proposal's search text in current and computes the
// replacement plus its diff. Matching is literal and exact: zero matches is
// NotFound, more than one is Ambiguous. Apply never mutates anything and may
// run concurrently with unrelated work.
func (e *Engine) Apply(ctx context.Context, p Proposal, current string) Result {
	if !utf8.ValidString(current) || !utf8.ValidString(p.Search) || !utf8.ValidString(p.Replace) {
		return Result{Outcome: OutcomeEncodingError}
	}
	if p.Search == "" {
		return Result{Outcome: OutcomeNotFound}
	}

	switch strings.Count(current, p.Search) {
	case 0:
		return Result{Outcome: OutcomeNotFound}
	case 1:
	default:
		return Result{Outcome: OutcomeAmbiguous}
	}

	start := strings.Index(current, p.Search)
	span := Span{Start: start, End: start + len(p.Search)}
	newContent := current[:span.Start] + p.Replace + current[span.End:]

	if ctx.Err() != nil {
		return Result{Outcome: OutcomeTimeout}
	}

	diff, unified := diffRegion(current, newContent, span, len(p.Replace), e.ContextLines)

	if ctx.Err() != nil {
		return Result{Outcome: OutcomeTimeout}
	}

	return Result{
		Outcome:    OutcomeApplied,
		NewContent: newContent,
		Span:       span,
		Diff:       diff,
		Unified:    unified,
	}
}
