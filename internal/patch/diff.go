package patch

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// LineKind classifies one line of a rendered diff.
type LineKind string

const (
	LineContext LineKind = "context"
	LineAdded   LineKind = "added"
	LineRemoved LineKind = "removed"
)

// Line is one record of the diff renderer contract: an ordered sequence of
// these is handed to the terminal layer, which owns all styling.
type Line struct {
	Kind LineKind `json:"kind"`
	Text string   `json:"text"`
}

// Span is a half-open byte range [Start, End) in the old content.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// splitLines splits content into lines without terminators and returns the
// byte offset of each line start. A trailing newline does not produce a
// phantom empty final line.
func splitLines(content string) (lines []string, starts []int) {
	if content == "" {
		return nil, nil
	}
	raw := strings.Split(content, "\n")
	if raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	starts = make([]int, len(raw))
	offset := 0
	for i, l := range raw {
		starts[i] = offset
		offset += len(l) + 1
	}
	return raw, starts
}

// lineIndexFor returns the index of the line containing the byte offset.
// Offsets at or past the end of content land on the last line.
func lineIndexFor(starts []int, offset int) int {
	if len(starts) == 0 {
		return 0
	}
	idx := 0
	for i, s := range starts {
		if s > offset {
			break
		}
		idx = i
	}
	return idx
}

// diffRegion computes the line diff between old and new content, bounded to
// the lines overlapping the replaced span plus ctxLines of context on each
// side. Only the changed region is diffed; the rest of the file is known
// unchanged. Returns the line records and a unified-diff rendering of them.
//
// The edit script comes from difflib's SequenceMatcher, whose LCS-style
// matching keeps the earliest possible lines unchanged, so output is
// deterministic when several minimal scripts exist.
func diffRegion(oldContent, newContent string, span Span, replaceLen, ctxLines int) ([]Line, string) {
	oldLines, oldStarts := splitLines(oldContent)
	newLines, newStarts := splitLines(newContent)

	oldFirst := lineIndexFor(oldStarts, span.Start)

	// Content before span.Start is byte-identical in both versions, so the
	// replacement begins on the same line index in the new content.
	newFirst := oldFirst
	newEnd := span.Start + replaceLen

	// The unchanged tail (old content after span.End, new content after
	// newEnd) is byte-identical, but its lines only line up when both edit
	// boundaries sit at line starts. A mid-line boundary merges the tail's
	// first partial line into the changed region on both sides.
	var oldLast, newLast int
	switch {
	case span.End == len(oldContent):
		oldLast = len(oldLines) - 1
		newLast = len(newLines) - 1
	case atLineStart(oldContent, span.End) && atLineStart(newContent, newEnd):
		oldLast = lineIndexFor(oldStarts, span.End-1)
		newLast = -1
		if newEnd > 0 {
			newLast = lineIndexFor(newStarts, newEnd-1)
		}
	default:
		oldLast = lineIndexFor(oldStarts, span.End)
		newLast = lineIndexFor(newStarts, newEnd)
	}

	oldRegion := oldLines[oldFirst : oldLast+1]
	// A pure deletion has no changed lines on the new side: newLast lands
	// before newFirst and the region stays empty.
	var newRegion []string
	if len(newLines) > 0 && newLast >= newFirst {
		newRegion = newLines[newFirst : newLast+1]
	}

	leadStart := maxInt(0, oldFirst-ctxLines)
	trailEnd := minInt(len(oldLines), oldLast+1+ctxLines)

	var out []Line
	for i := leadStart; i < oldFirst; i++ {
		out = append(out, Line{Kind: LineContext, Text: oldLines[i]})
	}

	matcher := difflib.NewMatcher(oldRegion, newRegion)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, l := range oldRegion[op.I1:op.I2] {
				out = append(out, Line{Kind: LineContext, Text: l})
			}
		case 'r':
			for _, l := range oldRegion[op.I1:op.I2] {
				out = append(out, Line{Kind: LineRemoved, Text: l})
			}
			for _, l := range newRegion[op.J1:op.J2] {
				out = append(out, Line{Kind: LineAdded, Text: l})
			}
		case 'd':
			for _, l := range oldRegion[op.I1:op.I2] {
				out = append(out, Line{Kind: LineRemoved, Text: l})
			}
		case 'i':
			for _, l := range newRegion[op.J1:op.J2] {
				out = append(out, Line{Kind: LineAdded, Text: l})
			}
		}
	}

	for i := oldLast + 1; i < trailEnd; i++ {
		out = append(out, Line{Kind: LineContext, Text: oldLines[i]})
	}

	unified := renderUnified(out, leadStart+1, newFirst-(oldFirst-leadStart)+1)
	return out, unified
}

// renderUnified formats line records as a single unified-diff hunk.
func renderUnified(lines []Line, oldStart, newStart int) string {
	var oldCount, newCount int
	for _, l := range lines {
		switch l.Kind {
		case LineContext:
			oldCount++
			newCount++
		case LineRemoved:
			oldCount++
		case LineAdded:
			newCount++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)
	for _, l := range lines {
		switch l.Kind {
		case LineContext:
			b.WriteString(" ")
		case LineRemoved:
			b.WriteString("-")
		case LineAdded:
			b.WriteString("+")
		}
		b.WriteString(l.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// atLineStart reports whether the byte offset sits at the start of a line.
func atLineStart(s string, off int) bool {
	return off == 0 || (off <= len(s) && s[off-1] == '\n')
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
