package patch

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sourcegraph/go-diff/diff"
)

// UnifiedFile is one file's worth of hunks parsed from a unified diff.
type UnifiedFile struct {
	Path  string
	hunks []*diff.Hunk
}

// ParseUnified parses a multi-file unified diff. File paths are normalized
// by stripping the conventional a/ and b/ prefixes.
func ParseUnified(diffText []byte) ([]UnifiedFile, error) {
	fds, err := diff.ParseMultiFileDiff(diffText)
	if err != nil {
		return nil, fmt.Errorf("parse unified diff: %w", err)
	}

	out := make([]UnifiedFile, 0, len(fds))
	for _, fd := range fds {
		path := fd.NewName
		if path == "" || path == "/dev/null" {
			path = fd.OrigName
		}
		path = strings.TrimPrefix(path, "a/")
		path = strings.TrimPrefix(path, "b/")
		out = append(out, UnifiedFile{Path: path, hunks: fd.Hunks})
	}
	return out, nil
}

// ApplyUnified applies one file's hunks to current content. Every context and
// removed line is verified against the original; any mismatch rejects the
// whole file's hunks as a conflict, never a partial application.
func (e *Engine) ApplyUnified(ctx context.Context, uf UnifiedFile, current string) Result {
	if !utf8.ValidString(current) {
		return Result{Outcome: OutcomeEncodingError}
	}

	oldLines, _ := splitLines(current)
	trailingNewline := current == "" || strings.HasSuffix(current, "\n")

	var newLines []string
	origIdx := 0 // 0-based index into oldLines

	for _, h := range uf.hunks {
		hunkStart := int(h.OrigStartLine) - 1
		if h.OrigLines == 0 {
			// Pure-insertion hunk: OrigStartLine is the line after which
			// the insertion happens.
			hunkStart = int(h.OrigStartLine)
		}
		if hunkStart < origIdx || hunkStart > len(oldLines) {
			return Result{Outcome: OutcomeConflict}
		}
		newLines = append(newLines, oldLines[origIdx:hunkStart]...)
		origIdx = hunkStart

		for _, bodyLine := range splitHunkBody(h.Body) {
			// Some diff emitters strip the leading space from blank context
			// lines; a bare empty body line means "context: empty line".
			if bodyLine == "" {
				bodyLine = " "
			}
			text := bodyLine[1:]
			switch bodyLine[0] {
			case ' ':
				if origIdx >= len(oldLines) || oldLines[origIdx] != text {
					return Result{Outcome: OutcomeConflict}
				}
				newLines = append(newLines, text)
				origIdx++
			case '-':
				if origIdx >= len(oldLines) || oldLines[origIdx] != text {
					return Result{Outcome: OutcomeConflict}
				}
				origIdx++
			case '+':
				newLines = append(newLines, text)
			case '\\':
				// "\ No newline at end of file" marker.
			default:
				return Result{Outcome: OutcomeConflict}
			}
		}

		if ctx.Err() != nil {
			return Result{Outcome: OutcomeTimeout}
		}
	}

	newLines = append(newLines, oldLines[origIdx:]...)

	newContent := strings.Join(newLines, "\n")
	if trailingNewline && len(newLines) > 0 {
		newContent += "\n"
	}

	return Result{
		Outcome:    OutcomeApplied,
		NewContent: newContent,
		Span:       Span{Start: 0, End: len(current)},
		Diff:       hunkLines(uf.hunks),
		Unified:    renderHunks(uf.hunks),
	}
}

// splitHunkBody splits a hunk body into its prefixed lines.
func splitHunkBody(body []byte) []string {
	s := strings.TrimSuffix(string(body), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// hunkLines converts hunk bodies into diff renderer line records.
func hunkLines(hunks []*diff.Hunk) []Line {
	var out []Line
	for _, h := range hunks {
		for _, bodyLine := range splitHunkBody(h.Body) {
			if bodyLine == "" {
				out = append(out, Line{Kind: LineContext, Text: ""})
				continue
			}
			text := bodyLine[1:]
			switch bodyLine[0] {
			case ' ':
				out = append(out, Line{Kind: LineContext, Text: text})
			case '-':
				out = append(out, Line{Kind: LineRemoved, Text: text})
			case '+':
				out = append(out, Line{Kind: LineAdded, Text: text})
			}
		}
	}
	return out
}

// renderHunks reproduces the unified text for the given hunks.
func renderHunks(hunks []*diff.Hunk) string {
	var b strings.Builder
	for _, h := range hunks {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)
		b.Write(h.Body)
		if len(h.Body) > 0 && h.Body[len(h.Body)-1] != '\n' {
			b.WriteString("\n")
		}
	}
	return b.String()
}
