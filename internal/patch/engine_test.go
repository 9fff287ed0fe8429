package patch

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Apply(t *testing.T) {
	e := NewEngine()
	current := "def foo():\n    pass\n"

	res := e.Apply(context.Background(), Proposal{
		File:    "a.py",
		Search:  "    pass\n",
		Replace: "    return 1\n",
	}, current)

	require.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "def foo():\n    return 1\n", res.NewContent)
	assert.Equal(t, Span{Start: 11, End: 20}, res.Span)

	require.Equal(t, []Line{
		{Kind: LineContext, Text: "def foo():"},
		{Kind: LineRemoved, Text: "    pass"},
		{Kind: LineAdded, Text: "    return 1"},
	}, res.Diff)

	assert.Equal(t, "@@ -1,2 +1,2 @@\n def foo():\n-    pass\n+    return 1\n", res.Unified)
}

func TestEngine_Apply_NotFound(t *testing.T) {
	e := NewEngine()

	res := e.Apply(context.Background(), Proposal{
		File:   "a.py",
		Search: "does not exist",
	}, "x = 1\n")
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Empty(t, res.NewContent)
	assert.Empty(t, res.Diff)
}

func TestEngine_Apply_EmptySearch(t *testing.T) {
	e := NewEngine()
	res := e.Apply(context.Background(), Proposal{File: "a.py"}, "x = 1\n")
	assert.Equal(t, OutcomeNotFound, res.Outcome)
}

func TestEngine_Apply_Ambiguous(t *testing.T) {
	e := NewEngine()
	res := e.Apply(context.Background(), Proposal{
		File:    "a.py",
		Search:  "pass",
		Replace: "return 1",
	}, "def a():\n    pass\n\ndef b():\n    pass\n")
	assert.Equal(t, OutcomeAmbiguous, res.Outcome)
	assert.Empty(t, res.NewContent)
}

func TestEngine_Apply_EncodingError(t *testing.T) {
	e := NewEngine()

	res := e.Apply(context.Background(), Proposal{File: "a.py", Search: "x"}, "bad \xff bytes")
	assert.Equal(t, OutcomeEncodingError, res.Outcome)

	res = e.Apply(context.Background(), Proposal{File: "a.py", Search: "\xff"}, "x = 1\n")
	assert.Equal(t, OutcomeEncodingError, res.Outcome)
}

func TestEngine_Apply_CancelledContext(t *testing.T) {
	e := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := e.Apply(ctx, Proposal{File: "a.py", Search: "x = 1", Replace: "x = 2"}, "x = 1\n")
	assert.Equal(t, OutcomeTimeout, res.Outcome)
}

func TestEngine_Apply_Deletion(t *testing.T) {
	e := NewEngine()
	current := "a = 1\nb = 2\nc = 3\n"

	res := e.Apply(context.Background(), Proposal{
		File:   "a.py",
		Search: "b = 2\n",
	}, current)

	require.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "a = 1\nc = 3\n", res.NewContent)
	require.Equal(t, []Line{
		{Kind: LineContext, Text: "a = 1"},
		{Kind: LineRemoved, Text: "b = 2"},
		{Kind: LineContext, Text: "c = 3"},
	}, res.Diff)
}

func TestEngine_Apply_ContextBounded(t *testing.T) {
	// The diff covers only the changed lines plus ContextLines on each side,
	// regardless of file length.
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("line\n")
	}
	b.WriteString("target\n")
	for i := 0; i < 20; i++ {
		b.WriteString("line\n")
	}

	e := NewEngine()
	res := e.Apply(context.Background(), Proposal{
		File:    "a.py",
		Search:  "target\n",
		Replace: "changed\n",
	}, b.String())

	require.Equal(t, OutcomeApplied, res.Outcome)
	assert.Len(t, res.Diff, 2+2*e.ContextLines, "one removed, one added, three context each side")
	assert.True(t, strings.HasPrefix(res.Unified, "@@ -18,7 +18,7 @@\n"), res.Unified)
}

func TestEngine_Apply_ReplacementAddsNewline(t *testing.T) {
	// The replacement ends with a newline the search text lacked, so the rest
	// of the original line moves onto a new line of its own.
	e := NewEngine()

	res := e.Apply(context.Background(), Proposal{
		File:    "a.txt",
		Search:  "hello ",
		Replace: "HI\n",
	}, "hello world\n")

	require.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "HI\nworld\n", res.NewContent)
	require.Equal(t, []Line{
		{Kind: LineRemoved, Text: "hello world"},
		{Kind: LineAdded, Text: "HI"},
		{Kind: LineAdded, Text: "world"},
	}, res.Diff)
}

func TestEngine_Apply_ReplacementDropsNewline(t *testing.T) {
	// The search text ends with a newline the replacement lacks, merging the
	// following line into the replaced one.
	e := NewEngine()

	res := e.Apply(context.Background(), Proposal{
		File:    "a.txt",
		Search:  "b\n",
		Replace: "B",
	}, "a\nb\nc\n")

	require.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "a\nBc\n", res.NewContent)
	require.Equal(t, []Line{
		{Kind: LineContext, Text: "a"},
		{Kind: LineRemoved, Text: "b"},
		{Kind: LineRemoved, Text: "c"},
		{Kind: LineAdded, Text: "Bc"},
	}, res.Diff)
}

func TestEngine_Apply_DiffReconstructsBothVersions(t *testing.T) {
	// With enough context to cover the whole file, context+removed lines must
	// reconstruct the old content and context+added lines the new content,
	// whatever the edit boundaries do to line structure.
	e := NewEngine()
	e.ContextLines = 100

	content := "a\nb\nc\nd\n"
	proposals := []Proposal{
		{File: "f", Search: "b\n", Replace: "B\n"},
		{File: "f", Search: "b", Replace: "x\ny"},
		{File: "f", Search: "b\nc\n", Replace: ""},
		{File: "f", Search: "b\n", Replace: "B"},
		{File: "f", Search: "c", Replace: "c\nc2"},
		{File: "f", Search: "d\n", Replace: ""},
		{File: "f", Search: "a\n", Replace: ""},
		{File: "f", Search: "\nc", Replace: "+"},
	}

	for _, p := range proposals {
		res := e.Apply(context.Background(), p, content)
		require.Equal(t, OutcomeApplied, res.Outcome, "search %q", p.Search)

		var oldSide, newSide []string
		for _, l := range res.Diff {
			if l.Kind != LineAdded {
				oldSide = append(oldSide, l.Text)
			}
			if l.Kind != LineRemoved {
				newSide = append(newSide, l.Text)
			}
		}
		wantOld, _ := splitLines(content)
		wantNew, _ := splitLines(res.NewContent)
		assert.Equal(t, wantOld, oldSide, "old side for search %q", p.Search)
		assert.Equal(t, wantNew, newSide, "new side for search %q", p.Search)
	}
}

func TestEngine_Apply_MultilineBlock(t *testing.T) {
	e := NewEngine()
	current := "def f():\n    a = 1\n    b = 2\n    return a + b\n"

	res := e.Apply(context.Background(), Proposal{
		File:    "a.py",
		Search:  "    a = 1\n    b = 2\n",
		Replace: "    total = 3\n",
	}, current)

	require.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "def f():\n    total = 3\n    return a + b\n", res.NewContent)

	// Applying the proposal's inverse restores the original byte-for-byte.
	back := e.Apply(context.Background(), Proposal{
		File:    "a.py",
		Search:  "    total = 3\n",
		Replace: "    a = 1\n    b = 2\n",
	}, res.NewContent)
	require.Equal(t, OutcomeApplied, back.Outcome)
	assert.Equal(t, current, back.NewContent)
}
