package mcptools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/srcmap/internal/patch"
	"github.com/dusk-indust/srcmap/internal/session"
)

func newTestService(t *testing.T, files map[string]string) *Service {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	sess, err := session.Open(context.Background(), root, nil, nil, nil)
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return NewService(sess)
}

func TestQuerySymbols(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"a.py": "def fetch_user():\n    pass\n\nclass FetchQueue:\n    pass\n",
	})

	_, out, err := svc.QuerySymbols(context.Background(), nil, QuerySymbolsInput{Query: "fetch"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)

	// Kind filter applies before the limit.
	_, out, err = svc.QuerySymbols(context.Background(), nil, QuerySymbolsInput{
		Query: "fetch", Kind: "class", Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, out.Symbols, 1)
	assert.Equal(t, "FetchQueue", out.Symbols[0].Name)

	_, _, err = svc.QuerySymbols(context.Background(), nil, QuerySymbolsInput{})
	assert.Error(t, err, "missing query is rejected")
}

func TestFileSymbols(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"a.py": "def foo():\n    pass\n",
	})

	_, out, err := svc.FileSymbols(context.Background(), nil, FileSymbolsInput{Path: "a.py"})
	require.NoError(t, err)
	require.Len(t, out.Map.Symbols, 1)
	assert.Equal(t, "foo", out.Map.Symbols[0].Name)

	_, _, err = svc.FileSymbols(context.Background(), nil, FileSymbolsInput{Path: "ghost.py"})
	assert.Error(t, err)

	_, _, err = svc.FileSymbols(context.Background(), nil, FileSymbolsInput{})
	assert.Error(t, err)
}

func TestFileSymbols_Fresh(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"a.py": "def foo():\n    pass\n",
	})

	svc.sess.UpdateFile("a.py", "def foo():\n    pass\n\ndef bar():\n    pass\n")

	// Without fresh the map is stale and flagged dirty.
	_, out, err := svc.FileSymbols(context.Background(), nil, FileSymbolsInput{Path: "a.py"})
	require.NoError(t, err)
	assert.True(t, out.Map.Dirty)
	assert.Len(t, out.Map.Symbols, 1)

	_, out, err = svc.FileSymbols(context.Background(), nil, FileSymbolsInput{Path: "a.py", Fresh: true})
	require.NoError(t, err)
	assert.False(t, out.Map.Dirty)
	assert.Len(t, out.Map.Symbols, 2)
}

func TestProposeCommitRoundTrip(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"a.py": "def foo():\n    pass\n",
	})

	_, proposed, err := svc.ProposePatch(context.Background(), nil, ProposePatchInput{
		File:    "a.py",
		Search:  "    pass\n",
		Replace: "    return 1\n",
	})
	require.NoError(t, err)
	assert.Equal(t, patch.OutcomeApplied, proposed.Outcome)
	require.NotEmpty(t, proposed.ID)
	assert.NotEmpty(t, proposed.Diff)
	assert.NotEmpty(t, proposed.Unified)

	_, committed, err := svc.CommitPatch(context.Background(), nil, CommitPatchInput{ID: proposed.ID})
	require.NoError(t, err)
	assert.Equal(t, patch.OutcomeApplied, committed.Outcome)

	content, _ := svc.sess.Index().Content("a.py")
	assert.Equal(t, "def foo():\n    return 1\n", content)
}

func TestProposePatch_NotFoundHasNoID(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"a.py": "x = 1\n",
	})

	_, out, err := svc.ProposePatch(context.Background(), nil, ProposePatchInput{
		File: "a.py", Search: "missing", Replace: "y",
	})
	require.NoError(t, err)
	assert.Equal(t, patch.OutcomeNotFound, out.Outcome)
	assert.Empty(t, out.ID, "only staged patches get a committable id")
}

func TestRejectPatch(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"a.py": "def foo():\n    pass\n",
	})

	_, proposed, err := svc.ProposePatch(context.Background(), nil, ProposePatchInput{
		File: "a.py", Search: "    pass\n", Replace: "    return 1\n",
	})
	require.NoError(t, err)

	_, _, err = svc.RejectPatch(context.Background(), nil, RejectPatchInput{ID: proposed.ID})
	require.NoError(t, err)

	_, _, err = svc.CommitPatch(context.Background(), nil, CommitPatchInput{ID: proposed.ID})
	assert.ErrorIs(t, err, session.ErrNoPending)

	content, _ := svc.sess.Index().Content("a.py")
	assert.Equal(t, "def foo():\n    pass\n", content)
}

func TestApplyDiff(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"a.py": "def foo():\n    pass\n",
	})

	diffText := `--- a/a.py
+++ b/a.py
@@ -1,2 +1,2 @@
 def foo():
-    pass
+    return 1
`
	_, out, err := svc.ApplyDiff(context.Background(), nil, ApplyDiffInput{Diff: diffText})
	require.NoError(t, err)
	require.Len(t, out.Patches, 1)
	assert.Equal(t, []string{"a.py"}, out.Files)
	assert.Equal(t, patch.OutcomeApplied, out.Patches[0].Outcome)

	_, _, err = svc.ApplyDiff(context.Background(), nil, ApplyDiffInput{})
	assert.Error(t, err)
}

func TestPatchHistoryAndStats(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"a.py": "def foo():\n    pass\n",
		"b.rs": "pub fn run() {}\n",
	})

	_, proposed, err := svc.ProposePatch(context.Background(), nil, ProposePatchInput{
		File: "a.py", Search: "    pass\n", Replace: "    return 1\n",
	})
	require.NoError(t, err)
	_, _, err = svc.CommitPatch(context.Background(), nil, CommitPatchInput{ID: proposed.ID})
	require.NoError(t, err)

	_, hist, err := svc.PatchHistory(context.Background(), nil, PatchHistoryInput{})
	require.NoError(t, err)
	require.Len(t, hist.Records, 1)
	assert.Equal(t, patch.OutcomeApplied, hist.Records[0].Outcome)

	_, stats, err := svc.IndexStats(context.Background(), nil, IndexStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Stats.FileCount)
	assert.GreaterOrEqual(t, stats.Stats.SymbolCount, 2)
}