package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for rel, data := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, data, 0o644))
	}
}

func TestWalkLister(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"main.py":             []byte("x = 1\n"),
		"pkg/util.rs":         []byte("pub fn f() {}\n"),
		".git/config":         []byte("[core]\n"),
		"node_modules/dep.ts": []byte("export const x = 1;\n"),
		"README.md":           []byte("# hi\n"),
	})

	lister := &WalkLister{ExcludeDirs: []string{"node_modules"}}
	paths, err := lister.List(root)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"main.py", "pkg/util.rs", "README.md"}, paths)
}

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"a.py":      []byte("def foo():\n    pass\n"),
		"b.rs":      []byte("pub fn run() {}\n"),
		"blob.bin":  {0x00, 0xff, 0xfe, 0x01},
		"README.md": []byte("plain text\n"),
	})

	idx := NewSourceIndex(NewRegistry())
	loader := NewLoader(idx, nil)

	lister := &WalkLister{}
	paths, err := lister.List(root)
	require.NoError(t, err)
	require.NoError(t, loader.Load(context.Background(), root, paths))

	// Parsed source files are clean with symbols.
	sm, ok := idx.Symbols("a.py")
	require.True(t, ok)
	assert.False(t, sm.Dirty)
	require.NotNil(t, findSymbol(sm.Symbols, "foo"))

	sm, ok = idx.Symbols("b.rs")
	require.True(t, ok)
	require.NotNil(t, findSymbol(sm.Symbols, "run"))

	// Text without a grammar is tracked, symbol-free.
	sm, ok = idx.Symbols("README.md")
	require.True(t, ok)
	assert.False(t, sm.Dirty)
	assert.Empty(t, sm.Symbols)

	// Binary files are skipped entirely.
	_, ok = idx.Symbols("blob.bin")
	assert.False(t, ok)
}

func TestLoader_SkipsOversized(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"big.py":   []byte("x = 1\n" + string(make([]byte, 64))),
		"small.py": []byte("y = 2\n"),
	})

	idx := NewSourceIndex(NewRegistry())
	loader := NewLoader(idx, nil)
	loader.MaxFileBytes = 32

	require.NoError(t, loader.Load(context.Background(), root, []string{"big.py", "small.py"}))

	_, ok := idx.Symbols("big.py")
	assert.False(t, ok)
	_, ok = idx.Symbols("small.py")
	assert.True(t, ok)
}
