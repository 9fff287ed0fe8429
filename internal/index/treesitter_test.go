package index

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// findSymbol returns the first Symbol whose Name matches, or nil.
func findSymbol(symbols []Symbol, name string) *Symbol {
	for i := range symbols {
		if symbols[i].Name == name {
			return &symbols[i]
		}
	}
	return nil
}

// readFixture reads a test fixture file relative to the project root.
// Tests run from internal/index/, so the relative path is ../../testdata/...
func readFixture(t *testing.T, relPath string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../" + relPath)
	require.NoError(t, err, "reading fixture %s", relPath)
	return data
}

// parseFixture parses a fixture through the registry's grammar for its path.
func parseFixture(t *testing.T, reg *Registry, path string, source []byte) *ParseResult {
	t.Helper()
	g := reg.Resolve(path)
	require.NotNil(t, g, "grammar for %s", path)
	res, err := g.Parse(context.Background(), path, source)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

// assertSpans checks that symbol spans are ordered, non-overlapping and
// contained within the source length.
func assertSpans(t *testing.T, symbols []Symbol, sourceLen int) {
	t.Helper()
	prevEnd := 0
	for _, sym := range symbols {
		assert.GreaterOrEqual(t, sym.StartByte, prevEnd, "span of %s overlaps its predecessor", sym.Name)
		assert.Less(t, sym.StartByte, sym.EndByte, "span of %s is empty", sym.Name)
		assert.LessOrEqual(t, sym.EndByte, sourceLen, "span of %s exceeds source", sym.Name)
		assert.Greater(t, sym.StartLine, 0, "StartLine of %s", sym.Name)
		assert.LessOrEqual(t, sym.StartLine, sym.EndLine, "line range of %s", sym.Name)
		prevEnd = sym.EndByte
	}
}

func expectKind(t *testing.T, symbols []Symbol, name string, kind SymbolKind, exported bool) *Symbol {
	t.Helper()
	sym := findSymbol(symbols, name)
	require.NotNil(t, sym, "symbol %s should exist", name)
	assert.Equal(t, kind, sym.Kind, "kind of %s", name)
	assert.Equal(t, exported, sym.Exported, "exported flag of %s", name)
	return sym
}

// ---------------------------------------------------------------------------
// Python
// ---------------------------------------------------------------------------

func TestExtractor_Python(t *testing.T) {
	reg := NewRegistry()
	src := readFixture(t, "testdata/fixtures/sample.py")
	res := parseFixture(t, reg, "sample.py", src)

	assert.False(t, res.HadErrors)
	assertSpans(t, res.Symbols, len(src))

	expectKind(t, res.Symbols, "MAX_RETRIES", SymbolKindConstant, true)
	expectKind(t, res.Symbols, "top_level", SymbolKindFunction, true)
	expectKind(t, res.Symbols, "Greeter", SymbolKindClass, true)
	expectKind(t, res.Symbols, "__init__", SymbolKindMethod, false)
	expectKind(t, res.Symbols, "greet", SymbolKindMethod, true)
	expectKind(t, res.Symbols, "_private_helper", SymbolKindFunction, false)

	// Nested functions and lowercase module assignments are not symbols.
	assert.Nil(t, findSymbol(res.Symbols, "inner"))
	assert.Nil(t, findSymbol(res.Symbols, "_fallback_limit"))

	// The class span covers only the declaration header, so its methods
	// sit outside it.
	greeter := findSymbol(res.Symbols, "Greeter")
	init := findSymbol(res.Symbols, "__init__")
	assert.GreaterOrEqual(t, init.StartByte, greeter.EndByte)
}

func TestExtractor_Python_SyntaxErrors(t *testing.T) {
	reg := NewRegistry()
	src := readFixture(t, "testdata/fixtures/broken.py")
	res := parseFixture(t, reg, "broken.py", src)

	assert.True(t, res.HadErrors, "broken fixture should flag parse errors")
	require.NotNil(t, findSymbol(res.Symbols, "good"), "symbols before the error survive")
}

// ---------------------------------------------------------------------------
// Rust
// ---------------------------------------------------------------------------

func TestExtractor_Rust(t *testing.T) {
	reg := NewRegistry()
	src := readFixture(t, "testdata/fixtures/sample.rs")
	res := parseFixture(t, reg, "sample.rs", src)

	assert.False(t, res.HadErrors)
	assertSpans(t, res.Symbols, len(src))

	expectKind(t, res.Symbols, "MAX_DEPTH", SymbolKindConstant, true)
	expectKind(t, res.Symbols, "Tracker", SymbolKindType, true)
	expectKind(t, res.Symbols, "Countable", SymbolKindInterface, true)
	expectKind(t, res.Symbols, "new", SymbolKindMethod, true)
	expectKind(t, res.Symbols, "bump", SymbolKindMethod, false)
	expectKind(t, res.Symbols, "Mode", SymbolKindEnum, true)
	expectKind(t, res.Symbols, "run", SymbolKindFunction, true)
	expectKind(t, res.Symbols, "Alias", SymbolKindType, false)

	// Trait members are not extracted.
	assert.Nil(t, findSymbol(res.Symbols, "count"))
}

// ---------------------------------------------------------------------------
// TypeScript
// ---------------------------------------------------------------------------

func TestExtractor_TypeScript(t *testing.T) {
	reg := NewRegistry()
	src := readFixture(t, "testdata/fixtures/sample.ts")
	res := parseFixture(t, reg, "sample.ts", src)

	assert.False(t, res.HadErrors)
	assertSpans(t, res.Symbols, len(src))

	expectKind(t, res.Symbols, "DEFAULT_LIMIT", SymbolKindConstant, true)
	expectKind(t, res.Symbols, "Store", SymbolKindInterface, true)
	expectKind(t, res.Symbols, "Entry", SymbolKindType, true)
	expectKind(t, res.Symbols, "Level", SymbolKindEnum, true)
	expectKind(t, res.Symbols, "MemoryStore", SymbolKindClass, true)
	expectKind(t, res.Symbols, "get", SymbolKindMethod, true)
	expectKind(t, res.Symbols, "set", SymbolKindMethod, true)
	expectKind(t, res.Symbols, "makeStore", SymbolKindFunction, true)
	expectKind(t, res.Symbols, "toUpper", SymbolKindFunction, false)
}

// ---------------------------------------------------------------------------
// Go
// ---------------------------------------------------------------------------

func TestExtractor_Go(t *testing.T) {
	reg := NewRegistry()
	src := readFixture(t, "testdata/fixtures/sample.go")
	res := parseFixture(t, reg, "sample.go", src)

	assert.False(t, res.HadErrors)
	assertSpans(t, res.Symbols, len(src))

	expectKind(t, res.Symbols, "maxItems", SymbolKindConstant, false)
	expectKind(t, res.Symbols, "Item", SymbolKindType, true)
	expectKind(t, res.Symbols, "Store", SymbolKindInterface, true)
	expectKind(t, res.Symbols, "memStore", SymbolKindType, false)
	expectKind(t, res.Symbols, "Get", SymbolKindMethod, true)
	expectKind(t, res.Symbols, "NewStore", SymbolKindFunction, true)
}
