package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageForPath(t *testing.T) {
	cases := []struct {
		path string
		want Language
	}{
		{"main.py", LangPython},
		{"src/lib.rs", LangRust},
		{"app/index.ts", LangTypeScript},
		{"app/widget.tsx", LangTypeScript},
		{"cmd/main.go", LangGo},
		{"README.md", LangUnknown},
		{"Makefile", LangUnknown},
		{"archive.PY", LangPython}, // extension match is case-insensitive
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LanguageForPath(tc.path), tc.path)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry()

	for _, path := range []string{"a.py", "b.rs", "c.ts", "d.tsx", "e.go"} {
		g := reg.Resolve(path)
		require.NotNil(t, g, "grammar for %s", path)
		assert.Equal(t, LanguageForPath(path), g.Language())
	}

	assert.Nil(t, reg.Resolve("notes.txt"))
	assert.Nil(t, reg.Resolve("noextension"))
}

// stubGrammar is a test grammar that records how many times Parse ran and
// returns a canned result.
type stubGrammar struct {
	lang   Language
	parses chan string
	result ParseResult
	err    error
}

func (g *stubGrammar) Language() Language { return g.lang }

func (g *stubGrammar) Parse(_ context.Context, path string, _ []byte) (*ParseResult, error) {
	if g.parses != nil {
		g.parses <- path
	}
	if g.err != nil {
		return nil, g.err
	}
	out := g.result
	return &out, nil
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	reg := NewRegistry()
	stub := &stubGrammar{lang: LangPython}
	reg.Register(stub)

	g := reg.Resolve("a.py")
	require.NotNil(t, g)
	assert.Same(t, Grammar(stub), g)

	// Other languages keep their original grammars.
	assert.NotNil(t, reg.Resolve("b.rs"))
}
