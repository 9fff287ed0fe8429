package index

import (
	"context"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// extractor extracts symbols from a parsed tree-sitter AST.
type extractor interface {
	Extract(root *tree_sitter.Node, source []byte, filePath string) []Symbol
}

// treeSitterGrammar implements Grammar for one language. A new tree-sitter
// parser is created per Parse call, so a grammar may be shared across files
// but individual Parse calls are not re-entrant.
type treeSitterGrammar struct {
	lang   Language
	tsLang *tree_sitter.Language
	ext    extractor
}

// newTreeSitterGrammars builds one grammar per indexed language.
func newTreeSitterGrammars() []Grammar {
	return []Grammar{
		&treeSitterGrammar{
			lang:   LangPython,
			tsLang: tree_sitter.NewLanguage(tree_sitter_python.Language()),
			ext:    &pyExtractor{},
		},
		&treeSitterGrammar{
			lang:   LangRust,
			tsLang: tree_sitter.NewLanguage(tree_sitter_rust.Language()),
			ext:    &rsExtractor{},
		},
		&treeSitterGrammar{
			lang:   LangTypeScript,
			tsLang: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			ext:    &tsExtractor{},
		},
		&treeSitterGrammar{
			lang:   LangGo,
			tsLang: tree_sitter.NewLanguage(tree_sitter_go.Language()),
			ext:    &goExtractor{},
		},
	}
}

// Language returns the language this grammar parses.
func (g *treeSitterGrammar) Language() Language {
	return g.lang
}

// Parse extracts symbols from a single source file. Syntax errors do not
// fail the call: tree-sitter's error recovery yields a tree for the portions
// it could parse, and HadErrors marks the result as partial.
func (g *treeSitterGrammar) Parse(ctx context.Context, path string, source []byte) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(g.tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", g.lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := tree.RootNode()
	symbols := g.ext.Extract(root, source, path)

	return &ParseResult{
		Symbols:   normalizeSymbols(symbols),
		HadErrors: root.HasError(),
	}, nil
}

// symbolAt builds a Symbol from a tree-sitter node, spanning the full node.
func symbolAt(node *tree_sitter.Node, name string, kind SymbolKind, exported bool, filePath string) Symbol {
	return Symbol{
		Name:      name,
		Kind:      kind,
		Exported:  exported,
		FilePath:  filePath,
		StartByte: int(node.StartByte()),
		EndByte:   int(node.EndByte()),
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
	}
}

// headerSymbolAt builds a Symbol covering only a container's declaration
// header, from the node start up to (not including) its body. Container
// symbols use header spans so the methods extracted inside the body never
// overlap them.
func headerSymbolAt(node, body *tree_sitter.Node, name string, kind SymbolKind, exported bool, filePath string) Symbol {
	sym := symbolAt(node, name, kind, exported, filePath)
	if body != nil && int(body.StartByte()) > sym.StartByte {
		sym.EndByte = int(body.StartByte())
		sym.EndLine = int(body.StartPosition().Row) + 1
	}
	return sym
}
