package index

import (
	"context"
	"path/filepath"
	"strings"
)

// ParseResult holds the symbols extracted from a single file.
type ParseResult struct {
	Symbols []Symbol

	// HadErrors reports that the source contained syntax errors and the
	// symbols are a best-effort extraction from the recovered parse tree.
	HadErrors bool
}

// Grammar pairs a language parser with its symbol-extraction rules.
// Implementations: treeSitterGrammar (production), stub grammars in tests.
type Grammar interface {
	// Language returns the language this grammar parses.
	Language() Language

	// Parse extracts symbols from source. Malformed source does not fail
	// the call: symbols from the recovered tree are returned with
	// HadErrors set. Parse honors ctx cancellation between phases.
	Parse(ctx context.Context, path string, source []byte) (*ParseResult, error)
}

// extByLanguage maps file extensions to languages. Resolution is static:
// anything not listed here is LangUnknown and excluded from indexing.
var extByLanguage = map[string]Language{
	".py":  LangPython,
	".rs":  LangRust,
	".ts":  LangTypeScript,
	".tsx": LangTypeScript,
	".go":  LangGo,
}

// LanguageForPath returns the language for a file path by extension.
func LanguageForPath(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extByLanguage[ext]; ok {
		return lang
	}
	return LangUnknown
}

// Registry resolves file paths to grammars by extension.
type Registry struct {
	grammars map[Language]Grammar
}

// NewRegistry returns a Registry with tree-sitter grammars registered for
// every indexed language.
func NewRegistry() *Registry {
	r := &Registry{grammars: make(map[Language]Grammar, len(IndexedLanguages))}
	for _, g := range newTreeSitterGrammars() {
		r.grammars[g.Language()] = g
	}
	return r
}

// Register adds or replaces the grammar for a language.
func (r *Registry) Register(g Grammar) {
	r.grammars[g.Language()] = g
}

// Resolve returns the grammar for a file path, or nil when the extension is
// unrecognized. Files without a grammar are tracked but never parsed.
func (r *Registry) Resolve(path string) Grammar {
	lang := LanguageForPath(path)
	if lang == LangUnknown {
		return nil
	}
	return r.grammars[lang]
}
