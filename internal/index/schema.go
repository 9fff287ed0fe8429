package index

import "sort"

// --- Enums ---

// Language identifies a programming language for parsing.
type Language string

const (
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangTypeScript Language = "typescript"
	LangGo         Language = "go"
	LangUnknown    Language = "unknown"
)

// IndexedLanguages are languages with grammar support; files in any other
// language are tracked for file-set purposes but excluded from symbol
// extraction.
var IndexedLanguages = []Language{LangPython, LangRust, LangTypeScript, LangGo}

// SymbolKind classifies symbols extracted from source files. Per-language
// constructs (Rust traits, TS interfaces, impl blocks, etc.) are normalized
// into this shared set by the extractors.
type SymbolKind string

const (
	SymbolKindFunction  SymbolKind = "function"
	SymbolKindClass     SymbolKind = "class"
	SymbolKindType      SymbolKind = "type"
	SymbolKindEnum      SymbolKind = "enum"
	SymbolKindInterface SymbolKind = "interface"
	SymbolKindConstant  SymbolKind = "constant"
	SymbolKindMethod    SymbolKind = "method"
)

// --- Models ---

// Symbol is a named code construct located in a tracked file. Byte offsets
// are half-open [StartByte, EndByte); lines are 1-based and inclusive.
type Symbol struct {
	Name      string     `json:"name"`
	Kind      SymbolKind `json:"kind"`
	Exported  bool       `json:"exported"`
	FilePath  string     `json:"filePath"`
	StartByte int        `json:"startByte"`
	EndByte   int        `json:"endByte"`
	StartLine int        `json:"startLine"`
	EndLine   int        `json:"endLine"`
}

// SymbolMap is the result of the last successful parse of one file, annotated
// with staleness. Dirty means the stored content has changed since Symbols
// was computed; callers decide whether to accept stale data or wait.
type SymbolMap struct {
	Path     string   `json:"path"`
	Language Language `json:"language"`
	Symbols  []Symbol `json:"symbols"`
	Dirty    bool     `json:"dirty"`
	ParseErr bool     `json:"parseErr"` // last parse recovered from syntax errors
}

// IndexStats summarizes the state of a SourceIndex.
type IndexStats struct {
	FileCount   int `json:"fileCount"`
	SymbolCount int `json:"symbolCount"`
	DirtyCount  int `json:"dirtyCount"`
}

// normalizeSymbols sorts symbols by start offset and drops any symbol whose
// span overlaps its predecessor, so a file's map never contains overlapping
// spans. Extractors already emit non-overlapping spans (container symbols
// cover only their declaration header); this is the enforcement point.
func normalizeSymbols(symbols []Symbol) []Symbol {
	if len(symbols) < 2 {
		return symbols
	}
	sort.SliceStable(symbols, func(i, j int) bool {
		if symbols[i].StartByte != symbols[j].StartByte {
			return symbols[i].StartByte < symbols[j].StartByte
		}
		return symbols[i].EndByte < symbols[j].EndByte
	})
	out := symbols[:1]
	for _, s := range symbols[1:] {
		prev := out[len(out)-1]
		if s.StartByte < prev.EndByte {
			continue
		}
		out = append(out, s)
	}
	return out
}
