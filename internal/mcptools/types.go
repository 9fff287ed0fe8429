package mcptools

import (
	"github.com/dusk-indust/srcmap/internal/index"
	"github.com/dusk-indust/srcmap/internal/patch"
	"github.com/dusk-indust/srcmap/internal/session"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// QuerySymbolsInput is the input for the query_symbols MCP tool.
type QuerySymbolsInput struct {
	Query string `json:"query" jsonschema:"search query for symbol names (substring match)"`
	Kind  string `json:"kind,omitempty" jsonschema:"filter by symbol kind: function, class, type, enum, interface, constant, method"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QuerySymbolsOutput is the result of the query_symbols MCP tool.
type QuerySymbolsOutput struct {
	Symbols []index.Symbol `json:"symbols"`
	Total   int            `json:"total"`
}

// FileSymbolsInput is the input for the file_symbols MCP tool.
type FileSymbolsInput struct {
	Path  string `json:"path" jsonschema:"project-relative path of the file"`
	Fresh bool   `json:"fresh,omitempty" jsonschema:"force a reparse instead of returning possibly stale symbols"`
}

// FileSymbolsOutput is the result of the file_symbols MCP tool.
type FileSymbolsOutput struct {
	Map index.SymbolMap `json:"map"`
}

// ProposePatchInput is the input for the propose_patch MCP tool.
type ProposePatchInput struct {
	File    string `json:"file" jsonschema:"project-relative path of the target file"`
	Search  string `json:"search" jsonschema:"the exact text to find; must match exactly one location"`
	Replace string `json:"replace" jsonschema:"the replacement text"`
}

// ProposePatchOutput is the result of the propose_patch MCP tool.
type ProposePatchOutput struct {
	ID      string        `json:"id,omitempty"`
	Outcome patch.Outcome `json:"outcome"`
	Diff    []patch.Line  `json:"diff,omitempty"`
	Unified string        `json:"unified,omitempty"`
}

// ApplyDiffInput is the input for the apply_diff MCP tool.
type ApplyDiffInput struct {
	Diff string `json:"diff" jsonschema:"a unified diff; one pending patch is staged per target file"`
}

// ApplyDiffOutput is the result of the apply_diff MCP tool.
type ApplyDiffOutput struct {
	Patches []ProposePatchOutput `json:"patches"`
	Files   []string             `json:"files"`
}

// CommitPatchInput is the input for the commit_patch MCP tool.
type CommitPatchInput struct {
	ID string `json:"id" jsonschema:"id of the pending patch to commit"`
}

// CommitPatchOutput is the result of the commit_patch MCP tool.
type CommitPatchOutput struct {
	Outcome patch.Outcome `json:"outcome"`
}

// RejectPatchInput is the input for the reject_patch MCP tool.
type RejectPatchInput struct {
	ID string `json:"id" jsonschema:"id of the pending patch to discard"`
}

// RejectPatchOutput is the result of the reject_patch MCP tool.
type RejectPatchOutput struct{}

// PatchHistoryInput is the input for the patch_history MCP tool.
type PatchHistoryInput struct{}

// PatchHistoryOutput is the result of the patch_history MCP tool.
type PatchHistoryOutput struct {
	Records []session.Record `json:"records"`
}

// IndexStatsInput is the input for the index_stats MCP tool.
type IndexStatsInput struct{}

// IndexStatsOutput is the result of the index_stats MCP tool.
type IndexStatsOutput struct {
	Stats index.IndexStats `json:"stats"`
}
