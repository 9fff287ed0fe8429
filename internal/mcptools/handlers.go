package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/srcmap/internal/index"
	"github.com/dusk-indust/srcmap/internal/patch"
	"github.com/dusk-indust/srcmap/internal/session"
)

// Service exposes one session's symbol queries and patch review flow as MCP
// tool handlers. Approval stays with the caller: propose_patch stages a diff
// and nothing changes until commit_patch.
type Service struct {
	sess *session.Session
}

// NewService creates a Service backed by sess.
func NewService(sess *session.Session) *Service {
	return &Service{sess: sess}
}

// QuerySymbols searches symbol names across all tracked files.
func (s *Service) QuerySymbols(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input QuerySymbolsInput,
) (*mcp.CallToolResult, QuerySymbolsOutput, error) {
	if input.Query == "" {
		return nil, QuerySymbolsOutput{}, fmt.Errorf("query is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	// Over-fetch when filtering by kind so the limit applies post-filter.
	fetch := limit
	if input.Kind != "" {
		fetch = 0
	}
	symbols := s.sess.Index().QuerySymbols(input.Query, fetch)

	if input.Kind != "" {
		kind := index.SymbolKind(input.Kind)
		filtered := symbols[:0]
		for _, sym := range symbols {
			if sym.Kind == kind {
				filtered = append(filtered, sym)
			}
		}
		symbols = filtered
		if len(symbols) > limit {
			symbols = symbols[:limit]
		}
	}

	return nil, QuerySymbolsOutput{Symbols: symbols, Total: len(symbols)}, nil
}

// FileSymbols returns one file's symbol map, optionally forcing a reparse.
func (s *Service) FileSymbols(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FileSymbolsInput,
) (*mcp.CallToolResult, FileSymbolsOutput, error) {
	if input.Path == "" {
		return nil, FileSymbolsOutput{}, fmt.Errorf("path is required")
	}

	if input.Fresh {
		sm, err := s.sess.FreshSymbols(ctx, input.Path)
		if err != nil {
			return nil, FileSymbolsOutput{}, err
		}
		return nil, FileSymbolsOutput{Map: sm}, nil
	}

	sm, ok := s.sess.Symbols(input.Path)
	if !ok {
		return nil, FileSymbolsOutput{}, fmt.Errorf("%w: %s", index.ErrUntracked, input.Path)
	}
	return nil, FileSymbolsOutput{Map: sm}, nil
}

// ProposePatch stages a search/replace block against the current content.
func (s *Service) ProposePatch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProposePatchInput,
) (*mcp.CallToolResult, ProposePatchOutput, error) {
	if input.File == "" {
		return nil, ProposePatchOutput{}, fmt.Errorf("file is required")
	}

	pp, err := s.sess.Propose(ctx, patch.Proposal{
		File:    input.File,
		Search:  input.Search,
		Replace: input.Replace,
	})
	if err != nil {
		return nil, ProposePatchOutput{}, err
	}
	return nil, pendingOutput(pp), nil
}

// ApplyDiff stages a unified diff as one pending patch per target file.
func (s *Service) ApplyDiff(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ApplyDiffInput,
) (*mcp.CallToolResult, ApplyDiffOutput, error) {
	if input.Diff == "" {
		return nil, ApplyDiffOutput{}, fmt.Errorf("diff is required")
	}

	patches, err := s.sess.ProposeUnified(ctx, []byte(input.Diff))
	if err != nil {
		return nil, ApplyDiffOutput{}, err
	}

	var out ApplyDiffOutput
	for _, pp := range patches {
		out.Patches = append(out.Patches, pendingOutput(pp))
		out.Files = append(out.Files, pp.Proposal.File)
	}
	return nil, out, nil
}

// CommitPatch applies a previously staged patch.
func (s *Service) CommitPatch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CommitPatchInput,
) (*mcp.CallToolResult, CommitPatchOutput, error) {
	if input.ID == "" {
		return nil, CommitPatchOutput{}, fmt.Errorf("id is required")
	}
	outcome, err := s.sess.Commit(ctx, input.ID)
	if err != nil {
		return nil, CommitPatchOutput{}, err
	}
	return nil, CommitPatchOutput{Outcome: outcome}, nil
}

// RejectPatch discards a previously staged patch.
func (s *Service) RejectPatch(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input RejectPatchInput,
) (*mcp.CallToolResult, RejectPatchOutput, error) {
	if input.ID == "" {
		return nil, RejectPatchOutput{}, fmt.Errorf("id is required")
	}
	if err := s.sess.Reject(input.ID); err != nil {
		return nil, RejectPatchOutput{}, err
	}
	return nil, RejectPatchOutput{}, nil
}

// PatchHistory returns the session's patch log.
func (s *Service) PatchHistory(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ PatchHistoryInput,
) (*mcp.CallToolResult, PatchHistoryOutput, error) {
	return nil, PatchHistoryOutput{Records: s.sess.History()}, nil
}

// IndexStats returns counts over the tracked file set.
func (s *Service) IndexStats(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatsInput,
) (*mcp.CallToolResult, IndexStatsOutput, error) {
	return nil, IndexStatsOutput{Stats: s.sess.Index().Stats()}, nil
}

// pendingOutput flattens a pending patch into the tool output shape. The id
// is only meaningful for patches that are actually staged.
func pendingOutput(pp *session.PendingPatch) ProposePatchOutput {
	out := ProposePatchOutput{
		Outcome: pp.Result.Outcome,
		Diff:    pp.Result.Diff,
		Unified: pp.Result.Unified,
	}
	if pp.Result.Outcome == patch.OutcomeApplied {
		out.ID = pp.ID
	}
	return out
}
