package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the source-map tools registered.
func NewServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "srcmap",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_symbols",
		Description: "Search for symbols (functions, classes, types, etc.) by name substring match across all tracked files. Optionally filter by symbol kind and limit results.",
	}, svc.QuerySymbols)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "file_symbols",
		Description: "Return the symbol map of one tracked file, annotated with a dirty flag when the content changed since the last parse. Set fresh to force a reparse first.",
	}, svc.FileSymbols)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "propose_patch",
		Description: "Stage a search/replace edit against a tracked file and return its diff for review. The search text must match exactly one location; ambiguous or absent matches are rejected. Nothing is written until commit_patch.",
	}, svc.ProposePatch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_diff",
		Description: "Stage a unified diff as pending patches, one per target file. Hunk context is verified against current content; mismatches reject the file's hunks.",
	}, svc.ApplyDiff)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "commit_patch",
		Description: "Apply a staged patch: verify the file is unchanged since the diff was computed, write the new content to disk and update the index.",
	}, svc.CommitPatch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reject_patch",
		Description: "Discard a staged patch without applying it.",
	}, svc.RejectPatch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "patch_history",
		Description: "Return the session's patch log: every proposed edit with its outcome (applied, rejected, conflict, ...).",
	}, svc.PatchHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Return file, symbol and dirty-file counts for the tracked project.",
	}, svc.IndexStats)

	return server
}

// RunServer starts an HTTP server exposing the MCP tools on addr.
func RunServer(ctx context.Context, svc *Service, addr string) error {
	server := NewServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
