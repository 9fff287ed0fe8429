package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dusk-indust/srcmap/internal/config"
	"github.com/dusk-indust/srcmap/internal/index"
	"github.com/dusk-indust/srcmap/internal/session"
)

func runSymbols(ctx context.Context, flags cliFlags, cfg *config.ProjectConfig, path string) error {
	sess, err := session.Open(ctx, flags.ProjectRoot, cfg, nil, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	if path != "" {
		sm, err := fileSymbols(ctx, sess, path, flags.Fresh)
		if err != nil {
			return err
		}
		return printSymbolMaps(flags.JSON, sm)
	}

	paths := sess.Index().Paths()
	sort.Strings(paths)

	var maps []index.SymbolMap
	for _, p := range paths {
		sm, ok := sess.Symbols(p)
		if !ok || len(sm.Symbols) == 0 {
			continue
		}
		maps = append(maps, sm)
	}
	return printSymbolMaps(flags.JSON, maps...)
}

func runQuery(ctx context.Context, flags cliFlags, cfg *config.ProjectConfig, query string) error {
	sess, err := session.Open(ctx, flags.ProjectRoot, cfg, nil, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	symbols := sess.Index().QuerySymbols(query, 50)
	if flags.JSON {
		return json.NewEncoder(os.Stdout).Encode(symbols)
	}
	for _, sym := range symbols {
		printSymbol(sym)
	}
	return nil
}

func runStats(ctx context.Context, flags cliFlags, cfg *config.ProjectConfig) error {
	sess, err := session.Open(ctx, flags.ProjectRoot, cfg, nil, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	stats := sess.Index().Stats()
	if flags.JSON {
		return json.NewEncoder(os.Stdout).Encode(stats)
	}
	fmt.Printf("files:   %d\nsymbols: %d\ndirty:   %d\n", stats.FileCount, stats.SymbolCount, stats.DirtyCount)
	return nil
}

func fileSymbols(ctx context.Context, sess *session.Session, path string, fresh bool) (index.SymbolMap, error) {
	if fresh {
		return sess.FreshSymbols(ctx, path)
	}
	sm, ok := sess.Symbols(path)
	if !ok {
		return index.SymbolMap{}, fmt.Errorf("%w: %s", index.ErrUntracked, path)
	}
	return sm, nil
}

func printSymbolMaps(asJSON bool, maps ...index.SymbolMap) error {
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(maps)
	}
	for _, sm := range maps {
		marker := ""
		if sm.Dirty {
			marker = " (stale)"
		}
		if sm.ParseErr {
			marker += " (syntax errors)"
		}
		fmt.Printf("%s%s\n", sm.Path, marker)
		for _, sym := range sm.Symbols {
			printSymbol(sym)
		}
	}
	return nil
}

func printSymbol(sym index.Symbol) {
	fmt.Printf("  %-9s %-30s %s:%d-%d\n", sym.Kind, sym.Name, sym.FilePath, sym.StartLine, sym.EndLine)
}
