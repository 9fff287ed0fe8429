package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dusk-indust/srcmap/internal/config"
	"github.com/dusk-indust/srcmap/internal/mcptools"
	"github.com/dusk-indust/srcmap/internal/session"
	"github.com/dusk-indust/srcmap/internal/watch"
)

func runWatch(ctx context.Context, flags cliFlags, cfg *config.ProjectConfig) error {
	sess, err := session.Open(ctx, flags.ProjectRoot, cfg, nil, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	w := watch.New(sess, cfg.ExcludeDirs, nil)
	w.MaxFileBytes = cfg.MaxFileBytes

	fmt.Printf("watching %s (interrupt to stop)\n", sess.Root())
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	stats := sess.Index().Stats()
	fmt.Printf("final index: %d files, %d symbols\n", stats.FileCount, stats.SymbolCount)
	return nil
}

func runServe(ctx context.Context, flags cliFlags, cfg *config.ProjectConfig) error {
	sess, err := session.Open(ctx, flags.ProjectRoot, cfg, nil, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	// Keep the index fresh while serving so symbol queries track the
	// working tree.
	w := watch.New(sess, cfg.ExcludeDirs, nil)
	w.MaxFileBytes = cfg.MaxFileBytes
	go w.Run(ctx)

	fmt.Printf("serving MCP tools on %s for %s\n", flags.Addr, sess.Root())
	return mcptools.RunServer(ctx, mcptools.NewService(sess), flags.Addr)
}
