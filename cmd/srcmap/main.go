package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/dusk-indust/srcmap/internal/config"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ProjectRoot string
	JSON        bool
	Yes         bool
	Fresh       bool
	Addr        string
	Verbose     bool
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: srcmap [flags] <command> [args]

commands:
  symbols [path]        print the symbol map (whole project or one file)
  query <substring>     search symbol names across the project
  apply <block-file>    stage a search/replace block or unified diff ("-" for stdin)
  watch                 keep the index fresh while files change on disk
  serve                 expose the index and patch tools over MCP
  stats                 print index statistics
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("srcmap", flag.ContinueOnError)
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "path to the target project")
	fs.BoolVar(&flags.JSON, "json", false, "print machine-readable JSON output")
	fs.BoolVar(&flags.Yes, "yes", false, "commit staged patches without prompting")
	fs.BoolVar(&flags.Fresh, "fresh", false, "force a reparse before printing symbols")
	fs.StringVar(&flags.Addr, "addr", "127.0.0.1:8123", "listen address for the MCP server")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.ProjectRoot)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelWarn
	if flags.Verbose || cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch fs.Arg(0) {
	case "symbols":
		return runSymbols(ctx, flags, cfg, fs.Arg(1))
	case "query":
		if fs.Arg(1) == "" {
			return fmt.Errorf("query requires a search string")
		}
		return runQuery(ctx, flags, cfg, fs.Arg(1))
	case "apply":
		if fs.Arg(1) == "" {
			return fmt.Errorf("apply requires a block file (or \"-\" for stdin)")
		}
		return runApply(ctx, flags, cfg, fs.Arg(1))
	case "watch":
		return runWatch(ctx, flags, cfg)
	case "serve":
		return runServe(ctx, flags, cfg)
	case "stats":
		return runStats(ctx, flags, cfg)
	case "":
		fs.Usage()
		return nil
	default:
		return fmt.Errorf("unknown command %q", fs.Arg(0))
	}
}
