package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dusk-indust/srcmap/internal/config"
	"github.com/dusk-indust/srcmap/internal/patch"
	"github.com/dusk-indust/srcmap/internal/session"
)

// Search/replace block markers, as emitted by the model:
//
//	path/to/file.py
//	<<<<<<< SEARCH
//	old text
//	=======
//	new text
//	>>>>>>> REPLACE
const (
	markerSearch  = "<<<<<<< SEARCH"
	markerDivider = "======="
	markerReplace = ">>>>>>> REPLACE"
)

func runApply(ctx context.Context, flags cliFlags, cfg *config.ProjectConfig, blockPath string) error {
	input, err := readInput(blockPath)
	if err != nil {
		return err
	}

	sess, err := session.Open(ctx, flags.ProjectRoot, cfg, nil, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	var pending []*session.PendingPatch
	if isUnifiedDiff(input) {
		pending, err = sess.ProposeUnified(ctx, input)
		if err != nil {
			return err
		}
	} else {
		proposals, err := parseSearchReplace(string(input))
		if err != nil {
			return err
		}
		for _, p := range proposals {
			pp, err := sess.Propose(ctx, p)
			if err != nil {
				return err
			}
			pending = append(pending, pp)
		}
	}

	reader := bufio.NewReader(os.Stdin)
	for _, pp := range pending {
		fmt.Printf("--- %s\n", pp.Proposal.File)
		if pp.Result.Outcome != patch.OutcomeApplied {
			fmt.Printf("  cannot apply: %s\n", pp.Result.Outcome)
			continue
		}
		printDiff(pp.Result.Diff)

		if !flags.Yes && !confirm(reader, "Apply this change? [y/N] ") {
			if err := sess.Reject(pp.ID); err != nil {
				return err
			}
			fmt.Println("  rejected")
			continue
		}

		outcome, err := sess.Commit(ctx, pp.ID)
		if err != nil {
			return err
		}
		fmt.Printf("  %s\n", outcome)
	}
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// isUnifiedDiff sniffs for unified-diff headers.
func isUnifiedDiff(input []byte) bool {
	s := strings.TrimSpace(string(input))
	return strings.HasPrefix(s, "--- ") || strings.HasPrefix(s, "diff ") || strings.HasPrefix(s, "Index: ")
}

// parseSearchReplace parses one or more search/replace blocks. The line
// before each SEARCH marker names the target file; blocks for the same file
// may repeat.
func parseSearchReplace(input string) ([]patch.Proposal, error) {
	lines := strings.Split(input, "\n")
	var proposals []patch.Proposal

	var file string
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if line != markerSearch {
			file = strings.TrimSpace(line)
			continue
		}
		if file == "" {
			return nil, fmt.Errorf("line %d: search block without a preceding file path", i+1)
		}

		var search, replace []string
		section := &search
		j := i + 1
		closed := false
		for ; j < len(lines); j++ {
			switch strings.TrimRight(lines[j], " \t") {
			case markerDivider:
				section = &replace
				continue
			case markerReplace:
				closed = true
			}
			if closed {
				break
			}
			*section = append(*section, lines[j])
		}
		if !closed {
			return nil, fmt.Errorf("line %d: unterminated search block", i+1)
		}

		proposals = append(proposals, patch.Proposal{
			File:    file,
			Search:  joinBlock(search),
			Replace: joinBlock(replace),
		})
		i = j
	}

	if len(proposals) == 0 {
		return nil, fmt.Errorf("no search/replace blocks found")
	}
	return proposals, nil
}

// joinBlock restores block lines to text, with a trailing newline when the
// block is non-empty so whole-line replacements splice cleanly.
func joinBlock(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func printDiff(lines []patch.Line) {
	for _, l := range lines {
		switch l.Kind {
		case patch.LineAdded:
			fmt.Printf("  +%s\n", l.Text)
		case patch.LineRemoved:
			fmt.Printf("  -%s\n", l.Text)
		default:
			fmt.Printf("   %s\n", l.Text)
		}
	}
}

func confirm(reader *bufio.Reader, prompt string) bool {
	fmt.Print(prompt)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
