package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wordloom/internal/report"
	"wordloom/internal/wildcard"
)

// ExpandResult holds the resolved file list for JSON output.
type ExpandResult struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand <pattern>...",
		Short: "Show which files a set of patterns resolves to",
		Long: `Resolve patterns to files without merging anything.

Useful as a dry run before a long merge: the printed list is exactly the
set of files, in exactly the order, that merge would read. A file matched
by two patterns is listed twice, because merge would read it twice (line
dedup absorbs the repeats).`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runExpand(opts *RootOptions, patterns []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := setupLogger(opts, formatter)

	rep := report.NewLogger(logger)
	resolved, err := wildcard.NewExpander(rep).Expand(patterns)
	if err != nil {
		return commandFailed(formatter, ExitFailure, ErrCodeNoMatches,
			"no files matched any pattern", map[string]any{"patterns": patterns})
	}

	if formatter.Format == "json" {
		return formatter.Success(ExpandResult{Files: resolved, Count: len(resolved)})
	}

	for _, path := range resolved {
		fmt.Fprintln(formatter.Writer, path)
	}
	formatter.VerboseLog("%d file(s) resolved from %d pattern(s)", len(resolved), len(patterns))
	return nil
}
