package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wordloom/internal/merge"
	"wordloom/internal/report"
	"wordloom/internal/wildcard"
)

// writeBufferSize is the output buffer. Merged wordlists are millions of
// short lines; one large buffer keeps them from becoming millions of small
// writes.
const writeBufferSize = 1 << 20

// fdWarnThreshold is the resolved-file count above which the merge warns
// about descriptor pressure. Every input stays open until it is exhausted,
// so very wide merges can brush against the process fd limit.
const fdWarnThreshold = 100

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	Output        string
	Digest        string
	NFC           bool
	ProgressEvery uint64

	// TokenGenerator allows overriding the run token source (for testing).
	// If nil, defaults to merge.UUIDv7Generator.
	TokenGenerator merge.TokenGenerator
}

// MergeResult is the success payload of the merge command.
type MergeResult struct {
	Output  string         `json:"output"`
	Summary *merge.Summary `json:"summary"`
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge <pattern>...",
		Short: "Weave-merge wordlists into one deduplicated file",
		Long: `Merge wordlist files into a single deduplicated output file.

Patterns are literal paths or contain * and ? wildcards, matched against
the file names in the pattern's directory; subdirectories are not
descended into. All matched files are read in lock-step: one line from
each file per round, so the head of every list reaches the output early
instead of the first list dominating. Each distinct line is written once,
at its first occurrence.

A pattern that matches nothing or a file that cannot be opened is
reported and skipped; the merge only fails when no input remains at all.

Example:
  wordloom merge rockyou.txt "leaks/*.txt" -o combined.txt
  wordloom merge "top?.txt" --digest xx64 --progress-every 50000`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "merged.txt", "output file path")
	cmd.Flags().StringVar(&opts.Digest, "digest", string(merge.DigestSHA256), "dedup fingerprint (sha256|xx64)")
	cmd.Flags().BoolVar(&opts.NFC, "nfc", false, "normalize lines to Unicode NFC before dedup")
	cmd.Flags().Uint64Var(&opts.ProgressEvery, "progress-every", merge.DefaultProgressEvery, "rounds between progress reports (0 disables)")

	return cmd
}

func runMerge(opts *MergeOptions, patterns []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Diagnostics go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
	logger := setupLogger(opts.RootOptions, formatter)

	digest, err := merge.ParseDigest(opts.Digest)
	if err != nil {
		return commandFailed(formatter, ExitCommandError, ErrCodeBadFlag, err.Error(), nil)
	}

	rep := report.NewLogger(logger)

	// Resolve patterns to files
	resolved, err := wildcard.NewExpander(rep).Expand(patterns)
	if err != nil {
		return commandFailed(formatter, ExitFailure, ErrCodeNoMatches,
			"no files matched any pattern", map[string]any{"patterns": patterns})
	}
	logger.Info("patterns resolved", "patterns", len(patterns), "files", len(resolved))
	if len(resolved) > fdWarnThreshold {
		rep.Warn("merging many files; every file stays open until exhausted", "files", len(resolved))
	}

	// Create the output file before reading any input, so an unwritable
	// destination fails fast.
	outFile, err := os.Create(opts.Output)
	if err != nil {
		return commandFailed(formatter, ExitCommandError, ErrCodeOutput,
			fmt.Sprintf("cannot create output file %s: %v", opts.Output, err), nil)
	}
	out := bufio.NewWriterSize(outFile, writeBufferSize)

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping merge", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	merger := merge.New(rep, mergerOptions(opts, digest)...)

	logger.Info("merge starting", "files", len(resolved), "output", opts.Output, "digest", string(digest))
	sum, mergeErr := merger.Merge(ctx, resolved, out)

	// Flush and close even on failure: lines already merged should reach
	// disk so an interrupted run still leaves usable partial output.
	if err := out.Flush(); err != nil && mergeErr == nil {
		mergeErr = fmt.Errorf("flush output: %w", err)
	}
	if err := outFile.Close(); err != nil && mergeErr == nil {
		mergeErr = fmt.Errorf("close output: %w", err)
	}

	if mergeErr != nil {
		switch {
		case errors.Is(mergeErr, merge.ErrNoInputs):
			return commandFailed(formatter, ExitFailure, ErrCodeNoInputs,
				"none of the matched files could be opened", nil)
		case errors.Is(mergeErr, context.Canceled):
			return commandFailed(formatter, ExitFailure, ErrCodeAborted,
				fmt.Sprintf("merge interrupted; partial output in %s", opts.Output), nil)
		default:
			return commandFailed(formatter, ExitFailure, ErrCodeGeneric, mergeErr.Error(), nil)
		}
	}

	logger.Info("merge complete",
		"run", sum.RunToken,
		"files", sum.Opened,
		"lines_read", sum.LinesRead,
		"unique", sum.UniqueLines,
		"duplicates", sum.Duplicates)

	return outputMergeSuccess(formatter, opts.Output, sum)
}

// mergerOptions translates command flags into merger options.
func mergerOptions(opts *MergeOptions, digest merge.Digest) []merge.Option {
	mopts := []merge.Option{
		merge.WithDigest(digest),
		merge.WithProgressEvery(opts.ProgressEvery),
	}
	if opts.NFC {
		mopts = append(mopts, merge.WithNFC())
	}
	if opts.TokenGenerator != nil {
		mopts = append(mopts, merge.WithTokenGenerator(opts.TokenGenerator))
	}
	return mopts
}

// setupLogger configures slog from the global flags and routes it to the
// formatter's diagnostic writer so structured records never mix into stdout.
func setupLogger(opts *RootOptions, f *OutputFormatter) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(f.GetErrWriter(), &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// commandFailed reports a failure in the configured format and returns the
// matching ExitError.
func commandFailed(formatter *OutputFormatter, exitCode int, errCode, message string, details interface{}) error {
	_ = formatter.Error(errCode, message, details)
	return NewExitError(exitCode, fmt.Sprintf("%s: %s", errCode, message))
}

// outputMergeSuccess outputs the final summary.
func outputMergeSuccess(formatter *OutputFormatter, output string, sum *merge.Summary) error {
	if formatter.Format == "json" {
		return formatter.Success(MergeResult{Output: output, Summary: sum})
	}

	fmt.Fprintf(formatter.Writer, "✓ merged %d file(s) into %s\n", sum.Opened, output)
	fmt.Fprintf(formatter.Writer, "  lines read:   %d\n", sum.LinesRead)
	fmt.Fprintf(formatter.Writer, "  unique lines: %d\n", sum.UniqueLines)
	fmt.Fprintf(formatter.Writer, "  duplicates:   %d\n", sum.Duplicates)
	return nil
}
