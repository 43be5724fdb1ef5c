// Package harness runs end-to-end merge scenarios for tests: it lays a set
// of wordlist fixtures out in a temp directory, expands the scenario's
// patterns against it, weave-merges the resolved files, and hands back
// everything observable (resolved paths, warnings, output, summary) for
// assertion or golden comparison.
//
// Runs are deterministic: the run token is pinned to RunToken, pattern
// expansion orders matches lexicographically within a directory, and every
// temp-directory prefix is stripped from paths before they reach the
// Result. The same scenario therefore produces byte-identical snapshots on
// every machine, which is what makes golden comparison viable.
package harness

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"wordloom/internal/merge"
	"wordloom/internal/report"
	"wordloom/internal/testutil"
	"wordloom/internal/wildcard"
)

// RunToken is the fixed run token every harness merge uses.
const RunToken = "golden-run"

// Scenario describes one end-to-end merge: the files that exist, the
// patterns the user would pass, and any merger options.
type Scenario struct {
	// Name identifies the scenario; RunWithGolden derives the golden
	// file name from it.
	Name string

	// Files maps file name to raw content, written verbatim into the
	// scenario's temp directory. Content is not normalized, so fixtures
	// can carry CRLF endings or a missing final newline.
	Files map[string]string

	// Patterns are expanded relative to the temp directory.
	Patterns []string

	// Options are extra merger options (digest, NFC, progress cadence).
	// The pinned token generator is always applied first.
	Options []merge.Option
}

// Result captures everything observable from one scenario run. Paths are
// relative to the scenario's temp directory.
type Result struct {
	Resolved []string
	Warnings []string
	Output   string
	Summary  *merge.Summary
}

// Run executes the scenario and fails the test on any fatal outcome
// (unmatchable patterns, no openable inputs, write errors). Warnings are
// not failures; they land in the Result for the caller to assert on.
func Run(t *testing.T, sc *Scenario) *Result {
	t.Helper()

	dir := t.TempDir()
	for name, content := range sc.Files {
		testutil.WriteRaw(t, dir, name, []byte(content))
	}

	rec := report.NewRecorder()
	exp := wildcard.NewExpander(rec)
	exp.Dir = dir

	resolved, err := exp.Expand(sc.Patterns)
	require.NoError(t, err, "scenario %q: pattern expansion failed", sc.Name)

	opts := append(
		[]merge.Option{merge.WithTokenGenerator(merge.NewFixedGenerator(RunToken))},
		sc.Options...,
	)

	var buf bytes.Buffer
	sum, err := merge.New(rec, opts...).Merge(context.Background(), resolved, &buf)
	require.NoError(t, err, "scenario %q: merge failed", sc.Name)

	return &Result{
		Resolved: stripPrefix(dir, resolved),
		Warnings: stripPrefix(dir, rec.Warnings()),
		Output:   buf.String(),
		Summary:  sum,
	}
}

// stripPrefix removes the temp directory prefix from every string so
// results compare stably across runs and machines.
func stripPrefix(dir string, in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ReplaceAll(s, dir+"/", "")
	}
	return out
}
