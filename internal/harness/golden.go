package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"wordloom/internal/merge"
	"wordloom/internal/testutil"
)

// snapshot is the canonical JSON form of one scenario run, compared against
// the golden file. Field order here is the serialization order.
type snapshot struct {
	Scenario string         `json:"scenario"`
	Patterns []string       `json:"patterns"`
	Resolved []string       `json:"resolved"`
	Warnings []string       `json:"warnings,omitempty"`
	Output   []string       `json:"output"`
	Summary  *merge.Summary `json:"summary"`
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files are the source of truth for end-to-end merge behavior:
// resolved file order, weave order, dedup decisions, and summary counts
// all live in the snapshot, so an unintended change to any of them shows
// up as a golden diff.
func RunWithGolden(t *testing.T, sc *Scenario) *Result {
	t.Helper()

	result := Run(t, sc)

	snap := snapshot{
		Scenario: sc.Name,
		Patterns: sc.Patterns,
		Resolved: result.Resolved,
		Warnings: result.Warnings,
		Output:   testutil.OutputLines([]byte(result.Output)),
		Summary:  result.Summary,
	}
	data, err := json.MarshalIndent(&snap, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, data)

	return result
}
