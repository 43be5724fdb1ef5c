package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordloom/internal/report"
	"wordloom/internal/testutil"
)

// mergeLines runs m over paths and returns the emitted lines and summary,
// failing the test on any merge error.
func mergeLines(t *testing.T, m *Merger, paths ...string) ([]string, *Summary) {
	t.Helper()

	var buf bytes.Buffer
	sum, err := m.Merge(context.Background(), paths, &buf)
	require.NoError(t, err)
	return testutil.OutputLines(buf.Bytes()), sum
}

// failWriter fails every write.
type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

// openFDs counts this process's open file descriptors.
func openFDs(t *testing.T) int {
	t.Helper()

	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("cannot enumerate open descriptors: %v", err)
	}
	return len(entries)
}

func TestNew_Defaults(t *testing.T) {
	m := New(nil)

	assert.Equal(t, DigestSHA256, m.digest)
	assert.False(t, m.nfc)
	assert.Equal(t, uint64(DefaultProgressEvery), m.progressEvery)
	assert.NotNil(t, m.rep)
	assert.IsType(t, UUIDv7Generator{}, m.tokens)
}

func TestMerger_Merge_WeaveOrder(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a1", "a2")
	f2 := testutil.WriteWordlist(t, dir, "f2.txt", "b1", "b2")

	lines, _ := mergeLines(t, New(nil), f1, f2)

	assert.Equal(t, []string{"a1", "b1", "a2", "b2"}, lines)
}

func TestMerger_Merge_CrossFileDedup(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "x", "y")
	f2 := testutil.WriteWordlist(t, dir, "f2.txt", "y", "z")

	lines, _ := mergeLines(t, New(nil), f1, f2)

	assert.Equal(t, []string{"x", "y", "z"}, lines)
}

func TestMerger_Merge_DedupWithinOneFile(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "x", "x", "y")

	lines, _ := mergeLines(t, New(nil), f1)

	assert.Equal(t, []string{"x", "y"}, lines)
}

func TestMerger_Merge_EmptyFileTolerated(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a")
	f2 := testutil.WriteWordlist(t, dir, "f2.txt")
	f3 := testutil.WriteWordlist(t, dir, "f3.txt", "b")

	lines, sum := mergeLines(t, New(nil), f1, f2, f3)

	assert.Equal(t, []string{"a", "b"}, lines)
	assert.Equal(t, 3, sum.Opened)
}

func TestMerger_Merge_UnequalLengths(t *testing.T) {
	// Exhausted files drop out of the rotation; the survivors keep
	// weaving without gaps.
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a1", "a2", "a3")
	f2 := testutil.WriteWordlist(t, dir, "f2.txt", "b1")

	lines, _ := mergeLines(t, New(nil), f1, f2)

	assert.Equal(t, []string{"a1", "b1", "a2", "a3"}, lines)
}

func TestMerger_Merge_PerFileOrderSurvivesDedup(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a", "b", "c")
	f2 := testutil.WriteWordlist(t, dir, "f2.txt", "b", "d", "c")

	lines, _ := mergeLines(t, New(nil), f1, f2)

	// Round 1 emits a and b, round 2 drops the duplicate b and emits d,
	// round 3 emits c first from f1.
	assert.Equal(t, []string{"a", "b", "d", "c"}, lines)
}

func TestMerger_Merge_EmptyLinesAreLines(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a", "", "b")
	f2 := testutil.WriteWordlist(t, dir, "f2.txt", "")

	var buf bytes.Buffer
	_, err := New(nil).Merge(context.Background(), []string{f1, f2}, &buf)
	require.NoError(t, err)

	assert.Equal(t, "a\n\nb\n", buf.String())
}

func TestMerger_Merge_CRLFDedupsAgainstLF(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteRaw(t, dir, "dos.txt", []byte("x\r\ny\r\n"))
	f2 := testutil.WriteWordlist(t, dir, "unix.txt", "x", "y", "z")

	lines, sum := mergeLines(t, New(nil), f1, f2)

	assert.Equal(t, []string{"x", "y", "z"}, lines)
	assert.Equal(t, uint64(2), sum.Duplicates)
}

func TestMerger_Merge_UnterminatedFinalLine(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteRaw(t, dir, "tail.txt", []byte("a\nb"))

	lines, sum := mergeLines(t, New(nil), f1)

	assert.Equal(t, []string{"a", "b"}, lines)
	assert.Equal(t, uint64(2), sum.LinesRead)
}

func TestMerger_Merge_SelfMergeIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "q", "w", "e")
	f2 := testutil.WriteWordlist(t, dir, "f2.txt", "w", "r", "q")

	var first bytes.Buffer
	_, err := New(nil).Merge(context.Background(), []string{f1, f2}, &first)
	require.NoError(t, err)

	merged := testutil.WriteRaw(t, dir, "merged.txt", first.Bytes())

	var second bytes.Buffer
	_, err = New(nil).Merge(context.Background(), []string{merged, merged}, &second)
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
}

func TestMerger_Merge_OpenFailureWarnsAndContinues(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a")
	rec := report.NewRecorder()

	var buf bytes.Buffer
	sum, err := New(rec).Merge(context.Background(), []string{dir + "/missing.txt", f1}, &buf)
	require.NoError(t, err)

	assert.Equal(t, "a\n", buf.String())
	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 1, sum.Opened)
	assert.True(t, rec.HasWarning("could not open file"))
}

func TestMerger_Merge_NoInputsOpened(t *testing.T) {
	dir := t.TempDir()
	rec := report.NewRecorder()

	var buf bytes.Buffer
	sum, err := New(rec).Merge(context.Background(), []string{dir + "/nope.txt"}, &buf)

	require.ErrorIs(t, err, ErrNoInputs)
	assert.Nil(t, sum)
	assert.Empty(t, buf.String())
}

func TestMerger_Merge_NoPaths(t *testing.T) {
	var buf bytes.Buffer
	_, err := New(nil).Merge(context.Background(), nil, &buf)

	require.ErrorIs(t, err, ErrNoInputs)
}

func TestMerger_Merge_ReadErrorRetiresCursor(t *testing.T) {
	// A directory opens fine but fails on the first read, exercising the
	// mid-stream error path without any special fixture.
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a", "b")
	rec := report.NewRecorder()

	var buf bytes.Buffer
	sum, err := New(rec).Merge(context.Background(), []string{dir, f1}, &buf)
	require.NoError(t, err)

	assert.Equal(t, "a\nb\n", buf.String())
	assert.Equal(t, 2, sum.Opened)
	assert.Equal(t, uint64(2), sum.LinesRead)
	assert.True(t, rec.HasWarning("read failed"))
}

func TestMerger_Merge_NFCNormalization(t *testing.T) {
	dir := t.TempDir()
	composed := "café"
	decomposed := "café"
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", composed)
	f2 := testutil.WriteWordlist(t, dir, "f2.txt", decomposed)

	t.Run("off by default", func(t *testing.T) {
		lines, _ := mergeLines(t, New(nil), f1, f2)
		assert.Len(t, lines, 2, "distinct byte sequences stay distinct")
	})

	t.Run("on", func(t *testing.T) {
		lines, _ := mergeLines(t, New(nil, WithNFC()), f1, f2)
		assert.Equal(t, []string{composed}, lines, "NFC folds the spellings together")
	})
}

func TestMerger_Merge_XX64Digest(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "x", "y")
	f2 := testutil.WriteWordlist(t, dir, "f2.txt", "y", "z")

	lines, sum := mergeLines(t, New(nil, WithDigest(DigestXX64)), f1, f2)

	assert.Equal(t, []string{"x", "y", "z"}, lines)
	assert.Equal(t, uint64(3), sum.UniqueLines)
}

func TestMerger_Merge_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a", "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	sum, err := New(nil).Merge(ctx, []string{f1}, &buf)

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, sum)
}

func TestMerger_Merge_CancellationClosesHandles(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 4)
	for i := range paths {
		paths[i] = testutil.WriteWordlist(t, dir, fmt.Sprintf("f%d.txt", i), "a", "b")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := openFDs(t)
	var buf bytes.Buffer
	_, err := New(nil).Merge(ctx, paths, &buf)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, before, openFDs(t),
		"every input handle should be released after cancellation")
}

func TestMerger_Merge_WriteErrorAborts(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a")

	_, err := New(nil).Merge(context.Background(), []string{f1}, failWriter{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "write output")
	assert.Contains(t, err.Error(), "disk full")
}

func TestMerger_Merge_WriteErrorClosesHandles(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a")
	f2 := testutil.WriteWordlist(t, dir, "f2.txt", "b")

	before := openFDs(t)
	_, err := New(nil).Merge(context.Background(), []string{f1, f2}, failWriter{})
	require.Error(t, err)

	assert.Equal(t, before, openFDs(t),
		"every input handle should be released after a write failure")
}

func TestMerger_Merge_RunTokenFromGenerator(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a")

	gen := NewFixedGenerator("run-0001")
	_, sum := mergeLines(t, New(nil, WithTokenGenerator(gen)), f1)

	assert.Equal(t, "run-0001", sum.RunToken)
}

func TestMerger_Merge_ProgressReports(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a", "b", "c")
	rec := report.NewRecorder()

	gen := NewFixedGenerator("run-0001")
	m := New(rec, WithProgressEvery(1), WithTokenGenerator(gen))
	_, sum := mergeLines(t, m, f1)

	reports := rec.ProgressReports()
	require.Len(t, reports, 4, "one report per round, including the closing EOF round")
	assert.Equal(t, report.Progress{
		RunToken:    "run-0001",
		Rounds:      1,
		LinesRead:   1,
		UniqueLines: 1,
		OpenFiles:   1,
	}, reports[0])
	assert.Equal(t, report.Progress{
		RunToken:    "run-0001",
		Rounds:      4,
		LinesRead:   3,
		UniqueLines: 3,
		OpenFiles:   0,
	}, reports[3])
	assert.Equal(t, uint64(4), sum.Rounds)
}

func TestMerger_Merge_ProgressDisabled(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "a", "b", "c")
	rec := report.NewRecorder()

	m := New(rec, WithProgressEvery(0))
	mergeLines(t, m, f1)

	assert.Empty(t, rec.ProgressReports())
}

func TestMerger_Merge_SummaryCounts(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteWordlist(t, dir, "f1.txt", "x", "y")
	f2 := testutil.WriteWordlist(t, dir, "f2.txt", "y", "z")

	_, sum := mergeLines(t, New(nil), f1, f2)

	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 2, sum.Opened)
	assert.Equal(t, uint64(3), sum.Rounds)
	assert.Equal(t, uint64(4), sum.LinesRead)
	assert.Equal(t, uint64(3), sum.UniqueLines)
	assert.Equal(t, uint64(1), sum.Duplicates)
}
