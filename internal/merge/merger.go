package merge

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/unicode/norm"

	"wordloom/internal/report"
)

// ErrNoInputs is returned by Merge when every resolved file failed to open.
// The sink has received nothing at that point; a caller that pre-created an
// output file is left with an empty one.
var ErrNoInputs = errors.New("no input files could be opened")

// DefaultProgressEvery is the default number of rounds between progress
// reports.
const DefaultProgressEvery = 10000

// Merger weave-merges wordlist files with line-level deduplication.
//
// All reads happen from the calling goroutine: "concurrent" here means one
// open handle per input advanced in lock-step rounds, not parallel
// execution. The bottleneck is I/O and hashing, and a single-threaded
// round-robin keeps the emitted weave order deterministic.
type Merger struct {
	rep           report.Reporter
	digest        Digest
	nfc           bool
	progressEvery uint64
	tokens        TokenGenerator
}

// Option configures a Merger.
type Option func(*Merger)

// WithDigest selects the fingerprint function (default DigestSHA256).
func WithDigest(d Digest) Option {
	return func(m *Merger) { m.digest = d }
}

// WithNFC enables Unicode NFC normalization of every line before it is
// fingerprinted and emitted. Composed and decomposed spellings of the same
// word then count as one line, and the output carries the composed form.
// Off by default: dedup compares exact bytes.
func WithNFC() Option {
	return func(m *Merger) { m.nfc = true }
}

// WithProgressEvery sets the number of rounds between progress reports.
// Zero disables progress reporting entirely.
func WithProgressEvery(rounds uint64) Option {
	return func(m *Merger) { m.progressEvery = rounds }
}

// WithTokenGenerator overrides the run-token generator (for testing).
func WithTokenGenerator(g TokenGenerator) Option {
	return func(m *Merger) { m.tokens = g }
}

// New creates a Merger reporting through rep. A nil rep disables
// diagnostics.
func New(rep report.Reporter, opts ...Option) *Merger {
	m := &Merger{
		rep:           report.OrNop(rep),
		digest:        DigestSHA256,
		progressEvery: DefaultProgressEvery,
		tokens:        UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Summary reports the final counts of one merge run.
type Summary struct {
	RunToken    string `json:"run_token"`
	Files       int    `json:"files"`        // paths handed to Merge
	Opened      int    `json:"opened"`       // paths that opened successfully
	Rounds      uint64 `json:"rounds"`       // round-robin passes completed
	LinesRead   uint64 `json:"lines_read"`   // lines consumed across all inputs
	UniqueLines uint64 `json:"unique_lines"` // lines written to the sink
	Duplicates  uint64 `json:"duplicates"`   // lines discarded as already seen
}

// Merge reads paths in round-robin fashion and writes each distinct line
// exactly once to out, newline-terminated, in weave order: round 1 emits
// the first surviving line of every file in list order, round 2 the second,
// and so on. A file's own lines keep their relative order; they can only be
// lost to deduplication, never reordered.
//
// Files that fail to open are reported and excluded. A read error
// mid-stream retires that one cursor; the merge continues with the rest.
// Every opened handle is closed by the time Merge returns, on success,
// error, and cancellation alike.
//
// ctx is checked between rounds. Cancellation abandons the merge and
// returns ctx.Err(); lines already written stay written.
func (m *Merger) Merge(ctx context.Context, paths []string, out io.Writer) (*Summary, error) {
	seen, err := NewSeenSet(m.digest)
	if err != nil {
		return nil, err
	}

	cursors := openCursors(paths, m.rep)
	defer func() {
		for _, c := range cursors {
			if c.alive {
				c.kill(m.rep)
			}
		}
	}()

	if len(cursors) == 0 {
		return nil, ErrNoInputs
	}

	sum := &Summary{
		RunToken: m.tokens.Generate(),
		Files:    len(paths),
		Opened:   len(cursors),
	}
	alive := len(cursors)
	newline := []byte{'\n'}

	for alive > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		sum.Rounds++
		for _, c := range cursors {
			if !c.alive {
				continue
			}

			line, err := c.next()
			if err != nil {
				if err != io.EOF {
					m.rep.Warn("read failed, dropping file from merge", "path", c.path, "error", err)
				}
				c.kill(m.rep)
				alive--
				continue
			}
			sum.LinesRead++

			if m.nfc {
				line = norm.NFC.Bytes(line)
			}
			if !seen.Add(line) {
				continue
			}
			if _, err := out.Write(line); err != nil {
				return nil, fmt.Errorf("write output: %w", err)
			}
			if _, err := out.Write(newline); err != nil {
				return nil, fmt.Errorf("write output: %w", err)
			}
		}

		if m.progressEvery > 0 && sum.Rounds%m.progressEvery == 0 {
			m.rep.Progress(report.Progress{
				RunToken:    sum.RunToken,
				Rounds:      sum.Rounds,
				LinesRead:   sum.LinesRead,
				UniqueLines: uint64(seen.Len()),
				OpenFiles:   alive,
			})
		}
	}

	sum.UniqueLines = uint64(seen.Len())
	sum.Duplicates = sum.LinesRead - sum.UniqueLines
	return sum, nil
}
