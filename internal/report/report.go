// Package report carries diagnostics out of the expander and merger.
//
// Both core components emit recoverable problems (bad patterns, unopenable
// files) and periodic merge progress through a Reporter handed to them at
// construction time. Nothing in the core writes to ambient streams: the CLI
// installs a slog-backed Logger, tests install a Recorder, and passing nil
// disables reporting entirely.
package report

import "log/slog"

// Reporter receives warnings and progress updates from a merge run.
//
// Implementations must not assume they are called from more than one
// goroutine: the expander and merger are single-threaded and share one
// Reporter for the lifetime of a run.
type Reporter interface {
	// Warn reports a recoverable, skip-and-continue problem.
	// args are slog-style alternating key/value pairs.
	Warn(msg string, args ...any)

	// Progress reports periodic merge status. Implementations that do not
	// care about progress may ignore the call.
	Progress(p Progress)
}

// Progress is a point-in-time snapshot of a running merge.
type Progress struct {
	RunToken    string // correlation token for this merge run
	Rounds      uint64 // completed round-robin rounds
	LinesRead   uint64 // lines consumed across all inputs
	UniqueLines uint64 // lines written to the sink so far
	OpenFiles   int    // cursors still alive
}

// Logger adapts a *slog.Logger to the Reporter interface.
// This is the production reporter installed by the CLI.
type Logger struct {
	L *slog.Logger
}

// NewLogger wraps a slog logger. A nil logger falls back to slog.Default().
func NewLogger(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{L: l}
}

// Warn logs at warning level with the given key/value pairs.
func (r *Logger) Warn(msg string, args ...any) {
	r.L.Warn(msg, args...)
}

// Progress logs a progress snapshot at info level.
func (r *Logger) Progress(p Progress) {
	r.L.Info("merge progress",
		"run", p.RunToken,
		"rounds", p.Rounds,
		"read", p.LinesRead,
		"unique", p.UniqueLines,
		"open_files", p.OpenFiles,
	)
}

// Nop discards all reports. Used when the caller passes a nil Reporter.
type Nop struct{}

// Warn discards the warning.
func (Nop) Warn(string, ...any) {}

// Progress discards the snapshot.
func (Nop) Progress(Progress) {}

// OrNop returns r, or Nop when r is nil. Core components call this once at
// construction so the hot path never nil-checks.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop{}
	}
	return r
}
