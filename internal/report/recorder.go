package report

import (
	"fmt"
	"strings"
	"sync"
)

// Recorder captures reports in memory for test assertions.
//
// Warnings are flattened to "msg key=value ..." strings so tests can match
// on substrings without reconstructing slog records.
//
// Thread-safety: methods are safe for concurrent use via internal mutex,
// so a Recorder can be shared between a merge goroutine and test code.
type Recorder struct {
	mu       sync.Mutex
	warnings []string
	progress []Progress
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Warn records the warning as a flattened string.
func (r *Recorder) Warn(msg string, args ...any) {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, b.String())
}

// Progress records the snapshot.
func (r *Recorder) Progress(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

// Warnings returns a copy of the recorded warnings in order.
func (r *Recorder) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// ProgressReports returns a copy of the recorded progress snapshots in order.
func (r *Recorder) ProgressReports() []Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Progress, len(r.progress))
	copy(out, r.progress)
	return out
}

// HasWarning reports whether any recorded warning contains the substring.
func (r *Recorder) HasWarning(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
