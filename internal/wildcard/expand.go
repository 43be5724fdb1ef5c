package wildcard

import (
	"errors"
	"os"
	"path/filepath"

	"wordloom/internal/report"
)

// ErrNoMatches is returned by Expand when every pattern resolved to zero
// files. Per-pattern problems only warn; this is the one fatal outcome.
var ErrNoMatches = errors.New("no files matched any pattern")

// Expander resolves path patterns into openable regular-file paths.
//
// Problems with individual patterns (missing literal file, missing wildcard
// directory, unreadable directory) are reported through the Reporter and the
// pattern is skipped; expansion of the remaining patterns always continues.
type Expander struct {
	// Dir is the base directory for relative patterns. Empty means the
	// process working directory. Absolute patterns ignore it.
	Dir string

	rep report.Reporter
}

// NewExpander creates an Expander reporting through rep. A nil rep disables
// diagnostics.
func NewExpander(rep report.Reporter) *Expander {
	return &Expander{rep: report.OrNop(rep)}
}

// Expand resolves patterns in input order and returns the concatenation of
// each pattern's matches.
//
// A literal pattern contributes itself iff it names an existing regular
// file. A wildcard pattern is split into a directory part and a filename
// part (an empty directory part means `.`); the directory's direct entries
// are enumerated, subdirectories are not descended into, and each regular
// file whose base name matches the filename part contributes its path.
// Symlinks count as their targets in both branches, so a link to a regular
// file matches; dangling links and links to directories do not.
//
// Within one directory, matches come out in lexicographic name order
// (os.ReadDir sorts), so expansion is deterministic for a given directory
// state. Paths matched by more than one pattern appear once per pattern:
// the merger reads such a file twice and line dedup absorbs the duplicates.
//
// Returns ErrNoMatches when the combined result is empty.
func (e *Expander) Expand(patterns []string) ([]string, error) {
	var result []string

	for _, pattern := range patterns {
		if HasWildcard(pattern) {
			result = append(result, e.expandWildcard(pattern)...)
			continue
		}

		path := e.resolve(pattern)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			e.rep.Warn("file not found or not a regular file", "path", pattern)
			continue
		}
		result = append(result, path)
	}

	if len(result) == 0 {
		return nil, ErrNoMatches
	}
	return result, nil
}

// expandWildcard resolves one wildcard pattern against its directory.
func (e *Expander) expandWildcard(pattern string) []string {
	dir, name := filepath.Split(e.resolve(pattern))
	if dir == "" {
		dir = "."
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		e.rep.Warn("directory not found for pattern", "pattern", pattern)
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		e.rep.Warn("error reading directory for pattern", "pattern", pattern, "error", err)
		return nil
	}

	var matches []string
	for _, entry := range entries {
		if !isRegular(dir, entry) {
			continue
		}
		if Match(entry.Name(), name) {
			matches = append(matches, filepath.Join(dir, entry.Name()))
		}
	}
	return matches
}

// isRegular reports whether a directory entry is a regular file, following
// symlinks: a link to a wordlist matches like the wordlist itself, the same
// way the literal branch stats through links. Dangling links and links to
// non-files report false.
func isRegular(dir string, entry os.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

// resolve joins a relative pattern onto the base directory.
func (e *Expander) resolve(pattern string) string {
	if e.Dir == "" || filepath.IsAbs(pattern) {
		return pattern
	}
	return filepath.Join(e.Dir, pattern)
}
