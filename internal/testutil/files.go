// Package testutil provides shared helpers for building wordlist fixtures
// on disk.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteWordlist writes lines to a new file under dir, one per line, each
// terminated by LF, and returns the file's full path.
//
// An empty lines argument produces an empty file.
func WriteWordlist(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return WriteRaw(t, dir, name, []byte(b.String()))
}

// WriteRaw writes exact bytes to a new file under dir and returns the
// file's full path.
//
// Use this for fixtures that need CRLF line endings, a missing final
// newline, or other byte-level shapes WriteWordlist normalizes away.
func WriteRaw(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// OutputLines splits merged output into its lines for assertions. The
// trailing newline every emitted line carries is not a line of its own;
// empty input yields an empty, non-nil slice.
func OutputLines(data []byte) []string {
	if len(data) == 0 {
		return []string{}
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
