package merge

import (
	"bufio"
	"io"
	"os"

	"wordloom/internal/report"
)

// readBufferSize is the per-input read buffer. One buffer exists per open
// cursor, so memory for N inputs is N * 128 KiB plus the seen-set.
const readBufferSize = 128 << 10

// cursor is the per-file read state during one merge run: an open handle
// positioned at the next unread line, and a liveness flag. A cursor dies at
// end of file or on a read error, releasing its handle immediately; the
// merge loop skips dead cursors in all subsequent rounds.
type cursor struct {
	path  string
	file  *os.File
	r     *bufio.Reader
	alive bool
}

// openCursors opens every path in order. A path that fails to open is
// reported and excluded entirely; it never joins the round-robin set.
func openCursors(paths []string, rep report.Reporter) []*cursor {
	cursors := make([]*cursor, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			rep.Warn("could not open file", "path", path, "error", err)
			continue
		}
		cursors = append(cursors, &cursor{
			path:  path,
			file:  f,
			r:     bufio.NewReaderSize(f, readBufferSize),
			alive: true,
		})
	}
	return cursors
}

// next returns the next line with its delimiter stripped. Trailing `\r\n`
// is stripped like `\n`, so CRLF wordlists dedup against LF ones. A final
// line without a trailing newline is still delivered.
//
// Returns io.EOF at clean end of file. Any other error means the rest of
// the file is unreadable; partial data from a failed read is discarded
// rather than emitted as a truncated line.
func (c *cursor) next() ([]byte, error) {
	data, err := c.r.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(data) > 0 {
			return trimEOL(data), nil
		}
		return nil, err
	}
	return trimEOL(data), nil
}

// kill closes the cursor's handle and marks it dead. Safe to call once per
// cursor; the merge loop guards on alive.
func (c *cursor) kill(rep report.Reporter) {
	c.alive = false
	if err := c.file.Close(); err != nil {
		rep.Warn("error closing file", "path", c.path, "error", err)
	}
}

// trimEOL strips one trailing LF, then one trailing CR. This covers LF,
// CRLF, and a truncated CRLF at end of file.
func trimEOL(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return b
}
