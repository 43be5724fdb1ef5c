package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWordlist_TerminatesEveryLine(t *testing.T) {
	dir := t.TempDir()

	path := WriteWordlist(t, dir, "words.txt", "alpha", "beta")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta\n", string(data))
}

func TestWriteWordlist_NoLines(t *testing.T) {
	dir := t.TempDir()

	path := WriteWordlist(t, dir, "empty.txt")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestWriteRaw_PreservesBytes(t *testing.T) {
	dir := t.TempDir()

	path := WriteRaw(t, dir, "crlf.txt", []byte("a\r\nb"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\r\nb", string(data))
}

func TestOutputLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, OutputLines([]byte("a\nb\n")))
	assert.Equal(t, []string{"a", ""}, OutputLines([]byte("a\n\n")), "an emitted empty line is a line")
	assert.Equal(t, []string{}, OutputLines(nil))
}
