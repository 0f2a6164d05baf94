package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAddAndEntries(t *testing.T) {
	s := &Store{}
	s.Add("echo hello")
	s.Add("ls -la")
	s.Add("pwd")

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"echo hello", "ls -la", "pwd"}, s.Entries())
}

func TestStoreAt(t *testing.T) {
	s := &Store{}
	s.Add("cmd1")
	s.Add("cmd2")
	s.Add("cmd3")

	v, ok := s.At(0)
	require.True(t, ok)
	assert.Equal(t, "cmd3", v)

	v, ok = s.At(2)
	require.True(t, ok)
	assert.Equal(t, "cmd1", v)

	_, ok = s.At(3)
	assert.False(t, ok)
}

func TestNewFromHistfile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "histfile")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o644))

	t.Setenv("HISTFILE", path)
	s := New()

	assert.Equal(t, []string{"one", "two"}, s.Entries())
	assert.Equal(t, 2, s.breakpoint)
}

func TestNewWithoutHistfile(t *testing.T) {
	t.Setenv("HISTFILE", "")
	s := New()
	assert.Equal(t, 0, s.Len())
}

func TestSetWriteThenShutdownOverwritesWithLatestUnsaved(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "out")

	s := &Store{}
	s.Add("echo test1")
	s.Add("echo test2")
	require.NoError(t, s.SetWrite(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "echo test1\necho test2\n", string(data))

	// set_write always overwrites with only entries since the last
	// flush; a second flush to the same path truncates away what the
	// first one wrote, per spec §4.A.
	s.Add("pwd")
	require.NoError(t, s.Shutdown())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pwd\n", string(data))
}

func TestSetAppendDoesNotTruncate(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "out")
	require.NoError(t, os.WriteFile(path, []byte("preexisting\n"), 0o644))

	s := &Store{}
	s.Add("new line")
	require.NoError(t, s.SetAppend(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "preexisting\nnew line\n", string(data))
}

func TestSetWriteOnlyPersistsUnsavedEntries(t *testing.T) {
	tempDir := t.TempDir()
	first := filepath.Join(tempDir, "first")
	second := filepath.Join(tempDir, "second")

	s := &Store{}
	s.Add("a")
	s.Add("b")
	require.NoError(t, s.SetWrite(first))

	s.Add("c")
	require.NoError(t, s.SetWrite(second))

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "c\n", string(data))
}

func TestSetReadPrependsAndAdvancesBreakpoint(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "earlier")
	require.NoError(t, os.WriteFile(path, []byte("older1\nolder2\n"), 0o644))

	s := &Store{}
	s.Add("newer1")
	require.NoError(t, s.SetRead(path))

	assert.Equal(t, []string{"older1", "older2", "newer1"}, s.Entries())
	assert.Equal(t, 3, s.breakpoint)
}

func TestShutdownWithoutWritePathIsNoop(t *testing.T) {
	s := &Store{}
	s.Add("x")
	assert.NoError(t, s.Shutdown())
}

func TestFlushTrimsTrailingWhitespace(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "out")

	s := &Store{}
	s.Add("echo hi   ")
	require.NoError(t, s.SetWrite(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "echo hi\n", string(data))
}
