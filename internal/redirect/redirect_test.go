package redirect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o644))

	f, err := Open(path, false)
	require.NoError(t, err)
	require.NoError(t, WriteString(f, path, "new\n"))
	f.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o644))

	f, err := Open(path, true)
	require.NoError(t, err)
	require.NoError(t, WriteString(f, path, "second\n"))
	f.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestOpenCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new")
	f, err := Open(path, false)
	require.NoError(t, err)
	f.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenFailsOnUnwritableDir(t *testing.T) {
	_, err := Open("/definitely/does/not/exist/out", false)
	require.Error(t, err)
	var cfe *CreateFileError
	assert.ErrorAs(t, err, &cfe)
}
