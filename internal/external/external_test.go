package external

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho hi\n"), 0o755))
	return path
}

func TestResolveFindsFirstMatchOnPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix executable bits only")
	}
	dirA := t.TempDir()
	dirB := t.TempDir()
	makeExecutable(t, dirA, "mytool")
	makeExecutable(t, dirB, "mytool")

	t.Setenv("PATH", dirA+string(os.PathListSeparator)+dirB)

	got, err := Resolve("mytool")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dirA, "mytool"), got)
}

func TestResolveSkipsNonExecutable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data"), []byte("x"), 0o644))
	t.Setenv("PATH", dir)

	_, err := Resolve("data")
	require.Error(t, err)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestResolveNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := Resolve("nosuch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command not found")
}

func TestBuildSetsArgv0ToUnresolvedName(t *testing.T) {
	dir := t.TempDir()
	makeExecutable(t, dir, "greet")
	t.Setenv("PATH", dir)

	cmd, err := Build("greet", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "greet", cmd.Args[0])
	assert.Equal(t, []string{"greet", "a", "b"}, cmd.Args)
}
