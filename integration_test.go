package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildShell(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "posh_test")

	cmd := exec.Command("go", "build", "-o", bin, "./cmd/posh")
	cmd.Dir, _ = os.Getwd()
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

func runShell(t *testing.T, bin, input string) string {
	t.Helper()
	cmd := exec.Command(bin)
	cmd.Stdin = strings.NewReader(input)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "shell exited with error: %s", string(out))
	return string(out)
}

func TestShellIntegration(t *testing.T) {
	bin := buildShell(t)

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"echo basic", "echo hello\nexit\n", "hello"},
		{"echo quoting fuses words", "echo a\"bc\"\\d\nexit\n", "abcd"},
		{"pwd", "pwd\nexit\n", "/"},
		{"command not found", "nosuchcmd\nexit\n", "not found"},
		{"type builtin", "type echo\nexit\n", "echo is a shell builtin"},
		{"history lists entries", "echo one\necho two\nhistory\nexit\n", "echo two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runShell(t, bin, tt.input)
			assert.Contains(t, out, tt.expect)
		})
	}
}

func TestShellRedirection(t *testing.T) {
	bin := buildShell(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "out.txt")

	input := "echo written > " + target + "\nexit\n"
	runShell(t, bin, input)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "written\n", string(data))
}

func TestShellPipeline(t *testing.T) {
	if _, err := exec.LookPath("wc"); err != nil {
		t.Skip("wc not on PATH")
	}
	bin := buildShell(t)
	out := runShell(t, bin, "echo line | wc -l\nexit\n")
	assert.Contains(t, out, "1")
}

func TestShellCdAndPwd(t *testing.T) {
	bin := buildShell(t)
	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	out := runShell(t, bin, "cd "+dir+"\npwd\nexit\n")
	assert.Contains(t, out, resolved)
}
