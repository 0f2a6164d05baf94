// Package external resolves a command name against $PATH and builds
// the process-spawn description the pipeline executor attaches
// stdio to.
package external

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// NotFoundError reports that a command could not be resolved against
// $PATH.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: command not found", e.Name)
}

// Resolve scans $PATH left to right for the first entry name that
// exists and has any executable mode bit set.
func Resolve(name string) (string, error) {
	for _, dir := range splitPath(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0o111 != 0 {
			return candidate, nil
		}
	}
	return "", &NotFoundError{Name: name}
}

// Build constructs an *exec.Cmd for name with the given arguments.
// It resolves name against $PATH first so the returned command fails
// fast with NotFoundError instead of a generic exec error.
func Build(name string, args []string) (*exec.Cmd, error) {
	path, err := Resolve(name)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(path, args...)
	cmd.Args[0] = name
	return cmd, nil
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, string(os.PathListSeparator))
}
