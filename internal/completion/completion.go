// Package completion enumerates builtin verbs and PATH executables
// that match a prefix, for the line editor's Tab handling.
package completion

import (
	"os"
	"sort"
	"strings"
)

// Completer knows the fixed set of builtin verbs and can scan $PATH
// for matching executables.
type Completer struct {
	builtins []string
}

// New builds a Completer over the given builtin verb names.
func New(builtins []string) *Completer {
	c := &Completer{builtins: append([]string{}, builtins...)}
	sort.Strings(c.builtins)
	return c
}

// Complete returns the sorted, deduplicated candidates for prefix,
// each suffixed with a trailing space. prefix must be non-empty.
func (c *Completer) Complete(prefix string) []string {
	seen := make(map[string]bool)
	var out []string

	for _, b := range c.builtins {
		if strings.HasPrefix(b, prefix) && !seen[b] {
			seen[b] = true
			out = append(out, b+" ")
		}
	}

	for _, name := range c.pathExecutables(prefix) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name+" ")
		}
	}

	sort.Strings(out)
	return out
}

// pathExecutables scans every directory on $PATH for entries whose
// name starts with prefix and has any executable mode bit set.
// Unreadable directories are skipped silently.
func (c *Completer) pathExecutables(prefix string) []string {
	var matches []string
	for _, dir := range filepathSplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.Mode()&0o111 != 0 {
				matches = append(matches, name)
			}
		}
	}
	return matches
}

func filepathSplitList(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ":")
}

// CommonPrefix returns the longest common prefix of candidates, each
// of which is expected to already carry its trailing space (as
// Complete returns them).
func CommonPrefix(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	prefix := strings.TrimRight(candidates[0], " ")
	for _, cand := range candidates[1:] {
		cand = strings.TrimRight(cand, " ")
		for len(prefix) > 0 && !strings.HasPrefix(cand, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
		if prefix == "" {
			break
		}
	}
	return prefix
}
