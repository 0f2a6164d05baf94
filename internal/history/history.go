// Package history persists and recalls command lines across sessions.
//
// A Store keeps every accepted line in memory and tracks a breakpoint:
// entries before the breakpoint are already on disk, entries at or
// after it are not. SetRead/SetWrite/SetAppend all do their I/O and
// then advance the breakpoint, so repeated flushes never re-persist
// the same line twice.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IoFailure wraps a filesystem error with the path and operation that
// caused it, matching the IoError{CreateFile|WriteFile|OpenFile}
// taxonomy from the spec.
type IoFailure struct {
	Path string
	Op   string
	Err  error
}

func (e *IoFailure) Error() string {
	return fmt.Sprintf("history: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoFailure) Unwrap() error { return e.Err }

// Store is the in-memory command history plus its persistence state.
type Store struct {
	entries    []string
	breakpoint int
	writePath  string
	append     bool
}

// New loads history from $HISTFILE if set, otherwise starts empty
// with no configured paths.
func New() *Store {
	s := &Store{}
	if path := os.Getenv("HISTFILE"); path != "" {
		if err := s.loadInitial(path); err == nil {
			s.writePath = path
			s.append = true
		}
	}
	return s
}

// loadInitial is the startup path: open read-write creating if
// absent, read every line, and treat all of it as already persisted.
func (s *Store) loadInitial(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return &IoFailure{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	lines, err := readLines(path)
	if err != nil {
		return &IoFailure{Path: path, Op: "read", Err: err}
	}

	s.entries = lines
	s.breakpoint = len(s.entries)
	return nil
}

// Add pushes a line onto history unconditionally. Duplicates and
// empty lines are the caller's concern.
func (s *Store) Add(line string) {
	s.entries = append(s.entries, line)
}

// Entries returns a copy of every entry, oldest first.
func (s *Store) Entries() []string {
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// At returns the entry pos steps back from the newest (pos 0 ==
// newest). The second return is false when pos is out of range.
func (s *Store) At(pos int) (string, bool) {
	idx := len(s.entries) - 1 - pos
	if idx < 0 || idx >= len(s.entries) {
		return "", false
	}
	return s.entries[idx], true
}

// SetRead merges path's contents in as the authoritative earlier
// history: the file's lines are prepended to what's already in
// memory via a tmp-file copy-then-rename, and the breakpoint moves to
// the end of the merged list, so every entry held at that point is
// considered already persisted. The path is self-contained and need
// not match $HISTFILE.
func (s *Store) SetRead(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return &IoFailure{Path: path, Op: "open", Err: err}
	}
	f.Close()

	lines, err := readLines(path)
	if err != nil {
		return &IoFailure{Path: path, Op: "read", Err: err}
	}

	merged := make([]string, 0, len(lines)+len(s.entries))
	merged = append(merged, lines...)
	merged = append(merged, s.entries...)

	if err := atomicRewrite(path, lines); err != nil {
		return err
	}

	s.entries = merged
	s.breakpoint = len(merged)
	return nil
}

// SetWrite persists unsaved entries to path, truncating it, and arms
// path as the write target for future flushes.
func (s *Store) SetWrite(path string) error {
	if err := s.flush(path, false); err != nil {
		return err
	}
	s.append = false
	s.writePath = path
	return nil
}

// SetAppend persists unsaved entries to path by appending, and arms
// path as the append target for future flushes.
func (s *Store) SetAppend(path string) error {
	if err := s.flush(path, true); err != nil {
		return err
	}
	s.append = true
	s.writePath = path
	return nil
}

// Shutdown flushes unsaved entries to the configured write path, if
// any, using the currently configured append mode.
func (s *Store) Shutdown() error {
	if s.writePath == "" {
		return nil
	}
	return s.flush(s.writePath, s.append)
}

// flush writes entries[breakpoint:] to path and advances breakpoint.
func (s *Store) flush(path string, appendMode bool) error {
	unsaved := s.entries[s.breakpoint:]

	flag := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return &IoFailure{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	for _, line := range unsaved {
		if _, err := fmt.Fprintln(f, strings.TrimRight(line, " \t")); err != nil {
			return &IoFailure{Path: path, Op: "write", Err: err}
		}
	}

	s.breakpoint = len(s.entries)
	return nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := string(data)
	if text == "" {
		return nil, nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n"), nil
}

// atomicRewrite overwrites path with lines via a tmp-file
// copy-then-rename so a crash mid-write never leaves a truncated
// history file behind.
func atomicRewrite(path string, lines []string) error {
	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, ".history-*.tmp")
	if err != nil {
		return &IoFailure{Path: path, Op: "create-temp", Err: err}
	}
	tmpPath := tmp.Name()

	for _, line := range lines {
		if _, err := fmt.Fprintln(tmp, strings.TrimRight(line, " \t")); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return &IoFailure{Path: path, Op: "write", Err: err}
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &IoFailure{Path: path, Op: "close", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &IoFailure{Path: path, Op: "rename", Err: err}
	}
	return nil
}
