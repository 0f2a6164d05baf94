// Package redirect opens the files a pipeline stage's stdout/stderr
// are redirected to.
package redirect

import (
	"fmt"
	"os"
)

// CreateFileError reports a failure opening/creating a redirect
// target.
type CreateFileError struct {
	Path string
	Err  error
}

func (e *CreateFileError) Error() string {
	return fmt.Sprintf("%s: failed to create file: %v", e.Path, e.Err)
}

func (e *CreateFileError) Unwrap() error { return e.Err }

// WriteFileError reports a failure writing to an already-open
// redirect target.
type WriteFileError struct {
	Path string
	Err  error
}

func (e *WriteFileError) Error() string {
	return fmt.Sprintf("%s: failed to write to file: %v", e.Path, e.Err)
}

func (e *WriteFileError) Unwrap() error { return e.Err }

// Open opens path for use as a stage's redirect target: created if
// absent, truncated unless append is requested. The returned handle
// is suitable for use directly as a child process's stdio.
func Open(path string, appendMode bool) (*os.File, error) {
	flag := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, &CreateFileError{Path: path, Err: err}
	}
	return f, nil
}

// WriteString writes text to an already-open redirect target,
// wrapping any error as WriteFileError.
func WriteString(f *os.File, path, text string) error {
	if _, err := f.WriteString(text); err != nil {
		return &WriteFileError{Path: path, Err: err}
	}
	return nil
}
