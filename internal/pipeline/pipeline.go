// Package pipeline stitches a parsed Pipeline's stages into a single
// execution: builtins run in-process, externals are spawned, and
// bytes flow between adjacent stages either through OS pipes or, when
// a builtin feeds an external, through a goroutine that writes the
// builtin's captured output into the child's stdin.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/nwidger/posh/internal/builtins"
	"github.com/nwidger/posh/internal/external"
	"github.com/nwidger/posh/internal/parser"
	"github.com/nwidger/posh/internal/redirect"
	"github.com/nwidger/posh/internal/shellctx"
)

// inputKind distinguishes the three shapes stdin for the next stage
// can take.
type inputKind int

const (
	inputNone inputKind = iota
	inputExternalFd
	inputBuiltinBytes
)

// input carries whichever payload the previous stage produced for the
// next one to consume as stdin.
type input struct {
	kind  inputKind
	fd    *os.File
	bytes []byte
}

// Result summarizes how the pipeline finished: whether a last-stage
// builtin asked the shell to exit, and with which exit code.
type Result struct {
	Exit     bool
	ExitCode int
}

// Run executes pipe left to right against ctx, returning once every
// stage has completed. stdout/stderr are the console streams the
// final stage's unredirected output should reach.
func Run(pipe *parser.Pipeline, ctx *shellctx.Context, stdout, stderr io.Writer) (Result, error) {
	var children []*exec.Cmd
	var cur input

	waitAll := func() {
		for _, c := range children {
			c.Wait()
		}
		children = nil
	}

	for i, stage := range pipe.Stages {
		last := i == len(pipe.Stages)-1

		if stage.Cmd.Builtin {
			outcome, err := builtins.Dispatch(stage.Cmd.Name, stage.Args, ctx)
			text, errText := outcomeText(outcome, err)

			if last {
				handleBuiltinRedirection(stage.Redirects, text, errText, stdout, stderr)
				waitAll()
				if err != nil {
					return Result{}, nil
				}
				if outcome.Kind == builtins.ExitShell {
					return Result{Exit: true, ExitCode: outcome.Code}, nil
				}
				return Result{}, nil
			}

			buf := handleBuiltinRedirectionCapture(stage.Redirects, text, errText, stdout, stderr)
			if err != nil {
				waitAll()
				return Result{}, nil
			}
			cur = input{kind: inputBuiltinBytes, bytes: buf}
			continue
		}

		cmd, err := external.Build(stage.Cmd.Name, stage.Args)
		if err != nil {
			waitAll()
			fmt.Fprintln(stderr, err)
			return Result{}, nil
		}

		var writer *io.PipeWriter
		var stdinFile *os.File
		switch cur.kind {
		case inputExternalFd:
			cmd.Stdin = cur.fd
			stdinFile = cur.fd
		case inputBuiltinBytes:
			r, w := io.Pipe()
			cmd.Stdin = r
			writer = w
		default:
			cmd.Stdin = os.Stdin
		}

		stderrWinner, stderrFiles := openStreamRedirects(stage.Redirects, parser.Stderr, stderr)
		for _, f := range stderrFiles {
			defer f.Close()
		}
		if stderrWinner != nil {
			cmd.Stderr = stderrWinner.file
		} else {
			cmd.Stderr = stderr
		}

		stdoutWinner, stdoutFiles := openStreamRedirects(stage.Redirects, parser.Stdout, stderr)
		for _, f := range stdoutFiles {
			defer f.Close()
		}
		var pipeOut *os.File
		switch {
		case stdoutWinner != nil:
			cmd.Stdout = stdoutWinner.file
		case last:
			cmd.Stdout = stdout
		default:
			pr, pw, err := os.Pipe()
			if err != nil {
				waitAll()
				return Result{}, err
			}
			cmd.Stdout = pw
			pipeOut = pr
		}

		if err := cmd.Start(); err != nil {
			waitAll()
			fmt.Fprintf(stderr, "%s: %v\n", stage.Cmd.Name, err)
			return Result{}, nil
		}
		children = append(children, cmd)

		if pw, ok := cmd.Stdout.(*os.File); ok && pipeOut != nil {
			pw.Close()
		}
		if stdinFile != nil {
			stdinFile.Close()
		}

		if writer != nil {
			payload := cur.bytes
			go func() {
				writer.Write(payload)
				writer.Close()
			}()
		}

		if last {
			continue
		}

		if pipeOut != nil {
			cur = input{kind: inputExternalFd, fd: pipeOut}
		} else {
			cur = input{kind: inputNone}
		}
	}

	waitAll()
	return Result{}, nil
}

// outcomeText renders a builtin's outcome/error pair into the text
// that would go to stdout and the text that would go to stderr.
func outcomeText(outcome builtins.Outcome, err error) (stdoutText, stderrText string) {
	if err != nil {
		return "", err.Error() + "\n"
	}
	return outcome.Text, ""
}

// streamRedirect is the file a stream's output should actually land
// in: the last of possibly several redirects declared for that stream.
type streamRedirect struct {
	file *os.File
	path string
}

// openStreamRedirects opens every redirect targeting stream, in
// declaration order, so each declared target is created, truncated or
// appended to as spec.md requires — even though only the last one
// ever receives bytes. It returns the winning (last) redirect, if
// any, plus every file it opened; the caller closes them once done.
func openStreamRedirects(redirects []parser.Redirection, stream parser.Stream, stderr io.Writer) (winner *streamRedirect, opened []*os.File) {
	for _, r := range redirects {
		if r.Stream != stream {
			continue
		}
		f, err := redirect.Open(r.Path, r.Append)
		if err != nil {
			fmt.Fprintln(stderr, err)
			continue
		}
		opened = append(opened, f)
		winner = &streamRedirect{file: f, path: r.Path}
	}
	return winner, opened
}

// handleBuiltinRedirection implements the last-stage console-routing
// contract: with no redirects, text goes straight to its stream; with
// redirects, every declared target is opened but only the last one
// per stream receives the text, and the console is silenced for any
// stream that got redirected.
func handleBuiltinRedirection(redirects []parser.Redirection, stdoutText, stderrText string, stdout, stderr io.Writer) {
	stdoutWinner, stdoutFiles := openStreamRedirects(redirects, parser.Stdout, stderr)
	stderrWinner, stderrFiles := openStreamRedirects(redirects, parser.Stderr, stderr)
	for _, f := range stdoutFiles {
		defer f.Close()
	}
	for _, f := range stderrFiles {
		defer f.Close()
	}

	switch {
	case stdoutWinner != nil:
		if stdoutText != "" {
			redirect.WriteString(stdoutWinner.file, stdoutWinner.path, stdoutText)
		}
	case stdoutText != "":
		io.WriteString(stdout, stdoutText)
	}

	switch {
	case stderrWinner != nil:
		if stderrText != "" {
			redirect.WriteString(stderrWinner.file, stderrWinner.path, stderrText)
		}
	case stderrText != "":
		io.WriteString(stderr, stderrText)
	}
}

// handleBuiltinRedirectionCapture is handleBuiltinRedirection's
// non-last-stage sibling: it applies the same redirect semantics but
// returns the stdout text as bytes for the next stage to consume
// instead of writing it to the console.
func handleBuiltinRedirectionCapture(redirects []parser.Redirection, stdoutText, stderrText string, stdout, stderr io.Writer) []byte {
	stdoutWinner, stdoutFiles := openStreamRedirects(redirects, parser.Stdout, stderr)
	stderrWinner, stderrFiles := openStreamRedirects(redirects, parser.Stderr, stderr)
	for _, f := range stdoutFiles {
		defer f.Close()
	}
	for _, f := range stderrFiles {
		defer f.Close()
	}

	switch {
	case stderrWinner != nil:
		if stderrText != "" {
			redirect.WriteString(stderrWinner.file, stderrWinner.path, stderrText)
		}
	case stderrText != "":
		io.WriteString(stderr, stderrText)
	}

	if stdoutWinner != nil {
		if stdoutText != "" {
			redirect.WriteString(stdoutWinner.file, stdoutWinner.path, stdoutText)
		}
		return nil
	}
	return []byte(stdoutText)
}
