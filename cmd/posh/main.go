// Command posh is a small POSIX-flavored interactive shell: a raw-mode
// line editor with history and tab completion feeding a lexer/parser
// pipeline that dispatches builtins in-process and spawns everything
// else from $PATH.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nwidger/posh/internal/builtins"
	"github.com/nwidger/posh/internal/completion"
	"github.com/nwidger/posh/internal/editor"
	"github.com/nwidger/posh/internal/parser"
	"github.com/nwidger/posh/internal/pipeline"
	"github.com/nwidger/posh/internal/shellctx"
)

const prompt = "posh> "

func main() {
	os.Exit(run())
}

func run() int {
	// shellctx.New already loads and arms $HISTFILE, if set, for an
	// appending flush on shutdown.
	ctx := shellctx.New()
	defer ctx.ShutDown()

	comp := completion.New(builtins.Names())
	ed := editor.New(os.Stdin, os.Stdout, comp, ctx)

	for {
		line, err := ed.ReadLine(prompt)
		if err != nil {
			if errors.Is(err, editor.ErrEOF) {
				return 0
			}
			fmt.Fprintf(os.Stderr, "posh: %v\n", err)
			return 1
		}

		if line == "" {
			continue
		}

		ctx.AddHistory(line)

		pipe, err := parser.Parse(line, builtins.IsBuiltin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "posh: %v\n", err)
			continue
		}

		res, err := pipeline.Run(pipe, ctx, os.Stdout, os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "posh: %v\n", err)
			continue
		}
		if res.Exit {
			return res.ExitCode
		}
	}
}
