// Package builtins implements the fixed dispatch table of in-process
// shell verbs: exit, echo, pwd, cd, type and history. Each handler
// receives the stage's arguments and the shared shell context and
// returns an Outcome instead of writing to stdout directly — the
// pipeline executor owns deciding whether that text goes to the
// console or to a redirected file.
package builtins

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nwidger/posh/internal/shellctx"
)

// Kind distinguishes the three shapes a builtin call can resolve to.
type Kind int

const (
	Continue Kind = iota
	ResultText
	ExitShell
)

// Outcome is what a builtin returns on success. A failure is instead
// reported as a non-nil error from Handler, carrying the message that
// should reach stderr (or a redirected stderr target).
type Outcome struct {
	Kind Kind
	Text string
	Code int
}

// Handler implements one builtin verb.
type Handler func(args []string, ctx *shellctx.Context) (Outcome, error)

var registry = map[string]Handler{
	"exit":    exitCmd,
	"echo":    echoCmd,
	"pwd":     pwdCmd,
	"cd":      cdCmd,
	"type":    typeCmd,
	"history": historyCmd,
}

// Names returns every builtin verb, for the completer's static
// candidate set.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// IsBuiltin reports whether name is a registered builtin verb.
func IsBuiltin(name string) bool {
	_, ok := registry[name]
	return ok
}

// Dispatch runs the builtin named by name. The caller must already
// know IsBuiltin(name) is true.
func Dispatch(name string, args []string, ctx *shellctx.Context) (Outcome, error) {
	handler, ok := registry[name]
	if !ok {
		return Outcome{}, fmt.Errorf("%s: not a builtin", name)
	}
	return handler(args, ctx)
}

func exitCmd(args []string, ctx *shellctx.Context) (Outcome, error) {
	if err := ctx.ShutDown(); err != nil {
		return Outcome{}, err
	}

	code := 0
	if len(args) > 0 {
		// A non-numeric argument exits 0 rather than erroring, matching
		// the behavior of the prototype this shell was distilled from.
		if n, err := strconv.Atoi(args[0]); err == nil {
			code = n
		}
	}
	return Outcome{Kind: ExitShell, Code: code}, nil
}

func echoCmd(args []string, _ *shellctx.Context) (Outcome, error) {
	return Outcome{Kind: ResultText, Text: strings.Join(args, " ") + "\n"}, nil
}

func pwdCmd(args []string, _ *shellctx.Context) (Outcome, error) {
	if len(args) > 0 {
		return Outcome{}, fmt.Errorf("pwd: too many arguments")
	}
	dir, err := os.Getwd()
	if err != nil {
		return Outcome{}, fmt.Errorf("pwd: %w", err)
	}
	return Outcome{Kind: ResultText, Text: dir + "\n"}, nil
}

func cdCmd(args []string, _ *shellctx.Context) (Outcome, error) {
	if len(args) > 1 {
		return Outcome{}, fmt.Errorf("cd: too many arguments")
	}

	origArg := "~"
	dir := os.Getenv("HOME")
	if len(args) == 1 {
		origArg = args[0]
		dir = expandHome(args[0])
	}

	if err := os.Chdir(dir); err != nil {
		return Outcome{}, fmt.Errorf("cd: %s: No such file or directory", origArg)
	}
	return Outcome{Kind: Continue}, nil
}

// expandHome replaces a bare ~, or the ~ of a leading ~/, with $HOME.
// Any other ~ (one buried in the middle of the argument, or a ~ followed
// directly by a name such as ~user) is left alone.
func expandHome(dir string) string {
	if dir == "~" {
		return os.Getenv("HOME")
	}
	if strings.HasPrefix(dir, "~/") {
		return os.Getenv("HOME") + dir[1:]
	}
	return dir
}

func typeCmd(args []string, _ *shellctx.Context) (Outcome, error) {
	if len(args) == 0 {
		return Outcome{Kind: ResultText, Text: "\n"}, nil
	}
	name := args[0]

	if IsBuiltin(name) {
		return Outcome{Kind: ResultText, Text: fmt.Sprintf("%s is a shell builtin\n", name)}, nil
	}

	if path, ok := scanPath(name); ok {
		return Outcome{Kind: ResultText, Text: fmt.Sprintf("%s is %s\n", name, path)}, nil
	}

	return Outcome{Kind: ResultText, Text: fmt.Sprintf("%s: not found\n", name)}, nil
}

// scanPath duplicates internal/external's $PATH scan rather than
// calling it directly: type's description command is independently
// evaluated at lookup time in the prototype this shell follows,
// never sharing state with the pipeline's own resolver.
func scanPath(name string) (string, bool) {
	pathEnv := os.Getenv("PATH")
	if pathEnv == "" {
		return "", false
	}
	for _, dir := range strings.Split(pathEnv, string(os.PathListSeparator)) {
		if dir == "" {
			continue
		}
		candidate := dir + string(os.PathSeparator) + name
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0o111 != 0 {
			return candidate, true
		}
	}
	return "", false
}

func historyCmd(args []string, ctx *shellctx.Context) (Outcome, error) {
	if len(args) == 0 {
		return Outcome{Kind: ResultText, Text: formatHistory(ctx.History.Entries(), 0)}, nil
	}

	switch args[0] {
	case "-r":
		if len(args) < 2 {
			return Outcome{}, fmt.Errorf("history: -r: missing path")
		}
		if err := ctx.History.SetRead(args[1]); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: Continue}, nil

	case "-w":
		if len(args) < 2 {
			return Outcome{}, fmt.Errorf("history: -w: missing path")
		}
		if err := ctx.History.SetWrite(args[1]); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: Continue}, nil

	case "-a":
		if len(args) < 2 {
			return Outcome{}, fmt.Errorf("history: -a: missing path")
		}
		if err := ctx.History.SetAppend(args[1]); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: Continue}, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return Outcome{}, fmt.Errorf("history: %s: numeric argument required", args[0])
	}
	return Outcome{Kind: ResultText, Text: formatHistory(ctx.History.Entries(), n)}, nil
}

// formatHistory renders entries with their 1-based absolute index.
// n == 0 means "all entries"; n > 0 shows only the last n, still
// numbered by their position in the full list.
func formatHistory(entries []string, n int) string {
	start := 0
	if n > 0 {
		start = len(entries) - n
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < len(entries); i++ {
		fmt.Fprintf(&b, "%5d  %s\n", i+1, entries[i])
	}
	return b.String()
}
