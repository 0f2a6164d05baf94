// Package parser assembles a lexer token sequence into a Pipeline:
// an ordered list of CommandStages, each carrying its resolved
// command, fused argument words, and per-stage redirections.
package parser

import (
	"fmt"
	"strings"

	"github.com/nwidger/posh/internal/lexer"
)

// Stream identifies which standard stream a Redirection targets.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// Redirection overrides one of a stage's standard streams to a file.
type Redirection struct {
	Stream Stream
	Append bool
	Path   string
}

// Cmd names a stage's command and whether it resolved to a builtin.
type Cmd struct {
	Builtin bool
	Name    string
}

// Stage is one command position in a Pipeline.
type Stage struct {
	Cmd       Cmd
	Args      []string
	Redirects []Redirection
}

// Pipeline is an ordered, non-empty sequence of Stages. Stdout of
// stage i feeds stdin of stage i+1.
type Pipeline struct {
	Stages []Stage
}

// ErrorKind classifies a parse-time failure, continuing the taxonomy
// started by lexer.ErrorKind.
type ErrorKind int

const (
	Parsing ErrorKind = iota
	MissingArg
)

func (k ErrorKind) String() string {
	switch k {
	case Parsing:
		return "Parsing"
	case MissingArg:
		return "MissingArg"
	default:
		return "Unknown"
	}
}

// Error reports a parse-time failure.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// IsBuiltin decides whether a resolved command name is a builtin
// verb. Parser takes it as a parameter instead of importing the
// builtins package directly, so the two packages never need to know
// about each other.
type IsBuiltin func(name string) bool

// Parse lexes and parses a full input line into a Pipeline.
func Parse(line string, isBuiltin IsBuiltin) (*Pipeline, error) {
	tokens, err := lexer.Lex(line)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens, isBuiltin)
}

// ParseTokens parses an already-lexed token sequence.
func ParseTokens(tokens []lexer.Token, isBuiltin IsBuiltin) (*Pipeline, error) {
	groups := splitOnPipes(tokens)
	stages := make([]Stage, 0, len(groups))
	for _, group := range groups {
		if len(group) == 0 {
			return nil, &Error{Kind: Parsing, Msg: "empty pipeline stage"}
		}
		stage, err := parseStage(group, isBuiltin)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}

	return &Pipeline{Stages: stages}, nil
}

func splitOnPipes(tokens []lexer.Token) [][]lexer.Token {
	var groups [][]lexer.Token
	var cur []lexer.Token
	for _, tok := range tokens {
		if tok.Kind == lexer.Pipe {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, tok)
	}
	groups = append(groups, cur)
	return groups
}

func parseStage(tokens []lexer.Token, isBuiltin IsBuiltin) (Stage, error) {
	name := resolveText(tokens[0])
	stage := Stage{Cmd: Cmd{Name: name, Builtin: isBuiltin(name)}}

	var currentArg strings.Builder
	haveArg := false

	flush := func() {
		if haveArg {
			stage.Args = append(stage.Args, currentArg.String())
			currentArg.Reset()
			haveArg = false
		}
	}

	i := 1
	for i < len(tokens) {
		tok := tokens[i]

		if tok.Kind == lexer.Redirect {
			if i+1 >= len(tokens) {
				return Stage{}, &Error{Kind: MissingArg, Msg: fmt.Sprintf("%s: missing redirect target", tok.Origin)}
			}
			path := resolveText(tokens[i+1])
			stream, appendMode := evalRedirect(tok.Origin)
			stage.Redirects = append(stage.Redirects, Redirection{Stream: stream, Append: appendMode, Path: path})
			i += 2
			continue
		}

		currentArg.WriteString(resolveText(tok))
		haveArg = true
		if !tok.Adjacent {
			flush()
		}
		i++
	}
	flush()

	return stage, nil
}

// resolveText produces the text a token contributes to an argument or
// command name, resolving double-quote escapes.
func resolveText(tok lexer.Token) string {
	if tok.Kind == lexer.DoubleQuoted {
		return lexer.UnescapeDouble(tok.Origin)
	}
	return tok.Origin
}

// evalRedirect decodes one of the six literal redirect operator forms.
func evalRedirect(op string) (Stream, bool) {
	stream := Stdout
	if strings.HasPrefix(op, "2") {
		stream = Stderr
	}
	appendMode := strings.HasSuffix(op, ">>")
	return stream, appendMode
}
