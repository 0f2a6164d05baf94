// Package editor implements the raw-mode interactive line editor: cursor
// movement, insertion and deletion, history recall and tab completion.
// It reads stdin byte-by-byte while the terminal is in raw mode and
// writes control sequences directly to stdout to keep the cursor column
// synchronized with the buffer after every keystroke.
package editor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/nwidger/posh/internal/completion"
	"github.com/nwidger/posh/internal/shellctx"
)

// key identifies a logical keypress once escape sequences have been
// decoded.
type key int

const (
	keyNone key = iota
	keyRune
	keyEnter
	keyBackspace
	keyDelete
	keyLeft
	keyRight
	keyHome
	keyEnd
	keyUp
	keyDown
	keyTab
	keyCtrlC
	keyCtrlD
)

// EditorState is the buffer and cursor the key handlers mutate, plus
// the last key seen so consecutive Tabs can be told apart from a Tab
// following some other edit.
type EditorState struct {
	buffer  []rune
	cursor  int
	lastKey key
	depth   int
}

// TerminalGuard toggles the controlling terminal between raw and
// cooked mode. It is safe to call Restore more than once; only the
// first call on a guard returned by NewTerminalGuard does anything.
type TerminalGuard struct {
	fd    int
	state *readline.State
}

// NewTerminalGuard puts fd into raw mode, remembering the prior
// settings so Restore can put them back.
func NewTerminalGuard(fd int) (*TerminalGuard, error) {
	state, err := readline.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("editor: enable raw mode: %w", err)
	}
	return &TerminalGuard{fd: fd, state: state}, nil
}

// Restore returns the terminal to its pre-raw-mode settings.
func (g *TerminalGuard) Restore() error {
	if g == nil || g.state == nil {
		return nil
	}
	err := readline.Restore(g.fd, g.state)
	g.state = nil
	return err
}

// ErrEOF is returned by ReadLine when Ctrl-D is pressed on an empty
// buffer.
var ErrEOF = io.EOF

// Editor reads one line at a time from a raw-mode terminal, rendering
// the prompt and buffer as the user types.
type Editor struct {
	in        *bufio.Reader
	out       io.Writer
	fd        int
	completer *completion.Completer
	ctx       *shellctx.Context
}

// New builds an Editor reading from in (normally os.Stdin) and writing
// prompts/redraws to out (normally os.Stdout). The file descriptor
// backing in is kept for raw-mode toggling.
func New(in *os.File, out io.Writer, completer *completion.Completer, ctx *shellctx.Context) *Editor {
	return &Editor{
		in:        bufio.NewReader(in),
		out:       out,
		fd:        int(in.Fd()),
		completer: completer,
		ctx:       ctx,
	}
}

// ReadLine puts the terminal in raw mode, renders prompt, and runs the
// edit loop until Enter, Ctrl-C or Ctrl-D. It returns ErrEOF when
// Ctrl-D is pressed with an empty buffer. When stdin is not a
// terminal (a pipe or redirected file, as in a scripted or tested
// invocation), it falls back to plain line-buffered reading with no
// editing, history recall or completion.
func (e *Editor) ReadLine(prompt string) (string, error) {
	if !term.IsTerminal(e.fd) {
		return e.readLineCooked(prompt)
	}

	guard, err := NewTerminalGuard(e.fd)
	if err != nil {
		return "", err
	}
	defer guard.Restore()

	st := &EditorState{depth: -1}
	e.redraw(prompt, st)

	for {
		r, k, err := e.readKey()
		if err != nil {
			return "", err
		}

		switch k {
		case keyEnter:
			fmt.Fprint(e.out, "\r\n")
			line := string(st.buffer)
			e.ctx.ClearSnapshot()
			return line, nil

		case keyCtrlC:
			fmt.Fprint(e.out, "\r\n")
			return "", nil

		case keyCtrlD:
			if len(st.buffer) == 0 {
				fmt.Fprint(e.out, "\r\n")
				return "", ErrEOF
			}

		case keyBackspace:
			if st.cursor > 0 {
				st.buffer = append(st.buffer[:st.cursor-1], st.buffer[st.cursor:]...)
				st.cursor--
			}
			st.lastKey = k
			e.redraw(prompt, st)

		case keyDelete:
			if st.cursor < len(st.buffer) {
				st.buffer = append(st.buffer[:st.cursor], st.buffer[st.cursor+1:]...)
			}
			st.lastKey = k
			e.redraw(prompt, st)

		case keyLeft:
			if st.cursor > 0 {
				st.cursor--
			}
			st.lastKey = k
			e.redraw(prompt, st)

		case keyRight:
			if st.cursor < len(st.buffer) {
				st.cursor++
			}
			st.lastKey = k
			e.redraw(prompt, st)

		case keyHome:
			st.cursor = 0
			st.lastKey = k
			e.redraw(prompt, st)

		case keyEnd:
			st.cursor = len(st.buffer)
			st.lastKey = k
			e.redraw(prompt, st)

		case keyUp:
			st.depth++
			st.buffer = []rune(e.ctx.Recall(st.depth, string(st.buffer)))
			st.cursor = len(st.buffer)
			st.lastKey = k
			e.redraw(prompt, st)

		case keyDown:
			if st.depth > -1 {
				st.depth--
			}
			st.buffer = []rune(e.ctx.Recall(st.depth, string(st.buffer)))
			st.cursor = len(st.buffer)
			st.lastKey = k
			e.redraw(prompt, st)

		case keyTab:
			e.handleTab(prompt, st)

		case keyRune:
			st.buffer = append(st.buffer[:st.cursor], append([]rune{r}, st.buffer[st.cursor:]...)...)
			st.cursor++
			st.lastKey = k
			e.redraw(prompt, st)
		}
	}
}

// readLineCooked is the non-terminal fallback: no escape decoding, no
// redraw, just a newline-delimited read. Ctrl-D on an empty pipe
// surfaces the same ErrEOF a raw-mode Ctrl-D would.
func (e *Editor) readLineCooked(prompt string) (string, error) {
	fmt.Fprint(e.out, prompt)
	line, err := e.in.ReadString('\n')
	if err != nil {
		if line == "" {
			return "", ErrEOF
		}
		return trimNewline(line), nil
	}
	return trimNewline(line), nil
}

func trimNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s
}

func (e *Editor) handleTab(prompt string, st *EditorState) {
	partial := string(st.buffer)
	if partial == "" {
		fmt.Fprint(e.out, "\a")
		st.lastKey = keyTab
		return
	}

	candidates := e.completer.Complete(partial)

	switch {
	case len(candidates) == 1:
		st.buffer = []rune(candidates[0])
		st.cursor = len(st.buffer)
		st.lastKey = keyNone

	case len(candidates) >= 2:
		common := completion.CommonPrefix(candidates)
		if len(common) > len(partial) {
			st.buffer = []rune(common)
			st.cursor = len(st.buffer)
			st.lastKey = keyTab
		} else if st.lastKey == keyTab {
			fmt.Fprint(e.out, "\r\n")
			for i, c := range candidates {
				if i > 0 {
					fmt.Fprint(e.out, " ")
				}
				fmt.Fprint(e.out, c)
			}
			fmt.Fprint(e.out, "\r\n")
			st.lastKey = keyNone
		} else {
			fmt.Fprint(e.out, "\a")
			st.lastKey = keyTab
		}

	default:
		fmt.Fprint(e.out, "\a")
		st.lastKey = keyTab
	}

	e.redraw(prompt, st)
}

// redraw satisfies the §4.B contract: \r, prompt, buffer, clear to end
// of line, cursor to absolute column prompt_width + cursor.
func (e *Editor) redraw(prompt string, st *EditorState) {
	fmt.Fprintf(e.out, "\r%s%s\x1b[K\r\x1b[%dC", prompt, string(st.buffer), len([]rune(prompt))+st.cursor)
}

// readKey reads one logical key from stdin, decoding the CSI escape
// sequences used for arrows, Home and End.
func (e *Editor) readKey() (rune, key, error) {
	b, err := e.in.ReadByte()
	if err != nil {
		return 0, keyNone, err
	}

	switch b {
	case '\r', '\n':
		return 0, keyEnter, nil
	case 0x03:
		return 0, keyCtrlC, nil
	case 0x04:
		return 0, keyCtrlD, nil
	case 0x7f, 0x08:
		return 0, keyBackspace, nil
	case '\t':
		return 0, keyTab, nil
	case 0x1b:
		return e.readEscape()
	}

	if b < 0x20 {
		return 0, keyNone, nil
	}

	if b < 0x80 {
		return rune(b), keyRune, nil
	}

	// Multi-byte UTF-8: b is the lead byte already consumed by
	// ReadByte, so decode the remainder with a small buffer.
	n := utf8LeadLen(b)
	buf := make([]byte, n)
	buf[0] = b
	for i := 1; i < n; i++ {
		nb, err := e.in.ReadByte()
		if err != nil {
			return rune(b), keyRune, nil
		}
		buf[i] = nb
	}
	r := decodeRune(buf)
	return r, keyRune, nil
}

func utf8LeadLen(b byte) int {
	switch {
	case b&0xe0 == 0xc0:
		return 2
	case b&0xf0 == 0xe0:
		return 3
	case b&0xf8 == 0xf0:
		return 4
	default:
		return 1
	}
}

func decodeRune(buf []byte) rune {
	r, _ := utf8.DecodeRune(buf)
	return r
}

func (e *Editor) readEscape() (rune, key, error) {
	b1, err := e.in.ReadByte()
	if err != nil {
		return 0, keyNone, nil
	}
	if b1 != '[' && b1 != 'O' {
		return 0, keyNone, nil
	}
	b2, err := e.in.ReadByte()
	if err != nil {
		return 0, keyNone, nil
	}
	switch b2 {
	case 'A':
		return 0, keyUp, nil
	case 'B':
		return 0, keyDown, nil
	case 'C':
		return 0, keyRight, nil
	case 'D':
		return 0, keyLeft, nil
	case 'H':
		return 0, keyHome, nil
	case 'F':
		return 0, keyEnd, nil
	case '3':
		// CSI 3 ~ is Delete; consume the trailing ~.
		e.in.ReadByte()
		return 0, keyDelete, nil
	}
	return 0, keyNone, nil
}
