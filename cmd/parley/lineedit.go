package main

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// stdinReader is shared so buffered input survives between prompts when
// stdin is a pipe.
var stdinReader = bufio.NewReader(os.Stdin)

func readPlainLine(r *bufio.Reader) (string, error) {
	s, err := r.ReadString('\n')
	if err == io.EOF && s != "" {
		return trimTrailingNewline(s), nil
	}
	if err != nil {
		return "", err
	}
	return trimTrailingNewline(s), nil
}

func trimTrailingNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// keyResult is what the editor wants the caller to do after a byte.
type keyResult int

const (
	keyContinue keyResult = iota
	keyRedraw
	keySubmit
	keyEOF
	keyInterrupt
)

// lineEditor is the terminal-independent half of the interactive prompt:
// a byte buffer with a cursor, escape sequence decoding and history.
type lineEditor struct {
	line    []byte
	cursor  int
	history []string

	esc    int
	escBuf strings.Builder

	histPos      int
	histBrowsing bool
	histDraft    string
}

func newLineEditor(history []string) *lineEditor {
	return &lineEditor{history: history, histPos: len(history)}
}

// reset prepares the editor for a new prompt, keeping its history.
func (e *lineEditor) reset() {
	e.line = e.line[:0]
	e.cursor = 0
	e.esc = 0
	e.histPos = len(e.history)
	e.histBrowsing = false
	e.histDraft = ""
}

func (e *lineEditor) String() string { return string(e.line) }

// submit returns the current line and records it in history when not blank.
func (e *lineEditor) submit() string {
	out := string(e.line)
	if strings.TrimSpace(out) != "" {
		e.history = append(e.history, out)
	}
	return out
}

// feed applies one input byte.
func (e *lineEditor) feed(b byte) keyResult {
	switch e.esc {
	case 1:
		e.esc = 0
		switch b {
		case '[':
			e.esc = 2
			e.escBuf.Reset()
			return keyContinue
		case 'b', 'B':
			return e.wordLeft()
		case 'f', 'F':
			return e.wordRight()
		case 127:
			return e.deleteWordBack()
		}
		return keyContinue
	case 2:
		e.escBuf.WriteByte(b)
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			e.esc = 0
			return e.csi(e.escBuf.String())
		}
		return keyContinue
	}

	switch b {
	case 27:
		e.esc = 1
		return keyContinue
	case '\r', '\n':
		return keySubmit
	case 3:
		return keyInterrupt
	case 4:
		if len(e.line) == 0 {
			return keyEOF
		}
		return keyContinue
	case 127, 8:
		if e.cursor == 0 {
			return keyContinue
		}
		e.line = append(e.line[:e.cursor-1], e.line[e.cursor:]...)
		e.cursor--
		return keyRedraw
	case 1:
		e.cursor = 0
		return keyRedraw
	case 5:
		e.cursor = len(e.line)
		return keyRedraw
	case 23:
		return e.deleteWordBack()
	}
	if b < 32 {
		return keyContinue
	}
	e.line = append(e.line, 0)
	copy(e.line[e.cursor+1:], e.line[e.cursor:])
	e.line[e.cursor] = b
	e.cursor++
	return keyRedraw
}

func (e *lineEditor) csi(seq string) keyResult {
	switch seq {
	case "A":
		return e.historyUp()
	case "B":
		return e.historyDown()
	case "D":
		if e.cursor > 0 {
			e.cursor--
			return keyRedraw
		}
	case "C":
		if e.cursor < len(e.line) {
			e.cursor++
			return keyRedraw
		}
	case "H":
		e.cursor = 0
		return keyRedraw
	case "F":
		e.cursor = len(e.line)
		return keyRedraw
	case "3~":
		if e.cursor < len(e.line) {
			e.line = append(e.line[:e.cursor], e.line[e.cursor+1:]...)
			return keyRedraw
		}
	case "1;5D", "5D":
		return e.wordLeft()
	case "1;5C", "5C":
		return e.wordRight()
	case "3;5~":
		return e.deleteWordForward()
	}
	return keyContinue
}

func (e *lineEditor) historyUp() keyResult {
	if len(e.history) == 0 {
		return keyContinue
	}
	if !e.histBrowsing {
		e.histDraft = string(e.line)
		e.histBrowsing = true
		e.histPos = len(e.history)
	}
	if e.histPos == 0 {
		return keyContinue
	}
	e.histPos--
	e.line = append(e.line[:0], e.history[e.histPos]...)
	e.cursor = len(e.line)
	return keyRedraw
}

func (e *lineEditor) historyDown() keyResult {
	if !e.histBrowsing {
		return keyContinue
	}
	if e.histPos < len(e.history)-1 {
		e.histPos++
		e.line = append(e.line[:0], e.history[e.histPos]...)
	} else {
		e.histPos = len(e.history)
		e.line = append(e.line[:0], e.histDraft...)
		e.histBrowsing = false
	}
	e.cursor = len(e.line)
	return keyRedraw
}

func isBlank(b byte) bool { return b == ' ' || b == '\t' }

func (e *lineEditor) wordStart() int {
	i := e.cursor
	for i > 0 && isBlank(e.line[i-1]) {
		i--
	}
	for i > 0 && !isBlank(e.line[i-1]) {
		i--
	}
	return i
}

func (e *lineEditor) wordEnd() int {
	i := e.cursor
	for i < len(e.line) && isBlank(e.line[i]) {
		i++
	}
	for i < len(e.line) && !isBlank(e.line[i]) {
		i++
	}
	return i
}

func (e *lineEditor) wordLeft() keyResult {
	if e.cursor == 0 {
		return keyContinue
	}
	e.cursor = e.wordStart()
	return keyRedraw
}

func (e *lineEditor) wordRight() keyResult {
	if e.cursor >= len(e.line) {
		return keyContinue
	}
	e.cursor = e.wordEnd()
	return keyRedraw
}

func (e *lineEditor) deleteWordBack() keyResult {
	if e.cursor == 0 {
		return keyContinue
	}
	start := e.wordStart()
	e.line = append(e.line[:start], e.line[e.cursor:]...)
	e.cursor = start
	return keyRedraw
}

func (e *lineEditor) deleteWordForward() keyResult {
	if e.cursor >= len(e.line) {
		return keyContinue
	}
	end := e.wordEnd()
	e.line = append(e.line[:e.cursor], e.line[end:]...)
	return keyRedraw
}
