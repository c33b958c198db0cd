//go:build linux

package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var editor = newLineEditor(nil)

// readInteractiveLine reads one line with cursor movement and history when
// stdin is a terminal, and plain buffered reads otherwise.
func readInteractiveLine(prompt string) (string, error) {
	if !stdinIsTTY() {
		return readPlainLine(stdinReader)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return "", err
	}
	raw := *oldState
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return "", err
	}
	defer func() {
		_ = unix.IoctlSetTermios(fd, unix.TCSETS, oldState)
	}()

	editor.reset()
	fmt.Print(prompt)
	redraw := func() {
		fmt.Printf("\r%s%s\x1b[K", prompt, editor.String())
		if editor.cursor < len(editor.line) {
			fmt.Printf("\r%s%s", prompt, string(editor.line[:editor.cursor]))
		}
	}

	var buf [16]byte
	for {
		n, err := os.Stdin.Read(buf[:])
		if err != nil {
			return "", err
		}
		for _, b := range buf[:n] {
			switch editor.feed(b) {
			case keyRedraw:
				redraw()
			case keySubmit:
				fmt.Print("\r\n")
				return editor.submit(), nil
			case keyInterrupt:
				fmt.Print("^C\r\n")
				return "", io.EOF
			case keyEOF:
				fmt.Print("\r\n")
				return "", io.EOF
			}
		}
	}
}
