package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = isTTY

func isTTY() bool {
	st, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}

// prepareOutput cleans path and creates its parent directory.
func prepareOutput(path string) (string, error) {
	if path == "" {
		return "", errors.New("output path is empty")
	}
	out := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", errors.Wrapf(err, "create directory for %s", out)
	}
	return out, nil
}
