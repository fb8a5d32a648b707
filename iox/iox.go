// Package iox provides I/O helpers for command input and resource cleanup.
package iox

import (
	"io"
	"os"
)

// StdinPath is the path argument that selects standard input.
const StdinPath = "-"

// OpenInput opens path for reading. StdinPath returns stdin wrapped so that
// closing it leaves stdin open.
func OpenInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == StdinPath {
		return io.NopCloser(stdin), nil
	}
	return os.Open(path)
}

// ReadInput reads all of path, or stdin for StdinPath.
func ReadInput(path string, stdin io.Reader) ([]byte, error) {
	rc, err := OpenInput(path, stdin)
	if err != nil {
		return nil, err
	}
	defer DiscardClose(rc)
	return io.ReadAll(rc)
}

// DiscardClose closes c and discards the error.
// Use in defer statements where close errors are unactionable:
//
//	defer iox.DiscardClose(f)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a cleanup function that closes c.
// Designed for t.Cleanup registration:
//
//	t.Cleanup(iox.CloseFunc(f))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr calls fn and discards the returned error.
// Use for non-Close cleanup calls where errors are unactionable:
//
//	defer iox.DiscardErr(logger.Sync)
func DiscardErr(fn func() error) { _ = fn() }
