// Package main provides the changelogctl CLI entrypoint.
//
// Usage:
//
//	changelogctl <command> [options]
//
// Exit codes:
//   - 0: success
//   - 1: usage, I/O or transport failure
//   - 2: a value or response did not decode
//   - 3: the server returned a non-success result
//   - 4: invalid configuration or request parameters
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/extop/cli/cmd"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := cmd.NewApp(commit)
	app.ExitErrHandler = exitErrHandler

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already exited for errors it recognizes.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	os.Exit(exitCode(err, os.Stderr))
}

// exitCode reports err on stderr and returns the process exit code.
// cli.Exit("", N) carries only a code and prints nothing.
func exitCode(err error, stderr io.Writer) int {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(stderr, msg)
		}
		return code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}
