package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/extop/types"
)

// NewApp builds the changelogctl application. The caller installs an
// ExitErrHandler appropriate for its process.
func NewApp(commit string) *cli.App {
	return &cli.App{
		Name:    "changelogctl",
		Usage:   "Build, decode and replay changelog batch extended operations",
		Version: fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		// Base DNs contain commas.
		DisableSliceFlagSeparator: true,
		Commands: []*cli.Command{
			RequestCommand(),
			DecodeCommand(),
			ReplayCommand(),
			VersionCommand(commit),
		},
	}
}
