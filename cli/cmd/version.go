package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/extop/cli/reader"
	"github.com/pithecene-io/extop/cli/render"
	"github.com/pithecene-io/extop/types"
)

// VersionCommand returns the version command.
// The library, the binary and the capture format share one version.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  ReadOnlyFlags(),
		Action: versionAction(commit),
	}
}

func versionAction(commit string) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.Bool("tui") {
			return cli.Exit("--tui is not supported for version command", exitFailure)
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		r, err := render.NewRenderer(c, cfg.Output.Format)
		if err != nil {
			return err
		}

		return r.Render(reader.VersionView{
			Version:        types.Version,
			CaptureVersion: types.CaptureVersion,
			Commit:         commit,
		})
	}
}
