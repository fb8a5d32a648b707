package cmd

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/extop/ber"
	"github.com/pithecene-io/extop/cli/config"
	"github.com/pithecene-io/extop/cli/reader"
	"github.com/pithecene-io/extop/cli/render"
	"github.com/pithecene-io/extop/extop"
	"github.com/pithecene-io/extop/types"
)

// RequestCommand returns the request command.
// It encodes a changelog batch request from config defaults and flags.
// It never contacts a server.
func RequestCommand() *cli.Command {
	return &cli.Command{
		Name:  "request",
		Usage: "Encode a changelog batch extended request",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "start",
				Usage: "Starting point: beginning, end, change_number, token",
			},
			&cli.Int64Flag{
				Name:  "change-number",
				Usage: "Change number to resume at (with --start change_number)",
			},
			&cli.StringFlag{
				Name:  "resume-token",
				Usage: "Resume token in --encoding; implies --start token",
			},
			&cli.IntFlag{
				Name:  "max-changes",
				Usage: "Maximum changes to return",
				Value: config.DefaultMaxChanges,
			},
			&cli.DurationFlag{
				Name:  "max-wait",
				Usage: "How long the server may wait for changes",
			},
			&cli.BoolFlag{
				Name:  "wait-for-max-changes",
				Usage: "Wait until max-changes are available or max-wait elapses",
			},
			&cli.StringSliceFlag{
				Name:  "include-base",
				Usage: "Only return changes below this DN (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude-base",
				Usage: "Skip changes below this DN (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "change-type",
				Usage: "Only return these change types: add, modify, delete, rename (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "continue-on-missing-changes",
				Usage: "Continue past purged changes instead of failing",
			},
			&cli.StringFlag{
				Name:  "select",
				Usage: "Selection mode: any, all, ignore, notification",
			},
			&cli.StringSliceFlag{
				Name:  "select-attr",
				Usage: "Attribute for --select any|all|ignore (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "ignore-operational",
				Usage: "With --select ignore, also ignore operational attributes",
			},
			&cli.StringFlag{
				Name:  "notification-destination",
				Usage: "Entry UUID for --select notification",
			},
			&cli.BoolFlag{
				Name:  "value-only",
				Usage: "Print only the request value, without the extended request envelope",
			},
		),
		Action: requestAction,
	}
}

func requestAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for request command", exitFailure)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	enc, err := resolveEncoding(c, cfg)
	if err != nil {
		return err
	}
	r, err := render.NewRenderer(c, cfg.Output.Format)
	if err != nil {
		return err
	}

	rc, err := requestConfig(c, cfg.Request, enc)
	if err != nil {
		return err
	}
	batch, err := rc.Build()
	if err != nil {
		return cli.Exit("invalid request: "+err.Error(), exitConfigError)
	}

	req, err := extop.NewRequest(types.OIDChangelogBatchRequest, batch)
	if err != nil {
		return err
	}
	data := req.Encode()
	if c.Bool("value-only") {
		data = ber.Encode(batch.Encode())
	}

	return r.Render(&reader.RequestView{
		OID:      req.OID,
		Encoding: string(enc),
		Bytes:    len(data),
		Value:    enc.Format(data),
	})
}

// requestConfig overlays explicitly set flags on the config file's request
// section.
func requestConfig(c *cli.Context, base config.RequestConfig, enc reader.Encoding) (config.RequestConfig, error) {
	rc := base

	rc.Start.From = resolveString(c, "start", base.Start.From)
	if c.IsSet("change-number") {
		rc.Start.ChangeNumber = c.Int64("change-number")
	}
	if c.IsSet("resume-token") {
		token, err := enc.Parse(c.String("resume-token"))
		if err != nil {
			return rc, cli.Exit("invalid --resume-token: "+err.Error(), exitConfigError)
		}
		// StartConfig carries tokens as base64.
		rc.Start.From = "token"
		rc.Start.Token = reader.EncodingBase64.Format(token)
	}

	rc.MaxChanges = int32(resolveInt(c, "max-changes", int(base.MaxChanges)))
	if c.IsSet("max-wait") {
		rc.MaxWait = config.Duration{Duration: c.Duration("max-wait")}
	}
	if rc.MaxWait.Duration%time.Millisecond != 0 {
		return rc, cli.Exit("max-wait must be a whole number of milliseconds", exitConfigError)
	}
	rc.WaitForMaxChanges = resolveBool(c, "wait-for-max-changes", base.WaitForMaxChanges)
	rc.IncludeBases = resolveSlice(c, "include-base", base.IncludeBases)
	rc.ExcludeBases = resolveSlice(c, "exclude-base", base.ExcludeBases)
	rc.ChangeTypes = resolveSlice(c, "change-type", base.ChangeTypes)
	rc.ContinueOnMissingChanges = resolveBool(c, "continue-on-missing-changes", base.ContinueOnMissingChanges)

	if c.IsSet("select") {
		rc.Selection = &config.SelectionConfig{
			Mode:              c.String("select"),
			Attributes:        c.StringSlice("select-attr"),
			IgnoreOperational: c.Bool("ignore-operational"),
			Destination:       c.String("notification-destination"),
		}
	}
	return rc, nil
}
