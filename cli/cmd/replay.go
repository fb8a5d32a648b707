package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/extop/cli/reader"
	"github.com/pithecene-io/extop/cli/render"
	"github.com/pithecene-io/extop/cli/tui"
	"github.com/pithecene-io/extop/iox"
	"github.com/pithecene-io/extop/metrics"
	"github.com/pithecene-io/extop/stream"
	"github.com/pithecene-io/extop/types"
)

// ReplayCommand returns the replay command.
// Replay feeds a capture through the dispatcher exactly as a live
// connection would and renders what the listener observed.
func ReplayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Replay a captured changelog batch response stream",
		ArgsUsage: "<capture-file|->",
		Flags: append(ReadOnlyFlags(),
			&cli.BoolFlag{
				Name:  "summary",
				Usage: "Show only the summary",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Log the request counters when the replay ends",
			},
		),
		Action: replayAction,
	}
}

func replayAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("capture file required", exitFailure)
	}
	path := c.Args().First()

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
	logger, err := newLogger(c, cfg)
	if err != nil {
		return err
	}
	defer iox.DiscardErr(logger.Sync)
	diag := logger.Sugar().With("capture", path)

	in, err := iox.OpenInput(path, c.App.Reader)
	if err != nil {
		return cli.Exit(fmt.Sprintf("open capture: %v", err), exitFailure)
	}
	defer iox.DiscardClose(in)

	diag.Debugf("replaying with %s token encoding", enc)
	collector := metrics.NewCollector(types.OIDChangelogBatchRequest, "replay", path)
	view, replayErr := reader.Replay(c.Context, in, enc,
		stream.WithLogger(logger),
		stream.WithCollector(collector),
	)
	if c.Bool("metrics") {
		snap := collector.Snapshot()
		logger.Info("replay metrics", map[string]any{
			"requests_completed": snap.RequestsCompleted,
			"requests_failed":    snap.RequestsFailed,
			"entries_delivered":  snap.EntriesDelivered,
			"gap_notices":        snap.GapNotices,
			"other_responses":    snap.OtherResponses,
			"decode_errors":      snap.DecodeErrors,
			"status_errors":      snap.StatusErrors,
			"transport_errors":   snap.TransportErrors,
		})
	}
	if view == nil {
		return cli.Exit(replayErr.Error(), exitFailure)
	}
	if replayErr != nil {
		diag.Warnf("replay stopped in state %s after %d entries: %v",
			view.Summary.State, view.Summary.Entries, replayErr)
	}

	var renderErr error
	switch {
	case c.Bool("tui") && c.Bool("summary"):
		renderErr = r.RenderTUI(tui.ViewReplaySummary, view)
	case c.Bool("tui"):
		renderErr = r.RenderTUI(tui.ViewReplay, view)
	case c.Bool("summary"):
		renderErr = r.Render(view.Summary)
	default:
		renderErr = r.RenderReplay(view)
	}
	if renderErr != nil {
		return renderErr
	}

	if replayErr != nil {
		// The view already carries the error; only the exit code remains.
		return cli.Exit("", exitCodeFor(replayErr))
	}
	return nil
}
