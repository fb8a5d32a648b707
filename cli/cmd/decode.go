package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/extop/ber"
	"github.com/pithecene-io/extop/cli/reader"
	"github.com/pithecene-io/extop/cli/render"
	"github.com/pithecene-io/extop/extop"
	"github.com/pithecene-io/extop/iox"
	"github.com/pithecene-io/extop/stream"
	"github.com/pithecene-io/extop/types"
)

// Decode modes.
const (
	decodeBER          = "ber"
	decodeResult       = "result"
	decodeIntermediate = "intermediate"
)

// ResultView is a decoded extended result.
type ResultView struct {
	ResultCode        string    `json:"result_code" yaml:"result_code"`
	MatchedDN         string    `json:"matched_dn,omitempty" yaml:"matched_dn,omitempty"`
	DiagnosticMessage string    `json:"diagnostic_message,omitempty" yaml:"diagnostic_message,omitempty"`
	Referrals         []string  `json:"referrals,omitempty" yaml:"referrals,omitempty"`
	OID               string    `json:"oid,omitempty" yaml:"oid,omitempty"`
	Controls          int       `json:"controls" yaml:"controls"`
	Value             *ber.Node `json:"value,omitempty" yaml:"value,omitempty"`
}

// IntermediateView is a decoded intermediate response.
type IntermediateView struct {
	Kind   string           `json:"kind" yaml:"kind"`
	OID    string           `json:"oid,omitempty" yaml:"oid,omitempty"`
	Entry  *reader.EntryRow `json:"entry,omitempty" yaml:"entry,omitempty"`
	Notice *reader.GapRow   `json:"notice,omitempty" yaml:"notice,omitempty"`
	Value  *ber.Node        `json:"value,omitempty" yaml:"value,omitempty"`
}

// DecodeCommand returns the decode command.
func DecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a BER value, extended result or intermediate response",
		ArgsUsage: "[<value>]",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:    "in",
				Aliases: []string{"i"},
				Usage:   "Read the value from a file (- for stdin) instead of an argument",
			},
			&cli.StringFlag{
				Name:  "as",
				Usage: "Interpret the value as: ber, result, intermediate",
				Value: decodeBER,
			},
		),
		Action: decodeAction,
	}
}

func decodeAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for decode command", exitFailure)
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

	text, err := decodeInput(c)
	if err != nil {
		return err
	}
	data, err := enc.Parse(text)
	if err != nil {
		return cli.Exit(err.Error(), exitDecodeError)
	}

	switch strings.ToLower(c.String("as")) {
	case decodeBER:
		e, err := ber.Decode(data)
		if err != nil {
			return cli.Exit(fmt.Sprintf("decode: %v", err), exitDecodeError)
		}
		return r.RenderElement(e)
	case decodeResult:
		view, err := resultView(data)
		if err != nil {
			return cli.Exit(fmt.Sprintf("decode result: %v", err), exitDecodeError)
		}
		return r.Render(view)
	case decodeIntermediate:
		view, err := intermediateView(data, enc)
		if err != nil {
			return cli.Exit(fmt.Sprintf("decode intermediate response: %v", err), exitDecodeError)
		}
		return r.Render(view)
	default:
		return cli.Exit(fmt.Sprintf("invalid --as %q (must be ber, result, or intermediate)", c.String("as")), exitFailure)
	}
}

func decodeInput(c *cli.Context) (string, error) {
	if path := c.String("in"); path != "" {
		if c.NArg() > 0 {
			return "", cli.Exit("pass either a value or --in, not both", exitFailure)
		}
		b, err := iox.ReadInput(path, c.App.Reader)
		if err != nil {
			return "", cli.Exit(fmt.Sprintf("read %s: %v", path, err), exitFailure)
		}
		return string(b), nil
	}
	if c.NArg() != 1 {
		return "", cli.Exit("value required (or --in <file>)", exitFailure)
	}
	return c.Args().First(), nil
}

func resultView(data []byte) (*ResultView, error) {
	res, err := extop.DecodeResult(data)
	if err != nil {
		return nil, err
	}
	view := &ResultView{
		ResultCode: res.ResultCode.String(),
		Referrals:  res.Referrals,
		Controls:   len(res.Controls),
	}
	if res.MatchedDN != nil {
		view.MatchedDN = *res.MatchedDN
	}
	if res.DiagnosticMessage != nil {
		view.DiagnosticMessage = *res.DiagnosticMessage
	}
	if res.OID != nil {
		view.OID = *res.OID
	}
	if res.Value != nil {
		e, err := ber.Decode(res.Value)
		if err != nil {
			return nil, fmt.Errorf("result value: %w", err)
		}
		view.Value = ber.Tree(e)
	}
	return view, nil
}

func intermediateView(data []byte, enc reader.Encoding) (*IntermediateView, error) {
	ir, err := extop.DecodeIntermediateResponse(data)
	if err != nil {
		return nil, err
	}
	kind := stream.ClassifyResponse(ir.OID)
	view := &IntermediateView{Kind: kind.String(), OID: ir.OID}

	switch kind {
	case stream.ResponseChangelogEntry:
		e, err := ir.DecodeValue()
		if err != nil {
			return nil, err
		}
		entry, err := types.DecodeChangeEntry(e)
		if err != nil {
			return nil, err
		}
		row := reader.NewEntryRow(1, entry, enc)
		view.Entry = &row
	case stream.ResponseMissingChanges:
		notice, err := types.DecodeMissingChangesNotice(ir.Value)
		if err != nil {
			return nil, err
		}
		view.Notice = &reader.GapRow{}
		if notice.Message != nil {
			view.Notice.Message = *notice.Message
		}
	default:
		if ir.Value != nil {
			e, err := ber.Decode(ir.Value)
			if err != nil {
				return nil, err
			}
			view.Value = ber.Tree(e)
		}
	}
	return view, nil
}
