package reader

import (
	"context"
	"fmt"
	"io"

	"github.com/pithecene-io/extop/ber"
	"github.com/pithecene-io/extop/extop"
	"github.com/pithecene-io/extop/ipc"
	"github.com/pithecene-io/extop/stream"
	"github.com/pithecene-io/extop/types"
)

// Replay reads a capture from r and drives it through a dispatcher.
//
// The returned view is non-nil once the capture header was read, also when
// the replay fails; Summary.State and Summary.Error then describe how far
// the stream got. Binary values in the view are formatted with enc.
func Replay(ctx context.Context, r io.Reader, enc Encoding, opts ...stream.Option) (*ReplayView, error) {
	t, err := ipc.NewReplayTransport(r)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}

	header := t.Header()
	view := &ReplayView{
		Summary: ReplaySummary{
			RequestID:  header.RequestID,
			Operation:  header.Operation,
			CapturedAt: header.CapturedAt,
			State:      stream.StateIdle.String(),
		},
		Entries: []EntryRow{},
	}

	req, err := capturedBatchRequest(t)
	if err != nil {
		view.Summary.Error = err.Error()
		return view, err
	}

	if header.RequestID != "" {
		meta := &types.RequestMeta{RequestID: header.RequestID, Operation: header.Operation, Attempt: 1}
		opts = append([]stream.Option{stream.WithRequestMeta(meta)}, opts...)
	}

	rows := &rowCollector{enc: enc, view: view}
	out, err := stream.Fetch(ctx, t, req, rows, opts...)
	summarize(&view.Summary, out, err, enc)
	return view, err
}

func capturedBatchRequest(t *ipc.ReplayTransport) (*types.ChangelogBatchRequest, error) {
	extReq, err := t.Request()
	if err != nil {
		return nil, fmt.Errorf("captured request: %w", err)
	}
	if extReq.OID != types.OIDChangelogBatchRequest {
		return nil, fmt.Errorf("capture holds %s, not a changelog batch request", extReq.OID)
	}
	if extReq.Value == nil {
		return nil, ber.MissingField("changelog_batch_request")
	}
	req, err := types.DecodeChangelogBatchRequest(*extReq.Value)
	if err != nil {
		return nil, fmt.Errorf("captured request: %w", err)
	}
	return req, nil
}

// rowCollector is the replay listener. Callbacks arrive one at a time
// from the Fetch goroutine.
type rowCollector struct {
	enc  Encoding
	view *ReplayView
}

func (c *rowCollector) OnEntry(entry types.ChangeEntry) {
	c.view.Entries = append(c.view.Entries, NewEntryRow(len(c.view.Entries)+1, entry, c.enc))
}

func (c *rowCollector) OnGap(message *string) {
	row := GapRow{AfterSeq: len(c.view.Entries)}
	if message != nil {
		row.Message = *message
	}
	c.view.Gaps = append(c.view.Gaps, row)
}

func (c *rowCollector) OnOther(ir *extop.IntermediateResponse) {
	c.view.Others = append(c.view.Others, OtherRow{
		AfterSeq:   len(c.view.Entries),
		OID:        ir.OID,
		ValueBytes: len(ir.Value),
	})
}

func summarize(s *ReplaySummary, out *stream.Outcome, err error, enc Encoding) {
	if err != nil {
		s.Error = err.Error()
	}
	if out == nil {
		if err != nil {
			s.State = stream.StateFailed.String()
		}
		return
	}

	s.State = out.State.String()
	s.Entries = out.Entries
	s.MissingNotices = out.MissingNotices
	s.OtherResponses = out.OtherResponses
	s.LastResumeToken = enc.Format(out.LastResumeToken)

	if res := out.Result; res != nil {
		s.ResultCode = res.ResultCode.String()
		if res.DiagnosticMessage != nil {
			s.Diagnostic = *res.DiagnosticMessage
		}
		if p := res.Payload; p != nil {
			s.MoreChangesAvailable = p.MoreChangesAvailable
			s.ChangesAlreadyPurged = p.ChangesAlreadyPurged
			s.EstimatedRemaining = p.EstimatedChangesRemaining
			if p.AdditionalInfo != nil {
				s.AdditionalInfo = *p.AdditionalInfo
			}
		}
	} else if code, ok := stream.ResultCode(err); ok {
		s.ResultCode = code.String()
	}
}
