package ipc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/pithecene-io/extop/ber"
	"github.com/pithecene-io/extop/extop"
	"github.com/pithecene-io/extop/stream"
	"github.com/pithecene-io/extop/types"
)

// scriptedTransport serves fixed responses, standing in for a live server.
type scriptedTransport struct {
	responses [][]byte
	result    *extop.Result
}

type scriptedHandle struct {
	s   *scriptedTransport
	pos int
}

func (s *scriptedTransport) Submit(context.Context, *extop.Request) (stream.Handle, error) {
	return &scriptedHandle{s: s}, nil
}

func (h *scriptedHandle) Next(context.Context) ([]byte, error) {
	if h.pos >= len(h.s.responses) {
		return nil, io.EOF
	}
	raw := h.s.responses[h.pos]
	h.pos++
	return raw, nil
}

func (h *scriptedHandle) Result(context.Context) (*extop.Result, error) {
	return h.s.result, nil
}

func (h *scriptedHandle) Abandon() error {
	return nil
}

func entryBytes(t *testing.T, token string, number int64) []byte {
	t.Helper()
	ir, err := extop.NewIntermediateResponse(types.OIDChangelogEntry, types.ChangeEntry{
		ResumeToken:  []byte(token),
		ChangeNumber: number,
		TargetDN:     "cn=config",
		ChangeType:   types.ChangeTypeAdd,
		Detail:       []byte("objectClass: top\n"),
	})
	if err != nil {
		t.Fatalf("NewIntermediateResponse failed: %v", err)
	}
	return ir.Encode()
}

func batchResult(t *testing.T, token string) *extop.Result {
	t.Helper()
	value := types.ChangelogBatchResult{ResumeToken: []byte(token), MoreChangesAvailable: true}
	return &extop.Result{ResultCode: extop.ResultSuccess, Value: ber.Encode(value.Encode())}
}

func batchRequest(t *testing.T) *types.ChangelogBatchRequest {
	t.Helper()
	req, err := types.NewChangelogBatchRequest(types.EndOfChangelog{}, 25)
	if err != nil {
		t.Fatalf("NewChangelogBatchRequest failed: %v", err)
	}
	return req
}

// recordCapture runs a fetch through a RecordingTransport and returns the
// capture bytes.
func recordCapture(t *testing.T, live *scriptedTransport) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := NewCaptureWriter(&buf)
	rec := &RecordingTransport{
		Inner:     live,
		Writer:    writer,
		RequestID: "req-capture",
		Now:       func() time.Time { return time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC) },
	}
	if _, err := stream.Fetch(context.Background(), rec, batchRequest(t), nil); err != nil {
		t.Fatalf("recording Fetch failed: %v", err)
	}
	if !writer.Complete() {
		t.Fatal("capture not complete after fetch")
	}
	return buf.Bytes()
}

func TestCapture_RecordAndReplay(t *testing.T) {
	live := &scriptedTransport{
		responses: [][]byte{
			entryBytes(t, "T1", 1),
			(&extop.IntermediateResponse{OID: types.OIDMissingChangelogEntries}).Encode(),
			entryBytes(t, "T2", 2),
		},
		result: batchResult(t, "T-final"),
	}
	capture := recordCapture(t, live)

	replay, err := NewReplayTransport(bytes.NewReader(capture))
	if err != nil {
		t.Fatalf("NewReplayTransport failed: %v", err)
	}
	header := replay.Header()
	if header.RequestID != "req-capture" || header.Operation != types.OIDChangelogBatchRequest {
		t.Errorf("header = %+v", header)
	}
	if header.CapturedAt != "2026-01-15T10:00:00Z" {
		t.Errorf("CapturedAt = %q", header.CapturedAt)
	}
	captured, err := replay.Request()
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	decoded, err := types.DecodeChangelogBatchRequest(*captured.Value)
	if err != nil {
		t.Fatalf("captured request does not decode: %v", err)
	}
	if decoded.MaxChanges() != 25 {
		t.Errorf("captured MaxChanges = %d, want 25", decoded.MaxChanges())
	}

	var tokens []string
	gaps := 0
	listener := stream.ListenerFuncs{
		Entry: func(e types.ChangeEntry) { tokens = append(tokens, string(e.ResumeToken)) },
		Gap:   func(*string) { gaps++ },
	}
	out, err := stream.Fetch(context.Background(), replay, decoded, listener)
	if err != nil {
		t.Fatalf("replay Fetch failed: %v", err)
	}
	if len(tokens) != 2 || tokens[0] != "T1" || tokens[1] != "T2" || gaps != 1 {
		t.Errorf("tokens = %v, gaps = %d", tokens, gaps)
	}
	if string(out.LastResumeToken) != "T-final" {
		t.Errorf("LastResumeToken = %q, want T-final", out.LastResumeToken)
	}

	if _, err := replay.Submit(context.Background(), captured); err == nil {
		t.Error("expected error submitting a capture twice")
	}
}

func TestReadCapture(t *testing.T) {
	live := &scriptedTransport{
		responses: [][]byte{entryBytes(t, "T1", 1)},
		result:    batchResult(t, "T1"),
	}
	c, err := ReadCapture(bytes.NewReader(recordCapture(t, live)))
	if err != nil {
		t.Fatalf("ReadCapture failed: %v", err)
	}
	if len(c.Intermediates) != 1 || !bytes.Equal(c.Intermediates[0], live.responses[0]) {
		t.Errorf("Intermediates = %v", c.Intermediates)
	}
	if !bytes.Equal(c.Result, live.result.Encode()) {
		t.Errorf("Result = % x, want % x", c.Result, live.result.Encode())
	}
}

func TestReadCapture_MissingResult(t *testing.T) {
	var buf bytes.Buffer
	w := NewCaptureWriter(&buf)
	req, _ := extop.NewRequest(types.OIDChangelogBatchRequest, batchRequest(t))
	if err := w.WriteHeader("", req, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteIntermediate(entryBytes(t, "T1", 1)); err != nil {
		t.Fatal(err)
	}

	c, err := ReadCapture(bytes.NewReader(buf.Bytes()))
	var frameErr *FrameError
	if !errors.As(err, &frameErr) || frameErr.Kind != FrameErrorPartial {
		t.Fatalf("expected FrameErrorPartial, got %v", err)
	}
	if c == nil || len(c.Intermediates) != 1 || c.Result != nil {
		t.Errorf("partial capture = %+v", c)
	}
}

func TestCaptureWriter_Sequence(t *testing.T) {
	var buf bytes.Buffer
	w := NewCaptureWriter(&buf)
	req, err := extop.NewRequest(types.OIDChangelogBatchRequest, batchRequest(t))
	if err != nil {
		t.Fatal(err)
	}

	isSequence := func(err error) bool {
		var frameErr *FrameError
		return errors.As(err, &frameErr) && frameErr.Kind == FrameErrorSequence
	}

	if err := w.WriteIntermediate([]byte{0x79, 0x00}); !isSequence(err) {
		t.Errorf("intermediate before header = %v, want sequence error", err)
	}
	if err := w.WriteHeader("r", req, time.Now()); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := w.WriteHeader("r", req, time.Now()); !isSequence(err) {
		t.Errorf("second header = %v, want sequence error", err)
	}
	if err := w.WriteResult(batchResult(t, "T").Encode()); err != nil {
		t.Fatalf("WriteResult failed: %v", err)
	}
	if err := w.WriteIntermediate([]byte{0x79, 0x00}); !isSequence(err) {
		t.Errorf("intermediate after result = %v, want sequence error", err)
	}
}

func TestReplayTransport_Errors(t *testing.T) {
	req, err := extop.NewRequest(types.OIDChangelogBatchRequest, batchRequest(t))
	if err != nil {
		t.Fatal(err)
	}
	header := func(version string) []byte {
		return encodeRecordFrame(t, &HeaderRecord{Type: HeaderType, Version: version, Operation: req.OID, Request: req.Encode()})
	}
	intermediate := func(seq int64) []byte {
		return encodeRecordFrame(t, &ResponseRecord{Type: IntermediateType, Seq: seq, Data: entryBytes(t, "T", seq)})
	}

	t.Run("empty capture", func(t *testing.T) {
		if _, err := NewReplayTransport(bytes.NewReader(nil)); !IsFatalFrameError(err) {
			t.Errorf("expected fatal frame error, got %v", err)
		}
	})

	t.Run("no header", func(t *testing.T) {
		_, err := NewReplayTransport(bytes.NewReader(intermediate(1)))
		var frameErr *FrameError
		if !errors.As(err, &frameErr) || frameErr.Kind != FrameErrorSequence {
			t.Errorf("expected sequence error, got %v", err)
		}
	})

	t.Run("version mismatch", func(t *testing.T) {
		_, err := NewReplayTransport(bytes.NewReader(header("9.9.9")))
		var frameErr *FrameError
		if !errors.As(err, &frameErr) || frameErr.Kind != FrameErrorDecode {
			t.Errorf("expected decode error, got %v", err)
		}
	})

	t.Run("operation mismatch", func(t *testing.T) {
		replay, err := NewReplayTransport(bytes.NewReader(header(types.CaptureVersion)))
		if err != nil {
			t.Fatal(err)
		}
		other, _ := extop.NewRequest(types.OIDCollectSupportDataRequest, nil)
		if _, err := replay.Submit(context.Background(), other); err == nil {
			t.Error("expected error for operation mismatch")
		}
	})

	t.Run("sequence gap", func(t *testing.T) {
		data := append(header(types.CaptureVersion), intermediate(2)...)
		replay, err := NewReplayTransport(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		_, err = stream.Fetch(context.Background(), replay, batchRequest(t), nil)
		if !stream.IsTransportError(err) {
			t.Errorf("expected transport error, got %v", err)
		}
	})

	t.Run("truncated capture", func(t *testing.T) {
		data := append(header(types.CaptureVersion), intermediate(1)...)
		replay, err := NewReplayTransport(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		out, err := stream.Fetch(context.Background(), replay, batchRequest(t), nil)
		if !stream.IsTransportError(err) || !IsFatalFrameError(err) {
			t.Errorf("expected fatal frame error as transport error, got %v", err)
		}
		if out.Entries != 1 {
			t.Errorf("Entries = %d, want 1", out.Entries)
		}
	})

	t.Run("malformed result", func(t *testing.T) {
		data := append(header(types.CaptureVersion),
			encodeRecordFrame(t, &ResponseRecord{Type: ResultType, Seq: 1, Data: []byte{0x30, 0x00}})...)
		replay, err := NewReplayTransport(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		_, err = stream.Fetch(context.Background(), replay, batchRequest(t), nil)
		if !stream.IsDecodeError(err) {
			t.Errorf("expected decode error, got %v", err)
		}
	})
}

func TestReplayHandle_Abandon(t *testing.T) {
	live := &scriptedTransport{
		responses: [][]byte{entryBytes(t, "T1", 1), entryBytes(t, "T2", 2)},
		result:    batchResult(t, "T2"),
	}
	replay, err := NewReplayTransport(bytes.NewReader(recordCapture(t, live)))
	if err != nil {
		t.Fatal(err)
	}
	req, _ := replay.Request()
	h, err := replay.Submit(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Next(context.Background()); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if err := h.Abandon(); err != nil {
		t.Fatalf("Abandon failed: %v", err)
	}
	if _, err := h.Next(context.Background()); !errors.Is(err, ErrReplayAbandoned) {
		t.Errorf("Next after abandon = %v, want ErrReplayAbandoned", err)
	}
}
