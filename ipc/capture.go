package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pithecene-io/extop/extop"
	"github.com/pithecene-io/extop/stream"
	"github.com/pithecene-io/extop/types"
)

// CaptureWriter writes one request's response stream as a capture.
// Records must arrive as header, intermediate*, result; anything else is
// rejected with FrameErrorSequence. Safe for concurrent use.
type CaptureWriter struct {
	mu     sync.Mutex
	enc    *FrameEncoder
	seq    int64
	header bool
	done   bool
}

// NewCaptureWriter creates a capture writer.
func NewCaptureWriter(w io.Writer) *CaptureWriter {
	return &CaptureWriter{enc: NewFrameEncoder(w)}
}

// WriteHeader writes the header record for req.
func (w *CaptureWriter) WriteHeader(requestID string, req *extop.Request, capturedAt time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.header {
		return &FrameError{Kind: FrameErrorSequence, Msg: "header already written"}
	}
	payload, err := EncodeRecord(&HeaderRecord{
		Type:       HeaderType,
		Version:    types.CaptureVersion,
		RequestID:  requestID,
		Operation:  req.OID,
		Request:    req.Encode(),
		CapturedAt: capturedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	if err := w.enc.WriteFrame(payload); err != nil {
		return err
	}
	w.header = true
	return nil
}

// WriteIntermediate appends one intermediate response buffer.
func (w *CaptureWriter) WriteIntermediate(raw []byte) error {
	return w.writeResponse(IntermediateType, raw)
}

// WriteResult appends the final result buffer. No record may follow it.
func (w *CaptureWriter) WriteResult(raw []byte) error {
	return w.writeResponse(ResultType, raw)
}

func (w *CaptureWriter) writeResponse(typ string, raw []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case !w.header:
		return &FrameError{Kind: FrameErrorSequence, Msg: typ + " record before header"}
	case w.done:
		return &FrameError{Kind: FrameErrorSequence, Msg: typ + " record after result"}
	}
	payload, err := EncodeRecord(&ResponseRecord{Type: typ, Seq: w.seq + 1, Data: raw})
	if err != nil {
		return err
	}
	if err := w.enc.WriteFrame(payload); err != nil {
		return err
	}
	w.seq++
	if typ == ResultType {
		w.done = true
	}
	return nil
}

// Complete reports whether the result record has been written.
func (w *CaptureWriter) Complete() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// RecordingTransport wraps a transport and writes every exchange to a
// capture. It supports one request per capture.
type RecordingTransport struct {
	// Inner performs the actual exchange.
	Inner stream.Transport
	// Writer receives the capture.
	Writer *CaptureWriter
	// RequestID is stored in the header. May be empty.
	RequestID string
	// Now stamps the header. Defaults to time.Now.
	Now func() time.Time
}

// Submit records the request header and forwards to Inner.
func (t *RecordingTransport) Submit(ctx context.Context, req *extop.Request) (stream.Handle, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	if err := t.Writer.WriteHeader(t.RequestID, req, now()); err != nil {
		return nil, fmt.Errorf("capture header: %w", err)
	}
	h, err := t.Inner.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return &recordingHandle{inner: h, w: t.Writer}, nil
}

type recordingHandle struct {
	inner stream.Handle
	w     *CaptureWriter
}

func (h *recordingHandle) Next(ctx context.Context) ([]byte, error) {
	raw, err := h.inner.Next(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.w.WriteIntermediate(raw); err != nil {
		return nil, fmt.Errorf("capture intermediate response: %w", err)
	}
	return raw, nil
}

func (h *recordingHandle) Result(ctx context.Context) (*extop.Result, error) {
	res, err := h.inner.Result(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.w.WriteResult(res.Encode()); err != nil {
		return nil, fmt.Errorf("capture result: %w", err)
	}
	return res, nil
}

func (h *recordingHandle) Abandon() error {
	return h.inner.Abandon()
}

// ErrReplayAbandoned is returned by a replay handle after Abandon.
var ErrReplayAbandoned = errors.New("replay abandoned")

// ReplayTransport serves a capture as if it were a live connection.
type ReplayTransport struct {
	mu        sync.Mutex
	dec       *FrameDecoder
	header    *HeaderRecord
	submitted bool
}

// NewReplayTransport reads the capture header from r.
//
// Errors:
//   - *FrameError with Kind=FrameErrorSequence: first record is not a header
//   - *FrameError with Kind=FrameErrorDecode: header does not decode or has
//     an unsupported version
//   - any fatal *FrameError from the frame layer
func NewReplayTransport(r io.Reader) (*ReplayTransport, error) {
	dec := NewFrameDecoder(r)
	payload, err := dec.ReadFrame()
	if errors.Is(err, io.EOF) {
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "empty capture"}
	}
	if err != nil {
		return nil, err
	}
	record, err := DecodeRecord(payload)
	if err != nil {
		return nil, err
	}
	header, ok := record.(*HeaderRecord)
	if !ok {
		return nil, &FrameError{Kind: FrameErrorSequence, Msg: "capture does not start with a header"}
	}
	if header.Version != types.CaptureVersion {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("capture version mismatch: expected %s, got %s", types.CaptureVersion, header.Version),
		}
	}
	return &ReplayTransport{dec: dec, header: header}, nil
}

// Header returns a copy of the capture header.
func (t *ReplayTransport) Header() HeaderRecord {
	return *t.header
}

// Request decodes the captured request.
func (t *ReplayTransport) Request() (*extop.Request, error) {
	return extop.DecodeRequest(t.header.Request)
}

// Submit returns the captured response stream. The request OID must match
// the captured operation, and a capture can be submitted only once.
func (t *ReplayTransport) Submit(ctx context.Context, req *extop.Request) (stream.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.submitted {
		return nil, errors.New("capture already replayed")
	}
	if req.OID != t.header.Operation {
		return nil, fmt.Errorf("capture holds %s, request is %s", t.header.Operation, req.OID)
	}
	t.submitted = true
	return &replayHandle{dec: t.dec}, nil
}

type replayHandle struct {
	dec       *FrameDecoder
	seq       int64
	result    *extop.Result
	done      bool
	abandoned bool
}

func (h *replayHandle) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.abandoned {
		return nil, ErrReplayAbandoned
	}
	if h.done {
		return nil, io.EOF
	}

	payload, err := h.dec.ReadFrame()
	if errors.Is(err, io.EOF) {
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "capture ended before result"}
	}
	if err != nil {
		return nil, err
	}
	record, err := DecodeRecord(payload)
	if err != nil {
		return nil, err
	}
	resp, ok := record.(*ResponseRecord)
	if !ok {
		return nil, &FrameError{Kind: FrameErrorSequence, Msg: "unexpected header inside capture"}
	}
	if resp.Seq != h.seq+1 {
		return nil, &FrameError{
			Kind: FrameErrorSequence,
			Msg:  fmt.Sprintf("sequence violation: expected %d, got %d", h.seq+1, resp.Seq),
		}
	}
	h.seq = resp.Seq

	if resp.Type == ResultType {
		res, err := extop.DecodeResult(resp.Data)
		if err != nil {
			return nil, err
		}
		h.result = res
		h.done = true
		return nil, io.EOF
	}
	return resp.Data, nil
}

func (h *replayHandle) Result(ctx context.Context) (*extop.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.result == nil {
		return nil, errors.New("result not reached")
	}
	return h.result, nil
}

func (h *replayHandle) Abandon() error {
	h.abandoned = true
	return nil
}

// Capture is a fully read capture.
type Capture struct {
	Header        HeaderRecord
	Intermediates [][]byte
	// Result is nil when the capture ended early.
	Result []byte
}

// ReadCapture reads every record of a capture. A capture that ends
// before its result is returned together with a FrameErrorPartial error,
// so callers can still inspect what was captured.
func ReadCapture(r io.Reader) (*Capture, error) {
	t, err := NewReplayTransport(r)
	if err != nil {
		return nil, err
	}
	c := &Capture{Header: t.Header()}
	var seq int64
	for {
		payload, err := t.dec.ReadFrame()
		if errors.Is(err, io.EOF) {
			return c, &FrameError{Kind: FrameErrorPartial, Msg: "capture ended before result"}
		}
		if err != nil {
			return c, err
		}
		record, err := DecodeRecord(payload)
		if err != nil {
			return c, err
		}
		resp, ok := record.(*ResponseRecord)
		if !ok || resp.Seq != seq+1 {
			return c, &FrameError{Kind: FrameErrorSequence, Msg: fmt.Sprintf("unexpected record after seq %d", seq)}
		}
		seq = resp.Seq
		if resp.Type == ResultType {
			c.Result = resp.Data
			return c, nil
		}
		c.Intermediates = append(c.Intermediates, resp.Data)
	}
}
