package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pithecene-io/extop/ber"
	"github.com/pithecene-io/extop/extop"
	"github.com/pithecene-io/extop/log"
	"github.com/pithecene-io/extop/metrics"
	"github.com/pithecene-io/extop/types"
)

// fakeTransport replays canned responses and records what it was sent.
type fakeTransport struct {
	responses [][]byte
	result    *extop.Result

	submitErr error
	nextErr   error
	resultErr error
	// cancelAfter cancels this function after the given number of Next calls.
	cancelAfter int
	cancel      context.CancelFunc

	submitted *extop.Request
	handle    *fakeHandle
}

type fakeHandle struct {
	t         *fakeTransport
	pos       int
	calls     int
	abandoned int
}

func (f *fakeTransport) Submit(_ context.Context, req *extop.Request) (Handle, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = req
	f.handle = &fakeHandle{t: f}
	return f.handle, nil
}

func (h *fakeHandle) Next(ctx context.Context) ([]byte, error) {
	h.calls++
	if h.t.cancel != nil && h.calls > h.t.cancelAfter {
		h.t.cancel()
		return nil, ctx.Err()
	}
	if h.pos < len(h.t.responses) {
		raw := h.t.responses[h.pos]
		h.pos++
		return raw, nil
	}
	if h.t.nextErr != nil {
		return nil, h.t.nextErr
	}
	return nil, io.EOF
}

func (h *fakeHandle) Result(context.Context) (*extop.Result, error) {
	if h.t.resultErr != nil {
		return nil, h.t.resultErr
	}
	return h.t.result, nil
}

func (h *fakeHandle) Abandon() error {
	h.abandoned++
	return nil
}

func newBatchRequest(t *testing.T) *types.ChangelogBatchRequest {
	t.Helper()
	req, err := types.NewChangelogBatchRequest(types.BeginningOfChangelog{}, 100,
		types.WithMaxWait(5000),
		types.WithIncludeBases("ou=People,dc=example,dc=com"),
	)
	if err != nil {
		t.Fatalf("NewChangelogBatchRequest failed: %v", err)
	}
	return req
}

func TestFetch_Success(t *testing.T) {
	ft := &fakeTransport{
		responses: [][]byte{
			entryResponse(t, "T1", 1),
			gapResponse(t, nil),
			entryResponse(t, "T2", 2),
		},
		result: successResult(t, types.ChangelogBatchResult{MoreChangesAvailable: true}),
	}
	rec := &recorder{}
	collector := metrics.NewCollector(types.OIDChangelogBatchRequest, "fake", "s1")
	var logBuf bytes.Buffer
	logger := log.NewLogger(nil).WithOutput(&logBuf)

	out, err := Fetch(context.Background(), ft, newBatchRequest(t), rec,
		WithCollector(collector), WithLogger(logger))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if ft.submitted == nil || ft.submitted.OID != types.OIDChangelogBatchRequest {
		t.Fatalf("submitted request = %+v", ft.submitted)
	}
	decoded, err := types.DecodeChangelogBatchRequest(*ft.submitted.Value)
	if err != nil {
		t.Fatalf("submitted value does not decode: %v", err)
	}
	if decoded.MaxChanges() != 100 || decoded.MaxWaitMillis() != 5000 {
		t.Errorf("submitted MaxChanges/MaxWait = %d/%d", decoded.MaxChanges(), decoded.MaxWaitMillis())
	}

	if out.State != StateCompleted {
		t.Errorf("State = %s, want completed", out.State)
	}
	if out.Entries != 2 || out.MissingNotices != 1 || out.OtherResponses != 0 {
		t.Errorf("counts = %d/%d/%d, want 2/1/0", out.Entries, out.MissingNotices, out.OtherResponses)
	}
	if string(out.LastResumeToken) != "T2" {
		t.Errorf("LastResumeToken = %q, want T2", out.LastResumeToken)
	}
	if out.Result == nil || out.Result.Payload == nil || !out.Result.Payload.MoreChangesAvailable {
		t.Errorf("Result = %+v", out.Result)
	}
	if out.Meta == nil || out.Meta.Attempt != 1 || out.Meta.RequestID == "" {
		t.Errorf("Meta = %+v, want fresh first attempt", out.Meta)
	}
	if len(rec.snapshot()) != 3 {
		t.Errorf("got %d callbacks, want 3", len(rec.snapshot()))
	}
	if ft.handle.abandoned != 0 {
		t.Errorf("handle abandoned %d times on success", ft.handle.abandoned)
	}
	if snap := collector.Snapshot(); snap.RequestsCompleted != 1 || snap.EntriesDelivered != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	if !strings.Contains(logBuf.String(), out.Meta.RequestID) {
		t.Error("log output does not carry the request id")
	}
}

func TestFetch_RequestMetaOption(t *testing.T) {
	first := NewRequestMeta()
	meta := first.Next("req-resumed")
	ft := &fakeTransport{result: successResult(t, types.ChangelogBatchResult{})}

	out, err := Fetch(context.Background(), ft, newBatchRequest(t), nil, WithRequestMeta(meta))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if out.Meta != meta {
		t.Errorf("Meta = %+v, want the supplied meta", out.Meta)
	}

	bad := &types.RequestMeta{RequestID: "r", Attempt: 2}
	if _, err := Fetch(context.Background(), ft, newBatchRequest(t), nil, WithRequestMeta(bad)); err == nil {
		t.Error("expected error for invalid request meta")
	}
}

func TestFetch_NilRequest(t *testing.T) {
	_, err := Fetch(context.Background(), &fakeTransport{}, nil, nil)
	if !errors.Is(err, ber.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestFetch_StatusError(t *testing.T) {
	ft := &fakeTransport{
		responses: [][]byte{entryResponse(t, "T1", 1)},
		result: &extop.Result{
			ResultCode:        extop.ResultInsufficientAccessRights,
			DiagnosticMessage: strPtr("no changelog read access"),
		},
	}

	out, err := Fetch(context.Background(), ft, newBatchRequest(t), nil)
	if !IsStatusError(err) {
		t.Fatalf("expected status error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no changelog read access") {
		t.Errorf("error = %q, want diagnostic message", err.Error())
	}
	if out == nil || out.State != StateFailed {
		t.Fatalf("Outcome = %+v, want failed", out)
	}
	if string(out.LastResumeToken) != "T1" {
		t.Errorf("LastResumeToken = %q, want T1", out.LastResumeToken)
	}
}

func TestFetch_DecodeErrorAbandonsHandle(t *testing.T) {
	ft := &fakeTransport{
		responses: [][]byte{
			entryResponse(t, "T1", 1),
			rawResponse(types.OIDChangelogEntry, []byte{0x04, 0x00}),
			entryResponse(t, "T2", 2),
		},
		result: successResult(t, types.ChangelogBatchResult{}),
	}

	out, err := Fetch(context.Background(), ft, newBatchRequest(t), nil)
	if !IsDecodeError(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if ft.handle.abandoned != 1 {
		t.Errorf("abandoned = %d, want 1", ft.handle.abandoned)
	}
	if ft.handle.pos != 2 {
		t.Errorf("read %d responses, want 2", ft.handle.pos)
	}
	if out.Entries != 1 || string(out.LastResumeToken) != "T1" {
		t.Errorf("Outcome = %+v", out)
	}
}

func TestFetch_TransportErrors(t *testing.T) {
	boom := errors.New("connection reset")
	tests := []struct {
		name string
		ft   *fakeTransport
	}{
		{"submit", &fakeTransport{submitErr: boom}},
		{"next", &fakeTransport{nextErr: boom}},
		{"result", &fakeTransport{resultErr: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Fetch(context.Background(), tt.ft, newBatchRequest(t), nil)
			if !IsTransportError(err) {
				t.Fatalf("expected transport error, got %v", err)
			}
			if !errors.Is(err, boom) {
				t.Errorf("expected cause in chain, got %v", err)
			}
			if out == nil || out.State != StateFailed {
				t.Errorf("Outcome = %+v, want failed", out)
			}
		})
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ft := &fakeTransport{
		responses: [][]byte{
			entryResponse(t, "T1", 1),
			entryResponse(t, "T2", 2),
			entryResponse(t, "T3", 3),
		},
		result:      successResult(t, types.ChangelogBatchResult{}),
		cancelAfter: 1,
		cancel:      cancel,
	}
	rec := &recorder{}

	out, err := Fetch(ctx, ft, newBatchRequest(t), rec)
	if !IsCanceledError(err) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
	if ft.handle.abandoned != 1 {
		t.Errorf("abandoned = %d, want 1", ft.handle.abandoned)
	}
	if got := len(rec.snapshot()); got != 1 {
		t.Errorf("got %d callbacks, want 1", got)
	}
	if out.State != StateFailed || string(out.LastResumeToken) != "T1" {
		t.Errorf("Outcome = %+v", out)
	}
}

func TestFetch_AlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ft := &fakeTransport{result: successResult(t, types.ChangelogBatchResult{})}
	out, err := Fetch(ctx, ft, newBatchRequest(t), nil)
	if !IsCanceledError(err) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if ft.handle.calls != 0 {
		t.Errorf("Next called %d times after cancellation", ft.handle.calls)
	}
	if out == nil || out.State != StateFailed {
		t.Errorf("Outcome = %+v, want failed", out)
	}
}

func TestFetch_SubmitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ft := &fakeTransport{submitErr: context.Canceled}
	out, err := Fetch(ctx, ft, newBatchRequest(t), nil)
	if !IsCanceledError(err) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if out == nil || out.State != StateFailed {
		t.Fatalf("Outcome = %+v, want failed", out)
	}
	if out.Meta == nil || out.Entries != 0 || out.LastResumeToken != nil {
		t.Errorf("Outcome = %+v, want empty failed outcome", out)
	}
}

func TestResumeRequest(t *testing.T) {
	prev := newBatchRequest(t)
	token := []byte{0x01, 0x02, 0xFF}

	next, err := ResumeRequest(prev, token)
	if err != nil {
		t.Fatalf("ResumeRequest failed: %v", err)
	}

	sp, ok := next.StartingPoint().(types.ResumeWithToken)
	if !ok {
		t.Fatalf("StartingPoint = %T, want ResumeWithToken", next.StartingPoint())
	}
	if !bytes.Equal(sp.Token, token) {
		t.Errorf("Token = % x, want % x", sp.Token, token)
	}
	want := append([]byte{0x80, byte(len(token))}, token...)
	if got := ber.Encode(sp.Encode()); !bytes.Equal(got, want) {
		t.Errorf("starting point encoding = % x, want % x", got, want)
	}
	if next.MaxChanges() != prev.MaxChanges() || next.MaxWaitMillis() != prev.MaxWaitMillis() {
		t.Error("resumed request lost its parameters")
	}
	if _, ok := prev.StartingPoint().(types.BeginningOfChangelog); !ok {
		t.Error("ResumeRequest modified the original request")
	}

	if _, err := ResumeRequest(prev, nil); !errors.Is(err, ber.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for empty token, got %v", err)
	}
	if _, err := ResumeRequest(nil, token); !errors.Is(err, ber.ErrMissingField) {
		t.Errorf("expected ErrMissingField for nil request, got %v", err)
	}
}
