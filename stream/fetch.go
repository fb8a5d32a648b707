package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/pithecene-io/extop/ber"
	"github.com/pithecene-io/extop/extop"
	"github.com/pithecene-io/extop/log"
	"github.com/pithecene-io/extop/metrics"
	"github.com/pithecene-io/extop/types"
)

// Transport sends an extended request and yields its responses.
// Connection handling, binding and socket I/O live behind this boundary.
type Transport interface {
	// Submit sends req and returns a handle to its response stream.
	Submit(ctx context.Context, req *extop.Request) (Handle, error)
}

// Handle is the response stream of one submitted request.
type Handle interface {
	// Next returns the next intermediate response buffer. Returns io.EOF
	// once the final result is ready.
	Next(ctx context.Context) ([]byte, error)
	// Result returns the final result. Valid after Next returned io.EOF.
	Result(ctx context.Context) (*extop.Result, error)
	// Abandon asks the server to stop processing the request.
	Abandon() error
}

// Option configures Fetch and NewDispatcher.
type Option func(*options)

type options struct {
	logger    *log.Logger
	collector *metrics.Collector
	meta      *types.RequestMeta
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithCollector sets the metrics collector. Nil disables metrics.
func WithCollector(c *metrics.Collector) Option {
	return func(o *options) {
		o.collector = c
	}
}

// WithRequestMeta sets the request identity used for log correlation.
// Defaults to a fresh first-attempt identity.
func WithRequestMeta(meta *types.RequestMeta) Option {
	return func(o *options) {
		o.meta = meta
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNopLogger()
	}
	return o
}

// NewRequestMeta returns a first-attempt identity for a changelog batch
// request.
func NewRequestMeta() *types.RequestMeta {
	return &types.RequestMeta{
		RequestID: uuid.NewString(),
		Operation: types.OIDChangelogBatchRequest,
		Attempt:   1,
	}
}

// Outcome summarizes a fetched batch.
type Outcome struct {
	// Meta identifies the request.
	Meta *types.RequestMeta
	// State is the dispatcher's final state.
	State State
	// Result is the typed final result, nil if none was received.
	Result *extop.TypedResult[types.ChangelogBatchResult]
	// Entries is the number of change entries delivered.
	Entries int
	// MissingNotices is the number of missing-changes notices.
	MissingNotices int
	// OtherResponses is the number of unrecognized intermediate responses.
	OtherResponses int
	// LastResumeToken is the position to resume from, nil if none.
	LastResumeToken []byte
}

// Fetch submits req over t and feeds every response to a new dispatcher
// until the final result.
//
// The returned Outcome is non-nil whenever the request reached the
// transport, including on failure, so callers can resume from
// Outcome.LastResumeToken.
//
// Returns:
//   - nil: the server completed the batch successfully
//   - *Error with Kind=ErrorTransport: Submit, Next or Result failed
//   - *Error with Kind=ErrorDecode: a response did not parse
//   - *Error with Kind=ErrorStatus: the server rejected the request
//   - *Error with Kind=ErrorCanceled: ctx was canceled
func Fetch(ctx context.Context, t Transport, req *types.ChangelogBatchRequest, listener Listener, opts ...Option) (*Outcome, error) {
	o := buildOptions(opts)
	meta := o.meta
	if meta == nil {
		meta = NewRequestMeta()
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request meta: %w", err)
	}

	if req == nil {
		return nil, ber.MissingField("changelog_batch_request")
	}
	extReq, err := extop.NewRequest(types.OIDChangelogBatchRequest, req)
	if err != nil {
		return nil, err
	}

	logger := o.logger.WithRequest(meta)
	d := NewDispatcher(listener, WithLogger(logger), WithCollector(o.collector))
	if err := d.Submit(); err != nil {
		return nil, err
	}

	logger.Info("submitting changelog batch request", map[string]any{
		"max_changes":     req.MaxChanges(),
		"max_wait_millis": req.MaxWaitMillis(),
		"starting_point":  fmt.Sprintf("%T", req.StartingPoint()),
	})

	handle, err := t.Submit(ctx, extReq)
	if err != nil {
		if ctx.Err() != nil {
			err = cancelRequest(ctx, d, nil, logger)
			return outcome(d, meta), err
		}
		err = d.fail(ErrorTransport, fmt.Errorf("submit: %w", err))
		return outcome(d, meta), err
	}

	for {
		if ctx.Err() != nil {
			err = cancelRequest(ctx, d, handle, logger)
			return outcome(d, meta), err
		}

		raw, err := handle.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				err = cancelRequest(ctx, d, handle, logger)
				return outcome(d, meta), err
			}
			abandon(handle, logger)
			err = d.fail(failureKind(err), fmt.Errorf("next response: %w", err))
			return outcome(d, meta), err
		}

		if err := d.HandleIntermediate(raw); err != nil {
			abandon(handle, logger)
			return outcome(d, meta), err
		}
	}

	res, err := handle.Result(ctx)
	if err != nil {
		if ctx.Err() != nil {
			err = cancelRequest(ctx, d, handle, logger)
			return outcome(d, meta), err
		}
		err = d.fail(failureKind(err), fmt.Errorf("result: %w", err))
		return outcome(d, meta), err
	}
	if _, err := d.HandleResult(res); err != nil {
		return outcome(d, meta), err
	}
	return outcome(d, meta), nil
}

// failureKind classifies a handle error. Transports that decode
// responses themselves surface codec errors, which remain decode failures.
func failureKind(err error) ErrorKind {
	if ber.IsDecodeError(err) {
		return ErrorDecode
	}
	return ErrorTransport
}

func cancelRequest(ctx context.Context, d *Dispatcher, handle Handle, logger *log.Logger) error {
	if handle != nil {
		abandon(handle, logger)
	}
	d.Abandon(ctx.Err().Error())
	if err := d.Err(); IsCanceledError(err) {
		return &Error{Kind: ErrorCanceled, Err: ctx.Err()}
	}
	return d.Err()
}

func abandon(handle Handle, logger *log.Logger) {
	if err := handle.Abandon(); err != nil {
		logger.Warn("abandon failed", map[string]any{"error": err.Error()})
	}
}

func outcome(d *Dispatcher, meta *types.RequestMeta) *Outcome {
	return &Outcome{
		Meta:            meta,
		State:           d.State(),
		Result:          d.Result(),
		Entries:         len(d.Entries()),
		MissingNotices:  d.MissingNoticeCount(),
		OtherResponses:  d.OtherCount(),
		LastResumeToken: d.LastResumeToken(),
	}
}

// ResumeRequest returns prev restarted at token, keeping every other
// parameter. The dispatcher keeps nothing between requests; callers pass
// the token they persisted.
func ResumeRequest(prev *types.ChangelogBatchRequest, token []byte) (*types.ChangelogBatchRequest, error) {
	if prev == nil {
		return nil, ber.MissingField("changelog_batch_request")
	}
	sp, err := types.NewResumeWithToken(token)
	if err != nil {
		return nil, err
	}
	return prev.WithStartingPoint(sp)
}
