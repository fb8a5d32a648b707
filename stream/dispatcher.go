// Package stream dispatches the responses of a changelog batch request.
//
// A Dispatcher owns the state of one outstanding request. The transport
// feeds it each intermediate response buffer in receipt order and then
// the final result; the dispatcher decodes them, records entries and the
// most recent resume token, and routes each response to a Listener.
//
// Fetch drives a Transport end to end for callers that do not feed a
// dispatcher by hand.
package stream

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pithecene-io/extop/extop"
	"github.com/pithecene-io/extop/log"
	"github.com/pithecene-io/extop/metrics"
	"github.com/pithecene-io/extop/types"
)

// State is the lifecycle position of a dispatcher.
type State int

const (
	// StateIdle is the state before Submit.
	StateIdle State = iota
	// StateAwaitingResponse means the request is outstanding and nothing
	// has been received yet.
	StateAwaitingResponse
	// StateDelivering means at least one intermediate response arrived.
	StateDelivering
	// StateCompleted means a success result arrived.
	StateCompleted
	// StateFailed means the request failed, was rejected or was abandoned.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateDelivering:
		return "delivering"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether no further responses are accepted.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Dispatcher routes the responses of one changelog batch request.
//
// State is mutated only by the dispatcher and guarded by a mutex, so the
// accessors may be read from other goroutines at any time. Listener
// callbacks run without the lock held; a callback may read accessors.
type Dispatcher struct {
	mu        sync.Mutex
	listener  Listener
	logger    *log.Logger
	collector *metrics.Collector

	state     State
	entries   []types.ChangeEntry
	lastToken []byte
	missing   int
	other     int
	result    *extop.TypedResult[types.ChangelogBatchResult]
	err       error
}

// NewDispatcher creates an idle dispatcher. A nil listener is replaced
// by NopListener. Of the options, only WithLogger and WithCollector apply.
func NewDispatcher(listener Listener, opts ...Option) *Dispatcher {
	o := buildOptions(opts)
	if listener == nil {
		listener = NopListener{}
	}
	return &Dispatcher{
		listener:  listener,
		logger:    o.logger,
		collector: o.collector,
	}
}

// Submit marks the request as sent.
func (d *Dispatcher) Submit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateIdle {
		return d.stateErrorLocked("submit")
	}
	d.state = StateAwaitingResponse
	d.collector.IncRequestSubmitted()
	d.logger.Debug("request submitted", map[string]any{"state": d.state.String()})
	return nil
}

// HandleIntermediate decodes one intermediate response buffer and routes
// it by OID.
//
// Returns:
//   - nil: the response was delivered, or dropped because the request
//     already ended
//   - *Error with Kind=ErrorDecode: the envelope or a recognized payload
//     did not parse; the dispatcher is now failed
//   - *Error with Kind=ErrorState: the request was never submitted
func (d *Dispatcher) HandleIntermediate(raw []byte) error {
	d.mu.Lock()

	switch {
	case d.state == StateIdle:
		err := d.stateErrorLocked("intermediate response")
		d.mu.Unlock()
		return err
	case d.state.IsTerminal():
		d.logger.Debug("dropping intermediate response after request ended", map[string]any{
			"state": d.state.String(),
		})
		d.mu.Unlock()
		return nil
	}

	ir, err := extop.DecodeIntermediateResponse(raw)
	if err != nil {
		err = d.failLocked(ErrorDecode, fmt.Errorf("intermediate response: %w", err), nil)
		d.mu.Unlock()
		return err
	}

	kind := ClassifyResponse(ir.OID)
	switch kind {
	case ResponseChangelogEntry:
		entry, err := decodeEntry(ir)
		if err != nil {
			err = d.failLocked(ErrorDecode, fmt.Errorf("changelog entry: %w", err), nil)
			d.mu.Unlock()
			return err
		}
		d.entries = append(d.entries, entry.Clone())
		d.lastToken = cloneBytes(entry.ResumeToken)
		d.state = StateDelivering
		d.collector.IncEntryDelivered()
		d.logger.Debug("changelog entry", map[string]any{
			"change_number": entry.ChangeNumber,
			"change_type":   entry.ChangeType.String(),
			"target_dn":     entry.TargetDN,
		})
		d.mu.Unlock()
		d.listener.OnEntry(entry)

	case ResponseMissingChanges:
		notice, err := types.DecodeMissingChangesNotice(ir.Value)
		if err != nil {
			err = d.failLocked(ErrorDecode, fmt.Errorf("missing changes notice: %w", err), nil)
			d.mu.Unlock()
			return err
		}
		d.missing++
		d.state = StateDelivering
		d.collector.IncGapNotice()
		fields := map[string]any{"entries_so_far": len(d.entries)}
		if notice.Message != nil {
			fields["message"] = *notice.Message
		}
		d.logger.Warn("server reported missing changes", fields)
		d.mu.Unlock()
		d.listener.OnGap(notice.Message)

	default:
		d.other++
		d.state = StateDelivering
		d.collector.IncOtherResponse(ir.OID)
		d.logger.Warn("unrecognized intermediate response", map[string]any{
			"oid":       ir.OID,
			"has_value": ir.Value != nil,
		})
		d.mu.Unlock()
		d.listener.OnOther(ir)
	}
	return nil
}

func decodeEntry(ir *extop.IntermediateResponse) (types.ChangeEntry, error) {
	value, err := ir.DecodeValue()
	if err != nil {
		return types.ChangeEntry{}, err
	}
	return types.DecodeChangeEntry(value)
}

// HandleResult completes the request with its final result.
//
// A success result moves the dispatcher to StateCompleted and returns the
// typed batch result. If that result carries a resume token, it replaces
// the token of the last entry. A non-success result moves the dispatcher
// to StateFailed and returns the typed result (without payload) together
// with an ErrorStatus error.
func (d *Dispatcher) HandleResult(res *extop.Result) (*extop.TypedResult[types.ChangelogBatchResult], error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateIdle || d.state.IsTerminal() {
		return nil, d.stateErrorLocked("result")
	}
	if res == nil {
		return nil, d.failLocked(ErrorDecode, errors.New("missing result"), nil)
	}

	typed, err := extop.ParseResult(res, types.DecodeChangelogBatchResult)
	if err != nil {
		return nil, d.failLocked(ErrorDecode, fmt.Errorf("batch result: %w", err), nil)
	}
	d.result = typed

	if !res.ResultCode.IsSuccess() {
		return typed, d.failLocked(ErrorStatus, nil, res)
	}

	if token := typed.Payload.ResumeToken; token != nil {
		d.lastToken = cloneBytes(token)
	}
	d.state = StateCompleted
	d.collector.IncRequestCompleted()
	d.logger.Info("request completed", map[string]any{
		"entries":                len(d.entries),
		"missing_change_notices": d.missing,
		"other_responses":        d.other,
		"more_changes_available": typed.Payload.MoreChangesAvailable,
	})
	return typed, nil
}

// Abandon fails the request locally. Responses handled after Abandon
// returns are dropped without callbacks; a callback already running
// completes. Abandoning a request that already ended has no effect.
func (d *Dispatcher) Abandon(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state.IsTerminal() {
		return
	}
	d.state = StateFailed
	d.err = &Error{Kind: ErrorCanceled, Err: fmt.Errorf("%w: %s", ErrAbandoned, reason)}
	d.collector.IncRequestAbandoned()
	d.logger.Warn("request abandoned", map[string]any{"reason": reason})
}

// fail records a failure detected outside the response handlers, such as
// a transport error. Has no effect once the request ended.
func (d *Dispatcher) fail(kind ErrorKind, cause error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state.IsTerminal() {
		return d.err
	}
	return d.failLocked(kind, cause, nil)
}

func (d *Dispatcher) failLocked(kind ErrorKind, cause error, res *extop.Result) error {
	var err *Error
	if kind == ErrorStatus {
		err = statusError(res)
		d.collector.IncStatusError()
	} else {
		err = &Error{Kind: kind, Err: cause}
		switch kind {
		case ErrorDecode:
			d.collector.IncDecodeError()
		case ErrorTransport:
			d.collector.IncTransportError()
		}
	}
	d.state = StateFailed
	d.err = err
	d.collector.IncRequestFailed()
	d.logger.Error("request failed", map[string]any{
		"kind":  kind.String(),
		"error": err.Err.Error(),
	})
	return err
}

func (d *Dispatcher) stateErrorLocked(op string) error {
	return &Error{Kind: ErrorState, Err: fmt.Errorf("%s not allowed in state %s", op, d.state)}
}

// State returns the current state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Entries returns a copy of the entries delivered so far, in order.
func (d *Dispatcher) Entries() []types.ChangeEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]types.ChangeEntry, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.Clone()
	}
	return out
}

// LastResumeToken returns a copy of the most recent resume token, or nil
// if none has been received.
func (d *Dispatcher) LastResumeToken() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneBytes(d.lastToken)
}

// MissingNoticeCount returns the number of missing-changes notices.
func (d *Dispatcher) MissingNoticeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.missing
}

// OtherCount returns the number of unrecognized intermediate responses.
func (d *Dispatcher) OtherCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.other
}

// Result returns the typed final result, or nil if none was handled.
func (d *Dispatcher) Result() *extop.TypedResult[types.ChangelogBatchResult] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.result
}

// Err returns the failure that ended the request, or nil.
func (d *Dispatcher) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
