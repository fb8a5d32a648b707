package stream

import (
	"errors"
	"fmt"

	"github.com/pithecene-io/extop/extop"
)

// ErrAbandoned is the cause recorded when a request is abandoned locally.
var ErrAbandoned = errors.New("request abandoned")

// ErrorKind classifies a failed request.
type ErrorKind int

const (
	// ErrorDecode indicates a response the client could not parse.
	ErrorDecode ErrorKind = iota
	// ErrorStatus indicates the server completed the request with a
	// non-success result code.
	ErrorStatus
	// ErrorTransport indicates the transport failed to deliver a response.
	ErrorTransport
	// ErrorCanceled indicates the request was abandoned or its context
	// was canceled.
	ErrorCanceled
	// ErrorState indicates an operation that is illegal in the
	// dispatcher's current state.
	ErrorState
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorDecode:
		return "decode"
	case ErrorStatus:
		return "status"
	case ErrorTransport:
		return "transport"
	case ErrorCanceled:
		return "canceled"
	case ErrorState:
		return "state"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the failure of one streamed request.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Result is the final result for ErrorStatus, nil otherwise.
	Result *extop.Result
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	return "stream: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// statusError builds an ErrorStatus failure from a non-success result.
func statusError(res *extop.Result) *Error {
	msg := fmt.Sprintf("server returned %s", res.ResultCode)
	if res.DiagnosticMessage != nil {
		msg += ": " + *res.DiagnosticMessage
	}
	return &Error{Kind: ErrorStatus, Result: res, Err: errors.New(msg)}
}

func isKind(err error, kind ErrorKind) bool {
	var streamErr *Error
	if errors.As(err, &streamErr) {
		return streamErr.Kind == kind
	}
	return false
}

// IsDecodeError returns true if the request failed on an unparseable response.
func IsDecodeError(err error) bool {
	return isKind(err, ErrorDecode)
}

// IsStatusError returns true if the server rejected the request.
func IsStatusError(err error) bool {
	return isKind(err, ErrorStatus)
}

// IsTransportError returns true if the transport failed.
func IsTransportError(err error) bool {
	return isKind(err, ErrorTransport)
}

// IsCanceledError returns true if the request was abandoned or canceled.
func IsCanceledError(err error) bool {
	return isKind(err, ErrorCanceled)
}

// IsStateError returns true if an operation was illegal in the
// dispatcher's state.
func IsStateError(err error) bool {
	return isKind(err, ErrorState)
}

// ResultCode returns the server result code carried by a status error.
func ResultCode(err error) (extop.ResultCode, bool) {
	var streamErr *Error
	if errors.As(err, &streamErr) && streamErr.Result != nil {
		return streamErr.Result.ResultCode, true
	}
	return 0, false
}
