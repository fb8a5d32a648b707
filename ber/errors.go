package ber

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying decode and construction failures.
// Use errors.Is(err, ErrXxx) for typed assertions; every *DecodeError
// matches exactly one of these.
var (
	// ErrTruncated indicates a declared length exceeds the remaining bytes.
	ErrTruncated = errors.New("truncated value")

	// ErrTrailingData indicates bytes remain after the value(s) a caller
	// expected to consume.
	ErrTrailingData = errors.New("trailing data")

	// ErrUnrecognizedVariant indicates a tag outside the finite set of tags
	// legal at that position.
	ErrUnrecognizedVariant = errors.New("unrecognized variant")

	// ErrMissingField indicates a structurally required field is absent.
	ErrMissingField = errors.New("missing field")

	// ErrInvalidValue indicates a field that is present but violates a
	// value-level invariant (negative size, non-minimal integer,
	// indefinite length, invalid UTF-8, ...).
	ErrInvalidValue = errors.New("invalid value")

	// ErrMissingValue indicates a successful result that lacks the
	// payload its operation requires.
	ErrMissingValue = errors.New("missing value")
)

// DecodeError is a local, synchronous decode or construction failure.
// Construction-time validation returns the same type so callers handle
// both uniformly.
type DecodeError struct {
	// Kind is the sentinel used for classification (e.g. ErrInvalidValue).
	Kind error
	// Field names the structure field involved, if any.
	Field string
	// Msg is a human-readable detail.
	Msg string
	// Err is an underlying error, if any.
	Err error
}

func (e *DecodeError) Error() string {
	msg := "ber: "
	if e.Field != "" {
		msg += e.Field + ": "
	}
	msg += e.Kind.Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *DecodeError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// Errorf creates a classified error for field with a formatted message.
func Errorf(kind error, field, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// WrapError classifies err under kind, keeping it in the chain.
// Returns nil if err is nil.
func WrapError(kind error, field string, err error) error {
	if err == nil {
		return nil
	}
	return &DecodeError{Kind: kind, Field: field, Err: err}
}

// MissingField reports that field is required but absent.
func MissingField(field string) *DecodeError {
	return &DecodeError{Kind: ErrMissingField, Field: field}
}

// UnrecognizedTag reports a tag that selects no known variant of field.
func UnrecognizedTag(field string, tag uint8) *DecodeError {
	return Errorf(ErrUnrecognizedVariant, field, "tag 0x%02x", tag)
}

// InvalidValue reports a value-level invariant violation on field.
func InvalidValue(field, format string, args ...any) *DecodeError {
	return Errorf(ErrInvalidValue, field, format, args...)
}

// IsDecodeError returns true if err is (or wraps) a *DecodeError.
func IsDecodeError(err error) bool {
	var decErr *DecodeError
	return errors.As(err, &decErr)
}
