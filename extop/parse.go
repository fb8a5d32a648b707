package extop

import (
	"github.com/pithecene-io/extop/ber"
)

// TypedResult is a Result whose value has been decoded into T.
// Payload is nil for every non-success result.
type TypedResult[T any] struct {
	ResultCode        ResultCode
	MatchedDN         *string
	DiagnosticMessage *string
	Referrals         []string
	OID               *string
	Controls          []Control
	Payload           *T
}

// NewTypedResult builds a typed result. A non-success code carrying a
// payload is rejected with ErrInvalidValue.
func NewTypedResult[T any](code ResultCode, diagnostic *string, payload *T) (*TypedResult[T], error) {
	if !code.IsSuccess() && payload != nil {
		return nil, ber.InvalidValue("payload", "%s result must not carry a payload", code)
	}
	return &TypedResult[T]{ResultCode: code, DiagnosticMessage: diagnostic, Payload: payload}, nil
}

// ParseResult decodes res's value with decode.
//
// A non-success result never has its value decoded, even when the server
// attached bytes to it; the typed payload is simply absent. A successful
// result must carry a value (ErrMissingValue otherwise) that decode
// accepts. Pass a nil decode for operations whose result defines no
// value; a successful result that carries one is then ErrInvalidValue.
func ParseResult[T any](res *Result, decode func(ber.Element) (T, error)) (*TypedResult[T], error) {
	typed := &TypedResult[T]{
		ResultCode:        res.ResultCode,
		MatchedDN:         res.MatchedDN,
		DiagnosticMessage: res.DiagnosticMessage,
		Referrals:         res.Referrals,
		OID:               res.OID,
		Controls:          res.Controls,
	}
	if !res.ResultCode.IsSuccess() {
		return typed, nil
	}

	if decode == nil {
		if res.Value != nil {
			return nil, ber.InvalidValue("response_value", "operation defines no value")
		}
		return typed, nil
	}
	if res.Value == nil {
		return nil, &ber.DecodeError{Kind: ber.ErrMissingValue, Field: "response_value"}
	}
	e, err := ber.Decode(res.Value)
	if err != nil {
		return nil, ber.Annotate(err, "response_value")
	}
	payload, err := decode(e)
	if err != nil {
		return nil, err
	}
	typed.Payload = &payload
	return typed, nil
}
