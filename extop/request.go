// Package extop implements the extended operation envelope: the request
// that names an operation and carries its encoded payload, the result the
// server returns, and the intermediate responses it may stream before the
// result.
package extop

import (
	"strings"

	"github.com/pithecene-io/extop/ber"
)

// Envelope tags.
var (
	TagExtendedRequest      = ber.ApplicationTag(23)
	TagExtendedResponse     = ber.ApplicationTag(24)
	TagIntermediateResponse = ber.ApplicationTag(25)

	tagRequestName  = ber.ContextTag(0)
	tagRequestValue = ber.ContextTag(1)
)

// Payload is an operation value that can be encoded into a request.
// Payloads that also implement Validate() error are validated before
// encoding.
type Payload interface {
	Encode() ber.Element
}

type validator interface {
	Validate() error
}

// Request is an extended request. Value is nil for operations that define
// no payload.
type Request struct {
	OID   string
	Value *ber.Element
}

// NewRequest builds a request for oid. Pass a nil payload for operations
// without a value. Invalid payloads are rejected here and never reach the
// transport.
func NewRequest(oid string, payload Payload) (*Request, error) {
	if err := ValidateOID(oid); err != nil {
		return nil, err
	}
	req := &Request{OID: oid}
	if payload == nil {
		return req, nil
	}
	if v, ok := payload.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	value := payload.Encode()
	req.Value = &value
	return req, nil
}

// Encode returns the wire form of the request.
func (r *Request) Encode() []byte {
	children := []ber.Element{ber.String(tagRequestName, r.OID)}
	if r.Value != nil {
		children = append(children, ber.OctetString(tagRequestValue, ber.Encode(*r.Value)))
	}
	return ber.Encode(ber.Sequence(TagExtendedRequest, children...))
}

// DecodeRequest parses the wire form of a request.
func DecodeRequest(data []byte) (*Request, error) {
	e, err := ber.Decode(data)
	if err != nil {
		return nil, ber.Annotate(err, "extended_request")
	}
	if e.Tag() != TagExtendedRequest {
		return nil, ber.UnrecognizedTag("extended_request", e.Tag())
	}
	r := e.Children()
	nameElem, err := r.Expect(tagRequestName, "request_name")
	if err != nil {
		return nil, err
	}
	oid, err := nameElem.UTF8()
	if err != nil {
		return nil, ber.Annotate(err, "request_name")
	}
	if err := ValidateOID(oid); err != nil {
		return nil, err
	}
	req := &Request{OID: oid}
	if v, ok, err := r.Optional(tagRequestValue); err != nil {
		return nil, ber.Annotate(err, "request_value")
	} else if ok {
		value, err := ber.Decode(v.Content())
		if err != nil {
			return nil, ber.Annotate(err, "request_value")
		}
		req.Value = &value
	}
	if err := r.Done("extended_request"); err != nil {
		return nil, err
	}
	return req, nil
}

// ValidateOID checks that oid is a dotted-numeric object identifier.
func ValidateOID(oid string) error {
	if oid == "" {
		return ber.MissingField("oid")
	}
	parts := strings.Split(oid, ".")
	if len(parts) < 2 {
		return ber.InvalidValue("oid", "%q has fewer than two components", oid)
	}
	for _, p := range parts {
		if p == "" {
			return ber.InvalidValue("oid", "%q has an empty component", oid)
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return ber.InvalidValue("oid", "%q is not dotted-numeric", oid)
			}
		}
	}
	return nil
}
