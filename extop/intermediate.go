package extop

import (
	"github.com/pithecene-io/extop/ber"
)

var (
	tagIntermediateName  = ber.ContextTag(0)
	tagIntermediateValue = ber.ContextTag(1)
)

// IntermediateResponse is one server message streamed before the result.
// OID is empty when the server sent none; Value is nil when absent.
type IntermediateResponse struct {
	OID   string
	Value []byte
}

// NewIntermediateResponse builds a response carrying payload's encoding.
// A nil payload leaves the value absent.
func NewIntermediateResponse(oid string, payload Payload) (*IntermediateResponse, error) {
	if err := ValidateOID(oid); err != nil {
		return nil, err
	}
	ir := &IntermediateResponse{OID: oid}
	if payload != nil {
		if v, ok := payload.(validator); ok {
			if err := v.Validate(); err != nil {
				return nil, err
			}
		}
		ir.Value = ber.Encode(payload.Encode())
	}
	return ir, nil
}

// Encode returns the wire form of the response.
func (ir *IntermediateResponse) Encode() []byte {
	var children []ber.Element
	if ir.OID != "" {
		children = append(children, ber.String(tagIntermediateName, ir.OID))
	}
	if ir.Value != nil {
		children = append(children, ber.OctetString(tagIntermediateValue, ir.Value))
	}
	return ber.Encode(ber.Sequence(TagIntermediateResponse, children...))
}

// DecodeIntermediateResponse parses one intermediate response. The value
// is returned raw; routing by OID decides how to decode it.
func DecodeIntermediateResponse(data []byte) (*IntermediateResponse, error) {
	e, err := ber.Decode(data)
	if err != nil {
		return nil, ber.Annotate(err, "intermediate_response")
	}
	if e.Tag() != TagIntermediateResponse {
		return nil, ber.UnrecognizedTag("intermediate_response", e.Tag())
	}
	ir := &IntermediateResponse{}
	r := e.Children()
	if name, ok, err := r.Optional(tagIntermediateName); err != nil {
		return nil, ber.Annotate(err, "response_name")
	} else if ok {
		if ir.OID, err = name.UTF8(); err != nil {
			return nil, ber.Annotate(err, "response_name")
		}
	}
	if value, ok, err := r.Optional(tagIntermediateValue); err != nil {
		return nil, ber.Annotate(err, "response_value")
	} else if ok {
		ir.Value = value.Content()
	}
	if err := r.Done("intermediate_response"); err != nil {
		return nil, err
	}
	return ir, nil
}

// DecodeValue parses the response value as a single element.
// Returns ErrMissingValue when the value is absent.
func (ir *IntermediateResponse) DecodeValue() (ber.Element, error) {
	if ir.Value == nil {
		return ber.Element{}, &ber.DecodeError{Kind: ber.ErrMissingValue, Field: "response_value", Msg: ir.OID}
	}
	e, err := ber.Decode(ir.Value)
	if err != nil {
		return ber.Element{}, ber.Annotate(err, "response_value")
	}
	return e, nil
}
