package extop

import (
	"github.com/pithecene-io/extop/ber"
)

var (
	tagReferral      = ber.ContextConstructedTag(3)
	tagResponseName  = ber.ContextTag(10)
	tagResponseValue = ber.ContextTag(11)
)

// Result is an extended result as received from the server. Value holds
// the raw payload bytes and is nil when absent; it is decoded only by
// ParseResult and only for successful results.
type Result struct {
	ResultCode        ResultCode
	MatchedDN         *string
	DiagnosticMessage *string
	Referrals         []string
	OID               *string
	Value             []byte
	Controls          []Control
}

// Encode returns the wire form: the extended response, followed by the
// control list when controls are present.
func (r *Result) Encode() []byte {
	children := []ber.Element{
		ber.Enumerated(ber.TagEnumerated, int64(r.ResultCode)),
		ber.String(ber.TagOctetString, deref(r.MatchedDN)),
		ber.String(ber.TagOctetString, deref(r.DiagnosticMessage)),
	}
	if len(r.Referrals) > 0 {
		refs := make([]ber.Element, 0, len(r.Referrals))
		for _, ref := range r.Referrals {
			refs = append(refs, ber.String(ber.TagOctetString, ref))
		}
		children = append(children, ber.Sequence(tagReferral, refs...))
	}
	if r.OID != nil {
		children = append(children, ber.String(tagResponseName, *r.OID))
	}
	if r.Value != nil {
		children = append(children, ber.OctetString(tagResponseValue, r.Value))
	}
	out := ber.Encode(ber.Sequence(TagExtendedResponse, children...))
	if len(r.Controls) > 0 {
		out = append(out, ber.Encode(EncodeControls(r.Controls))...)
	}
	return out
}

// DecodeResult parses an extended result and its optional control list.
// Empty matched DN and diagnostic message strings decode as absent.
func DecodeResult(data []byte) (*Result, error) {
	e, rest, err := ber.DecodeFirst(data)
	if err != nil {
		return nil, ber.Annotate(err, "extended_response")
	}
	if e.Tag() != TagExtendedResponse {
		return nil, ber.UnrecognizedTag("extended_response", e.Tag())
	}

	res := &Result{}
	r := e.Children()
	codeElem, err := r.Expect(ber.TagEnumerated, "result_code")
	if err != nil {
		return nil, err
	}
	code, err := codeElem.Enumerated()
	if err != nil {
		return nil, ber.Annotate(err, "result_code")
	}
	if code < 0 || code > 1<<31-1 {
		return nil, ber.InvalidValue("result_code", "out of range %d", code)
	}
	res.ResultCode = ResultCode(code)

	if res.MatchedDN, err = optionalNonEmpty(r, "matched_dn"); err != nil {
		return nil, err
	}
	if res.DiagnosticMessage, err = optionalNonEmpty(r, "diagnostic_message"); err != nil {
		return nil, err
	}
	if refs, ok, err := r.Optional(tagReferral); err != nil {
		return nil, ber.Annotate(err, "referral")
	} else if ok {
		rr := refs.Children()
		for rr.More() {
			ref, err := rr.Expect(ber.TagOctetString, "referral")
			if err != nil {
				return nil, err
			}
			s, err := ref.UTF8()
			if err != nil {
				return nil, ber.Annotate(err, "referral")
			}
			res.Referrals = append(res.Referrals, s)
		}
	}
	if name, ok, err := r.Optional(tagResponseName); err != nil {
		return nil, ber.Annotate(err, "response_name")
	} else if ok {
		oid, err := name.UTF8()
		if err != nil {
			return nil, ber.Annotate(err, "response_name")
		}
		res.OID = &oid
	}
	if value, ok, err := r.Optional(tagResponseValue); err != nil {
		return nil, ber.Annotate(err, "response_value")
	} else if ok {
		res.Value = value.Content()
	}
	if err := r.Done("extended_response"); err != nil {
		return nil, err
	}

	if len(rest) > 0 {
		ctrls, err := ber.Decode(rest)
		if err != nil {
			return nil, ber.Annotate(err, "controls")
		}
		if res.Controls, err = DecodeControls(ctrls); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// optionalNonEmpty reads a required octet string whose empty value means
// absent.
func optionalNonEmpty(r *ber.Reader, field string) (*string, error) {
	e, err := r.Expect(ber.TagOctetString, field)
	if err != nil {
		return nil, err
	}
	s, err := e.UTF8()
	if err != nil {
		return nil, ber.Annotate(err, field)
	}
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
