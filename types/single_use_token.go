package types

import (
	"github.com/pithecene-io/extop/ber"
)

var (
	tagTokenValidityMillis     = ber.ContextTag(0)
	tagTokenMessageSubject     = ber.ContextTag(1)
	tagTokenFullTextBefore     = ber.ContextTag(2)
	tagTokenFullTextAfter      = ber.ContextTag(3)
	tagTokenCompactTextBefore  = ber.ContextTag(4)
	tagTokenCompactTextAfter   = ber.ContextTag(5)
	tagTokenDeliveryMechanisms = ber.ContextConstructedTag(6)
	tagTokenIfPasswordExpired  = ber.ContextTag(7)
	tagTokenIfAccountLocked    = ber.ContextTag(8)
	tagTokenIfAccountDisabled  = ber.ContextTag(9)
	tagTokenIfAccountExpired   = ber.ContextTag(10)

	tagDeliveredMechanism = ber.ContextTag(0)
	tagDeliveredRecipient = ber.ContextTag(1)
	tagDeliveredMessage   = ber.ContextTag(2)
)

// DeliveryMechanism names a preferred way to deliver a token, with an
// optional recipient override (an email address, phone number, ...).
type DeliveryMechanism struct {
	Name        string
	RecipientID *string
}

// DeliverSingleUseTokenRequest asks the server to generate a single-use
// token for UserDN and deliver it out of band. Empty strings and a zero
// ValidityMillis leave the server defaults in place.
type DeliverSingleUseTokenRequest struct {
	UserDN            string
	TokenID           string
	ValidityMillis    int64
	MessageSubject    string
	FullTextBefore    string
	FullTextAfter     string
	CompactTextBefore string
	CompactTextAfter  string
	PreferredDelivery []DeliveryMechanism
	IfPasswordExpired bool
	IfAccountLocked   bool
	IfAccountDisabled bool
	IfAccountExpired  bool
}

func (r DeliverSingleUseTokenRequest) Validate() error {
	if r.UserDN == "" {
		return ber.MissingField("user_dn")
	}
	if r.TokenID == "" {
		return ber.MissingField("token_id")
	}
	if r.ValidityMillis < 0 {
		return ber.InvalidValue("validity_millis", "negative duration %d", r.ValidityMillis)
	}
	for _, m := range r.PreferredDelivery {
		if m.Name == "" {
			return ber.InvalidValue("preferred_delivery", "empty mechanism name")
		}
	}
	return nil
}

func (r DeliverSingleUseTokenRequest) Encode() ber.Element {
	children := []ber.Element{
		ber.String(ber.TagOctetString, r.UserDN),
		ber.String(ber.TagOctetString, r.TokenID),
	}
	if r.ValidityMillis > 0 {
		children = append(children, ber.Int(tagTokenValidityMillis, r.ValidityMillis))
	}
	for _, f := range []struct {
		tag   uint8
		value string
	}{
		{tagTokenMessageSubject, r.MessageSubject},
		{tagTokenFullTextBefore, r.FullTextBefore},
		{tagTokenFullTextAfter, r.FullTextAfter},
		{tagTokenCompactTextBefore, r.CompactTextBefore},
		{tagTokenCompactTextAfter, r.CompactTextAfter},
	} {
		if f.value != "" {
			children = append(children, ber.String(f.tag, f.value))
		}
	}
	if len(r.PreferredDelivery) > 0 {
		mechs := make([]ber.Element, 0, len(r.PreferredDelivery))
		for _, m := range r.PreferredDelivery {
			fields := []ber.Element{ber.String(ber.TagOctetString, m.Name)}
			if m.RecipientID != nil {
				fields = append(fields, ber.String(ber.TagOctetString, *m.RecipientID))
			}
			mechs = append(mechs, ber.Sequence(ber.TagSequence, fields...))
		}
		children = append(children, ber.Sequence(tagTokenDeliveryMechanisms, mechs...))
	}
	for _, f := range []struct {
		tag   uint8
		value bool
	}{
		{tagTokenIfPasswordExpired, r.IfPasswordExpired},
		{tagTokenIfAccountLocked, r.IfAccountLocked},
		{tagTokenIfAccountDisabled, r.IfAccountDisabled},
		{tagTokenIfAccountExpired, r.IfAccountExpired},
	} {
		if f.value {
			children = append(children, ber.Bool(f.tag, true))
		}
	}
	return ber.Sequence(ber.TagSequence, children...)
}

// DecodeDeliverSingleUseTokenRequest decodes and validates a request value.
func DecodeDeliverSingleUseTokenRequest(e ber.Element) (DeliverSingleUseTokenRequest, error) {
	var r DeliverSingleUseTokenRequest
	if err := expectTag(e, ber.TagSequence, "deliver_single_use_token_request"); err != nil {
		return r, err
	}
	cr := e.Children()

	dn, err := cr.Expect(ber.TagOctetString, "user_dn")
	if err != nil {
		return r, err
	}
	if r.UserDN, err = decodeString(dn, "user_dn"); err != nil {
		return r, err
	}
	id, err := cr.Expect(ber.TagOctetString, "token_id")
	if err != nil {
		return r, err
	}
	if r.TokenID, err = decodeString(id, "token_id"); err != nil {
		return r, err
	}
	if v, ok, err := cr.Optional(tagTokenValidityMillis); err != nil {
		return r, ber.Annotate(err, "validity_millis")
	} else if ok {
		if r.ValidityMillis, err = decodeInt64(v, "validity_millis"); err != nil {
			return r, err
		}
	}
	for _, f := range []struct {
		tag   uint8
		name  string
		value *string
	}{
		{tagTokenMessageSubject, "message_subject", &r.MessageSubject},
		{tagTokenFullTextBefore, "full_text_before", &r.FullTextBefore},
		{tagTokenFullTextAfter, "full_text_after", &r.FullTextAfter},
		{tagTokenCompactTextBefore, "compact_text_before", &r.CompactTextBefore},
		{tagTokenCompactTextAfter, "compact_text_after", &r.CompactTextAfter},
	} {
		s, err := optionalString(cr, f.tag, f.name)
		if err != nil {
			return DeliverSingleUseTokenRequest{}, err
		}
		if s != nil {
			*f.value = *s
		}
	}
	if mechs, ok, err := cr.Optional(tagTokenDeliveryMechanisms); err != nil {
		return DeliverSingleUseTokenRequest{}, ber.Annotate(err, "preferred_delivery")
	} else if ok {
		if r.PreferredDelivery, err = decodeDeliveryMechanisms(mechs); err != nil {
			return DeliverSingleUseTokenRequest{}, err
		}
	}
	for _, f := range []struct {
		tag   uint8
		name  string
		value *bool
	}{
		{tagTokenIfPasswordExpired, "deliver_if_password_expired", &r.IfPasswordExpired},
		{tagTokenIfAccountLocked, "deliver_if_account_locked", &r.IfAccountLocked},
		{tagTokenIfAccountDisabled, "deliver_if_account_disabled", &r.IfAccountDisabled},
		{tagTokenIfAccountExpired, "deliver_if_account_expired", &r.IfAccountExpired},
	} {
		if *f.value, err = optionalBool(cr, f.tag, f.name); err != nil {
			return DeliverSingleUseTokenRequest{}, err
		}
	}
	if err := cr.Done("deliver_single_use_token_request"); err != nil {
		return DeliverSingleUseTokenRequest{}, err
	}
	if err := r.Validate(); err != nil {
		return DeliverSingleUseTokenRequest{}, err
	}
	return r, nil
}

func decodeDeliveryMechanisms(e ber.Element) ([]DeliveryMechanism, error) {
	var out []DeliveryMechanism
	r := e.Children()
	for r.More() {
		seq, err := r.Expect(ber.TagSequence, "preferred_delivery")
		if err != nil {
			return nil, err
		}
		mr := seq.Children()
		nameElem, err := mr.Expect(ber.TagOctetString, "preferred_delivery.name")
		if err != nil {
			return nil, err
		}
		var m DeliveryMechanism
		if m.Name, err = decodeString(nameElem, "preferred_delivery.name"); err != nil {
			return nil, err
		}
		if m.RecipientID, err = optionalString(mr, ber.TagOctetString, "preferred_delivery.recipient_id"); err != nil {
			return nil, err
		}
		if err := mr.Done("preferred_delivery"); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// DeliverSingleUseTokenResult describes how the token was delivered.
type DeliverSingleUseTokenResult struct {
	DeliveryMechanism string
	RecipientID       *string
	Message           *string
}

func (r DeliverSingleUseTokenResult) Validate() error {
	if r.DeliveryMechanism == "" {
		return ber.MissingField("delivery_mechanism")
	}
	return nil
}

func (r DeliverSingleUseTokenResult) Encode() ber.Element {
	children := []ber.Element{ber.String(tagDeliveredMechanism, r.DeliveryMechanism)}
	if r.RecipientID != nil {
		children = append(children, ber.String(tagDeliveredRecipient, *r.RecipientID))
	}
	if r.Message != nil {
		children = append(children, ber.String(tagDeliveredMessage, *r.Message))
	}
	return ber.Sequence(ber.TagSequence, children...)
}

// DecodeDeliverSingleUseTokenResult decodes a result value.
func DecodeDeliverSingleUseTokenResult(e ber.Element) (DeliverSingleUseTokenResult, error) {
	var r DeliverSingleUseTokenResult
	if err := expectTag(e, ber.TagSequence, "deliver_single_use_token_result"); err != nil {
		return r, err
	}
	cr := e.Children()
	mech, err := cr.Expect(tagDeliveredMechanism, "delivery_mechanism")
	if err != nil {
		return r, err
	}
	if r.DeliveryMechanism, err = decodeNonEmptyString(mech, "delivery_mechanism"); err != nil {
		return DeliverSingleUseTokenResult{}, err
	}
	if r.RecipientID, err = optionalString(cr, tagDeliveredRecipient, "recipient_id"); err != nil {
		return DeliverSingleUseTokenResult{}, err
	}
	if r.Message, err = optionalString(cr, tagDeliveredMessage, "message"); err != nil {
		return DeliverSingleUseTokenResult{}, err
	}
	if err := cr.Done("deliver_single_use_token_result"); err != nil {
		return DeliverSingleUseTokenResult{}, err
	}
	return r, nil
}
