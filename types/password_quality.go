package types

import (
	"github.com/pithecene-io/extop/ber"
)

var (
	tagPQAddWithDefaultPolicy   = ber.ContextTag(0)
	tagPQAddWithSpecifiedPolicy = ber.ContextTag(1)
	tagPQSelfChange             = ber.ContextTag(2)
	tagPQAdministrativeReset    = ber.ContextTag(3)

	tagPQClientSideValidation = ber.ContextConstructedTag(0)
	tagPQValidationProperties = ber.ContextConstructedTag(1)

	tagPQMustChangePassword     = ber.ContextTag(0)
	tagPQSecondsUntilExpiration = ber.ContextTag(1)
)

// PasswordQualityTarget selects the operation whose password quality
// requirements are requested.
type PasswordQualityTarget interface {
	Encode() ber.Element
	isPasswordQualityTarget()
}

// AddWithDefaultPolicy targets an add using the server's default policy.
type AddWithDefaultPolicy struct{}

func (AddWithDefaultPolicy) Encode() ber.Element {
	return ber.Null(tagPQAddWithDefaultPolicy)
}

func (AddWithDefaultPolicy) isPasswordQualityTarget() {}

// AddWithSpecifiedPolicy targets an add governed by the policy at PolicyDN.
type AddWithSpecifiedPolicy struct {
	PolicyDN string
}

func (t AddWithSpecifiedPolicy) Encode() ber.Element {
	return ber.String(tagPQAddWithSpecifiedPolicy, t.PolicyDN)
}

func (AddWithSpecifiedPolicy) isPasswordQualityTarget() {}

// SelfChange targets the requester changing their own password.
type SelfChange struct{}

func (SelfChange) Encode() ber.Element {
	return ber.Null(tagPQSelfChange)
}

func (SelfChange) isPasswordQualityTarget() {}

// AdministrativeReset targets an administrator resetting UserDN's password.
type AdministrativeReset struct {
	UserDN string
}

func (t AdministrativeReset) Encode() ber.Element {
	return ber.String(tagPQAdministrativeReset, t.UserDN)
}

func (AdministrativeReset) isPasswordQualityTarget() {}

// GetPasswordQualityRequirementsRequest asks which requirements a new
// password must satisfy for Target.
type GetPasswordQualityRequirementsRequest struct {
	Target PasswordQualityTarget
}

func (r GetPasswordQualityRequirementsRequest) Validate() error {
	switch t := r.Target.(type) {
	case nil:
		return ber.MissingField("target")
	case AddWithSpecifiedPolicy:
		if t.PolicyDN == "" {
			return ber.InvalidValue("policy_dn", "must not be empty")
		}
	case AdministrativeReset:
		if t.UserDN == "" {
			return ber.InvalidValue("user_dn", "must not be empty")
		}
	}
	return nil
}

func (r GetPasswordQualityRequirementsRequest) Encode() ber.Element {
	return ber.Sequence(ber.TagSequence, r.Target.Encode())
}

// DecodeGetPasswordQualityRequirementsRequest decodes a request value.
func DecodeGetPasswordQualityRequirementsRequest(e ber.Element) (GetPasswordQualityRequirementsRequest, error) {
	if err := expectTag(e, ber.TagSequence, "password_quality_request"); err != nil {
		return GetPasswordQualityRequirementsRequest{}, err
	}
	r := e.Children()
	inner, err := r.Next()
	if err != nil {
		if r.Remaining() == 0 {
			return GetPasswordQualityRequirementsRequest{}, ber.MissingField("target")
		}
		return GetPasswordQualityRequirementsRequest{}, ber.Annotate(err, "target")
	}
	if err := r.Done("password_quality_request"); err != nil {
		return GetPasswordQualityRequirementsRequest{}, err
	}

	var target PasswordQualityTarget
	switch inner.Tag() {
	case tagPQAddWithDefaultPolicy:
		if err := decodeNull(inner, "add_with_default_policy"); err != nil {
			return GetPasswordQualityRequirementsRequest{}, err
		}
		target = AddWithDefaultPolicy{}
	case tagPQAddWithSpecifiedPolicy:
		dn, err := decodeString(inner, "policy_dn")
		if err != nil {
			return GetPasswordQualityRequirementsRequest{}, err
		}
		target = AddWithSpecifiedPolicy{PolicyDN: dn}
	case tagPQSelfChange:
		if err := decodeNull(inner, "self_change"); err != nil {
			return GetPasswordQualityRequirementsRequest{}, err
		}
		target = SelfChange{}
	case tagPQAdministrativeReset:
		dn, err := decodeString(inner, "user_dn")
		if err != nil {
			return GetPasswordQualityRequirementsRequest{}, err
		}
		target = AdministrativeReset{UserDN: dn}
	default:
		return GetPasswordQualityRequirementsRequest{}, ber.UnrecognizedTag("target", inner.Tag())
	}

	req := GetPasswordQualityRequirementsRequest{Target: target}
	if err := req.Validate(); err != nil {
		return GetPasswordQualityRequirementsRequest{}, err
	}
	return req, nil
}

// PasswordQualityRequirement is one human-readable requirement, with
// optional details a client can use to check a password before sending it.
type PasswordQualityRequirement struct {
	Description    string
	ValidationType *string
	Properties     map[string]string
}

func (q PasswordQualityRequirement) Encode() ber.Element {
	children := []ber.Element{ber.String(ber.TagOctetString, q.Description)}
	if q.ValidationType != nil {
		fields := []ber.Element{ber.String(ber.TagOctetString, *q.ValidationType)}
		if len(q.Properties) > 0 {
			fields = append(fields, encodeStringMap(tagPQValidationProperties, q.Properties))
		}
		children = append(children, ber.Sequence(tagPQClientSideValidation, fields...))
	}
	return ber.Sequence(ber.TagSequence, children...)
}

// DecodePasswordQualityRequirement decodes one requirement.
func DecodePasswordQualityRequirement(e ber.Element) (PasswordQualityRequirement, error) {
	var q PasswordQualityRequirement
	if err := expectTag(e, ber.TagSequence, "requirement"); err != nil {
		return q, err
	}
	r := e.Children()
	desc, err := r.Expect(ber.TagOctetString, "requirement.description")
	if err != nil {
		return q, err
	}
	if q.Description, err = decodeString(desc, "requirement.description"); err != nil {
		return PasswordQualityRequirement{}, err
	}
	if csv, ok, err := r.Optional(tagPQClientSideValidation); err != nil {
		return PasswordQualityRequirement{}, ber.Annotate(err, "requirement.validation")
	} else if ok {
		vr := csv.Children()
		typ, err := vr.Expect(ber.TagOctetString, "requirement.validation_type")
		if err != nil {
			return PasswordQualityRequirement{}, err
		}
		name, err := decodeString(typ, "requirement.validation_type")
		if err != nil {
			return PasswordQualityRequirement{}, err
		}
		q.ValidationType = &name
		if props, ok, err := vr.Optional(tagPQValidationProperties); err != nil {
			return PasswordQualityRequirement{}, ber.Annotate(err, "requirement.properties")
		} else if ok {
			if q.Properties, err = decodeStringMap(props, "requirement.properties"); err != nil {
				return PasswordQualityRequirement{}, err
			}
		}
		if err := vr.Done("requirement.validation"); err != nil {
			return PasswordQualityRequirement{}, err
		}
	}
	if err := r.Done("requirement"); err != nil {
		return PasswordQualityRequirement{}, err
	}
	return q, nil
}

// PasswordQualityRequirementsResult lists the requirements for the target
// operation and, for self changes, the state of the current password.
type PasswordQualityRequirementsResult struct {
	Requirements           []PasswordQualityRequirement
	MustChangePassword     *bool
	SecondsUntilExpiration *int32
}

func (r PasswordQualityRequirementsResult) Validate() error {
	if r.SecondsUntilExpiration != nil && *r.SecondsUntilExpiration < 0 {
		return ber.InvalidValue("seconds_until_expiration", "negative duration %d", *r.SecondsUntilExpiration)
	}
	return nil
}

func (r PasswordQualityRequirementsResult) Encode() ber.Element {
	reqs := make([]ber.Element, 0, len(r.Requirements))
	for _, q := range r.Requirements {
		reqs = append(reqs, q.Encode())
	}
	children := []ber.Element{ber.Sequence(ber.TagSequence, reqs...)}
	if r.MustChangePassword != nil {
		children = append(children, ber.Bool(tagPQMustChangePassword, *r.MustChangePassword))
	}
	if r.SecondsUntilExpiration != nil {
		children = append(children, ber.Int(tagPQSecondsUntilExpiration, int64(*r.SecondsUntilExpiration)))
	}
	return ber.Sequence(ber.TagSequence, children...)
}

// DecodePasswordQualityRequirementsResult decodes a result value.
func DecodePasswordQualityRequirementsResult(e ber.Element) (PasswordQualityRequirementsResult, error) {
	var res PasswordQualityRequirementsResult
	if err := expectTag(e, ber.TagSequence, "password_quality_result"); err != nil {
		return res, err
	}
	r := e.Children()
	list, err := r.Expect(ber.TagSequence, "requirements")
	if err != nil {
		return res, err
	}
	lr := list.Children()
	for lr.More() {
		qe, err := lr.Next()
		if err != nil {
			return PasswordQualityRequirementsResult{}, ber.Annotate(err, "requirements")
		}
		q, err := DecodePasswordQualityRequirement(qe)
		if err != nil {
			return PasswordQualityRequirementsResult{}, err
		}
		res.Requirements = append(res.Requirements, q)
	}
	if mc, ok, err := r.Optional(tagPQMustChangePassword); err != nil {
		return PasswordQualityRequirementsResult{}, ber.Annotate(err, "must_change_password")
	} else if ok {
		v, err := decodeBool(mc, "must_change_password")
		if err != nil {
			return PasswordQualityRequirementsResult{}, err
		}
		res.MustChangePassword = &v
	}
	if res.SecondsUntilExpiration, err = optionalInt32(r, tagPQSecondsUntilExpiration, "seconds_until_expiration"); err != nil {
		return PasswordQualityRequirementsResult{}, err
	}
	if err := r.Done("password_quality_result"); err != nil {
		return PasswordQualityRequirementsResult{}, err
	}
	if err := res.Validate(); err != nil {
		return PasswordQualityRequirementsResult{}, err
	}
	return res, nil
}
