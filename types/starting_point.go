package types

import (
	"github.com/pithecene-io/extop/ber"
)

// Starting point tags. Exactly one appears, inline, as the first child of
// a changelog batch request.
var (
	tagResumeWithToken        = ber.ContextTag(0)
	tagResumeWithChangeNumber = ber.ContextTag(1)
	tagBeginningOfChangelog   = ber.ContextTag(2)
	tagEndOfChangelog         = ber.ContextTag(3)
)

// StartingPoint selects where in the changelog a batch begins.
// Implemented by ResumeWithToken, ResumeWithChangeNumber,
// BeginningOfChangelog and EndOfChangelog.
type StartingPoint interface {
	Encode() ber.Element
	isStartingPoint()
}

// ResumeWithToken continues immediately after the change identified by an
// opaque token previously returned by the server.
type ResumeWithToken struct {
	Token []byte
}

// NewResumeWithToken returns a starting point for token. The token is copied.
func NewResumeWithToken(token []byte) (ResumeWithToken, error) {
	if len(token) == 0 {
		return ResumeWithToken{}, ber.InvalidValue("resume_token", "must not be empty")
	}
	return ResumeWithToken{Token: cloneBytes(token)}, nil
}

func (s ResumeWithToken) Encode() ber.Element {
	return ber.OctetString(tagResumeWithToken, s.Token)
}

func (ResumeWithToken) isStartingPoint() {}

// ResumeWithChangeNumber continues at a specific change number.
type ResumeWithChangeNumber struct {
	ChangeNumber int64
}

func NewResumeWithChangeNumber(n int64) (ResumeWithChangeNumber, error) {
	if n < 0 {
		return ResumeWithChangeNumber{}, ber.InvalidValue("change_number", "negative change number %d", n)
	}
	return ResumeWithChangeNumber{ChangeNumber: n}, nil
}

func (s ResumeWithChangeNumber) Encode() ber.Element {
	return ber.Int(tagResumeWithChangeNumber, s.ChangeNumber)
}

func (ResumeWithChangeNumber) isStartingPoint() {}

// BeginningOfChangelog starts at the oldest change still available.
type BeginningOfChangelog struct{}

func (BeginningOfChangelog) Encode() ber.Element {
	return ber.Null(tagBeginningOfChangelog)
}

func (BeginningOfChangelog) isStartingPoint() {}

// EndOfChangelog starts after the newest change, returning only changes
// made from now on.
type EndOfChangelog struct{}

func (EndOfChangelog) Encode() ber.Element {
	return ber.Null(tagEndOfChangelog)
}

func (EndOfChangelog) isStartingPoint() {}

// DecodeStartingPoint selects the variant by tag.
func DecodeStartingPoint(e ber.Element) (StartingPoint, error) {
	switch e.Tag() {
	case tagResumeWithToken:
		sp, err := NewResumeWithToken(e.OctetString())
		if err != nil {
			return nil, err
		}
		return sp, nil
	case tagResumeWithChangeNumber:
		n, err := decodeInt64(e, "change_number")
		if err != nil {
			return nil, err
		}
		sp, err := NewResumeWithChangeNumber(n)
		if err != nil {
			return nil, err
		}
		return sp, nil
	case tagBeginningOfChangelog:
		if err := decodeNull(e, "beginning_of_changelog"); err != nil {
			return nil, err
		}
		return BeginningOfChangelog{}, nil
	case tagEndOfChangelog:
		if err := decodeNull(e, "end_of_changelog"); err != nil {
			return nil, err
		}
		return EndOfChangelog{}, nil
	default:
		return nil, ber.UnrecognizedTag("starting_point", e.Tag())
	}
}
