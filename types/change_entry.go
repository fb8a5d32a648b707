package types

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pithecene-io/extop/ber"
)

// ChangeType is the kind of directory modification a change entry records.
type ChangeType int

const (
	ChangeTypeAdd    ChangeType = 0
	ChangeTypeModify ChangeType = 1
	ChangeTypeDelete ChangeType = 2
	ChangeTypeRename ChangeType = 3
)

var changeTypeNames = map[ChangeType]string{
	ChangeTypeAdd:    "add",
	ChangeTypeModify: "modify",
	ChangeTypeDelete: "delete",
	ChangeTypeRename: "rename",
}

// String returns the lowercase name of the change type.
func (c ChangeType) String() string {
	if name, ok := changeTypeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ChangeType(%d)", int(c))
}

// Valid reports whether c is a defined change type.
func (c ChangeType) Valid() bool {
	_, ok := changeTypeNames[c]
	return ok
}

// ParseChangeType parses a change type name, case-insensitively.
func ParseChangeType(s string) (ChangeType, error) {
	for c, name := range changeTypeNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	return 0, ber.InvalidValue("change_type", "unknown change type %q", s)
}

func decodeChangeType(e ber.Element, field string) (ChangeType, error) {
	v, err := e.Enumerated()
	if err != nil {
		return 0, ber.Annotate(err, field)
	}
	c := ChangeType(v)
	if int64(c) != v || !c.Valid() {
		return 0, ber.InvalidValue(field, "unknown change type %d", v)
	}
	return c, nil
}

// ChangeEntry is one change delivered in a changelog entry intermediate
// response. ResumeToken identifies the position immediately after this
// change and is the only state a client must persist to resume. Detail
// is never nil after decoding, even when the server sent no detail.
type ChangeEntry struct {
	ResumeToken  []byte
	ChangeNumber int64
	TargetDN     string
	ChangeType   ChangeType
	Detail       []byte
	ServerID     *string
}

var tagServerID = ber.ContextTag(0)

// Validate checks the entry's value invariants.
func (c ChangeEntry) Validate() error {
	if len(c.ResumeToken) == 0 {
		return ber.InvalidValue("resume_token", "must not be empty")
	}
	if c.ChangeNumber < 0 {
		return ber.InvalidValue("change_number", "negative change number %d", c.ChangeNumber)
	}
	if !c.ChangeType.Valid() {
		return ber.InvalidValue("change_type", "unknown change type %d", int(c.ChangeType))
	}
	return nil
}

// Clone returns a deep copy.
func (c ChangeEntry) Clone() ChangeEntry {
	out := c
	out.ResumeToken = cloneBytes(c.ResumeToken)
	out.Detail = slices.Clone(c.Detail)
	if c.ServerID != nil {
		out.ServerID = stringPtr(*c.ServerID)
	}
	return out
}

// Encode returns the intermediate response value for the entry.
func (c ChangeEntry) Encode() ber.Element {
	children := []ber.Element{
		ber.OctetString(ber.TagOctetString, c.ResumeToken),
		ber.Int(ber.TagInteger, c.ChangeNumber),
		ber.String(ber.TagOctetString, c.TargetDN),
		ber.Enumerated(ber.TagEnumerated, int64(c.ChangeType)),
		ber.OctetString(ber.TagOctetString, c.Detail),
	}
	if c.ServerID != nil {
		children = append(children, ber.String(tagServerID, *c.ServerID))
	}
	return ber.Sequence(ber.TagSequence, children...)
}

// DecodeChangeEntry decodes and validates a change entry value.
func DecodeChangeEntry(e ber.Element) (ChangeEntry, error) {
	if err := expectTag(e, ber.TagSequence, "change_entry"); err != nil {
		return ChangeEntry{}, err
	}
	r := e.Children()

	tokenElem, err := r.Expect(ber.TagOctetString, "resume_token")
	if err != nil {
		return ChangeEntry{}, err
	}
	numberElem, err := r.Expect(ber.TagInteger, "change_number")
	if err != nil {
		return ChangeEntry{}, err
	}
	dnElem, err := r.Expect(ber.TagOctetString, "target_dn")
	if err != nil {
		return ChangeEntry{}, err
	}
	typeElem, err := r.Expect(ber.TagEnumerated, "change_type")
	if err != nil {
		return ChangeEntry{}, err
	}
	detailElem, err := r.Expect(ber.TagOctetString, "change_detail")
	if err != nil {
		return ChangeEntry{}, err
	}
	serverID, err := optionalString(r, tagServerID, "server_id")
	if err != nil {
		return ChangeEntry{}, err
	}
	if err := r.Done("change_entry"); err != nil {
		return ChangeEntry{}, err
	}

	entry := ChangeEntry{
		ResumeToken: tokenElem.OctetString(),
		Detail:      detailElem.OctetString(),
		ServerID:    serverID,
	}
	if entry.ChangeNumber, err = decodeInt64(numberElem, "change_number"); err != nil {
		return ChangeEntry{}, err
	}
	if entry.TargetDN, err = decodeString(dnElem, "target_dn"); err != nil {
		return ChangeEntry{}, err
	}
	if entry.ChangeType, err = decodeChangeType(typeElem, "change_type"); err != nil {
		return ChangeEntry{}, err
	}
	if err := entry.Validate(); err != nil {
		return ChangeEntry{}, err
	}
	return entry, nil
}

// MissingChangesNotice reports that some changes could not be returned,
// for example because they were purged from the changelog.
type MissingChangesNotice struct {
	Message *string
}

var tagMissingChangesMessage = ber.ContextTag(0)

// Encode returns the notice value. A notice without a message has no
// value at all; callers send it with a nil value.
func (n MissingChangesNotice) Encode() ber.Element {
	if n.Message == nil {
		return ber.Sequence(ber.TagSequence)
	}
	return ber.Sequence(ber.TagSequence, ber.String(tagMissingChangesMessage, *n.Message))
}

// DecodeMissingChangesNotice decodes an intermediate response value,
// which may be absent.
func DecodeMissingChangesNotice(value []byte) (MissingChangesNotice, error) {
	if value == nil {
		return MissingChangesNotice{}, nil
	}
	e, err := ber.Decode(value)
	if err != nil {
		return MissingChangesNotice{}, ber.Annotate(err, "missing_changes")
	}
	if err := expectTag(e, ber.TagSequence, "missing_changes"); err != nil {
		return MissingChangesNotice{}, err
	}
	r := e.Children()
	msg, err := optionalString(r, tagMissingChangesMessage, "message")
	if err != nil {
		return MissingChangesNotice{}, err
	}
	if err := r.Done("missing_changes"); err != nil {
		return MissingChangesNotice{}, err
	}
	return MissingChangesNotice{Message: msg}, nil
}
