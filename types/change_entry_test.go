package types //nolint:revive // types is a valid package name

import (
	"errors"
	"reflect"
	"testing"

	"github.com/pithecene-io/extop/ber"
)

func TestChangeEntry_RoundTrip(t *testing.T) {
	serverID := "ds1"
	tests := []struct {
		name  string
		entry ChangeEntry
	}{
		{"add", ChangeEntry{
			ResumeToken:  []byte{0x01, 0x02, 0x03},
			ChangeNumber: 1,
			TargetDN:     "uid=jdoe,ou=People,dc=example,dc=com",
			ChangeType:   ChangeTypeAdd,
			Detail:       []byte("objectClass: person\n"),
		}},
		{"rename with server", ChangeEntry{
			ResumeToken:  []byte("T2"),
			ChangeNumber: 1 << 40,
			TargetDN:     "cn=old,dc=example,dc=com",
			ChangeType:   ChangeTypeRename,
			Detail:       []byte("newrdn: cn=new"),
			ServerID:     &serverID,
		}},
		{"empty detail", ChangeEntry{
			ResumeToken:  []byte("T3"),
			ChangeNumber: 3,
			TargetDN:     "uid=gone,dc=example,dc=com",
			ChangeType:   ChangeTypeDelete,
			Detail:       []byte{},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeChangeEntry(wire(t, tt.entry.Encode()))
			if err != nil {
				t.Fatalf("DecodeChangeEntry failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.entry) {
				t.Errorf("round trip = %+v, want %+v", got, tt.entry)
			}
		})
	}
}

func TestChangeEntry_Clone(t *testing.T) {
	id := "ds1"
	orig := ChangeEntry{ResumeToken: []byte("T1"), Detail: []byte("d"), ServerID: &id}
	c := orig.Clone()
	c.ResumeToken[0] = 'X'
	*c.ServerID = "other"
	if string(orig.ResumeToken) != "T1" || *orig.ServerID != "ds1" {
		t.Errorf("Clone shares memory with original: %+v", orig)
	}

	empty := ChangeEntry{ResumeToken: []byte("T1"), Detail: []byte{}}
	if got := empty.Clone(); got.Detail == nil {
		t.Error("Clone turned an empty detail into nil")
	}
}

func TestDecodeChangeEntry_Errors(t *testing.T) {
	valid := func(mod func([]ber.Element) []ber.Element) ber.Element {
		children := []ber.Element{
			ber.String(ber.TagOctetString, "T1"),
			ber.Int(ber.TagInteger, 1),
			ber.String(ber.TagOctetString, "dc=example,dc=com"),
			ber.Enumerated(ber.TagEnumerated, 1),
			ber.String(ber.TagOctetString, "detail"),
		}
		return ber.Sequence(ber.TagSequence, mod(children)...)
	}

	tests := []struct {
		name string
		e    ber.Element
		want error
	}{
		{"wrong outer tag", ber.Sequence(0xA0), ber.ErrUnrecognizedVariant},
		{"empty token", valid(func(c []ber.Element) []ber.Element {
			c[0] = ber.String(ber.TagOctetString, "")
			return c
		}), ber.ErrInvalidValue},
		{"negative change number", valid(func(c []ber.Element) []ber.Element {
			c[1] = ber.Int(ber.TagInteger, -1)
			return c
		}), ber.ErrInvalidValue},
		{"unknown change type", valid(func(c []ber.Element) []ber.Element {
			c[3] = ber.Enumerated(ber.TagEnumerated, 7)
			return c
		}), ber.ErrInvalidValue},
		{"change type as integer", valid(func(c []ber.Element) []ber.Element {
			c[3] = ber.Int(ber.TagInteger, 1)
			return c
		}), ber.ErrUnrecognizedVariant},
		{"missing detail", valid(func(c []ber.Element) []ber.Element {
			return c[:4]
		}), ber.ErrMissingField},
		{"trailing field", valid(func(c []ber.Element) []ber.Element {
			return append(c, ber.Null(0x85))
		}), ber.ErrTrailingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeChangeEntry(tt.e)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseChangeType(t *testing.T) {
	for _, c := range []ChangeType{ChangeTypeAdd, ChangeTypeModify, ChangeTypeDelete, ChangeTypeRename} {
		got, err := ParseChangeType(c.String())
		if err != nil || got != c {
			t.Errorf("ParseChangeType(%q) = %v, %v; want %v", c.String(), got, err, c)
		}
	}
	if got, err := ParseChangeType("MODIFY"); err != nil || got != ChangeTypeModify {
		t.Errorf("ParseChangeType is case sensitive: %v, %v", got, err)
	}
	if _, err := ParseChangeType("moddn"); !errors.Is(err, ber.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if s := ChangeType(9).String(); s != "ChangeType(9)" {
		t.Errorf("String() = %q", s)
	}
}

func TestMissingChangesNotice(t *testing.T) {
	notice, err := DecodeMissingChangesNotice(nil)
	if err != nil {
		t.Fatalf("absent value rejected: %v", err)
	}
	if notice.Message != nil {
		t.Errorf("Message = %q, want nil", *notice.Message)
	}

	msg := "changes before 42 were purged"
	encoded := ber.Encode(MissingChangesNotice{Message: &msg}.Encode())
	notice, err = DecodeMissingChangesNotice(encoded)
	if err != nil {
		t.Fatalf("DecodeMissingChangesNotice failed: %v", err)
	}
	if notice.Message == nil || *notice.Message != msg {
		t.Errorf("Message = %v, want %q", notice.Message, msg)
	}

	empty := ber.Encode(MissingChangesNotice{}.Encode())
	if notice, err = DecodeMissingChangesNotice(empty); err != nil || notice.Message != nil {
		t.Errorf("empty sequence = %+v, %v", notice, err)
	}

	if _, err := DecodeMissingChangesNotice([]byte{0x04, 0x00}); !errors.Is(err, ber.ErrUnrecognizedVariant) {
		t.Errorf("expected ErrUnrecognizedVariant, got %v", err)
	}
	if _, err := DecodeMissingChangesNotice([]byte{0x30, 0x05}); !errors.Is(err, ber.ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestChangelogBatchResult_RoundTrip(t *testing.T) {
	info := "server restarted"
	remaining := int32(17)
	tests := []ChangelogBatchResult{
		{MoreChangesAvailable: false},
		{ResumeToken: []byte("T9"), MoreChangesAvailable: true, EstimatedChangesRemaining: &remaining},
		{ResumeToken: []byte("T1"), ChangesAlreadyPurged: true, AdditionalInfo: &info},
	}

	for i, want := range tests {
		got, err := DecodeChangelogBatchResult(wire(t, want.Encode()))
		if err != nil {
			t.Fatalf("case %d: DecodeChangelogBatchResult failed: %v", i, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("case %d: round trip = %+v, want %+v", i, got, want)
		}
	}
}

func TestDecodeChangelogBatchResult_Errors(t *testing.T) {
	if _, err := DecodeChangelogBatchResult(ber.Sequence(ber.TagSequence)); !errors.Is(err, ber.ErrMissingField) {
		t.Errorf("missing flag: expected ErrMissingField, got %v", err)
	}
	neg := ber.Sequence(ber.TagSequence, ber.Bool(ber.TagBoolean, true), ber.Int(0x83, -1))
	if _, err := DecodeChangelogBatchResult(neg); !errors.Is(err, ber.ErrInvalidValue) {
		t.Errorf("negative remaining: expected ErrInvalidValue, got %v", err)
	}
	if _, err := DecodeChangelogBatchResult(ber.Sequence(0x31)); !errors.Is(err, ber.ErrUnrecognizedVariant) {
		t.Errorf("wrong outer tag: expected ErrUnrecognizedVariant, got %v", err)
	}
}
