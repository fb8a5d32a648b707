package types //nolint:revive // types is a valid package name

import (
	"errors"
	"reflect"
	"testing"

	"github.com/pithecene-io/extop/ber"
)

func TestSelectionCriteria_RoundTrip(t *testing.T) {
	anyAttrs, err := NewAnyAttributes("cn", "sn")
	if err != nil {
		t.Fatalf("NewAnyAttributes failed: %v", err)
	}
	all, err := NewAllAttributes("mail")
	if err != nil {
		t.Fatalf("NewAllAttributes failed: %v", err)
	}
	ignore, err := NewIgnoreAttributes(true, "modifyTimestamp", "ds-sync-hist")
	if err != nil {
		t.Fatalf("NewIgnoreAttributes failed: %v", err)
	}
	ignoreNone, err := NewIgnoreAttributes(false)
	if err != nil {
		t.Fatalf("NewIgnoreAttributes with no attributes failed: %v", err)
	}
	dest, err := NewNotificationDestination("f81d4fae-7dec-11d0-a765-00a0c91e6bf6")
	if err != nil {
		t.Fatalf("NewNotificationDestination failed: %v", err)
	}

	for _, sc := range []SelectionCriteria{anyAttrs, all, ignore, ignoreNone, dest} {
		t.Run(reflect.TypeOf(sc).Name(), func(t *testing.T) {
			encoded := sc.Encode()
			if encoded.Tag() != 0xA7 {
				t.Fatalf("outer tag = 0x%02x, want 0xa7", encoded.Tag())
			}
			got, err := DecodeSelectionCriteria(wire(t, encoded))
			if err != nil {
				t.Fatalf("DecodeSelectionCriteria failed: %v", err)
			}
			if !reflect.DeepEqual(got, sc) {
				t.Errorf("round trip = %#v, want %#v", got, sc)
			}
		})
	}
}

func TestSelectionCriteria_ConstructionErrors(t *testing.T) {
	if _, err := NewAnyAttributes(); !errors.Is(err, ber.ErrInvalidValue) {
		t.Errorf("no attributes: expected ErrInvalidValue, got %v", err)
	}
	if _, err := NewAllAttributes("cn", ""); !errors.Is(err, ber.ErrInvalidValue) {
		t.Errorf("empty attribute: expected ErrInvalidValue, got %v", err)
	}
	if _, err := NewNotificationDestination(""); !errors.Is(err, ber.ErrInvalidValue) {
		t.Errorf("empty uuid: expected ErrInvalidValue, got %v", err)
	}
}

func TestDecodeSelectionCriteria_Errors(t *testing.T) {
	tests := []struct {
		name string
		e    ber.Element
		want error
	}{
		{
			name: "wrong outer tag",
			e:    ber.Sequence(0xA6, ber.String(0x84, "uuid")),
			want: ber.ErrUnrecognizedVariant,
		},
		{
			name: "unknown inner tag",
			e:    ber.Sequence(0xA7, ber.String(0x85, "uuid")),
			want: ber.ErrUnrecognizedVariant,
		},
		{
			name: "empty wrapper",
			e:    ber.Sequence(0xA7),
			want: ber.ErrMissingField,
		},
		{
			name: "two variants",
			e:    ber.Sequence(0xA7, ber.String(0x84, "a"), ber.String(0x84, "b")),
			want: ber.ErrTrailingData,
		},
		{
			name: "ignore without flag",
			e:    ber.Sequence(0xA7, ber.Sequence(0xA3, encodeStrings(ber.TagSequence, []string{"cn"}))),
			want: ber.ErrMissingField,
		},
		{
			name: "any with no attributes",
			e:    ber.Sequence(0xA7, ber.Sequence(0xA1)),
			want: ber.ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSelectionCriteria(tt.e)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
