package ber

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
)

func TestEncode_LengthForms(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		header []byte
	}{
		{"empty", 0, []byte{0x04, 0x00}},
		{"short max", 127, []byte{0x04, 0x7F}},
		{"long one octet", 200, []byte{0x04, 0x81, 0xC8}},
		{"long two octets", 300, []byte{0x04, 0x82, 0x01, 0x2C}},
		{"long three octets", 70000, []byte{0x04, 0x83, 0x01, 0x11, 0x70}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := bytes.Repeat([]byte{'x'}, tt.size)
			encoded := Encode(OctetString(TagOctetString, content))
			if !bytes.Equal(encoded[:len(tt.header)], tt.header) {
				t.Fatalf("header = % x, want % x", encoded[:len(tt.header)], tt.header)
			}
			if len(encoded) != len(tt.header)+tt.size {
				t.Fatalf("encoded length = %d, want %d", len(encoded), len(tt.header)+tt.size)
			}

			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !bytes.Equal(decoded.Content(), content) {
				t.Error("content mismatch after round trip")
			}
		})
	}
}

func TestEncode_Deterministic(t *testing.T) {
	build := func() Element {
		return Sequence(TagSequence,
			String(TagOctetString, "uid=jdoe,ou=People,dc=example,dc=com"),
			Int(TagInteger, 42),
			Bool(ContextTag(1), true),
		)
	}
	if !bytes.Equal(Encode(build()), Encode(build())) {
		t.Fatal("encoding the same tree twice produced different bytes")
	}
}

func TestEncode_TagOctetPreserved(t *testing.T) {
	tests := []struct {
		name string
		e    Element
		want []byte
	}{
		{"context primitive", OctetString(ContextTag(0), []byte{0xAB}), []byte{0x80, 0x01, 0xAB}},
		{"context constructed", Sequence(ContextConstructedTag(1), Null(TagNull)), []byte{0xA1, 0x02, 0x05, 0x00}},
		{"low bits all set", New(0x1F, []byte{0x01}), []byte{0x1F, 0x01, 0x01}},
		{"application low bits all set", New(0x7F, nil), []byte{0x7F, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.e)
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("Encode = % x, want % x", got, tt.want)
			}
			decoded, err := Decode(got)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !decoded.Equal(tt.e) {
				t.Errorf("Decode = %v, want %v", decoded, tt.e)
			}
		})
	}
}

func TestInt_MinimalTwosComplement(t *testing.T) {
	tests := []struct {
		value   int64
		content []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x00, 0x80}},
		{256, []byte{0x01, 0x00}},
		{-1, []byte{0xFF}},
		{-128, []byte{0x80}},
		{-129, []byte{0xFF, 0x7F}},
		{math.MaxInt64, []byte{0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{math.MinInt64, []byte{0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		e := Int(TagInteger, tt.value)
		if !bytes.Equal(e.Content(), tt.content) {
			t.Errorf("Int(%d) content = % x, want % x", tt.value, e.Content(), tt.content)
			continue
		}
		got, err := e.Int64()
		if err != nil {
			t.Errorf("Int64() for %d failed: %v", tt.value, err)
			continue
		}
		if got != tt.value {
			t.Errorf("Int64() = %d, want %d", got, tt.value)
		}
	}
}

func TestInt64_RejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"padded positive", []byte{0x00, 0x7F}},
		{"padded negative", []byte{0xFF, 0x80}},
		{"padded zero", []byte{0x00, 0x00}},
		{"nine octets", []byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(TagInteger, tt.content).Int64()
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("expected ErrInvalidValue, got %v", err)
			}
		})
	}
}

func TestInt32_Range(t *testing.T) {
	if _, err := Int(TagInteger, math.MaxInt32).Int32(); err != nil {
		t.Fatalf("MaxInt32 rejected: %v", err)
	}
	if _, err := Int(TagInteger, math.MaxInt32+1).Int32(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for MaxInt32+1, got %v", err)
	}
}

func TestBool(t *testing.T) {
	if v, err := New(TagBoolean, []byte{0x01}).Bool(); err != nil || !v {
		t.Errorf("0x01 = %v, %v; want true", v, err)
	}
	if v, err := Bool(TagBoolean, false).Bool(); err != nil || v {
		t.Errorf("false round trip = %v, %v", v, err)
	}
	if !bytes.Equal(Bool(TagBoolean, true).Content(), []byte{0xFF}) {
		t.Error("true should encode as 0xFF")
	}
	if _, err := New(TagBoolean, []byte{0x00, 0x00}).Bool(); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for two-octet boolean, got %v", err)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty input", nil, ErrTruncated},
		{"tag only", []byte{0x04}, ErrTruncated},
		{"content short", []byte{0x04, 0x05, 'a', 'b'}, ErrTruncated},
		{"long length short", []byte{0x04, 0x82, 0x01}, ErrTruncated},
		{"trailing octets", []byte{0x05, 0x00, 0x00}, ErrTrailingData},
		{"indefinite length", []byte{0x30, 0x80, 0x00, 0x00}, ErrInvalidValue},
		{"five length octets", []byte{0x04, 0x85, 0, 0, 0, 0, 1, 'a'}, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !IsDecodeError(err) {
				t.Errorf("expected *DecodeError, got %T", err)
			}
		})
	}
}

func TestDecode_AcceptsNonMinimalLongFormLength(t *testing.T) {
	e, err := Decode([]byte{0x04, 0x81, 0x01, 'a'})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if string(e.Content()) != "a" {
		t.Errorf("content = %q, want %q", e.Content(), "a")
	}
}

func TestDecodeFirst_ReturnsRemainder(t *testing.T) {
	data := append(Encode(Null(ContextTag(2))), Encode(Int(TagInteger, 7))...)
	first, rest, err := DecodeFirst(data)
	if err != nil {
		t.Fatalf("DecodeFirst failed: %v", err)
	}
	if first.Tag() != 0x82 {
		t.Errorf("tag = 0x%02x, want 0x82", first.Tag())
	}
	second, err := Decode(rest)
	if err != nil {
		t.Fatalf("Decode rest failed: %v", err)
	}
	if v, _ := second.Int64(); v != 7 {
		t.Errorf("second value = %d, want 7", v)
	}
}

func TestElement_Immutable(t *testing.T) {
	input := []byte("token")
	e := OctetString(ContextTag(0), input)
	input[0] = 'X'
	if string(e.Content()) != "token" {
		t.Fatal("element changed after mutating constructor input")
	}

	out := e.Content()
	out[0] = 'Y'
	if string(e.Content()) != "token" {
		t.Fatal("element changed after mutating accessor output")
	}
}

func TestReader_LazyAndRestartable(t *testing.T) {
	seq := Sequence(TagSequence,
		String(TagOctetString, "a"),
		Int(TagInteger, 2),
		Null(ContextTag(3)),
	)

	r := seq.Children()
	first, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if first.Tag() != TagOctetString {
		t.Fatalf("first tag = 0x%02x", first.Tag())
	}

	// A second reader starts over independently.
	again, err := seq.Children().Next()
	if err != nil || !again.Equal(first) {
		t.Fatalf("restarted reader returned %v, %v", again, err)
	}

	r.Reset()
	all, err := r.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d children, want 3", len(all))
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last child, got %v", err)
	}
}

func TestReader_ExpectOptionalDone(t *testing.T) {
	seq := Sequence(TagSequence,
		Int(TagInteger, 1),
		Bool(ContextTag(1), true),
	)

	r := seq.Children()
	if _, ok, err := r.Optional(ContextTag(0)); ok || err != nil {
		t.Fatalf("Optional matched wrong tag: ok=%v err=%v", ok, err)
	}
	if _, err := r.Expect(TagOctetString, "name"); !errors.Is(err, ErrUnrecognizedVariant) {
		t.Fatalf("expected ErrUnrecognizedVariant, got %v", err)
	}

	r.Reset()
	if _, err := r.Expect(TagInteger, "count"); err != nil {
		t.Fatalf("Expect failed: %v", err)
	}
	if err := r.Done("seq"); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("expected ErrTrailingData, got %v", err)
	}
	if _, ok, err := r.Optional(ContextTag(1)); !ok || err != nil {
		t.Fatalf("Optional did not match: ok=%v err=%v", ok, err)
	}
	if err := r.Done("seq"); err != nil {
		t.Fatalf("Done after consuming all: %v", err)
	}
	_, err := r.Expect(TagInteger, "missing")
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	var decErr *DecodeError
	if !errors.As(err, &decErr) || decErr.Field != "missing" {
		t.Errorf("expected field name on error, got %v", err)
	}
}

func TestReader_TruncatedChild(t *testing.T) {
	seq := New(TagSequence, []byte{0x04, 0x09, 'a'})
	_, err := seq.Children().Expect(TagOctetString, "value")
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if !strings.Contains(err.Error(), "value") {
		t.Errorf("error should name the field, got %q", err.Error())
	}
}

func TestUTF8_RejectsInvalid(t *testing.T) {
	if _, err := New(TagOctetString, []byte{0xFF, 0xFE}).UTF8(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestDump(t *testing.T) {
	e := Sequence(TagSequence,
		String(TagOctetString, "cn"),
		Int(TagInteger, 5),
		Sequence(ContextConstructedTag(2), Null(ContextTag(0))),
	)
	out := Dump(e)
	for _, want := range []string{"[0x30]", `"cn"`, "INTEGER 5", "[0xa2]", "[0x80] len=0"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
