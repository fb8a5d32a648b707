// Package ber implements the tag-length-value codec used by directory
// extended operations.
//
// An Element is one tagged value: a single tag byte plus its content
// octets. Primitive elements carry booleans, integers, enumerations,
// octet strings and nulls; constructed elements carry the concatenated
// encodings of their children in a type-defined order.
//
// The codec never validates tags. Which tags are legal at a given
// position is decided by the structure being decoded (see package types).
//
// Elements are immutable. Constructors copy their inputs and accessors
// return copies, so an Element can be shared between goroutines freely.
package ber

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Universal tags.
const (
	TagBoolean     uint8 = 0x01
	TagInteger     uint8 = 0x02
	TagOctetString uint8 = 0x04
	TagNull        uint8 = 0x05
	TagEnumerated  uint8 = 0x0A
	TagSequence    uint8 = 0x30
	TagSet         uint8 = 0x31
)

// Tag class and form bits.
const (
	ClassUniversal   uint8 = 0x00
	ClassApplication uint8 = 0x40
	ClassContext     uint8 = 0x80
	ClassPrivate     uint8 = 0xC0
	FlagConstructed  uint8 = 0x20

	classMask  uint8 = 0xC0
	numberMask uint8 = 0x1F
)

// ContextTag returns the context-specific primitive tag for field n (0x80+n).
func ContextTag(n uint8) uint8 {
	return ClassContext | (n & numberMask)
}

// ContextConstructedTag returns the context-specific constructed tag for
// field n (0xA0+n).
func ContextConstructedTag(n uint8) uint8 {
	return ClassContext | FlagConstructed | (n & numberMask)
}

// ApplicationTag returns the application-class constructed tag for n.
func ApplicationTag(n uint8) uint8 {
	return ClassApplication | FlagConstructed | (n & numberMask)
}

// Element is one tagged value.
type Element struct {
	tag     uint8
	content []byte
}

// New creates an element with the given tag and raw content octets.
func New(tag uint8, content []byte) Element {
	return Element{tag: tag, content: clone(content)}
}

// Bool creates a boolean element. True encodes as 0xFF.
func Bool(tag uint8, v bool) Element {
	if v {
		return Element{tag: tag, content: []byte{0xFF}}
	}
	return Element{tag: tag, content: []byte{0x00}}
}

// Int creates an integer element using minimal two's-complement content.
func Int(tag uint8, v int64) Element {
	return Element{tag: tag, content: intContent(v)}
}

// Enumerated creates an enumerated element. Same content rules as Int.
func Enumerated(tag uint8, v int64) Element {
	return Int(tag, v)
}

// OctetString creates an octet string element.
func OctetString(tag uint8, v []byte) Element {
	return New(tag, v)
}

// String creates an octet string element holding the UTF-8 bytes of v.
func String(tag uint8, v string) Element {
	return Element{tag: tag, content: []byte(v)}
}

// Null creates an element with empty content.
func Null(tag uint8) Element {
	return Element{tag: tag}
}

// Sequence creates a constructed element whose content is the encodings
// of children, in order.
func Sequence(tag uint8, children ...Element) Element {
	b := cryptobyte.NewBuilder(nil)
	for _, child := range children {
		b.AddBytes(Encode(child))
	}
	return Element{tag: tag, content: b.BytesOrPanic()}
}

// Tag returns the element's tag byte.
func (e Element) Tag() uint8 {
	return e.tag
}

// Content returns a copy of the element's content octets.
func (e Element) Content() []byte {
	return clone(e.content)
}

// Len returns the number of content octets.
func (e Element) Len() int {
	return len(e.content)
}

// IsConstructed reports whether the tag's constructed bit is set.
func (e Element) IsConstructed() bool {
	return e.tag&FlagConstructed != 0
}

// Class returns the tag class bits.
func (e Element) Class() uint8 {
	return e.tag & classMask
}

// Equal reports whether two elements have the same tag and content.
func (e Element) Equal(other Element) bool {
	return e.tag == other.tag && bytes.Equal(e.content, other.content)
}

// WithTag returns a copy of e carrying a different tag. Used for
// implicit tagging of a universal value.
func (e Element) WithTag(tag uint8) Element {
	return Element{tag: tag, content: e.content}
}

// Children returns a fresh reader over the element's content. Each call
// starts from the first child, so the sequence is restartable.
func (e Element) Children() *Reader {
	return NewReader(e.content)
}

// Bool returns the content as a boolean. Any non-zero octet is true.
func (e Element) Bool() (bool, error) {
	if len(e.content) != 1 {
		return false, InvalidValue("", "boolean content length %d", len(e.content))
	}
	return e.content[0] != 0x00, nil
}

// Int64 returns the content as a signed integer. Empty, non-minimal and
// out-of-range encodings are rejected.
func (e Element) Int64() (int64, error) {
	if len(e.content) == 0 {
		return 0, InvalidValue("", "empty integer")
	}
	if len(e.content) > 8 {
		return 0, InvalidValue("", "integer of %d octets exceeds 64 bits", len(e.content))
	}
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(asn1.INTEGER, func(c *cryptobyte.Builder) {
		c.AddBytes(e.content)
	})
	s := cryptobyte.String(b.BytesOrPanic())
	var v int64
	if !s.ReadASN1Integer(&v) {
		return 0, InvalidValue("", "non-minimal integer encoding % x", e.content)
	}
	return v, nil
}

// Int32 returns the content as a signed 32-bit integer.
func (e Element) Int32() (int32, error) {
	v, err := e.Int64()
	if err != nil {
		return 0, err
	}
	if v < -1<<31 || v > 1<<31-1 {
		return 0, InvalidValue("", "integer %d exceeds 32 bits", v)
	}
	return int32(v), nil
}

// Enumerated returns the content as an enumerated value.
func (e Element) Enumerated() (int64, error) {
	return e.Int64()
}

// OctetString returns a copy of the content.
func (e Element) OctetString() []byte {
	return e.Content()
}

// UTF8 returns the content as a string, rejecting invalid UTF-8.
func (e Element) UTF8() (string, error) {
	if !utf8.Valid(e.content) {
		return "", InvalidValue("", "invalid UTF-8 string")
	}
	return string(e.content), nil
}

// Null verifies the element has empty content.
func (e Element) Null() error {
	if len(e.content) != 0 {
		return InvalidValue("", "null with %d content octets", len(e.content))
	}
	return nil
}

// String implements fmt.Stringer for debugging.
func (e Element) String() string {
	return fmt.Sprintf("ber.Element{tag=0x%02x len=%d}", e.tag, len(e.content))
}

func intContent(v int64) []byte {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1Int64(v)
	s := cryptobyte.String(b.BytesOrPanic())
	var content cryptobyte.String
	s.ReadASN1(&content, asn1.INTEGER)
	return []byte(content)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
