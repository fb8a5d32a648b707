package ber

import (
	"errors"
	"io"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// maxLengthOctets bounds the long-form length prefix. Four octets cover
// every length this protocol can carry.
const maxLengthOctets = 4

// Encode returns the tag, length and content octets of e. Lengths use
// the short form below 128 and the minimal long form otherwise.
func Encode(e Element) []byte {
	b := cryptobyte.NewBuilder(make([]byte, 0, 2+maxLengthOctets+len(e.content)))
	// cryptobyte refuses tag octets with every number bit set, so the
	// tag is patched in after the length is built.
	b.AddASN1(asn1.Tag(e.tag&^numberMask), func(c *cryptobyte.Builder) {
		c.AddBytes(e.content)
	})
	out := b.BytesOrPanic()
	out[0] = e.tag
	return out
}

// Decode parses exactly one element from data.
//
// Errors:
//   - ErrTruncated: the header or the declared content runs past the input
//   - ErrTrailingData: bytes remain after the element
//   - ErrInvalidValue: indefinite or unsupported length encoding
func Decode(data []byte) (Element, error) {
	e, rest, err := DecodeFirst(data)
	if err != nil {
		return Element{}, err
	}
	if len(rest) != 0 {
		return Element{}, Errorf(ErrTrailingData, "", "%d octets after element", len(rest))
	}
	return e, nil
}

// DecodeFirst parses the first element of data and returns the
// unconsumed remainder.
func DecodeFirst(data []byte) (Element, []byte, error) {
	e, n, err := parse(data)
	if err != nil {
		return Element{}, nil, err
	}
	return e, data[n:], nil
}

// parse decodes one element header and content, returning the number of
// octets consumed.
func parse(data []byte) (Element, int, error) {
	if len(data) == 0 {
		return Element{}, 0, Errorf(ErrTruncated, "", "missing tag")
	}
	if len(data) < 2 {
		return Element{}, 0, Errorf(ErrTruncated, "", "missing length")
	}
	tag := data[0]
	first := data[1]
	offset := 2

	var length int
	switch {
	case first < 0x80:
		length = int(first)
	case first == 0x80:
		return Element{}, 0, InvalidValue("", "indefinite length encoding")
	default:
		n := int(first & 0x7F)
		if n > maxLengthOctets {
			return Element{}, 0, InvalidValue("", "length uses %d octets", n)
		}
		if len(data)-offset < n {
			return Element{}, 0, Errorf(ErrTruncated, "", "length needs %d octets, have %d", n, len(data)-offset)
		}
		for _, b := range data[offset : offset+n] {
			length = length<<8 | int(b)
		}
		offset += n
	}

	if length > len(data)-offset {
		return Element{}, 0, Errorf(ErrTruncated, "", "declared length %d exceeds remaining %d", length, len(data)-offset)
	}
	return Element{tag: tag, content: clone(data[offset : offset+length])}, offset + length, nil
}

// Reader walks the children of a constructed element one at a time.
// Callers consume only as many children as their structure defines and
// then either ignore the rest or reject them with Done.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a reader over the concatenated encodings in content.
func NewReader(content []byte) *Reader {
	return &Reader{data: content}
}

// Reset rewinds the reader to the first child.
func (r *Reader) Reset() {
	r.off = 0
}

// More reports whether unconsumed octets remain.
func (r *Reader) More() bool {
	return r.off < len(r.data)
}

// Remaining returns the number of unconsumed octets.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Next decodes the next child. Returns io.EOF when no children remain.
func (r *Reader) Next() (Element, error) {
	if !r.More() {
		return Element{}, io.EOF
	}
	e, n, err := parse(r.data[r.off:])
	if err != nil {
		return Element{}, err
	}
	r.off += n
	return e, nil
}

// Peek returns the tag of the next child without consuming it.
func (r *Reader) Peek() (uint8, bool) {
	if !r.More() {
		return 0, false
	}
	return r.data[r.off], true
}

// Expect consumes the next child, which must carry tag.
func (r *Reader) Expect(tag uint8, field string) (Element, error) {
	e, err := r.Next()
	if errors.Is(err, io.EOF) {
		return Element{}, MissingField(field)
	}
	if err != nil {
		return Element{}, Annotate(err, field)
	}
	if e.tag != tag {
		return Element{}, UnrecognizedTag(field, e.tag)
	}
	return e, nil
}

// Optional consumes the next child only if it carries tag.
func (r *Reader) Optional(tag uint8) (Element, bool, error) {
	next, ok := r.Peek()
	if !ok || next != tag {
		return Element{}, false, nil
	}
	e, err := r.Next()
	if err != nil {
		return Element{}, false, err
	}
	return e, true, nil
}

// All decodes every remaining child.
func (r *Reader) All() ([]Element, error) {
	var out []Element
	for r.More() {
		e, err := r.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Done rejects unconsumed children of a structure that defines no more.
func (r *Reader) Done(field string) error {
	if !r.More() {
		return nil
	}
	tag, _ := r.Peek()
	return Errorf(ErrTrailingData, field, "unexpected element with tag 0x%02x", tag)
}

// Annotate sets the field name on a *DecodeError that has none.
// Other errors are returned unchanged.
func Annotate(err error, field string) error {
	var decErr *DecodeError
	if !errors.As(err, &decErr) || decErr.Field != "" {
		return err
	}
	annotated := *decErr
	annotated.Field = field
	return &annotated
}
