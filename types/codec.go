package types

import (
	"sort"

	"github.com/pithecene-io/extop/ber"
)

// expectTag rejects an element whose tag is not the single legal tag for field.
func expectTag(e ber.Element, tag uint8, field string) error {
	if e.Tag() != tag {
		return ber.UnrecognizedTag(field, e.Tag())
	}
	return nil
}

func decodeString(e ber.Element, field string) (string, error) {
	s, err := e.UTF8()
	if err != nil {
		return "", ber.Annotate(err, field)
	}
	return s, nil
}

func decodeNonEmptyString(e ber.Element, field string) (string, error) {
	s, err := decodeString(e, field)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", ber.InvalidValue(field, "must not be empty")
	}
	return s, nil
}

func decodeInt64(e ber.Element, field string) (int64, error) {
	v, err := e.Int64()
	if err != nil {
		return 0, ber.Annotate(err, field)
	}
	return v, nil
}

func decodeInt32(e ber.Element, field string) (int32, error) {
	v, err := e.Int32()
	if err != nil {
		return 0, ber.Annotate(err, field)
	}
	return v, nil
}

func decodeBool(e ber.Element, field string) (bool, error) {
	v, err := e.Bool()
	if err != nil {
		return false, ber.Annotate(err, field)
	}
	return v, nil
}

func decodeNull(e ber.Element, field string) error {
	return ber.Annotate(e.Null(), field)
}

// encodeStrings encodes values as a constructed element of octet strings.
func encodeStrings(tag uint8, values []string) ber.Element {
	children := make([]ber.Element, 0, len(values))
	for _, v := range values {
		children = append(children, ber.String(ber.TagOctetString, v))
	}
	return ber.Sequence(tag, children...)
}

// decodeStrings decodes a constructed element of octet strings.
func decodeStrings(e ber.Element, field string) ([]string, error) {
	r := e.Children()
	var out []string
	for r.More() {
		child, err := r.Expect(ber.TagOctetString, field)
		if err != nil {
			return nil, err
		}
		s, err := decodeString(child, field)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// encodeStringMap encodes a map as SEQUENCE OF SEQUENCE { name, value }
// in key order so the encoding is deterministic.
func encodeStringMap(tag uint8, m map[string]string) ber.Element {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	children := make([]ber.Element, 0, len(keys))
	for _, k := range keys {
		children = append(children, ber.Sequence(ber.TagSequence,
			ber.String(ber.TagOctetString, k),
			ber.String(ber.TagOctetString, m[k]),
		))
	}
	return ber.Sequence(tag, children...)
}

func decodeStringMap(e ber.Element, field string) (map[string]string, error) {
	out := make(map[string]string)
	r := e.Children()
	for r.More() {
		pair, err := r.Expect(ber.TagSequence, field)
		if err != nil {
			return nil, err
		}
		pr := pair.Children()
		nameElem, err := pr.Expect(ber.TagOctetString, field+".name")
		if err != nil {
			return nil, err
		}
		valueElem, err := pr.Expect(ber.TagOctetString, field+".value")
		if err != nil {
			return nil, err
		}
		if err := pr.Done(field); err != nil {
			return nil, err
		}
		name, err := decodeString(nameElem, field+".name")
		if err != nil {
			return nil, err
		}
		value, err := decodeString(valueElem, field+".value")
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

// optionalString decodes an optional context-tagged string.
func optionalString(r *ber.Reader, tag uint8, field string) (*string, error) {
	e, ok, err := r.Optional(tag)
	if err != nil {
		return nil, ber.Annotate(err, field)
	}
	if !ok {
		return nil, nil
	}
	s, err := decodeString(e, field)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// optionalBool decodes an optional context-tagged boolean; absent is false.
func optionalBool(r *ber.Reader, tag uint8, field string) (bool, error) {
	e, ok, err := r.Optional(tag)
	if err != nil {
		return false, ber.Annotate(err, field)
	}
	if !ok {
		return false, nil
	}
	return decodeBool(e, field)
}

func stringPtr(s string) *string {
	return &s
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
