package types

import (
	"github.com/pithecene-io/extop/ber"
)

// tagSelectionCriteria is the wrapper carrying exactly one criteria variant.
var tagSelectionCriteria = ber.ContextConstructedTag(7)

var (
	tagAnyAttributes           = ber.ContextConstructedTag(1)
	tagAllAttributes           = ber.ContextConstructedTag(2)
	tagIgnoreAttributes        = ber.ContextConstructedTag(3)
	tagNotificationDestination = ber.ContextTag(4)
)

// SelectionCriteria restricts which changes a batch returns.
// Implemented by AnyAttributes, AllAttributes, IgnoreAttributes and
// NotificationDestination. Encode returns the wrapped form.
type SelectionCriteria interface {
	Encode() ber.Element
	isSelectionCriteria()
}

// AnyAttributes matches changes touching at least one of Attributes.
type AnyAttributes struct {
	Attributes []string
}

func NewAnyAttributes(attrs ...string) (AnyAttributes, error) {
	if err := validateAttributes("any_attributes", attrs); err != nil {
		return AnyAttributes{}, err
	}
	return AnyAttributes{Attributes: cloneStrings(attrs)}, nil
}

func (c AnyAttributes) Encode() ber.Element {
	return wrapSelection(encodeStrings(tagAnyAttributes, c.Attributes))
}

func (AnyAttributes) isSelectionCriteria() {}

// AllAttributes matches changes touching every one of Attributes.
type AllAttributes struct {
	Attributes []string
}

func NewAllAttributes(attrs ...string) (AllAttributes, error) {
	if err := validateAttributes("all_attributes", attrs); err != nil {
		return AllAttributes{}, err
	}
	return AllAttributes{Attributes: cloneStrings(attrs)}, nil
}

func (c AllAttributes) Encode() ber.Element {
	return wrapSelection(encodeStrings(tagAllAttributes, c.Attributes))
}

func (AllAttributes) isSelectionCriteria() {}

// IgnoreAttributes matches changes touching anything other than
// Attributes, optionally ignoring operational attributes too.
type IgnoreAttributes struct {
	Attributes        []string
	IgnoreOperational bool
}

func NewIgnoreAttributes(ignoreOperational bool, attrs ...string) (IgnoreAttributes, error) {
	for _, a := range attrs {
		if a == "" {
			return IgnoreAttributes{}, ber.InvalidValue("ignore_attributes", "empty attribute name")
		}
	}
	return IgnoreAttributes{Attributes: cloneStrings(attrs), IgnoreOperational: ignoreOperational}, nil
}

func (c IgnoreAttributes) Encode() ber.Element {
	return wrapSelection(ber.Sequence(tagIgnoreAttributes,
		encodeStrings(ber.TagSequence, c.Attributes),
		ber.Bool(ber.TagBoolean, c.IgnoreOperational),
	))
}

func (IgnoreAttributes) isSelectionCriteria() {}

// NotificationDestination matches changes flagged for the notification
// destination with the given entryUUID.
type NotificationDestination struct {
	EntryUUID string
}

func NewNotificationDestination(entryUUID string) (NotificationDestination, error) {
	if entryUUID == "" {
		return NotificationDestination{}, ber.InvalidValue("notification_destination", "must not be empty")
	}
	return NotificationDestination{EntryUUID: entryUUID}, nil
}

func (c NotificationDestination) Encode() ber.Element {
	return wrapSelection(ber.String(tagNotificationDestination, c.EntryUUID))
}

func (NotificationDestination) isSelectionCriteria() {}

func wrapSelection(inner ber.Element) ber.Element {
	return ber.Sequence(tagSelectionCriteria, inner)
}

func validateAttributes(field string, attrs []string) error {
	if len(attrs) == 0 {
		return ber.InvalidValue(field, "at least one attribute is required")
	}
	for _, a := range attrs {
		if a == "" {
			return ber.InvalidValue(field, "empty attribute name")
		}
	}
	return nil
}

// DecodeSelectionCriteria checks the outer wrapper tag and then selects
// the variant by the tag of its single child.
func DecodeSelectionCriteria(e ber.Element) (SelectionCriteria, error) {
	if err := expectTag(e, tagSelectionCriteria, "selection_criteria"); err != nil {
		return nil, err
	}
	r := e.Children()
	inner, err := r.Next()
	if err != nil {
		if r.Remaining() == 0 {
			return nil, ber.MissingField("selection_criteria")
		}
		return nil, ber.Annotate(err, "selection_criteria")
	}
	if err := r.Done("selection_criteria"); err != nil {
		return nil, err
	}

	switch inner.Tag() {
	case tagAnyAttributes:
		attrs, err := decodeStrings(inner, "any_attributes")
		if err != nil {
			return nil, err
		}
		return asSelection(NewAnyAttributes(attrs...))
	case tagAllAttributes:
		attrs, err := decodeStrings(inner, "all_attributes")
		if err != nil {
			return nil, err
		}
		return asSelection(NewAllAttributes(attrs...))
	case tagIgnoreAttributes:
		return decodeIgnoreAttributes(inner)
	case tagNotificationDestination:
		uuid, err := decodeString(inner, "notification_destination")
		if err != nil {
			return nil, err
		}
		return asSelection(NewNotificationDestination(uuid))
	default:
		return nil, ber.UnrecognizedTag("selection_criteria", inner.Tag())
	}
}

func decodeIgnoreAttributes(e ber.Element) (SelectionCriteria, error) {
	r := e.Children()
	list, err := r.Expect(ber.TagSequence, "ignore_attributes.attributes")
	if err != nil {
		return nil, err
	}
	attrs, err := decodeStrings(list, "ignore_attributes.attributes")
	if err != nil {
		return nil, err
	}
	flag, err := r.Expect(ber.TagBoolean, "ignore_attributes.ignore_operational")
	if err != nil {
		return nil, err
	}
	ignoreOperational, err := decodeBool(flag, "ignore_attributes.ignore_operational")
	if err != nil {
		return nil, err
	}
	if err := r.Done("ignore_attributes"); err != nil {
		return nil, err
	}
	return asSelection(NewIgnoreAttributes(ignoreOperational, attrs...))
}

// asSelection converts a constructor result without leaking a non-nil
// interface alongside an error.
func asSelection[T SelectionCriteria](v T, err error) (SelectionCriteria, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}
