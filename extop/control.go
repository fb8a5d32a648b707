package extop

import (
	"github.com/pithecene-io/extop/ber"
)

var tagControls = ber.ContextConstructedTag(0)

// Control is a side-channel annotation attached to a message.
type Control struct {
	OID      string
	Critical bool
	Value    []byte
}

func (c Control) encode() ber.Element {
	children := []ber.Element{ber.String(ber.TagOctetString, c.OID)}
	if c.Critical {
		children = append(children, ber.Bool(ber.TagBoolean, true))
	}
	if c.Value != nil {
		children = append(children, ber.OctetString(ber.TagOctetString, c.Value))
	}
	return ber.Sequence(ber.TagSequence, children...)
}

// EncodeControls returns the control list element, in order.
func EncodeControls(controls []Control) ber.Element {
	children := make([]ber.Element, 0, len(controls))
	for _, c := range controls {
		children = append(children, c.encode())
	}
	return ber.Sequence(tagControls, children...)
}

// DecodeControls parses a control list element.
func DecodeControls(e ber.Element) ([]Control, error) {
	if e.Tag() != tagControls {
		return nil, ber.UnrecognizedTag("controls", e.Tag())
	}
	var out []Control
	r := e.Children()
	for r.More() {
		ce, err := r.Expect(ber.TagSequence, "control")
		if err != nil {
			return nil, err
		}
		c, err := decodeControl(ce)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func decodeControl(e ber.Element) (Control, error) {
	r := e.Children()
	oidElem, err := r.Expect(ber.TagOctetString, "control.oid")
	if err != nil {
		return Control{}, err
	}
	oid, err := oidElem.UTF8()
	if err != nil {
		return Control{}, ber.Annotate(err, "control.oid")
	}
	if err := ValidateOID(oid); err != nil {
		return Control{}, ber.Annotate(err, "control.oid")
	}
	c := Control{OID: oid}
	if crit, ok, err := r.Optional(ber.TagBoolean); err != nil {
		return Control{}, ber.Annotate(err, "control.criticality")
	} else if ok {
		if c.Critical, err = crit.Bool(); err != nil {
			return Control{}, ber.Annotate(err, "control.criticality")
		}
	}
	if v, ok, err := r.Optional(ber.TagOctetString); err != nil {
		return Control{}, ber.Annotate(err, "control.value")
	} else if ok {
		c.Value = v.Content()
	}
	if err := r.Done("control"); err != nil {
		return Control{}, err
	}
	return c, nil
}
