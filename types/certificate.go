package types

import (
	"github.com/pithecene-io/extop/ber"
)

var (
	tagKeyStoreFile    = ber.ContextConstructedTag(1)
	tagKeyStoreData    = ber.ContextConstructedTag(2)
	tagCertificateData = ber.ContextConstructedTag(3)
	tagSkipValidation  = ber.ContextTag(4)

	tagKeyStorePIN        = ber.ContextTag(0)
	tagKeyStoreKeyPIN     = ber.ContextTag(1)
	tagKeyStoreType       = ber.ContextTag(2)
	tagKeyStoreAlias      = ber.ContextTag(3)
	tagCertificatePrivKey = ber.ContextTag(0)

	tagToolOutput = ber.ContextTag(0)
)

// CertificateSource identifies where the server reads a replacement
// listener certificate from. Implemented by KeyStoreFile, KeyStoreData
// and CertificateData.
type CertificateSource interface {
	Encode() ber.Element
	isCertificateSource()
}

// KeyStoreOptions are the optional key store access fields shared by the
// file and data sources. Empty strings are absent.
type KeyStoreOptions struct {
	PIN           string
	PrivateKeyPIN string
	Type          string
	Alias         string
}

func (o KeyStoreOptions) elements() []ber.Element {
	var out []ber.Element
	for _, f := range []struct {
		tag   uint8
		value string
	}{
		{tagKeyStorePIN, o.PIN},
		{tagKeyStoreKeyPIN, o.PrivateKeyPIN},
		{tagKeyStoreType, o.Type},
		{tagKeyStoreAlias, o.Alias},
	} {
		if f.value != "" {
			out = append(out, ber.String(f.tag, f.value))
		}
	}
	return out
}

func decodeKeyStoreOptions(r *ber.Reader) (KeyStoreOptions, error) {
	var o KeyStoreOptions
	for _, f := range []struct {
		tag   uint8
		name  string
		value *string
	}{
		{tagKeyStorePIN, "key_store_pin", &o.PIN},
		{tagKeyStoreKeyPIN, "private_key_pin", &o.PrivateKeyPIN},
		{tagKeyStoreType, "key_store_type", &o.Type},
		{tagKeyStoreAlias, "alias", &o.Alias},
	} {
		s, err := optionalString(r, f.tag, f.name)
		if err != nil {
			return KeyStoreOptions{}, err
		}
		if s != nil {
			*f.value = *s
		}
	}
	return o, nil
}

// KeyStoreFile reads the certificate from a key store file on the server.
type KeyStoreFile struct {
	Path string
	KeyStoreOptions
}

func (s KeyStoreFile) Encode() ber.Element {
	children := append([]ber.Element{ber.String(ber.TagOctetString, s.Path)}, s.elements()...)
	return ber.Sequence(tagKeyStoreFile, children...)
}

func (KeyStoreFile) isCertificateSource() {}

// KeyStoreData carries the raw bytes of a key store.
type KeyStoreData struct {
	Data []byte
	KeyStoreOptions
}

func (s KeyStoreData) Encode() ber.Element {
	children := append([]ber.Element{ber.OctetString(ber.TagOctetString, s.Data)}, s.elements()...)
	return ber.Sequence(tagKeyStoreData, children...)
}

func (KeyStoreData) isCertificateSource() {}

// CertificateData carries a DER certificate chain, leaf first, and an
// optional private key.
type CertificateData struct {
	Chain      [][]byte
	PrivateKey []byte
}

func (s CertificateData) Encode() ber.Element {
	certs := make([]ber.Element, 0, len(s.Chain))
	for _, c := range s.Chain {
		certs = append(certs, ber.OctetString(ber.TagOctetString, c))
	}
	children := []ber.Element{ber.Sequence(ber.TagSequence, certs...)}
	if s.PrivateKey != nil {
		children = append(children, ber.OctetString(tagCertificatePrivKey, s.PrivateKey))
	}
	return ber.Sequence(tagCertificateData, children...)
}

func (CertificateData) isCertificateSource() {}

// ReplaceCertificateRequest asks the server to replace its listener
// certificate with the one from Source.
type ReplaceCertificateRequest struct {
	Source         CertificateSource
	SkipValidation bool
}

func (r ReplaceCertificateRequest) Validate() error {
	switch s := r.Source.(type) {
	case nil:
		return ber.MissingField("certificate_source")
	case KeyStoreFile:
		if s.Path == "" {
			return ber.MissingField("key_store_path")
		}
	case KeyStoreData:
		if len(s.Data) == 0 {
			return ber.MissingField("key_store_data")
		}
	case CertificateData:
		if len(s.Chain) == 0 {
			return ber.InvalidValue("certificate_chain", "at least one certificate is required")
		}
		for i, c := range s.Chain {
			if len(c) == 0 {
				return ber.InvalidValue("certificate_chain", "certificate %d is empty", i)
			}
		}
	}
	return nil
}

func (r ReplaceCertificateRequest) Encode() ber.Element {
	children := []ber.Element{r.Source.Encode()}
	if r.SkipValidation {
		children = append(children, ber.Bool(tagSkipValidation, true))
	}
	return ber.Sequence(ber.TagSequence, children...)
}

// DecodeReplaceCertificateRequest decodes and validates a request value.
func DecodeReplaceCertificateRequest(e ber.Element) (ReplaceCertificateRequest, error) {
	if err := expectTag(e, ber.TagSequence, "replace_certificate_request"); err != nil {
		return ReplaceCertificateRequest{}, err
	}
	r := e.Children()
	srcElem, err := r.Next()
	if err != nil {
		if r.Remaining() == 0 {
			return ReplaceCertificateRequest{}, ber.MissingField("certificate_source")
		}
		return ReplaceCertificateRequest{}, ber.Annotate(err, "certificate_source")
	}
	src, err := DecodeCertificateSource(srcElem)
	if err != nil {
		return ReplaceCertificateRequest{}, err
	}
	req := ReplaceCertificateRequest{Source: src}
	if req.SkipValidation, err = optionalBool(r, tagSkipValidation, "skip_validation"); err != nil {
		return ReplaceCertificateRequest{}, err
	}
	if err := r.Done("replace_certificate_request"); err != nil {
		return ReplaceCertificateRequest{}, err
	}
	if err := req.Validate(); err != nil {
		return ReplaceCertificateRequest{}, err
	}
	return req, nil
}

// DecodeCertificateSource selects the variant by tag.
func DecodeCertificateSource(e ber.Element) (CertificateSource, error) {
	r := e.Children()
	switch e.Tag() {
	case tagKeyStoreFile:
		pathElem, err := r.Expect(ber.TagOctetString, "key_store_path")
		if err != nil {
			return nil, err
		}
		path, err := decodeString(pathElem, "key_store_path")
		if err != nil {
			return nil, err
		}
		opts, err := decodeKeyStoreOptions(r)
		if err != nil {
			return nil, err
		}
		if err := r.Done("key_store_file"); err != nil {
			return nil, err
		}
		return KeyStoreFile{Path: path, KeyStoreOptions: opts}, nil
	case tagKeyStoreData:
		dataElem, err := r.Expect(ber.TagOctetString, "key_store_data")
		if err != nil {
			return nil, err
		}
		opts, err := decodeKeyStoreOptions(r)
		if err != nil {
			return nil, err
		}
		if err := r.Done("key_store_data"); err != nil {
			return nil, err
		}
		return KeyStoreData{Data: dataElem.OctetString(), KeyStoreOptions: opts}, nil
	case tagCertificateData:
		chainElem, err := r.Expect(ber.TagSequence, "certificate_chain")
		if err != nil {
			return nil, err
		}
		var src CertificateData
		cr := chainElem.Children()
		for cr.More() {
			c, err := cr.Expect(ber.TagOctetString, "certificate_chain")
			if err != nil {
				return nil, err
			}
			src.Chain = append(src.Chain, c.OctetString())
		}
		if key, ok, err := r.Optional(tagCertificatePrivKey); err != nil {
			return nil, ber.Annotate(err, "private_key")
		} else if ok {
			src.PrivateKey = key.OctetString()
		}
		if err := r.Done("certificate_data"); err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, ber.UnrecognizedTag("certificate_source", e.Tag())
	}
}

// ReplaceCertificateResult carries the server tool's output, if any.
type ReplaceCertificateResult struct {
	ToolOutput *string
}

func (r ReplaceCertificateResult) Encode() ber.Element {
	if r.ToolOutput == nil {
		return ber.Sequence(ber.TagSequence)
	}
	return ber.Sequence(ber.TagSequence, ber.String(tagToolOutput, *r.ToolOutput))
}

// DecodeReplaceCertificateResult decodes a result value.
func DecodeReplaceCertificateResult(e ber.Element) (ReplaceCertificateResult, error) {
	if err := expectTag(e, ber.TagSequence, "replace_certificate_result"); err != nil {
		return ReplaceCertificateResult{}, err
	}
	r := e.Children()
	out, err := optionalString(r, tagToolOutput, "tool_output")
	if err != nil {
		return ReplaceCertificateResult{}, err
	}
	if err := r.Done("replace_certificate_result"); err != nil {
		return ReplaceCertificateResult{}, err
	}
	return ReplaceCertificateResult{ToolOutput: out}, nil
}
