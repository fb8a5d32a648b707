package types

import (
	"fmt"

	"github.com/pithecene-io/extop/ber"
)

var (
	tagCSDArchiveName    = ber.ContextTag(0)
	tagCSDPassphrase     = ber.ContextTag(1)
	tagCSDIncludeExpense = ber.ContextTag(2)
	tagCSDSecurityLevel  = ber.ContextTag(3)
	tagCSDCaptureWindow  = ber.ContextConstructedTag(4)
	tagCSDComment        = ber.ContextTag(5)

	tagCSDOutputStream  = ber.ContextTag(0)
	tagCSDOutputMessage = ber.ContextTag(1)

	tagCSDTotalBytes = ber.ContextTag(0)
	tagCSDMoreData   = ber.ContextTag(1)
	tagCSDFragment   = ber.ContextTag(2)
)

// SecurityLevel controls how much sensitive information a support data
// archive may contain.
type SecurityLevel int

const (
	SecurityLevelNone    SecurityLevel = 0
	SecurityLevelObscure SecurityLevel = 1
	SecurityLevelMaximum SecurityLevel = 2
)

func (l SecurityLevel) String() string {
	switch l {
	case SecurityLevelNone:
		return "none"
	case SecurityLevelObscure:
		return "obscure"
	case SecurityLevelMaximum:
		return "maximum"
	default:
		return fmt.Sprintf("SecurityLevel(%d)", int(l))
	}
}

// CollectSupportDataRequest asks the server to build a support data
// archive and stream it back in intermediate responses.
type CollectSupportDataRequest struct {
	ArchiveName          string
	EncryptionPassphrase []byte
	IncludeExpensiveData bool
	SecurityLevel        *SecurityLevel
	LogCaptureWindow     LogCaptureWindow
	Comment              string
}

func (r CollectSupportDataRequest) Validate() error {
	if r.SecurityLevel != nil {
		switch *r.SecurityLevel {
		case SecurityLevelNone, SecurityLevelObscure, SecurityLevelMaximum:
		default:
			return ber.InvalidValue("security_level", "unknown level %d", int(*r.SecurityLevel))
		}
	}
	return nil
}

func (r CollectSupportDataRequest) Encode() ber.Element {
	var children []ber.Element
	if r.ArchiveName != "" {
		children = append(children, ber.String(tagCSDArchiveName, r.ArchiveName))
	}
	if r.EncryptionPassphrase != nil {
		children = append(children, ber.OctetString(tagCSDPassphrase, r.EncryptionPassphrase))
	}
	if r.IncludeExpensiveData {
		children = append(children, ber.Bool(tagCSDIncludeExpense, true))
	}
	if r.SecurityLevel != nil {
		children = append(children, ber.Enumerated(tagCSDSecurityLevel, int64(*r.SecurityLevel)))
	}
	if r.LogCaptureWindow != nil {
		children = append(children, ber.Sequence(tagCSDCaptureWindow, r.LogCaptureWindow.Encode()))
	}
	if r.Comment != "" {
		children = append(children, ber.String(tagCSDComment, r.Comment))
	}
	return ber.Sequence(ber.TagSequence, children...)
}

// DecodeCollectSupportDataRequest decodes and validates a request value.
func DecodeCollectSupportDataRequest(e ber.Element) (CollectSupportDataRequest, error) {
	var req CollectSupportDataRequest
	if err := expectTag(e, ber.TagSequence, "collect_support_data_request"); err != nil {
		return req, err
	}
	r := e.Children()

	name, err := optionalString(r, tagCSDArchiveName, "archive_name")
	if err != nil {
		return req, err
	}
	if name != nil {
		req.ArchiveName = *name
	}
	if p, ok, err := r.Optional(tagCSDPassphrase); err != nil {
		return CollectSupportDataRequest{}, ber.Annotate(err, "encryption_passphrase")
	} else if ok {
		req.EncryptionPassphrase = p.OctetString()
	}
	if req.IncludeExpensiveData, err = optionalBool(r, tagCSDIncludeExpense, "include_expensive_data"); err != nil {
		return CollectSupportDataRequest{}, err
	}
	if lvl, ok, err := r.Optional(tagCSDSecurityLevel); err != nil {
		return CollectSupportDataRequest{}, ber.Annotate(err, "security_level")
	} else if ok {
		v, err := lvl.Enumerated()
		if err != nil {
			return CollectSupportDataRequest{}, ber.Annotate(err, "security_level")
		}
		level := SecurityLevel(v)
		req.SecurityLevel = &level
	}
	if w, ok, err := r.Optional(tagCSDCaptureWindow); err != nil {
		return CollectSupportDataRequest{}, ber.Annotate(err, "log_capture_window")
	} else if ok {
		wr := w.Children()
		inner, err := wr.Next()
		if err != nil {
			if wr.Remaining() == 0 {
				return CollectSupportDataRequest{}, ber.MissingField("log_capture_window")
			}
			return CollectSupportDataRequest{}, ber.Annotate(err, "log_capture_window")
		}
		if err := wr.Done("log_capture_window"); err != nil {
			return CollectSupportDataRequest{}, err
		}
		if req.LogCaptureWindow, err = DecodeLogCaptureWindow(inner); err != nil {
			return CollectSupportDataRequest{}, err
		}
	}
	comment, err := optionalString(r, tagCSDComment, "comment")
	if err != nil {
		return CollectSupportDataRequest{}, err
	}
	if comment != nil {
		req.Comment = *comment
	}
	if err := r.Done("collect_support_data_request"); err != nil {
		return CollectSupportDataRequest{}, err
	}
	if err := req.Validate(); err != nil {
		return CollectSupportDataRequest{}, err
	}
	return req, nil
}

// OutputStream identifies which tool stream a line of output came from.
type OutputStream int

const (
	OutputStreamStdout OutputStream = 0
	OutputStreamStderr OutputStream = 1
)

func (s OutputStream) String() string {
	switch s {
	case OutputStreamStdout:
		return "stdout"
	case OutputStreamStderr:
		return "stderr"
	default:
		return fmt.Sprintf("OutputStream(%d)", int(s))
	}
}

// CollectSupportDataOutput is one message written by the server-side tool
// while it builds the archive.
type CollectSupportDataOutput struct {
	Stream  OutputStream
	Message string
}

func (o CollectSupportDataOutput) Encode() ber.Element {
	return ber.Sequence(ber.TagSequence,
		ber.Enumerated(tagCSDOutputStream, int64(o.Stream)),
		ber.String(tagCSDOutputMessage, o.Message),
	)
}

// DecodeCollectSupportDataOutput decodes an output intermediate response value.
func DecodeCollectSupportDataOutput(e ber.Element) (CollectSupportDataOutput, error) {
	if err := expectTag(e, ber.TagSequence, "collect_support_data_output"); err != nil {
		return CollectSupportDataOutput{}, err
	}
	r := e.Children()
	streamElem, err := r.Expect(tagCSDOutputStream, "output_stream")
	if err != nil {
		return CollectSupportDataOutput{}, err
	}
	msgElem, err := r.Expect(tagCSDOutputMessage, "output_message")
	if err != nil {
		return CollectSupportDataOutput{}, err
	}
	if err := r.Done("collect_support_data_output"); err != nil {
		return CollectSupportDataOutput{}, err
	}
	v, err := streamElem.Enumerated()
	if err != nil {
		return CollectSupportDataOutput{}, ber.Annotate(err, "output_stream")
	}
	stream := OutputStream(v)
	if stream != OutputStreamStdout && stream != OutputStreamStderr {
		return CollectSupportDataOutput{}, ber.InvalidValue("output_stream", "unknown stream %d", v)
	}
	msg, err := decodeString(msgElem, "output_message")
	if err != nil {
		return CollectSupportDataOutput{}, err
	}
	return CollectSupportDataOutput{Stream: stream, Message: msg}, nil
}

// CollectSupportDataArchiveFragment is one chunk of the archive.
type CollectSupportDataArchiveFragment struct {
	TotalBytes    int64
	MoreFragments bool
	Data          []byte
}

func (f CollectSupportDataArchiveFragment) Encode() ber.Element {
	return ber.Sequence(ber.TagSequence,
		ber.Int(tagCSDTotalBytes, f.TotalBytes),
		ber.Bool(tagCSDMoreData, f.MoreFragments),
		ber.OctetString(tagCSDFragment, f.Data),
	)
}

// DecodeCollectSupportDataArchiveFragment decodes a fragment intermediate
// response value.
func DecodeCollectSupportDataArchiveFragment(e ber.Element) (CollectSupportDataArchiveFragment, error) {
	if err := expectTag(e, ber.TagSequence, "archive_fragment"); err != nil {
		return CollectSupportDataArchiveFragment{}, err
	}
	r := e.Children()
	totalElem, err := r.Expect(tagCSDTotalBytes, "total_archive_size")
	if err != nil {
		return CollectSupportDataArchiveFragment{}, err
	}
	moreElem, err := r.Expect(tagCSDMoreData, "more_data_to_return")
	if err != nil {
		return CollectSupportDataArchiveFragment{}, err
	}
	dataElem, err := r.Expect(tagCSDFragment, "fragment_data")
	if err != nil {
		return CollectSupportDataArchiveFragment{}, err
	}
	if err := r.Done("archive_fragment"); err != nil {
		return CollectSupportDataArchiveFragment{}, err
	}

	var f CollectSupportDataArchiveFragment
	if f.TotalBytes, err = decodeInt64(totalElem, "total_archive_size"); err != nil {
		return CollectSupportDataArchiveFragment{}, err
	}
	if f.TotalBytes < 0 {
		return CollectSupportDataArchiveFragment{}, ber.InvalidValue("total_archive_size", "negative size %d", f.TotalBytes)
	}
	if f.MoreFragments, err = decodeBool(moreElem, "more_data_to_return"); err != nil {
		return CollectSupportDataArchiveFragment{}, err
	}
	f.Data = dataElem.OctetString()
	return f, nil
}
