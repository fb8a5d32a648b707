package ipc

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Record type discriminants.
const (
	// HeaderType opens a capture.
	HeaderType = "header"
	// IntermediateType carries one intermediate response.
	IntermediateType = "intermediate"
	// ResultType carries the final result and closes the capture.
	ResultType = "result"
)

// HeaderRecord identifies the captured request.
type HeaderRecord struct {
	Type string `msgpack:"type"`
	// Version is the capture format version (types.CaptureVersion).
	Version string `msgpack:"version"`
	// RequestID correlates the capture with request logs. May be empty.
	RequestID string `msgpack:"request_id"`
	// Operation is the request OID.
	Operation string `msgpack:"operation"`
	// Request is the BER extended request as sent.
	Request []byte `msgpack:"request"`
	// CapturedAt is an RFC 3339 timestamp.
	CapturedAt string `msgpack:"captured_at"`
}

// ResponseRecord carries one response buffer. Seq starts at 1 for the
// first response and increases by one per record, result included.
type ResponseRecord struct {
	Type string `msgpack:"type"`
	Seq  int64  `msgpack:"seq"`
	Data []byte `msgpack:"data"`
}

// probeFrameType reads the "type" field of a msgpack map without decoding
// the other fields.
func probeFrameType(payload []byte) (string, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	n, err := dec.DecodeMapLen()
	if err != nil {
		return "", err
	}
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return "", err
		}
		if key == "type" {
			return dec.DecodeString()
		}
		if err := dec.Skip(); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("record has no type field")
}

// DecodeRecord decodes a frame payload and returns either a *HeaderRecord
// or a *ResponseRecord, discriminated by the type field.
func DecodeRecord(payload []byte) (any, error) {
	typ, err := probeFrameType(payload)
	if err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode record type",
			Err:  err,
		}
	}

	switch typ {
	case HeaderType:
		var h HeaderRecord
		if err := msgpack.Unmarshal(payload, &h); err != nil {
			return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode header", Err: err}
		}
		return &h, nil
	case IntermediateType, ResultType:
		var r ResponseRecord
		if err := msgpack.Unmarshal(payload, &r); err != nil {
			return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode " + typ + " record", Err: err}
		}
		return &r, nil
	default:
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("unknown record type %q", typ),
		}
	}
}

// EncodeRecord marshals a record into a frame payload.
func EncodeRecord(record any) ([]byte, error) {
	payload, err := msgpack.Marshal(record)
	if err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to encode record", Err: err}
	}
	return payload, nil
}
