package ipc

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/vmihailenco/msgpack/v5"
)

// recordTypeProbe is the baseline approach: unmarshal the entire payload
// into a struct just to read the "type" field.
type recordTypeProbe struct {
	Type string `msgpack:"type"`
}

func probeFrameTypeFull(payload []byte) (string, error) {
	var probe recordTypeProbe
	if err := msgpack.Unmarshal(payload, &probe); err != nil {
		return "", err
	}
	return probe.Type, nil
}

// buildCaptureStream encodes a header and n intermediate records into a
// contiguous byte buffer.
func buildCaptureStream(b *testing.B, n int) []byte {
	b.Helper()
	var buf bytes.Buffer
	buf.Write(encodeRecordFrame(b, &HeaderRecord{Type: HeaderType, Version: "0.1.0", Operation: "1.2.3"}))
	for i := 0; i < n; i++ {
		buf.Write(encodeRecordFrame(b, &ResponseRecord{
			Type: IntermediateType,
			Seq:  int64(i + 1),
			Data: bytes.Repeat([]byte{0x04}, 512),
		}))
	}
	return buf.Bytes()
}

func BenchmarkProbeFrameType(b *testing.B) {
	payload, err := EncodeRecord(&ResponseRecord{Type: IntermediateType, Seq: 1, Data: bytes.Repeat([]byte("x"), 4096)})
	if err != nil {
		b.Fatal(err)
	}

	b.Run("full", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := probeFrameTypeFull(payload); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("streaming", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := probeFrameType(payload); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkReadFrame_BufferedReader(b *testing.B) {
	data := buildCaptureStream(b, 100)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		decoder := NewFrameDecoder(bytes.NewReader(data))
		for {
			_, err := decoder.ReadFrame()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkReadFrame_OneByteReader simulates an unbuffered pipe returning
// one byte per read.
func BenchmarkReadFrame_OneByteReader(b *testing.B) {
	data := buildCaptureStream(b, 20)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		decoder := NewFrameDecoder(iotest.OneByteReader(bytes.NewReader(data)))
		for {
			payload, err := decoder.ReadFrame()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
			if _, err := DecodeRecord(payload); err != nil {
				b.Fatal(err)
			}
		}
	}
}
