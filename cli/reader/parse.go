package reader

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Encoding selects how binary values are printed and parsed.
type Encoding string

const (
	EncodingHex    Encoding = "hex"
	EncodingBase64 Encoding = "base64"
)

// ParseEncoding parses an encoding name. Empty selects hex.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "", "hex":
		return EncodingHex, nil
	case "base64":
		return EncodingBase64, nil
	default:
		return "", fmt.Errorf("invalid encoding: %q (must be hex or base64)", s)
	}
}

// Format encodes b. Nil and empty inputs format as "".
func (e Encoding) Format(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if e == EncodingBase64 {
		return base64.StdEncoding.EncodeToString(b)
	}
	return hex.EncodeToString(b)
}

// Parse decodes s. Hex input may contain whitespace and colons between
// octets, as produced by common dump tools.
func (e Encoding) Parse(s string) ([]byte, error) {
	if e == EncodingBase64 {
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid base64: %w", err)
		}
		return b, nil
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, s)
	cleaned = strings.TrimPrefix(strings.TrimPrefix(cleaned, "0x"), "0X")
	b, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}
