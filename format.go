package osd

import (
	"fmt"
	"strings"
)

// Format identifies a wire encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatXML
	FormatNotation
	FormatBinary
	FormatProto
)

// String returns the canonical lower-case format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	case FormatNotation:
		return "notation"
	case FormatBinary:
		return "binary"
	case FormatProto:
		return "proto"
	default:
		return "unknown"
	}
}

// ParseFormat maps a format name (case-insensitive, with a few aliases) to a
// Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "xml", "llsd+xml":
		return FormatXML, nil
	case "notation", "llsd+notation":
		return FormatNotation, nil
	case "binary", "llsd+binary":
		return FormatBinary, nil
	case "proto", "protobuf":
		return FormatProto, nil
	default:
		return FormatUnknown, fmt.Errorf("osd: unknown format %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if f == FormatUnknown {
		return nil, fmt.Errorf("osd: cannot marshal unknown format")
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
