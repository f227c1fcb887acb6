// Package codec dispatches values to the wire-format codecs by osd.Format and
// detects the format of encoded input from its leading signature.
package codec

import (
	"io"

	"github.com/reoring/osd"
	"github.com/reoring/osd/codec/notation"
	"github.com/reoring/osd/codec/osdbinary"
	"github.com/reoring/osd/codec/osdjson"
	"github.com/reoring/osd/codec/osdproto"
	"github.com/reoring/osd/codec/osdxml"
)

// Codec is a paired serializer and deserializer for one wire format.
// Implementations hold no state between calls.
type Codec interface {
	Format() osd.Format
	Marshal(v *osd.Value, opts osd.Options) ([]byte, error)
	Unmarshal(data []byte, opts osd.Options) (*osd.Value, error)
	Encode(w io.Writer, v *osd.Value, opts osd.Options) error
	Decode(r io.Reader, opts osd.Options) (*osd.Value, error)
}

// funcs adapts a codec package's entry points to Codec.
type funcs struct {
	format    osd.Format
	marshal   func(*osd.Value, osd.Options) ([]byte, error)
	unmarshal func([]byte, osd.Options) (*osd.Value, error)
	encode    func(io.Writer, *osd.Value, osd.Options) error
	decode    func(io.Reader, osd.Options) (*osd.Value, error)
}

func (c funcs) Format() osd.Format { return c.format }
func (c funcs) Marshal(v *osd.Value, o osd.Options) ([]byte, error) {
	return c.marshal(v, o)
}
func (c funcs) Unmarshal(b []byte, o osd.Options) (*osd.Value, error) {
	return c.unmarshal(b, o)
}
func (c funcs) Encode(w io.Writer, v *osd.Value, o osd.Options) error {
	return c.encode(w, v, o)
}
func (c funcs) Decode(r io.Reader, o osd.Options) (*osd.Value, error) {
	return c.decode(r, o)
}

// JSON returns the streaming JSON codec.
func JSON() Codec {
	return funcs{osd.FormatJSON, osdjson.Marshal, osdjson.Unmarshal, osdjson.Encode, osdjson.Decode}
}

// XML returns the tag-structured XML codec.
func XML() Codec {
	return funcs{osd.FormatXML, osdxml.Marshal, osdxml.Unmarshal, osdxml.Encode, osdxml.Decode}
}

// Notation returns the sigil/bracket notation codec.
func Notation() Codec {
	return funcs{osd.FormatNotation, notation.Marshal, notation.Unmarshal, notation.Encode, notation.Decode}
}

// Binary returns the length-prefixed binary codec.
func Binary() Codec {
	return funcs{osd.FormatBinary, osdbinary.Marshal, osdbinary.Unmarshal, osdbinary.Encode, osdbinary.Decode}
}

// Proto returns the protobuf-compatible binary codec.
func Proto() Codec {
	return funcs{osd.FormatProto, osdproto.Marshal, osdproto.Unmarshal, osdproto.Encode, osdproto.Decode}
}

// Builtin returns every codec shipped with the module.
func Builtin() []Codec {
	return []Codec{JSON(), XML(), Notation(), Binary(), Proto()}
}
