package osd

import (
	"encoding/binary"
	"math"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Type enumerates the variants of a Value.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeBoolean
	TypeInteger
	TypeReal
	TypeString
	TypeUUID
	TypeDate
	TypeURI
	TypeBinary
	TypeArray
	TypeMap
)

// String returns the variant name as used by the XML element names.
func (t Type) String() string {
	switch t {
	case TypeUnknown:
		return "undef"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeReal:
		return "real"
	case TypeString:
		return "string"
	case TypeUUID:
		return "uuid"
	case TypeDate:
		return "date"
	case TypeURI:
		return "uri"
	case TypeBinary:
		return "binary"
	case TypeArray:
		return "array"
	case TypeMap:
		return "map"
	default:
		return "invalid"
	}
}

// Value is the tagged structured-data union. Only the payload matching typ is
// meaningful. A nil *Value behaves as Unknown for every accessor.
type Value struct {
	typ Type

	b   bool
	i   int32
	r   float64
	s   string // String and URI text
	u   uuid.UUID
	t   time.Time
	bin []byte

	arr *Array
	m   *Map

	// attached is set once a container Value has been placed inside a parent.
	attached bool
}

// Undefined returns the Unknown ("no value") Value.
func Undefined() *Value { return &Value{typ: TypeUnknown} }

// FromBoolean creates a Boolean value.
func FromBoolean(v bool) *Value { return &Value{typ: TypeBoolean, b: v} }

// FromInteger creates a 32-bit Integer value.
func FromInteger(v int32) *Value { return &Value{typ: TypeInteger, i: v} }

// FromLong stores v as an 8-byte big-endian Binary value. The union has no
// 64-bit integer variant; AsLong reads the bytes back losslessly.
func FromLong(v int64) *Value {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return &Value{typ: TypeBinary, bin: buf}
}

// FromReal creates a Real value. NaN and infinities are preserved.
func FromReal(v float64) *Value { return &Value{typ: TypeReal, r: v} }

// FromString creates a String value.
func FromString(v string) *Value { return &Value{typ: TypeString, s: v} }

// FromUUID creates a UUID value.
func FromUUID(v uuid.UUID) *Value { return &Value{typ: TypeUUID, u: v} }

// FromDate creates a Date value normalized to UTC. The zero time is the
// default date.
func FromDate(v time.Time) *Value {
	if v.IsZero() {
		return &Value{typ: TypeDate}
	}
	return &Value{typ: TypeDate, t: v.UTC()}
}

// FromURI creates a URI value. A nil URL yields the empty URI.
func FromURI(u *url.URL) *Value {
	if u == nil {
		return &Value{typ: TypeURI}
	}
	return &Value{typ: TypeURI, s: u.String()}
}

// FromURIString creates a URI value from its textual form without
// validation; AsURI parses lazily and falls back to the empty URI.
func FromURIString(s string) *Value { return &Value{typ: TypeURI, s: s} }

// FromBinary creates a Binary value holding a private copy of b.
func FromBinary(b []byte) *Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Value{typ: TypeBinary, bin: cp}
}

// NewArray creates an Array value holding items in order.
func NewArray(items ...*Value) *Value {
	v := &Value{typ: TypeArray, arr: &Array{}}
	for _, it := range items {
		v.arr.Append(it)
	}
	return v
}

// NewMap creates an empty Map value.
func NewMap() *Value {
	return &Value{typ: TypeMap, m: newMap()}
}

// Type reports the variant of v.
func (v *Value) Type() Type {
	if v == nil {
		return TypeUnknown
	}
	return v.typ
}

// Array returns the container of an Array value, or nil for other variants.
func (v *Value) Array() *Array {
	if v == nil || v.typ != TypeArray {
		return nil
	}
	return v.arr
}

// Map returns the container of a Map value, or nil for other variants.
func (v *Value) Map() *Map {
	if v == nil || v.typ != TypeMap {
		return nil
	}
	return v.m
}

// Len returns the number of children of a container, or 0.
func (v *Value) Len() int {
	switch v.Type() {
	case TypeArray:
		return v.arr.Len()
	case TypeMap:
		return v.m.Len()
	default:
		return 0
	}
}

// Clone returns a deep copy of v. The copy is not attached to any parent.
func (v *Value) Clone() *Value {
	if v == nil {
		return Undefined()
	}
	out := *v
	out.attached = false
	switch v.typ {
	case TypeBinary:
		out.bin = append([]byte(nil), v.bin...)
	case TypeArray:
		out.arr = &Array{items: make([]*Value, 0, len(v.arr.items))}
		for _, it := range v.arr.items {
			c := it.Clone()
			c.attached = true
			out.arr.items = append(out.arr.items, c)
		}
	case TypeMap:
		out.m = newMap()
		for _, e := range v.m.entries {
			c := e.value.Clone()
			c.attached = true
			out.m.put(e.key, c)
		}
	}
	return &out
}

// adopt returns the Value a parent may store for child: nil becomes Unknown
// and an already attached container is replaced by a deep clone.
func adopt(child *Value) *Value {
	if child == nil {
		return Undefined()
	}
	switch child.typ {
	case TypeArray, TypeMap:
		if child.attached {
			child = child.Clone()
		}
		child.attached = true
	}
	return child
}

func release(child *Value) {
	if child != nil {
		child.attached = false
	}
}

func isNaN(f float64) bool { return math.IsNaN(f) }
