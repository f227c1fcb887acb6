package osd

import "bytes"

// Equal reports whether a and b hold the same variant with equal payloads.
// Reals compare NaN equal to NaN, dates compare instants, maps ignore entry
// order. A nil Value equals Unknown.
func Equal(a, b *Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch a.Type() {
	case TypeUnknown:
		return true
	case TypeBoolean:
		return a.b == b.b
	case TypeInteger:
		return a.i == b.i
	case TypeReal:
		return a.r == b.r || (isNaN(a.r) && isNaN(b.r))
	case TypeString, TypeURI:
		return a.s == b.s
	case TypeUUID:
		return a.u == b.u
	case TypeDate:
		return a.t.Equal(b.t)
	case TypeBinary:
		return bytes.Equal(a.bin, b.bin)
	case TypeArray:
		if a.arr.Len() != b.arr.Len() {
			return false
		}
		for i := range a.arr.items {
			if !Equal(a.arr.items[i], b.arr.items[i]) {
				return false
			}
		}
		return true
	case TypeMap:
		if a.m.Len() != b.m.Len() {
			return false
		}
		for _, e := range a.m.entries {
			other, ok := b.m.Lookup(e.key)
			if !ok || !Equal(e.value, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Equal is the method form of Equal.
func (v *Value) Equal(other *Value) bool { return Equal(v, other) }
