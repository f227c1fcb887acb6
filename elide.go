package osd

import "github.com/google/uuid"

// IsDefault reports whether v holds its variant's default payload. Unknown is
// its own default. Containers are never default, even when empty. Binary is
// default by length, so every zero-length buffer qualifies regardless of
// where it came from.
func IsDefault(v *Value) bool {
	switch v.Type() {
	case TypeUnknown:
		return true
	case TypeBoolean:
		return !v.b
	case TypeInteger:
		return v.i == 0
	case TypeReal:
		return v.r == 0
	case TypeString, TypeURI:
		return v.s == ""
	case TypeUUID:
		return v.u == uuid.Nil
	case TypeDate:
		return v.t.IsZero()
	case TypeBinary:
		return len(v.bin) == 0
	default:
		return false
	}
}

// Default-elision output rules shared by every codec:
//   - A map entry whose value IsDefault is omitted, key included.
//   - An array element whose value IsDefault is written as the format's
//     placeholder so the array keeps its length and index alignment.
//   - Containers are always written.

// OmitEntry reports whether a map entry holding v is dropped from output.
func OmitEntry(v *Value, elide bool) bool { return elide && IsDefault(v) }

// UsePlaceholder reports whether an array element is written as the format's
// "absent" literal instead of its own encoding.
func UsePlaceholder(v *Value, elide bool) bool { return elide && IsDefault(v) }

// EmittedLen returns how many entries of m survive elision.
func EmittedLen(m *Map, elide bool) int {
	if !elide {
		return m.Len()
	}
	n := 0
	m.Range(func(_ string, v *Value) bool {
		if !IsDefault(v) {
			n++
		}
		return true
	})
	return n
}
