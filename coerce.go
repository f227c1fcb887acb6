package osd

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Coercion accessors are total: any variant (including a nil *Value) maps to
// a faithful conversion or the target type's default. They never fail.

// AsBoolean converts v to a bool.
func (v *Value) AsBoolean() bool {
	switch v.Type() {
	case TypeBoolean:
		return v.b
	case TypeInteger:
		return v.i != 0
	case TypeReal:
		return v.r != 0 && !isNaN(v.r)
	case TypeString:
		return stringAsBool(v.s)
	case TypeUUID:
		return v.u != uuid.Nil
	default:
		return false
	}
}

func stringAsBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "f":
		return false
	default:
		return true
	}
}

// AsInteger converts v to an int32. Reals truncate toward zero and saturate
// at the int32 bounds; NaN yields 0.
func (v *Value) AsInteger() int32 {
	switch v.Type() {
	case TypeBoolean:
		if v.b {
			return 1
		}
		return 0
	case TypeInteger:
		return v.i
	case TypeReal:
		return realToInt32(v.r)
	case TypeString:
		return clampInt32(stringAsLong(v.s))
	case TypeDate:
		if v.t.IsZero() {
			return 0
		}
		return clampInt32(v.t.Unix())
	case TypeBinary:
		if len(v.bin) == 4 {
			return int32(binary.BigEndian.Uint32(v.bin))
		}
		return 0
	default:
		return 0
	}
}

// AsLong converts v to an int64. An 8-byte Binary is read big-endian, the
// inverse of FromLong.
func (v *Value) AsLong() int64 {
	switch v.Type() {
	case TypeBoolean:
		if v.b {
			return 1
		}
		return 0
	case TypeInteger:
		return int64(v.i)
	case TypeReal:
		return realToInt64(v.r)
	case TypeString:
		return stringAsLong(v.s)
	case TypeDate:
		if v.t.IsZero() {
			return 0
		}
		return v.t.Unix()
	case TypeBinary:
		switch len(v.bin) {
		case 8:
			return int64(binary.BigEndian.Uint64(v.bin))
		case 4:
			return int64(int32(binary.BigEndian.Uint32(v.bin)))
		}
		return 0
	default:
		return 0
	}
}

// AsReal converts v to a float64.
func (v *Value) AsReal() float64 {
	switch v.Type() {
	case TypeBoolean:
		if v.b {
			return 1
		}
		return 0
	case TypeInteger:
		return float64(v.i)
	case TypeReal:
		return v.r
	case TypeString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0
		}
		return f
	case TypeDate:
		if v.t.IsZero() {
			return 0
		}
		return DateToUnix(v.t)
	case TypeBinary:
		if len(v.bin) == 8 {
			return math.Float64frombits(binary.BigEndian.Uint64(v.bin))
		}
		return 0
	default:
		return 0
	}
}

// AsString converts v to text. Binary renders as standard base64, dates as
// RFC3339 in UTC, UUIDs hyphenated.
func (v *Value) AsString() string {
	switch v.Type() {
	case TypeBoolean:
		if v.b {
			return "true"
		}
		return "false"
	case TypeInteger:
		return strconv.FormatInt(int64(v.i), 10)
	case TypeReal:
		return strconv.FormatFloat(v.r, 'g', -1, 64)
	case TypeString, TypeURI:
		return v.s
	case TypeUUID:
		return v.u.String()
	case TypeDate:
		return FormatDate(v.t)
	case TypeBinary:
		return base64.StdEncoding.EncodeToString(v.bin)
	default:
		return ""
	}
}

// AsUUID converts v to a UUID; unparseable input yields uuid.Nil.
func (v *Value) AsUUID() uuid.UUID {
	switch v.Type() {
	case TypeUUID:
		return v.u
	case TypeString:
		u, err := uuid.Parse(strings.TrimSpace(v.s))
		if err != nil {
			return uuid.Nil
		}
		return u
	case TypeBinary:
		if len(v.bin) == 16 {
			var u uuid.UUID
			copy(u[:], v.bin)
			return u
		}
		return uuid.Nil
	default:
		return uuid.Nil
	}
}

// AsDate converts v to a UTC time; the zero time is the default.
func (v *Value) AsDate() time.Time {
	switch v.Type() {
	case TypeDate:
		return v.t
	case TypeString:
		t, err := ParseDate(v.s)
		if err != nil {
			return time.Time{}
		}
		return t
	case TypeInteger:
		return DateFromUnix(float64(v.i))
	case TypeReal:
		return DateFromUnix(v.r)
	case TypeBinary:
		if len(v.bin) == 8 {
			return DateFromUnix(math.Float64frombits(binary.BigEndian.Uint64(v.bin)))
		}
		return time.Time{}
	default:
		return time.Time{}
	}
}

// AsURI converts v to a URL. The result is never nil; unparseable text and
// relative references from a String yield an empty URL.
func (v *Value) AsURI() *url.URL {
	switch v.Type() {
	case TypeURI:
		if u, err := url.Parse(v.s); err == nil {
			return u
		}
	case TypeString:
		if u, err := url.Parse(strings.TrimSpace(v.s)); err == nil && u.IsAbs() {
			return u
		}
	}
	return &url.URL{}
}

// AsBinary converts v to bytes. The result is a copy and never aliases the
// Value's storage.
func (v *Value) AsBinary() []byte {
	switch v.Type() {
	case TypeBinary:
		return append([]byte{}, v.bin...)
	case TypeBoolean:
		if v.b {
			return []byte{1}
		}
		return []byte{0}
	case TypeInteger:
		return binary.BigEndian.AppendUint32(nil, uint32(v.i))
	case TypeReal:
		return binary.BigEndian.AppendUint64(nil, math.Float64bits(v.r))
	case TypeString:
		return []byte(v.s)
	case TypeUUID:
		return append([]byte{}, v.u[:]...)
	case TypeDate:
		return binary.BigEndian.AppendUint64(nil, math.Float64bits(DateToUnix(v.t)))
	case TypeArray:
		out := make([]byte, 0, v.arr.Len())
		for _, it := range v.arr.items {
			out = append(out, byte(it.AsInteger()))
		}
		return out
	default:
		return []byte{}
	}
}

func stringAsLong(s string) int64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return realToInt64(f)
	}
	return 0
}

func realToInt32(f float64) int32 {
	switch {
	case isNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(f)
	}
}

func realToInt64(f float64) int64 {
	switch {
	case isNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

func clampInt32(n int64) int32 {
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	default:
		return int32(n)
	}
}
