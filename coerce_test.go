package osd

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCoerce_RequiredConversions(t *testing.T) {
	if got := FromReal(-2.9).AsInteger(); got != -2 {
		t.Fatalf("Real.AsInteger should truncate toward zero, got %d", got)
	}
	if got := FromReal(2.9).AsInteger(); got != 2 {
		t.Fatalf("Real.AsInteger = %d", got)
	}
	if got := FromString("not a number").AsReal(); got != 0 {
		t.Fatalf("String.AsReal on failure = %v", got)
	}
	if got := FromString(" 1.25 ").AsReal(); got != 1.25 {
		t.Fatalf("String.AsReal = %v", got)
	}
	if FromBoolean(true).AsInteger() != 1 || FromBoolean(false).AsInteger() != 0 {
		t.Fatalf("Boolean.AsInteger should be 1/0")
	}
}

func TestCoerce_Saturation(t *testing.T) {
	if got := FromReal(1e20).AsInteger(); got != math.MaxInt32 {
		t.Fatalf("overflow should saturate, got %d", got)
	}
	if got := FromReal(-1e20).AsInteger(); got != math.MinInt32 {
		t.Fatalf("underflow should saturate, got %d", got)
	}
	if got := FromReal(math.NaN()).AsInteger(); got != 0 {
		t.Fatalf("NaN.AsInteger = %d", got)
	}
	if FromReal(math.NaN()).AsBoolean() {
		t.Fatalf("NaN.AsBoolean should be false")
	}
}

func TestCoerce_Long(t *testing.T) {
	const n = int64(-1) << 41
	if got := FromLong(n).AsLong(); got != n {
		t.Fatalf("FromLong/AsLong = %d, want %d", got, n)
	}
	if got := FromString("9000000000").AsLong(); got != 9000000000 {
		t.Fatalf("String.AsLong = %d", got)
	}
}

func TestCoerce_TotalOverUnknown(t *testing.T) {
	var nilValue *Value
	for _, v := range []*Value{Undefined(), nilValue, NewArray(), NewMap()} {
		if v.AsBoolean() || v.AsInteger() != 0 || v.AsReal() != 0 || v.AsLong() != 0 {
			t.Fatalf("%s: numeric accessors should default", v.Type())
		}
		if v.AsUUID() != uuid.Nil || !v.AsDate().IsZero() {
			t.Fatalf("%s: uuid/date accessors should default", v.Type())
		}
		if v.AsURI() == nil || v.AsURI().String() != "" {
			t.Fatalf("%s: AsURI should be empty and non-nil", v.Type())
		}
	}
	if Undefined().AsString() != "" || len(Undefined().AsBinary()) != 0 {
		t.Fatalf("Unknown text/binary should default")
	}
}

func TestCoerce_Strings(t *testing.T) {
	u := uuid.MustParse("97f4aeca-88a1-42a1-b385-b97b18abb255")
	when := time.Date(2006, 2, 1, 14, 29, 53, 460000000, time.UTC)
	cases := []struct {
		v    *Value
		want string
	}{
		{FromBoolean(true), "true"},
		{FromInteger(-7), "-7"},
		{FromReal(0.5), "0.5"},
		{FromUUID(u), "97f4aeca-88a1-42a1-b385-b97b18abb255"},
		{FromDate(when), "2006-02-01T14:29:53.46Z"},
		{FromURIString("http://example.com/a"), "http://example.com/a"},
		{FromBinary([]byte("hi")), "aGk="},
	}
	for _, tc := range cases {
		if got := tc.v.AsString(); got != tc.want {
			t.Fatalf("%s.AsString() = %q, want %q", tc.v.Type(), got, tc.want)
		}
	}
	if FromString(u.String()).AsUUID() != u {
		t.Fatalf("String.AsUUID failed")
	}
	if !FromString("2006-02-01T14:29:53.46Z").AsDate().Equal(when) {
		t.Fatalf("String.AsDate failed")
	}
	if FromString("garbage").AsUUID() != uuid.Nil {
		t.Fatalf("unparseable uuid should default")
	}
}

func TestCoerce_ArrayAsBinary(t *testing.T) {
	v := NewArray(FromInteger(0), FromInteger(255), FromInteger(16))
	got := v.AsBinary()
	if len(got) != 3 || got[0] != 0 || got[1] != 255 || got[2] != 16 {
		t.Fatalf("Array.AsBinary = %v", got)
	}
}

func TestCoerce_URI(t *testing.T) {
	if got := FromString("relative/path").AsURI().String(); got != "" {
		t.Fatalf("relative string should not coerce to a URI, got %q", got)
	}
	if got := FromString("https://example.com/x").AsURI().Host; got != "example.com" {
		t.Fatalf("AsURI host = %q", got)
	}
}
