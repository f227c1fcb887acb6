package notation

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/osd"
)

func parse(t *testing.T, in string) *osd.Value {
	t.Helper()
	v, err := Unmarshal([]byte(in), osd.DefaultOptions())
	if err != nil {
		t.Fatalf("unmarshal %q: %v", in, err)
	}
	return v
}

func TestParse_Scalars(t *testing.T) {
	u := "6bad258e-06f0-4f87-a659-493117c9c162"
	cases := []struct {
		in   string
		want *osd.Value
	}{
		{"!", osd.Undefined()},
		{"1", osd.FromBoolean(true)},
		{"0", osd.FromBoolean(false)},
		{"t", osd.FromBoolean(true)},
		{"T", osd.FromBoolean(true)},
		{"true", osd.FromBoolean(true)},
		{"TRUE", osd.FromBoolean(true)},
		{"f", osd.FromBoolean(false)},
		{"FALSE", osd.FromBoolean(false)},
		{"i-42", osd.FromInteger(-42)},
		{"i0", osd.FromInteger(0)},
		{"r-0.02", osd.FromReal(-0.02)},
		{"r1e+21", osd.FromReal(1e21)},
		{"rinf", osd.FromReal(math.Inf(1))},
		{"r-inf", osd.FromReal(math.Inf(-1))},
		{"u" + u, osd.FromUUID(uuid.MustParse(u))},
		{"'it\\'s'", osd.FromString("it's")},
		{`"tab\there"`, osd.FromString("tab\there")},
		{`"\x41\\"`, osd.FromString(`A\`)},
		{`s(5)"a'b"c"`, osd.FromString(`a'b"c`)},
		{`l"http://example.com/"`, osd.FromURIString("http://example.com/")},
		{`d"2006-02-01T14:29:53.43Z"`, osd.FromDate(time.Date(2006, 2, 1, 14, 29, 53, 430000000, time.UTC))},
		{`d""`, osd.FromDate(time.Time{})},
		{`b64"aGVsbG8="`, osd.FromBinary([]byte("hello"))},
		{`b16"68656c6c6f"`, osd.FromBinary([]byte("hello"))},
		{`b(3)"a"b"`, osd.FromBinary([]byte(`a"b`))},
		{`b64""`, osd.FromBinary(nil)},
	}
	for _, tc := range cases {
		if got := parse(t, tc.in); !osd.Equal(got, tc.want) {
			t.Fatalf("%s: got %s %q", tc.in, got.Type(), got.AsString())
		}
	}
	if v := parse(t, "rnan"); !math.IsNaN(v.AsReal()) {
		t.Fatalf("rnan = %v", v.AsReal())
	}
}

func TestParse_Nested(t *testing.T) {
	in := `<? llsd/notation ?>
{
  'region_id' : u67153d5b-3659-afb4-8510-adda2c034649,
  "scale": 'one minute',
  'simulator statistics':
  {
    'time dilation':r0.9878624,
    'sim fps':r51.09223,
    'pid':i211,
    'scripts':[i1, i2, [], {}, !]
  },
  s(3)"raw":1
}`
	v := parse(t, in)
	m := v.Map()
	if got := m.Keys(); strings.Join(got, ",") != "region_id,scale,simulator statistics,raw" {
		t.Fatalf("keys = %v", got)
	}
	stats := m.Get("simulator statistics").Map()
	if stats.Get("time dilation").AsReal() != 0.9878624 || stats.Get("pid").AsInteger() != 211 {
		t.Fatalf("stats decoded wrong")
	}
	scripts := stats.Get("scripts").Array()
	if scripts.Len() != 5 || scripts.At(2).Type() != osd.TypeArray || scripts.At(3).Type() != osd.TypeMap || scripts.At(4).Type() != osd.TypeUnknown {
		t.Fatalf("scripts decoded wrong: len %d", scripts.Len())
	}
	if !m.Get("raw").AsBoolean() {
		t.Fatalf("raw key value")
	}
}

func TestMarshal_Output(t *testing.T) {
	v := osd.NewMap()
	m := v.Map()
	m.Set("b", osd.FromBoolean(true))
	m.Set("i", osd.FromInteger(7))
	m.Set("r", osd.FromReal(-0.02))
	m.Set("s", osd.FromString("it's\n"))
	m.Set("l", osd.FromURIString(`http://x/"q"`))
	m.Set("bin", osd.FromBinary([]byte("hi")))
	m.Set("a", osd.NewArray(osd.Undefined(), osd.FromReal(1)))
	out, err := Marshal(v, osd.Options{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{'b':true,'i':i7,'r':r-0.02,'s':'it\'s\n','l':l"http://x/\"q\"",'bin':b64"aGk=",'a':[!,r1]}`
	if string(out) != want {
		t.Fatalf("output:\n%s\nwant:\n%s", out, want)
	}
}

func TestRoundTrip(t *testing.T) {
	v := osd.NewArray(
		osd.FromBoolean(false),
		osd.FromInteger(math.MaxInt32),
		osd.FromReal(math.NaN()),
		osd.FromReal(math.Inf(-1)),
		osd.FromReal(0.1),
		osd.FromString("ctl \x01 \\ ' \""),
		osd.FromUUID(uuid.MustParse("97f4aeca-88a1-42a1-b385-b97b18abb255")),
		osd.FromDate(time.Date(2024, 7, 9, 1, 2, 3, 500000000, time.UTC)),
		osd.FromURIString("http://example.com/?a=1"),
		osd.FromBinary([]byte{0, 255, 10}),
		osd.NewMap(),
	)
	for _, header := range []bool{false, true} {
		opts := osd.Options{Notation: osd.NotationOptions{Header: header}}
		out, err := Marshal(v, opts)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if header && !strings.HasPrefix(string(out), Header) {
			t.Fatalf("missing header: %s", out)
		}
		back, err := Unmarshal(out, opts)
		if err != nil {
			t.Fatalf("unmarshal %s: %v", out, err)
		}
		if !osd.Equal(v, back) {
			t.Fatalf("round trip mismatch: %s", out)
		}
	}
}

func TestElision(t *testing.T) {
	v := osd.NewMap()
	v.Map().Set("zero", osd.FromReal(0))
	v.Map().Set("list", osd.NewArray(osd.FromBoolean(false), osd.FromInteger(2)))
	v.Map().Set("m", osd.NewMap())
	out, err := Marshal(v, osd.Options{Elide: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{'list':[!,i2],'m':{}}`; string(out) != want {
		t.Fatalf("elided = %s, want %s", out, want)
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	cases := []struct {
		in   string
		code string
	}{
		{"", osd.CodeTruncated},
		{"  ", osd.CodeTruncated},
		{"[i1,", osd.CodeTruncated},
		{"{'a':i1", osd.CodeTruncated},
		{"'open", osd.CodeTruncated},
		{`s(10)"short"`, osd.CodeTruncated},
		{`s(9223372036854775807)"x"`, osd.CodeTruncated},
		{`b(9223372036854775807)"x"`, osd.CodeTruncated},
		{`{s(9223372036854775807)"k":i1}`, osd.CodeTruncated},
		{`s(99999999999999999999)"x"`, osd.CodeSyntax},
		{"u1234", osd.CodeTruncated},
		{"[i1 i2]", osd.CodeUnexpected},
		{"{'a' i1}", osd.CodeUnexpected},
		{"{'a':}", osd.CodeMissingValue},
		{"{i1:i2}", osd.CodeUnexpected},
		{"ix", osd.CodeSyntax},
		{"rabc", osd.CodeSyntax},
		{"uzzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz", osd.CodeSyntax},
		{`b64"@@@"`, osd.CodeEncoding},
		{`b16"zz"`, osd.CodeEncoding},
		{"?", osd.CodeUnexpected},
		{"i1 i2", osd.CodeTrailingData},
	}
	for _, tc := range cases {
		_, err := Unmarshal([]byte(tc.in), osd.DefaultOptions())
		if !errors.Is(err, osd.ErrMalformed) {
			t.Fatalf("%q: expected ErrMalformed, got %v", tc.in, err)
		}
		de, _ := osd.AsDecodeError(err)
		if de.Code != tc.code || de.Format != osd.FormatNotation {
			t.Fatalf("%q: got %s/%s, want %s", tc.in, de.Format, de.Code, tc.code)
		}
	}
}

func TestUnmarshal_PathDepthDuplicates(t *testing.T) {
	_, err := Unmarshal([]byte("{'a':[i1,{'b':ix}]}"), osd.DefaultOptions())
	de, ok := osd.AsDecodeError(err)
	if !ok || de.Path != "/a/1/b" {
		t.Fatalf("path: %v", err)
	}
	if de.Offset != 15 {
		t.Fatalf("offset = %d", de.Offset)
	}

	opts := osd.DefaultOptions()
	opts.MaxDepth = 2
	if _, err := Unmarshal([]byte("[[]]"), opts); err != nil {
		t.Fatalf("depth 2: %v", err)
	}
	_, err = Unmarshal([]byte("[[[]]]"), opts)
	if de, ok := osd.AsDecodeError(err); !ok || de.Code != osd.CodeMaxDepth {
		t.Fatalf("expected max depth, got %v", err)
	}

	in := []byte("{'k':i1,'k':i2}")
	opts = osd.DefaultOptions()
	if v, _ := Unmarshal(in, opts); v.Map().Get("k").AsInteger() != 2 {
		t.Fatalf("last policy")
	}
	opts.OnDuplicateKey = osd.DuplicateFirst
	if v, _ := Unmarshal(in, opts); v.Map().Get("k").AsInteger() != 1 {
		t.Fatalf("first policy")
	}
	opts.OnDuplicateKey = osd.DuplicateError
	_, err = Unmarshal(in, opts)
	if de, ok := osd.AsDecodeError(err); !ok || de.Code != osd.CodeDuplicateKey || de.Path != "/k" {
		t.Fatalf("error policy: %v", err)
	}
}
