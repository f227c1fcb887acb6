package osdxml

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/osd"
)

func wrap(body string) []byte { return []byte("<llsd>" + body + "</llsd>") }

func mustUnmarshal(t *testing.T, data []byte) *osd.Value {
	t.Helper()
	v, err := Unmarshal(data, osd.DefaultOptions())
	if err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return v
}

func TestBooleanLiterals(t *testing.T) {
	cases := map[string]bool{
		"<boolean>1</boolean>":     true,
		"<boolean>true</boolean>":  true,
		"<boolean>0</boolean>":     false,
		"<boolean>false</boolean>": false,
		"<boolean/>":               false,
		"<boolean>yes</boolean>":   false,
	}
	for body, want := range cases {
		v := mustUnmarshal(t, wrap(body))
		if v.Type() != osd.TypeBoolean || v.AsBoolean() != want {
			t.Fatalf("%s: got %s %v", body, v.Type(), v.AsBoolean())
		}
	}
}

func TestEmptyScalarsAreDefaults(t *testing.T) {
	cases := []struct {
		body string
		want osd.Type
	}{
		{"<integer/>", osd.TypeInteger},
		{"<real/>", osd.TypeReal},
		{"<string/>", osd.TypeString},
		{"<uuid/>", osd.TypeUUID},
		{"<date/>", osd.TypeDate},
		{"<uri/>", osd.TypeURI},
		{"<binary/>", osd.TypeBinary},
		{"<binary encoding=\"base64\"></binary>", osd.TypeBinary},
		{"<undef/>", osd.TypeUnknown},
	}
	for _, tc := range cases {
		v := mustUnmarshal(t, wrap(tc.body))
		if v.Type() != tc.want || !osd.IsDefault(v) {
			t.Fatalf("%s: got %s (default=%v)", tc.body, v.Type(), osd.IsDefault(v))
		}
	}
	if v := mustUnmarshal(t, wrap("<uuid/>")); v.AsUUID() != uuid.Nil {
		t.Fatalf("empty uuid should be all zero")
	}
}

func TestRealNaN(t *testing.T) {
	for _, text := range []string{"nan", "NaN", "NAN"} {
		v := mustUnmarshal(t, wrap("<real>"+text+"</real>"))
		if v.Type() != osd.TypeReal || !math.IsNaN(v.AsReal()) {
			t.Fatalf("%s: got %s %v", text, v.Type(), v.AsReal())
		}
	}
	out, err := Marshal(osd.FromReal(math.NaN()), osd.Options{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "<llsd><real>nan</real></llsd>" {
		t.Fatalf("nan output = %s", out)
	}
}

func TestScalarParseFailureYieldsDefault(t *testing.T) {
	v := mustUnmarshal(t, wrap("<array><integer>abc</integer><real>x</real><uuid>nope</uuid></array>"))
	if v.Array().At(0).AsInteger() != 0 || v.Array().At(1).AsReal() != 0 || v.Array().At(2).AsUUID() != uuid.Nil {
		t.Fatalf("unparseable scalars should fall back to defaults")
	}
}

func TestNonstandardProcessingInstruction(t *testing.T) {
	in := "<? llsd/xml ?>\n<llsd><map><key>a</key><integer>42</integer></map></llsd>"
	v := mustUnmarshal(t, []byte(in))
	if v.Map().Get("a").AsInteger() != 42 {
		t.Fatalf("value after PI not decoded")
	}
	in = "\xef\xbb\xbf<?xml version=\"1.0\" encoding=\"UTF-8\"?><!-- c --><llsd><string>x</string></llsd>\n"
	if got := mustUnmarshal(t, []byte(in)).AsString(); got != "x" {
		t.Fatalf("declaration and comment not tolerated: %q", got)
	}
}

func TestEscaping(t *testing.T) {
	s := `a<b>&'c"`
	out, err := Marshal(osd.FromString(s), osd.Options{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := "<llsd><string>a&lt;b&gt;&amp;&apos;c&quot;</string></llsd>"
	if string(out) != want {
		t.Fatalf("escaped = %s, want %s", out, want)
	}
	if got := mustUnmarshal(t, out).AsString(); got != s {
		t.Fatalf("unescaped = %q", got)
	}
}

func TestEscaping_CarriageReturn(t *testing.T) {
	v := osd.NewMap()
	v.Map().Set("k\r", osd.FromString("a\r\nb\rc"))
	out, err := Marshal(v, osd.Options{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.ContainsRune(string(out), '\r') {
		t.Fatalf("raw CR written: %q", out)
	}
	back := mustUnmarshal(t, out)
	if got := back.Map().Get("k\r").AsString(); got != "a\r\nb\rc" {
		t.Fatalf("CR lost: %q", got)
	}
}

func TestBinaryEncodings(t *testing.T) {
	v := mustUnmarshal(t, wrap(`<binary encoding="base64">aGVs
bG8=</binary>`))
	if string(v.AsBinary()) != "hello" {
		t.Fatalf("base64 = %q", v.AsBinary())
	}
	v = mustUnmarshal(t, wrap(`<binary encoding="base16">68656C6C6F</binary>`))
	if string(v.AsBinary()) != "hello" {
		t.Fatalf("base16 = %q", v.AsBinary())
	}
	v = mustUnmarshal(t, wrap(`<binary>aGk=</binary>`))
	if string(v.AsBinary()) != "hi" {
		t.Fatalf("default encoding = %q", v.AsBinary())
	}
}

func TestRoundTrip(t *testing.T) {
	u := uuid.MustParse("d7f4aeca-88f1-42a1-b385-b97b18abb255")
	when := time.Date(2006, 2, 1, 14, 29, 53, 430000000, time.UTC)
	v := osd.NewMap()
	m := v.Map()
	m.Set("region_id", osd.FromUUID(u))
	m.Set("scale", osd.FromString("one meter"))
	m.Set("pos", osd.NewArray(osd.FromReal(1), osd.FromReal(2.5), osd.FromReal(-3)))
	m.Set("flag", osd.FromBoolean(true))
	m.Set("count", osd.FromInteger(-12))
	m.Set("when", osd.FromDate(when))
	m.Set("home", osd.FromURIString("http://example.com/a?b=c&d=e"))
	m.Set("blob", osd.FromBinary([]byte{0, 1, 2, 253}))
	m.Set("none", osd.Undefined())
	m.Set("empty", osd.NewArray())
	m.Set("nested", osd.NewMap())

	for _, opts := range []osd.Options{osd.DefaultOptions(), {XML: osd.XMLOptions{Indent: "  "}}} {
		out, err := Marshal(v, opts)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		back, err := Unmarshal(out, opts)
		if err != nil {
			t.Fatalf("unmarshal %s: %v", out, err)
		}
		if !osd.Equal(v, back) {
			t.Fatalf("round trip mismatch:\n%s", out)
		}
		if got := back.Map().Keys(); got[0] != "region_id" || got[len(got)-1] != "nested" {
			t.Fatalf("key order lost: %v", got)
		}
	}
}

func TestMarshal_Layout(t *testing.T) {
	v := osd.NewMap()
	v.Map().Set("a", osd.NewArray(osd.FromInteger(1), osd.FromBoolean(false)))
	v.Map().Set("e", osd.NewMap())
	out, err := Marshal(v, osd.Options{XML: osd.XMLOptions{Indent: " "}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := strings.Join([]string{
		"<llsd>",
		" <map>",
		"  <key>a</key>",
		"  <array>",
		"   <integer>1</integer>",
		"   <boolean>0</boolean>",
		"  </array>",
		"  <key>e</key>",
		"  <map/>",
		" </map>",
		"</llsd>",
	}, "\n")
	if string(out) != want {
		t.Fatalf("layout:\n%s\nwant:\n%s", out, want)
	}
}

func TestElision(t *testing.T) {
	v := osd.NewMap()
	m := v.Map()
	m.Set("zero", osd.FromInteger(0))
	m.Set("name", osd.FromString("x"))
	m.Set("list", osd.NewArray(osd.FromString(""), osd.FromInteger(3)))
	m.Set("empty", osd.NewMap())
	out, err := Marshal(v, osd.Options{Elide: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := "<llsd><map><key>name</key><string>x</string><key>list</key><array><undef/><integer>3</integer></array><key>empty</key><map/></map></llsd>"
	if string(out) != want {
		t.Fatalf("elided:\n%s\nwant:\n%s", out, want)
	}
}

func TestEmptyRoot(t *testing.T) {
	v := mustUnmarshal(t, []byte("<llsd/>"))
	if v.Type() != osd.TypeUnknown {
		t.Fatalf("empty root should be Unknown, got %s", v.Type())
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	cases := []struct {
		in   string
		code string
	}{
		{"", osd.CodeTruncated},
		{"<llsd><map><key>a</key>", osd.CodeTruncated},
		{"<notllsd/>", osd.CodeUnexpected},
		{"<llsd><integer>1</integer><integer>2</integer></llsd>", osd.CodeUnexpected},
		{"<llsd><map><integer>1</integer></map></llsd>", osd.CodeUnexpected},
		{"<llsd><map><key>a</key></map></llsd>", osd.CodeMissingValue},
		{"<llsd><map><key>a</key><key>b</key><integer>1</integer></map></llsd>", osd.CodeMissingValue},
		{"<llsd><float>1</float></llsd>", osd.CodeUnexpected},
		{"<llsd><binary encoding=\"base85\">x</binary></llsd>", osd.CodeEncoding},
		{"<llsd><binary>!!!</binary></llsd>", osd.CodeEncoding},
		{"<llsd><integer>1</integer></llsd><llsd/>", osd.CodeTrailingData},
		{"<llsd><string>a</integer></llsd>", osd.CodeSyntax},
	}
	for _, tc := range cases {
		_, err := Unmarshal([]byte(tc.in), osd.DefaultOptions())
		if !errors.Is(err, osd.ErrMalformed) {
			t.Fatalf("%q: expected ErrMalformed, got %v", tc.in, err)
		}
		de, _ := osd.AsDecodeError(err)
		if de.Code != tc.code || de.Format != osd.FormatXML {
			t.Fatalf("%q: got %s/%s, want %s", tc.in, de.Format, de.Code, tc.code)
		}
	}
}

func TestUnmarshal_PathAndDepth(t *testing.T) {
	_, err := Unmarshal(wrap("<map><key>list</key><array><integer>1</integer><binary>%</binary></array></map>"), osd.DefaultOptions())
	de, ok := osd.AsDecodeError(err)
	if !ok || de.Path != "/list/1" {
		t.Fatalf("path = %v (%v)", de, err)
	}

	opts := osd.DefaultOptions()
	opts.MaxDepth = 1
	_, err = Unmarshal(wrap("<array><array/></array>"), opts)
	if de, ok := osd.AsDecodeError(err); !ok || de.Code != osd.CodeMaxDepth {
		t.Fatalf("expected max depth error, got %v", err)
	}
}

func TestUnmarshal_DuplicateKeys(t *testing.T) {
	in := wrap("<map><key>a</key><integer>1</integer><key>a</key><integer>2</integer></map>")
	opts := osd.DefaultOptions()
	if v := mustUnmarshal(t, in); v.Map().Get("a").AsInteger() != 2 {
		t.Fatalf("last policy")
	}
	opts.OnDuplicateKey = osd.DuplicateFirst
	v, err := Unmarshal(in, opts)
	if err != nil || v.Map().Get("a").AsInteger() != 1 {
		t.Fatalf("first policy: %v", err)
	}
	opts.OnDuplicateKey = osd.DuplicateError
	if _, err := Unmarshal(in, opts); err == nil {
		t.Fatalf("error policy accepted a duplicate")
	}
}
