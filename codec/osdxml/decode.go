package osdxml

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/reoring/osd"
	eng "github.com/reoring/osd/internal/engine"
)

// Unmarshal deserializes the value wrapped by the <llsd> root in data.
func Unmarshal(data []byte, opts osd.Options) (*osd.Value, error) {
	rest, skipped, err := skipNonstandardPI(data)
	if err != nil {
		return nil, err
	}
	dec := xml.NewDecoder(bytes.NewReader(rest))
	dec.Strict = true
	dec.CharsetReader = charsetReader
	d := &decoder{dec: dec, opts: opts, base: int64(skipped)}
	return d.document()
}

// Decode reads the whole of r and deserializes it.
func Decode(r io.Reader, opts osd.Options) (*osd.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, opts)
}

// skipNonstandardPI drops a leading byte order mark and a leading processing
// instruction with no target name, such as "<? llsd/xml ?>", which
// encoding/xml rejects. It returns the rest of data and how many bytes were
// dropped.
func skipNonstandardPI(data []byte) ([]byte, int, error) {
	skipped := 0
	if bytes.HasPrefix(data, bom) {
		skipped = len(bom)
	}
	trimmed := bytes.TrimLeft(data[skipped:], " \t\r\n")
	lead := len(data) - len(trimmed)
	if len(trimmed) < 3 || trimmed[0] != '<' || trimmed[1] != '?' || isNameStart(trimmed[2]) {
		return data[skipped:], skipped, nil
	}
	end := bytes.Index(trimmed, []byte("?>"))
	if end < 0 {
		return nil, 0, osd.NewDecodeError(osd.FormatXML, osd.CodeTruncated, int64(lead), "unterminated processing instruction")
	}
	n := lead + end + 2
	return data[n:], n, nil
}

var bom = []byte("\xef\xbb\xbf")

func isNameStart(c byte) bool {
	return c == '_' || c == ':' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "us-ascii", "ascii", "utf8":
		return input, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}

type decoder struct {
	dec   *xml.Decoder
	opts  osd.Options
	base  int64
	path  eng.PathStack
	depth int
}

func (d *decoder) offset() int64 { return d.base + d.dec.InputOffset() }

func (d *decoder) errorf(code string, cause error, format string, args ...any) *osd.DecodeError {
	de := osd.NewDecodeError(osd.FormatXML, code, d.offset(), format, args...)
	de.Path = d.path.String()
	de.Cause = cause
	return de
}

// token returns the next token, skipping comments, processing instructions
// and directives.
func (d *decoder) token() (xml.Token, error) {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, d.wrap(err)
		}
		switch tok.(type) {
		case xml.Comment, xml.ProcInst, xml.Directive:
			continue
		}
		return tok, nil
	}
}

func (d *decoder) wrap(err error) error {
	var se *xml.SyntaxError
	if errors.Is(err, io.EOF) || (errors.As(err, &se) && strings.Contains(se.Msg, "unexpected EOF")) {
		return d.errorf(osd.CodeTruncated, err, "unexpected end of input")
	}
	return d.errorf(osd.CodeSyntax, err, "%v", err)
}

// element returns the next child start element, or nil at the parent's end
// element. Text between children must be whitespace.
func (d *decoder) element() (*xml.StartElement, error) {
	for {
		tok, err := d.token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return &t, nil
		case xml.EndElement:
			return nil, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return nil, d.errorf(osd.CodeUnexpected, nil, "unexpected text %q", string(t))
			}
		}
	}
}

func (d *decoder) document() (*osd.Value, error) {
	var root *xml.StartElement
	for root == nil {
		tok, err := d.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, d.errorf(osd.CodeTruncated, err, "no root element")
			}
			return nil, d.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			root = &t
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return nil, d.errorf(osd.CodeSyntax, nil, "text before root element")
			}
		}
	}
	if root.Name.Local != "llsd" {
		return nil, d.errorf(osd.CodeUnexpected, nil, "root element is <%s>, want <llsd>", root.Name.Local)
	}

	v := osd.Undefined()
	first, err := d.element()
	if err != nil {
		return nil, err
	}
	if first != nil {
		if v, err = d.value(*first); err != nil {
			return nil, err
		}
		extra, err := d.element()
		if err != nil {
			return nil, err
		}
		if extra != nil {
			return nil, d.errorf(osd.CodeUnexpected, nil, "<llsd> holds more than one value")
		}
	}

	for {
		tok, err := d.dec.Token()
		if errors.Is(err, io.EOF) {
			return v, nil
		}
		if err != nil {
			return nil, d.errorf(osd.CodeTrailingData, err, "%v", err)
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return nil, d.errorf(osd.CodeTrailingData, nil, "text after root element")
			}
		default:
			return nil, d.errorf(osd.CodeTrailingData, nil, "content after root element")
		}
	}
}

// text collects the character data of a scalar element up to its end.
func (d *decoder) text(start xml.StartElement) (string, error) {
	var b strings.Builder
	for {
		tok, err := d.token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			return b.String(), nil
		case xml.StartElement:
			return "", d.errorf(osd.CodeUnexpected, nil, "<%s> inside <%s>", t.Name.Local, start.Name.Local)
		}
	}
}

func (d *decoder) enter() error {
	d.depth++
	if d.opts.MaxDepth > 0 && d.depth > d.opts.MaxDepth {
		return d.errorf(osd.CodeMaxDepth, nil, "max depth exceeded")
	}
	return nil
}

func (d *decoder) value(start xml.StartElement) (*osd.Value, error) {
	switch start.Name.Local {
	case "map":
		return d.mapValue()
	case "array":
		return d.arrayValue()
	}

	text, err := d.text(start)
	if err != nil {
		return nil, err
	}
	switch start.Name.Local {
	case "undef":
		return osd.Undefined(), nil
	case "boolean":
		switch strings.TrimSpace(text) {
		case "1", "true":
			return osd.FromBoolean(true), nil
		default:
			return osd.FromBoolean(false), nil
		}
	case "integer":
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
		if err != nil {
			return osd.FromInteger(0), nil
		}
		return osd.FromInteger(int32(n)), nil
	case "real":
		s := strings.TrimSpace(text)
		if strings.EqualFold(s, "nan") {
			return osd.FromReal(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return osd.FromReal(0), nil
		}
		return osd.FromReal(f), nil
	case "string":
		return osd.FromString(text), nil
	case "uuid":
		u, err := uuid.Parse(strings.TrimSpace(text))
		if err != nil {
			return osd.FromUUID(uuid.Nil), nil
		}
		return osd.FromUUID(u), nil
	case "date":
		t, _ := osd.ParseDate(text)
		return osd.FromDate(t), nil
	case "uri":
		return osd.FromURIString(strings.TrimSpace(text)), nil
	case "binary":
		b, err := d.binary(start, text)
		if err != nil {
			return nil, err
		}
		return osd.FromBinary(b), nil
	default:
		return nil, d.errorf(osd.CodeUnexpected, nil, "unknown element <%s>", start.Name.Local)
	}
}

func (d *decoder) binary(start xml.StartElement, text string) ([]byte, error) {
	encoding := "base64"
	for _, a := range start.Attr {
		if a.Name.Local == "encoding" {
			encoding = strings.ToLower(strings.TrimSpace(a.Value))
		}
	}
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, text)
	switch encoding {
	case "base64", "":
		b, err := base64.StdEncoding.DecodeString(compact)
		if err != nil {
			return nil, d.errorf(osd.CodeEncoding, err, "invalid base64 binary")
		}
		return b, nil
	case "base16":
		b, err := hex.DecodeString(compact)
		if err != nil {
			return nil, d.errorf(osd.CodeEncoding, err, "invalid base16 binary")
		}
		return b, nil
	default:
		return nil, d.errorf(osd.CodeEncoding, nil, "unsupported binary encoding %q", encoding)
	}
}

func (d *decoder) mapValue() (*osd.Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	out := osd.NewMap()
	m := out.Map()
	for {
		el, err := d.element()
		if err != nil {
			return nil, err
		}
		if el == nil {
			return out, nil
		}
		if el.Name.Local != "key" {
			return nil, d.errorf(osd.CodeUnexpected, nil, "map value <%s> without a key", el.Name.Local)
		}
		key, err := d.text(*el)
		if err != nil {
			return nil, err
		}
		d.path.PushKey(key)
		vel, err := d.element()
		if err != nil {
			return nil, err
		}
		if vel == nil || vel.Name.Local == "key" {
			return nil, d.errorf(osd.CodeMissingValue, nil, "key '%s' has no value", key)
		}
		child, err := d.value(*vel)
		if err != nil {
			return nil, err
		}
		if m.Has(key) {
			switch d.opts.OnDuplicateKey {
			case osd.DuplicateError:
				return nil, d.errorf(osd.CodeDuplicateKey, nil, "key '%s' duplicated", key)
			case osd.DuplicateFirst:
				d.path.Pop()
				continue
			}
		}
		m.Set(key, child)
		d.path.Pop()
	}
}

func (d *decoder) arrayValue() (*osd.Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	out := osd.NewArray()
	a := out.Array()
	for i := 0; ; i++ {
		el, err := d.element()
		if err != nil {
			return nil, err
		}
		if el == nil {
			return out, nil
		}
		d.path.PushIndex(i)
		child, err := d.value(*el)
		if err != nil {
			return nil, err
		}
		a.Append(child)
		d.path.Pop()
	}
}
