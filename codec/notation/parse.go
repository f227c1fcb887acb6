package notation

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/reoring/osd"
	eng "github.com/reoring/osd/internal/engine"
)

// Header is the optional signature line that may precede a notation document.
const Header = "<? llsd/notation ?>\n"

// Unmarshal parses one notation value from data. Whitespace may separate
// tokens; anything but whitespace after the value is rejected.
func Unmarshal(data []byte, opts osd.Options) (*osd.Value, error) {
	p := &parser{buf: data, opts: opts}
	p.skipHeader()
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf(osd.CodeTruncated, "empty input")
	}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf(osd.CodeTrailingData, "unexpected %q after the top-level value", p.buf[p.pos])
	}
	return v, nil
}

// Decode reads the whole of r and parses it.
func Decode(r io.Reader, opts osd.Options) (*osd.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, opts)
}

type parser struct {
	buf   []byte
	pos   int
	opts  osd.Options
	path  eng.PathStack
	depth int
}

func (p *parser) errorf(code, format string, args ...any) *osd.DecodeError {
	de := osd.NewDecodeError(osd.FormatNotation, code, int64(p.pos), format, args...)
	de.Path = p.path.String()
	return de
}

func (p *parser) eof() bool { return p.pos >= len(p.buf) }

func (p *parser) truncated() *osd.DecodeError {
	return p.errorf(osd.CodeTruncated, "unexpected end of input")
}

func (p *parser) skipSpace() {
	for p.pos < len(p.buf) {
		switch p.buf[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) skipHeader() {
	rest := bytes.TrimLeft(p.buf, " \t\r\n")
	if !bytes.HasPrefix(rest, []byte("<?")) {
		return
	}
	end := bytes.Index(rest, []byte("?>"))
	if end < 0 || !bytes.Contains(rest[:end], []byte("llsd/notation")) {
		return
	}
	p.pos = len(p.buf) - len(rest) + end + 2
}

// literal consumes word if the input continues with it.
func (p *parser) literal(word string) bool {
	if bytes.HasPrefix(p.buf[p.pos:], []byte(word)) {
		p.pos += len(word)
		return true
	}
	return false
}

func (p *parser) expect(c byte) error {
	if p.eof() {
		return p.truncated()
	}
	if p.buf[p.pos] != c {
		return p.errorf(osd.CodeUnexpected, "expected %q, got %q", c, p.buf[p.pos])
	}
	p.pos++
	return nil
}

func (p *parser) value() (*osd.Value, error) {
	if p.eof() {
		return nil, p.truncated()
	}
	c := p.buf[p.pos]
	switch c {
	case '!':
		p.pos++
		return osd.Undefined(), nil
	case '1':
		p.pos++
		return osd.FromBoolean(true), nil
	case '0':
		p.pos++
		return osd.FromBoolean(false), nil
	case 't', 'T':
		if !p.literal("true") && !p.literal("TRUE") {
			p.pos++
		}
		return osd.FromBoolean(true), nil
	case 'f', 'F':
		if !p.literal("false") && !p.literal("FALSE") {
			p.pos++
		}
		return osd.FromBoolean(false), nil
	case 'i':
		p.pos++
		return p.integer()
	case 'r':
		p.pos++
		return p.real()
	case 'u':
		p.pos++
		return p.uuid()
	case '\'', '"':
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return osd.FromString(s), nil
	case 's':
		p.pos++
		s, err := p.sized()
		if err != nil {
			return nil, err
		}
		return osd.FromString(string(s)), nil
	case 'l':
		p.pos++
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return osd.FromURIString(s), nil
	case 'd':
		p.pos++
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		t, _ := osd.ParseDate(s)
		return osd.FromDate(t), nil
	case 'b':
		p.pos++
		return p.binary()
	case '[':
		p.pos++
		return p.array()
	case '{':
		p.pos++
		return p.object()
	default:
		return nil, p.errorf(osd.CodeUnexpected, "unexpected %q", c)
	}
}

// span consumes bytes while ok holds and returns them.
func (p *parser) span(ok func(byte) bool) string {
	start := p.pos
	for p.pos < len(p.buf) && ok(p.buf[p.pos]) {
		p.pos++
	}
	return string(p.buf[start:p.pos])
}

func (p *parser) integer() (*osd.Value, error) {
	start := p.pos
	text := p.span(func(c byte) bool { return c == '-' || c == '+' || (c >= '0' && c <= '9') })
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf(osd.CodeSyntax, "invalid integer %q", text)
	}
	switch {
	case n > math.MaxInt32:
		n = math.MaxInt32
	case n < math.MinInt32:
		n = math.MinInt32
	}
	return osd.FromInteger(int32(n)), nil
}

func (p *parser) real() (*osd.Value, error) {
	start := p.pos
	text := p.span(func(c byte) bool {
		return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	})
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return osd.FromReal(f), nil
		}
		p.pos = start
		return nil, p.errorf(osd.CodeSyntax, "invalid real %q", text)
	}
	return osd.FromReal(f), nil
}

func (p *parser) uuid() (*osd.Value, error) {
	const n = 36
	if len(p.buf)-p.pos < n {
		return nil, p.truncated()
	}
	u, err := uuid.Parse(string(p.buf[p.pos : p.pos+n]))
	if err != nil {
		return nil, p.errorf(osd.CodeSyntax, "invalid uuid: %v", err)
	}
	p.pos += n
	return osd.FromUUID(u), nil
}

// quoted reads a '...' or "..." string with backslash escapes.
func (p *parser) quoted() (string, error) {
	if p.eof() {
		return "", p.truncated()
	}
	q := p.buf[p.pos]
	if q != '\'' && q != '"' {
		return "", p.errorf(osd.CodeUnexpected, "expected a quoted string, got %q", q)
	}
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			return "", p.truncated()
		}
		c := p.buf[p.pos]
		p.pos++
		switch c {
		case q:
			return b.String(), nil
		case '\\':
			if p.eof() {
				return "", p.truncated()
			}
			e := p.buf[p.pos]
			p.pos++
			switch e {
			case 'a':
				b.WriteByte('\a')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'v':
				b.WriteByte('\v')
			case 'x':
				if len(p.buf)-p.pos < 2 {
					return "", p.truncated()
				}
				h, err := hex.DecodeString(string(p.buf[p.pos : p.pos+2]))
				if err != nil {
					return "", p.errorf(osd.CodeSyntax, "invalid \\x escape")
				}
				b.Write(h)
				p.pos += 2
			default:
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
}

// sized reads (N)"raw" where raw is exactly N unescaped bytes.
func (p *parser) sized() ([]byte, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	text := p.span(func(c byte) bool { return c >= '0' && c <= '9' })
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, p.errorf(osd.CodeSyntax, "invalid length %q", text)
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	if p.eof() {
		return nil, p.truncated()
	}
	q := p.buf[p.pos]
	if q != '"' && q != '\'' {
		return nil, p.errorf(osd.CodeUnexpected, "expected a quote, got %q", q)
	}
	p.pos++
	if n > len(p.buf)-p.pos-1 {
		return nil, p.truncated()
	}
	raw := append([]byte(nil), p.buf[p.pos:p.pos+n]...)
	p.pos += n
	if err := p.expect(q); err != nil {
		return nil, err
	}
	return raw, nil
}

func (p *parser) binary() (*osd.Value, error) {
	switch {
	case p.literal("64"):
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(s), ""))
		if err != nil {
			return nil, p.errorf(osd.CodeEncoding, "invalid base64 binary")
		}
		return osd.FromBinary(b), nil
	case p.literal("16"):
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
		if err != nil {
			return nil, p.errorf(osd.CodeEncoding, "invalid base16 binary")
		}
		return osd.FromBinary(b), nil
	default:
		raw, err := p.sized()
		if err != nil {
			return nil, err
		}
		return osd.FromBinary(raw), nil
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return p.errorf(osd.CodeMaxDepth, "max depth exceeded")
	}
	return nil
}

func (p *parser) array() (*osd.Value, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	out := osd.NewArray()
	a := out.Array()
	p.skipSpace()
	if p.literal("]") {
		return out, nil
	}
	for i := 0; ; i++ {
		p.skipSpace()
		p.path.PushIndex(i)
		child, err := p.value()
		if err != nil {
			return nil, err
		}
		p.path.Pop()
		a.Append(child)
		p.skipSpace()
		if p.eof() {
			return nil, p.truncated()
		}
		switch p.buf[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return out, nil
		default:
			return nil, p.errorf(osd.CodeUnexpected, "expected ',' or ']', got %q", p.buf[p.pos])
		}
	}
}

func (p *parser) key() (string, error) {
	if p.eof() {
		return "", p.truncated()
	}
	if p.buf[p.pos] == 's' {
		p.pos++
		raw, err := p.sized()
		return string(raw), err
	}
	return p.quoted()
}

func (p *parser) object() (*osd.Value, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	out := osd.NewMap()
	m := out.Map()
	p.skipSpace()
	if p.literal("}") {
		return out, nil
	}
	for {
		p.skipSpace()
		key, err := p.key()
		if err != nil {
			return nil, err
		}
		p.path.PushKey(key)
		p.skipSpace()
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.eof() && (p.buf[p.pos] == ',' || p.buf[p.pos] == '}') {
			return nil, p.errorf(osd.CodeMissingValue, "key '%s' has no value", key)
		}
		child, err := p.value()
		if err != nil {
			return nil, err
		}
		if !m.Has(key) || p.opts.OnDuplicateKey == osd.DuplicateLast {
			m.Set(key, child)
		} else if p.opts.OnDuplicateKey == osd.DuplicateError {
			return nil, p.errorf(osd.CodeDuplicateKey, "key '%s' duplicated", key)
		}
		p.path.Pop()

		p.skipSpace()
		if p.eof() {
			return nil, p.truncated()
		}
		switch p.buf[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return out, nil
		default:
			return nil, p.errorf(osd.CodeUnexpected, "expected ',' or '}', got %q", p.buf[p.pos])
		}
	}
}
