package notation

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/osd"
)

// Marshal serializes v to the compact notation form.
func Marshal(v *osd.Value, opts osd.Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes v to out in notation form, preceded by Header when
// opts.Notation.Header is set.
func Encode(out io.Writer, v *osd.Value, opts osd.Options) error {
	bw := bufio.NewWriter(out)
	e := &emitter{w: bw, elide: opts.Elide}
	if opts.Notation.Header {
		e.put(Header)
	}
	if err := v.Accept(e); err != nil {
		return err
	}
	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

type emitter struct {
	w     *bufio.Writer
	elide bool
	err   error
}

func (e *emitter) put(s string) {
	if e.err != nil {
		return
	}
	if _, err := e.w.WriteString(s); err != nil {
		e.err = err
	}
}

func (e *emitter) VisitUnknown() error { e.put("!"); return e.err }

func (e *emitter) VisitBoolean(v bool) error {
	e.put(strconv.FormatBool(v))
	return e.err
}

func (e *emitter) VisitInteger(v int32) error {
	e.put("i" + strconv.FormatInt(int64(v), 10))
	return e.err
}

func (e *emitter) VisitReal(v float64) error {
	e.put("r" + formatReal(v))
	return e.err
}

func (e *emitter) VisitString(v string) error {
	e.put(quote(v, '\''))
	return e.err
}

func (e *emitter) VisitUUID(v uuid.UUID) error {
	e.put("u" + v.String())
	return e.err
}

func (e *emitter) VisitDate(v time.Time) error {
	e.put("d" + quote(osd.FormatDate(v), '"'))
	return e.err
}

func (e *emitter) VisitURI(v string) error {
	e.put("l" + quote(v, '"'))
	return e.err
}

func (e *emitter) VisitBinary(v []byte) error {
	e.put(`b64"` + base64.StdEncoding.EncodeToString(v) + `"`)
	return e.err
}

func (e *emitter) VisitArray(a *osd.Array) error {
	e.put("[")
	var err error
	a.Range(func(i int, item *osd.Value) bool {
		if i > 0 {
			e.put(",")
		}
		if osd.UsePlaceholder(item, e.elide) {
			e.put("!")
			return e.err == nil
		}
		err = item.Accept(e)
		return err == nil
	})
	if err != nil {
		return err
	}
	e.put("]")
	return e.err
}

func (e *emitter) VisitMap(m *osd.Map) error {
	e.put("{")
	var err error
	first := true
	m.Range(func(key string, item *osd.Value) bool {
		if osd.OmitEntry(item, e.elide) {
			return true
		}
		if !first {
			e.put(",")
		}
		first = false
		e.put(quote(key, '\'') + ":")
		err = item.Accept(e)
		return err == nil
	})
	if err != nil {
		return err
	}
	e.put("}")
	return e.err
}

func formatReal(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// quote wraps s in q, escaping the quote, backslashes and control bytes.
func quote(s string, q byte) string {
	b := make([]byte, 0, len(s)+2)
	b = append(b, q)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case q, '\\':
			b = append(b, '\\', c)
		case '\a':
			b = append(b, '\\', 'a')
		case '\b':
			b = append(b, '\\', 'b')
		case '\f':
			b = append(b, '\\', 'f')
		case '\n':
			b = append(b, '\\', 'n')
		case '\r':
			b = append(b, '\\', 'r')
		case '\t':
			b = append(b, '\\', 't')
		case '\v':
			b = append(b, '\\', 'v')
		default:
			if c < 0x20 || c == 0x7f {
				const hexDigits = "0123456789abcdef"
				b = append(b, '\\', 'x', hexDigits[c>>4], hexDigits[c&0xf])
				continue
			}
			b = append(b, c)
		}
	}
	return string(append(b, q))
}
