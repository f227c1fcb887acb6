package osdxml

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/osd"
)

const declaration = `<?xml version="1.0" encoding="UTF-8"?>`

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
	"\r", "&#xD;",
)

// Marshal serializes v to the tag-structured XML form.
func Marshal(v *osd.Value, opts osd.Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes v wrapped in an <llsd> root element.
func Encode(out io.Writer, v *osd.Value, opts osd.Options) error {
	bw := bufio.NewWriter(out)
	e := &encoder{w: bw, indent: opts.XML.Indent, elide: opts.Elide}
	if opts.XML.Declaration {
		e.put(declaration)
		if e.indent != "" {
			e.put("\n")
		}
	}
	e.put("<llsd>")
	e.depth++
	if err := v.Accept(e); err != nil {
		return err
	}
	e.depth--
	e.line()
	e.put("</llsd>")
	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

type encoder struct {
	w      *bufio.Writer
	indent string
	depth  int
	elide  bool
	err    error
}

func (e *encoder) put(s string) {
	if e.err != nil {
		return
	}
	if _, err := e.w.WriteString(s); err != nil {
		e.err = err
	}
}

func (e *encoder) line() {
	if e.indent == "" {
		return
	}
	e.put("\n")
	e.put(strings.Repeat(e.indent, e.depth))
}

// scalar writes <name>text</name>, self-closing when text is empty.
func (e *encoder) scalar(name, attrs, text string) error {
	e.line()
	e.put("<" + name + attrs)
	if text == "" {
		e.put("/>")
		return e.err
	}
	e.put(">")
	e.put(textEscaper.Replace(text))
	e.put("</" + name + ">")
	return e.err
}

func (e *encoder) VisitUnknown() error { return e.scalar("undef", "", "") }

func (e *encoder) VisitBoolean(v bool) error {
	if v {
		return e.scalar("boolean", "", "1")
	}
	return e.scalar("boolean", "", "0")
}

func (e *encoder) VisitInteger(v int32) error {
	return e.scalar("integer", "", strconv.FormatInt(int64(v), 10))
}

func (e *encoder) VisitReal(v float64) error { return e.scalar("real", "", formatReal(v)) }

func (e *encoder) VisitString(v string) error  { return e.scalar("string", "", v) }
func (e *encoder) VisitUUID(v uuid.UUID) error { return e.scalar("uuid", "", v.String()) }
func (e *encoder) VisitDate(v time.Time) error { return e.scalar("date", "", osd.FormatDate(v)) }
func (e *encoder) VisitURI(v string) error     { return e.scalar("uri", "", v) }

func (e *encoder) VisitBinary(v []byte) error {
	return e.scalar("binary", ` encoding="base64"`, base64.StdEncoding.EncodeToString(v))
}

func (e *encoder) VisitArray(a *osd.Array) error {
	if a.Len() == 0 {
		return e.scalar("array", "", "")
	}
	e.line()
	e.put("<array>")
	e.depth++
	var err error
	a.Range(func(_ int, item *osd.Value) bool {
		if osd.UsePlaceholder(item, e.elide) {
			err = e.VisitUnknown()
		} else {
			err = item.Accept(e)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	e.depth--
	e.line()
	e.put("</array>")
	return e.err
}

func (e *encoder) VisitMap(m *osd.Map) error {
	if osd.EmittedLen(m, e.elide) == 0 {
		return e.scalar("map", "", "")
	}
	e.line()
	e.put("<map>")
	e.depth++
	var err error
	m.Range(func(key string, item *osd.Value) bool {
		if osd.OmitEntry(item, e.elide) {
			return true
		}
		e.line()
		e.put("<key>" + textEscaper.Replace(key) + "</key>")
		err = item.Accept(e)
		return err == nil
	})
	if err != nil {
		return err
	}
	e.depth--
	e.line()
	e.put("</map>")
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
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
