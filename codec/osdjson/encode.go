package osdjson

import (
	"bufio"
	"bytes"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/osd"
)

// Marshal serializes v to JSON.
func Marshal(v *osd.Value, opts osd.Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes v to out as JSON. With opts.Elide, map entries holding
// default values are skipped and default array elements become null.
func Encode(out io.Writer, v *osd.Value, opts osd.Options) error {
	bw := bufio.NewWriter(out)
	w := NewWriter(bw, opts.JSON)
	enc := &encoder{w: w, elide: opts.Elide}
	if err := v.Accept(enc); err != nil {
		return err
	}
	return bw.Flush()
}

// encoder maps each variant onto Writer events.
type encoder struct {
	w     *Writer
	elide bool
}

func (e *encoder) VisitUnknown() error        { return e.w.Null() }
func (e *encoder) VisitBoolean(v bool) error  { return e.w.Bool(v) }
func (e *encoder) VisitInteger(v int32) error { return e.w.Int(v) }
func (e *encoder) VisitReal(v float64) error  { return e.w.Real(v) }
func (e *encoder) VisitString(v string) error { return e.w.String(v) }
func (e *encoder) VisitUUID(v uuid.UUID) error {
	return e.w.String(v.String())
}
func (e *encoder) VisitDate(v time.Time) error { return e.w.String(osd.FormatDate(v)) }
func (e *encoder) VisitURI(v string) error     { return e.w.String(v) }

// VisitBinary writes bytes as an array of integers; Array.AsBinary reads
// them back.
func (e *encoder) VisitBinary(v []byte) error {
	if err := e.w.ArrayStart(); err != nil {
		return err
	}
	for _, b := range v {
		if err := e.w.Int(int32(b)); err != nil {
			return err
		}
	}
	return e.w.ArrayEnd()
}

func (e *encoder) VisitArray(a *osd.Array) error {
	if err := e.w.ArrayStart(); err != nil {
		return err
	}
	var err error
	a.Range(func(_ int, item *osd.Value) bool {
		if osd.UsePlaceholder(item, e.elide) {
			err = e.w.Null()
		} else {
			err = item.Accept(e)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	return e.w.ArrayEnd()
}

func (e *encoder) VisitMap(m *osd.Map) error {
	if err := e.w.ObjectStart(); err != nil {
		return err
	}
	var err error
	m.Range(func(key string, item *osd.Value) bool {
		if osd.OmitEntry(item, e.elide) {
			return true
		}
		if err = e.w.PropertyName(key); err != nil {
			return false
		}
		err = item.Accept(e)
		return err == nil
	})
	if err != nil {
		return err
	}
	return e.w.ObjectEnd()
}
