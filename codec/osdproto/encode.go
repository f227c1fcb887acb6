package osdproto

import (
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/reoring/osd"
)

// Marshal serializes v as a Value message, preceded by Header when
// opts.Binary.Header is set.
func Marshal(v *osd.Value, opts osd.Options) ([]byte, error) {
	e := &encoder{elide: opts.Elide}
	if opts.Binary.Header {
		e.buf = append(e.buf, Header...)
	}
	if err := v.Accept(e); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// Encode writes the Marshal output of v to out.
func Encode(out io.Writer, v *osd.Value, opts osd.Options) error {
	b, err := Marshal(v, opts)
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}

// encoder appends the fields of the Value message being visited to buf.
type encoder struct {
	buf   []byte
	elide bool
}

// nested encodes child as a length-delimited Value message under field num.
func (e *encoder) nested(num protowire.Number, child *osd.Value) error {
	outer := e.buf
	e.buf = nil
	if err := child.Accept(e); err != nil {
		return err
	}
	inner := e.buf
	e.buf = protowire.AppendTag(outer, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, inner)
	return nil
}

func (e *encoder) VisitUnknown() error { return nil }

func (e *encoder) VisitBoolean(v bool) error {
	e.buf = protowire.AppendTag(e.buf, fieldBoolean, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, protowire.EncodeBool(v))
	return nil
}

func (e *encoder) VisitInteger(v int32) error {
	e.buf = protowire.AppendTag(e.buf, fieldInteger, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, protowire.EncodeZigZag(int64(v)))
	return nil
}

func (e *encoder) VisitReal(v float64) error {
	e.buf = protowire.AppendTag(e.buf, fieldReal, protowire.Fixed64Type)
	e.buf = protowire.AppendFixed64(e.buf, math.Float64bits(v))
	return nil
}

func (e *encoder) VisitString(v string) error {
	e.buf = protowire.AppendTag(e.buf, fieldString, protowire.BytesType)
	e.buf = protowire.AppendString(e.buf, v)
	return nil
}

func (e *encoder) VisitUUID(v uuid.UUID) error {
	e.buf = protowire.AppendTag(e.buf, fieldUUID, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, v[:])
	return nil
}

// VisitDate writes a Timestamp; the zero date is an empty Timestamp.
func (e *encoder) VisitDate(v time.Time) error {
	var ts []byte
	if !v.IsZero() {
		if s := v.Unix(); s != 0 {
			ts = protowire.AppendTag(ts, fieldSeconds, protowire.VarintType)
			ts = protowire.AppendVarint(ts, uint64(s))
		}
		if n := v.Nanosecond(); n != 0 {
			ts = protowire.AppendTag(ts, fieldNanos, protowire.VarintType)
			ts = protowire.AppendVarint(ts, uint64(int64(n)))
		}
	}
	e.buf = protowire.AppendTag(e.buf, fieldDate, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, ts)
	return nil
}

func (e *encoder) VisitURI(v string) error {
	e.buf = protowire.AppendTag(e.buf, fieldURI, protowire.BytesType)
	e.buf = protowire.AppendString(e.buf, v)
	return nil
}

func (e *encoder) VisitBinary(v []byte) error {
	e.buf = protowire.AppendTag(e.buf, fieldBinary, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, v)
	return nil
}

func (e *encoder) VisitArray(a *osd.Array) error {
	outer := e.buf
	e.buf = nil
	var err error
	a.Range(func(_ int, item *osd.Value) bool {
		if osd.UsePlaceholder(item, e.elide) {
			item = osd.Undefined()
		}
		err = e.nested(fieldItems, item)
		return err == nil
	})
	if err != nil {
		return err
	}
	body := e.buf
	e.buf = protowire.AppendTag(outer, fieldArray, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, body)
	return nil
}

func (e *encoder) VisitMap(m *osd.Map) error {
	outer := e.buf
	e.buf = nil
	var err error
	m.Range(func(key string, item *osd.Value) bool {
		if osd.OmitEntry(item, e.elide) {
			return true
		}
		entries := e.buf
		e.buf = protowire.AppendTag(nil, fieldKey, protowire.BytesType)
		e.buf = protowire.AppendString(e.buf, key)
		if err = e.nested(fieldValue, item); err != nil {
			return false
		}
		entry := e.buf
		e.buf = protowire.AppendTag(entries, fieldEntries, protowire.BytesType)
		e.buf = protowire.AppendBytes(e.buf, entry)
		return true
	})
	if err != nil {
		return err
	}
	body := e.buf
	e.buf = protowire.AppendTag(outer, fieldMap, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, body)
	return nil
}
