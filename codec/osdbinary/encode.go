package osdbinary

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/osd"
)

// Type markers.
const (
	markUnknown  = '!'
	markTrue     = '1'
	markFalse    = '0'
	markInteger  = 'i'
	markReal     = 'r'
	markUUID     = 'u'
	markString   = 's'
	markURI      = 'l'
	markDate     = 'd'
	markBinary   = 'b'
	markArray    = '['
	markArrayEnd = ']'
	markMap      = '{'
	markMapEnd   = '}'
	markKey      = 'k'
)

// Marshal serializes v to the length-prefixed binary form.
func Marshal(v *osd.Value, opts osd.Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes v to out, preceded by Header when opts.Binary.Header is set.
func Encode(out io.Writer, v *osd.Value, opts osd.Options) error {
	bw := bufio.NewWriter(out)
	e := &encoder{w: bw, elide: opts.Elide}
	if opts.Binary.Header {
		e.write([]byte(Header))
	}
	if err := v.Accept(e); err != nil {
		return err
	}
	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

type encoder struct {
	w       *bufio.Writer
	elide   bool
	scratch [8]byte
	err     error
}

func (e *encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	if _, err := e.w.Write(b); err != nil {
		e.err = err
	}
}

func (e *encoder) mark(c byte) {
	if e.err != nil {
		return
	}
	if err := e.w.WriteByte(c); err != nil {
		e.err = err
	}
}

func (e *encoder) u32(n uint32) {
	binary.BigEndian.PutUint32(e.scratch[:4], n)
	e.write(e.scratch[:4])
}

func (e *encoder) sized(mark byte, payload []byte) error {
	e.mark(mark)
	e.u32(uint32(len(payload)))
	e.write(payload)
	return e.err
}

func (e *encoder) VisitUnknown() error { e.mark(markUnknown); return e.err }

func (e *encoder) VisitBoolean(v bool) error {
	if v {
		e.mark(markTrue)
	} else {
		e.mark(markFalse)
	}
	return e.err
}

func (e *encoder) VisitInteger(v int32) error {
	e.mark(markInteger)
	e.u32(uint32(v))
	return e.err
}

func (e *encoder) VisitReal(v float64) error {
	e.mark(markReal)
	binary.BigEndian.PutUint64(e.scratch[:], math.Float64bits(v))
	e.write(e.scratch[:])
	return e.err
}

func (e *encoder) VisitString(v string) error { return e.sized(markString, []byte(v)) }

func (e *encoder) VisitUUID(v uuid.UUID) error {
	e.mark(markUUID)
	e.write(v[:])
	return e.err
}

// VisitDate writes seconds since the epoch as a little-endian double.
func (e *encoder) VisitDate(v time.Time) error {
	e.mark(markDate)
	binary.LittleEndian.PutUint64(e.scratch[:], math.Float64bits(osd.DateToUnix(v)))
	e.write(e.scratch[:])
	return e.err
}

func (e *encoder) VisitURI(v string) error    { return e.sized(markURI, []byte(v)) }
func (e *encoder) VisitBinary(v []byte) error { return e.sized(markBinary, v) }

func (e *encoder) VisitArray(a *osd.Array) error {
	e.mark(markArray)
	e.u32(uint32(a.Len()))
	var err error
	a.Range(func(_ int, item *osd.Value) bool {
		if osd.UsePlaceholder(item, e.elide) {
			e.mark(markUnknown)
			return e.err == nil
		}
		err = item.Accept(e)
		return err == nil
	})
	if err != nil {
		return err
	}
	e.mark(markArrayEnd)
	return e.err
}

func (e *encoder) VisitMap(m *osd.Map) error {
	e.mark(markMap)
	e.u32(uint32(osd.EmittedLen(m, e.elide)))
	var err error
	m.Range(func(key string, item *osd.Value) bool {
		if osd.OmitEntry(item, e.elide) {
			return true
		}
		if err = e.sized(markKey, []byte(key)); err != nil {
			return false
		}
		err = item.Accept(e)
		return err == nil
	})
	if err != nil {
		return err
	}
	e.mark(markMapEnd)
	return e.err
}
