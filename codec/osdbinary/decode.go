package osdbinary

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/google/uuid"

	"github.com/reoring/osd"
	eng "github.com/reoring/osd/internal/engine"
)

// Unmarshal decodes one binary value from data. The signature line is
// optional; data after the value is rejected.
func Unmarshal(data []byte, opts osd.Options) (*osd.Value, error) {
	d := &decoder{buf: data, opts: opts}
	n := headerLen(data)
	if n < 0 {
		return nil, d.errorf(osd.CodeSignature, "invalid binary signature")
	}
	d.pos = n
	if d.pos == len(d.buf) {
		return nil, d.errorf(osd.CodeTruncated, "empty input")
	}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.buf) {
		return nil, d.errorf(osd.CodeTrailingData, "%d bytes after the top-level value", len(d.buf)-d.pos)
	}
	return v, nil
}

// Decode reads the whole of r and decodes it.
func Decode(r io.Reader, opts osd.Options) (*osd.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, opts)
}

type decoder struct {
	buf   []byte
	pos   int
	opts  osd.Options
	path  eng.PathStack
	depth int
}

func (d *decoder) errorf(code, format string, args ...any) *osd.DecodeError {
	de := osd.NewDecodeError(osd.FormatBinary, code, int64(d.pos), format, args...)
	de.Path = d.path.String()
	return de
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || len(d.buf)-d.pos < n {
		return nil, d.errorf(osd.CodeTruncated, "need %d bytes, %d left", n, len(d.buf)-d.pos)
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) readByte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// count reads an element count. Every element takes at least one byte, so a
// count larger than the remaining input is rejected before allocating.
func (d *decoder) count() (int, error) {
	n, err := d.u32()
	if err != nil {
		return 0, err
	}
	if int64(n) > int64(len(d.buf)-d.pos) {
		return 0, d.errorf(osd.CodeTruncated, "count %d exceeds remaining input", n)
	}
	return int(n), nil
}

func (d *decoder) payload() ([]byte, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	if int64(n) > int64(len(d.buf)-d.pos) {
		return nil, d.errorf(osd.CodeTruncated, "length %d exceeds remaining input", n)
	}
	return d.take(int(n))
}

func (d *decoder) value() (*osd.Value, error) {
	m, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch m {
	case markUnknown:
		return osd.Undefined(), nil
	case markTrue:
		return osd.FromBoolean(true), nil
	case markFalse:
		return osd.FromBoolean(false), nil
	case markInteger:
		n, err := d.u32()
		if err != nil {
			return nil, err
		}
		return osd.FromInteger(int32(n)), nil
	case markReal:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		return osd.FromReal(math.Float64frombits(binary.BigEndian.Uint64(b))), nil
	case markUUID:
		b, err := d.take(16)
		if err != nil {
			return nil, err
		}
		u, _ := uuid.FromBytes(b)
		return osd.FromUUID(u), nil
	case markString, markURI, markBinary:
		b, err := d.payload()
		if err != nil {
			return nil, err
		}
		switch m {
		case markString:
			return osd.FromString(string(b)), nil
		case markURI:
			return osd.FromURIString(string(b)), nil
		default:
			return osd.FromBinary(b), nil
		}
	case markDate:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		sec := math.Float64frombits(binary.LittleEndian.Uint64(b))
		return osd.FromDate(osd.DateFromUnix(sec)), nil
	case markArray:
		return d.array()
	case markMap:
		return d.object()
	default:
		d.pos--
		return nil, d.errorf(osd.CodeUnexpected, "unknown marker %q", m)
	}
}

func (d *decoder) enter() error {
	d.depth++
	if d.opts.MaxDepth > 0 && d.depth > d.opts.MaxDepth {
		return d.errorf(osd.CodeMaxDepth, "max depth exceeded")
	}
	return nil
}

func (d *decoder) closer(want byte) error {
	c, err := d.readByte()
	if err != nil {
		return err
	}
	if c != want {
		d.pos--
		return d.errorf(osd.CodeUnexpected, "expected %q, got %q", want, c)
	}
	return nil
}

func (d *decoder) array() (*osd.Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	n, err := d.count()
	if err != nil {
		return nil, err
	}
	out := osd.NewArray()
	a := out.Array()
	for i := 0; i < n; i++ {
		d.path.PushIndex(i)
		child, err := d.value()
		if err != nil {
			return nil, err
		}
		d.path.Pop()
		a.Append(child)
	}
	if err := d.closer(markArrayEnd); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *decoder) object() (*osd.Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	n, err := d.count()
	if err != nil {
		return nil, err
	}
	out := osd.NewMap()
	m := out.Map()
	for i := 0; i < n; i++ {
		mark, err := d.readByte()
		if err != nil {
			return nil, err
		}
		if mark != markKey {
			d.pos--
			return nil, d.errorf(osd.CodeUnexpected, "expected key marker, got %q", mark)
		}
		kb, err := d.payload()
		if err != nil {
			return nil, err
		}
		key := string(kb)
		d.path.PushKey(key)
		child, err := d.value()
		if err != nil {
			return nil, err
		}
		if m.Has(key) {
			switch d.opts.OnDuplicateKey {
			case osd.DuplicateError:
				return nil, d.errorf(osd.CodeDuplicateKey, "key '%s' duplicated", key)
			case osd.DuplicateFirst:
				d.path.Pop()
				continue
			}
		}
		m.Set(key, child)
		d.path.Pop()
	}
	if err := d.closer(markMapEnd); err != nil {
		return nil, err
	}
	return out, nil
}
