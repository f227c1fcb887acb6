package osdproto

import (
	"bytes"
	"errors"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/reoring/osd"
	eng "github.com/reoring/osd/internal/engine"
)

// Unmarshal decodes a Value message from data. The signature line is
// optional. Empty input is the Unknown value.
func Unmarshal(data []byte, opts osd.Options) (*osd.Value, error) {
	d := &decoder{opts: opts}
	var base int64
	switch {
	case HasHeader(data):
		base = int64(len(Header))
		data = data[len(Header):]
	case bytes.HasPrefix(data, []byte("<?")):
		return nil, d.errorf(osd.CodeSignature, 0, "invalid protobuf signature")
	}
	return d.value(data, base)
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
	opts  osd.Options
	path  eng.PathStack
	depth int
}

func (d *decoder) errorf(code string, offset int64, format string, args ...any) *osd.DecodeError {
	de := osd.NewDecodeError(osd.FormatProto, code, offset, format, args...)
	de.Path = d.path.String()
	return de
}

// wireError maps a negative protowire length to a DecodeError.
func (d *decoder) wireError(n int, offset int64) *osd.DecodeError {
	err := protowire.ParseError(n)
	code := osd.CodeSyntax
	if errors.Is(err, io.ErrUnexpectedEOF) {
		code = osd.CodeTruncated
	}
	de := d.errorf(code, offset, "%v", err)
	de.Cause = err
	return de
}

// field is one decoded field of a message. Only the payload matching typ is
// set.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	fixed  uint64
	bytes  []byte
	offset int64 // offset of the payload
}

// fields walks the message b, calling fn for each field. Groups and unknown
// fields are skipped.
func (d *decoder) fields(b []byte, base int64, fn func(field) error) error {
	pos := 0
	for pos < len(b) {
		num, typ, n := protowire.ConsumeTag(b[pos:])
		if n < 0 {
			return d.wireError(n, base+int64(pos))
		}
		pos += n
		f := field{num: num, typ: typ, offset: base + int64(pos)}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b[pos:])
		case protowire.Fixed64Type:
			f.fixed, n = protowire.ConsumeFixed64(b[pos:])
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b[pos:])
		default:
			n = protowire.ConsumeFieldValue(num, typ, b[pos:])
		}
		if n < 0 {
			return d.wireError(n, f.offset)
		}
		pos += n
		if typ == protowire.StartGroupType || typ == protowire.Fixed32Type {
			continue
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) want(f field, typ protowire.Type) error {
	if f.typ != typ {
		return d.errorf(osd.CodeEncoding, f.offset, "field %d has wire type %d, want %d", f.num, f.typ, typ)
	}
	return nil
}

// value decodes a Value message. When several oneof fields are present the
// last one wins.
func (d *decoder) value(b []byte, base int64) (*osd.Value, error) {
	v := osd.Undefined()
	err := d.fields(b, base, func(f field) error {
		var expect protowire.Type
		switch f.num {
		case fieldBoolean, fieldInteger:
			expect = protowire.VarintType
		case fieldReal:
			expect = protowire.Fixed64Type
		case fieldString, fieldUUID, fieldDate, fieldURI, fieldBinary, fieldArray, fieldMap:
			expect = protowire.BytesType
		default:
			return nil
		}
		if err := d.want(f, expect); err != nil {
			return err
		}
		switch f.num {
		case fieldBoolean:
			v = osd.FromBoolean(f.varint != 0)
		case fieldInteger:
			v = osd.FromInteger(int32(protowire.DecodeZigZag(f.varint)))
		case fieldReal:
			v = osd.FromReal(math.Float64frombits(f.fixed))
		case fieldString:
			v = osd.FromString(string(f.bytes))
		case fieldUUID:
			u, err := uuid.FromBytes(f.bytes)
			if err != nil {
				return d.errorf(osd.CodeEncoding, f.offset, "uuid has %d bytes", len(f.bytes))
			}
			v = osd.FromUUID(u)
		case fieldDate:
			t, err := d.timestamp(f)
			if err != nil {
				return err
			}
			v = osd.FromDate(t)
		case fieldURI:
			v = osd.FromURIString(string(f.bytes))
		case fieldBinary:
			v = osd.FromBinary(f.bytes)
		case fieldArray:
			a, err := d.array(f)
			if err != nil {
				return err
			}
			v = a
		case fieldMap:
			m, err := d.object(f)
			if err != nil {
				return err
			}
			v = m
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (d *decoder) timestamp(f field) (time.Time, error) {
	var sec int64
	var nsec int32
	err := d.fields(f.bytes, f.offset, func(tf field) error {
		switch tf.num {
		case fieldSeconds:
			if err := d.want(tf, protowire.VarintType); err != nil {
				return err
			}
			sec = int64(tf.varint)
		case fieldNanos:
			if err := d.want(tf, protowire.VarintType); err != nil {
				return err
			}
			nsec = int32(tf.varint)
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	if sec == 0 && nsec == 0 {
		return time.Time{}, nil
	}
	return time.Unix(sec, int64(nsec)).UTC(), nil
}

func (d *decoder) enter(offset int64) error {
	d.depth++
	if d.opts.MaxDepth > 0 && d.depth > d.opts.MaxDepth {
		return d.errorf(osd.CodeMaxDepth, offset, "max depth exceeded")
	}
	return nil
}

func (d *decoder) array(f field) (*osd.Value, error) {
	if err := d.enter(f.offset); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	out := osd.NewArray()
	a := out.Array()
	err := d.fields(f.bytes, f.offset, func(item field) error {
		if item.num != fieldItems {
			return nil
		}
		if err := d.want(item, protowire.BytesType); err != nil {
			return err
		}
		d.path.PushIndex(a.Len())
		child, err := d.value(item.bytes, item.offset)
		if err != nil {
			return err
		}
		d.path.Pop()
		a.Append(child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *decoder) object(f field) (*osd.Value, error) {
	if err := d.enter(f.offset); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	out := osd.NewMap()
	m := out.Map()
	err := d.fields(f.bytes, f.offset, func(ef field) error {
		if ef.num != fieldEntries {
			return nil
		}
		if err := d.want(ef, protowire.BytesType); err != nil {
			return err
		}
		var key string
		var raw []byte
		var rawOffset int64
		err := d.fields(ef.bytes, ef.offset, func(kf field) error {
			switch kf.num {
			case fieldKey:
				if err := d.want(kf, protowire.BytesType); err != nil {
					return err
				}
				key = string(kf.bytes)
			case fieldValue:
				if err := d.want(kf, protowire.BytesType); err != nil {
					return err
				}
				raw, rawOffset = kf.bytes, kf.offset
			}
			return nil
		})
		if err != nil {
			return err
		}
		d.path.PushKey(key)
		defer d.path.Pop()
		child, err := d.value(raw, rawOffset)
		if err != nil {
			return err
		}
		if m.Has(key) {
			switch d.opts.OnDuplicateKey {
			case osd.DuplicateError:
				return d.errorf(osd.CodeDuplicateKey, ef.offset, "key '%s' duplicated", key)
			case osd.DuplicateFirst:
				return nil
			}
		}
		m.Set(key, child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
