package osdjson

import (
	"bytes"
	"errors"
	"io"
	"math"

	"github.com/reoring/osd"
	eng "github.com/reoring/osd/internal/engine"
)

// Unmarshal deserializes one JSON value from data.
func Unmarshal(data []byte, opts osd.Options) (*osd.Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &osd.DecodeError{Format: osd.FormatJSON, Code: osd.CodeTruncated, Path: "/", Offset: int64(len(data)), Message: "empty input"}
	}
	return Decode(bytes.NewReader(data), opts)
}

// Decode reads one JSON value from r. Values are built directly from the
// token stream; no intermediate document tree is materialized. Input after
// the value is rejected.
func Decode(r io.Reader, opts osd.Options) (*osd.Value, error) {
	d := &decoder{
		src:  eng.WrapWithEnforcement(newTokenSource(r, opts.JSON.Driver), eng.EnforceOptions{MaxDepth: opts.MaxDepth}),
		opts: opts,
	}
	tok, err := d.src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, d.errorf(osd.CodeTruncated, nil, "empty input")
		}
		return nil, d.wrap(err)
	}
	v, err := d.value(tok)
	if err != nil {
		return nil, err
	}
	if _, err := d.src.NextToken(); err == nil {
		return nil, d.errorf(osd.CodeTrailingData, nil, "unexpected data after the top-level value")
	} else if !errors.Is(err, io.EOF) {
		return nil, d.errorf(osd.CodeTrailingData, err, "%v", err)
	}
	return v, nil
}

type decoder struct {
	src  *eng.Enforcer
	opts osd.Options
}

func (d *decoder) next() (eng.Token, error) {
	tok, err := d.src.NextToken()
	if err != nil {
		return eng.Token{}, d.wrap(err)
	}
	return tok, nil
}

func (d *decoder) value(tok eng.Token) (*osd.Value, error) {
	switch tok.Kind {
	case eng.KindBeginObject:
		return d.object()
	case eng.KindBeginArray:
		return d.array()
	case eng.KindString:
		if tok.String == "" {
			return osd.Undefined(), nil
		}
		return osd.FromString(tok.String), nil
	case eng.KindNumber:
		v, ok := numberValue(tok.Number)
		if !ok {
			return nil, d.errorf(osd.CodeSyntax, nil, "invalid number %q", tok.Number)
		}
		return v, nil
	case eng.KindBool:
		return osd.FromBoolean(tok.Bool), nil
	case eng.KindNull:
		if d.opts.JSON.NaNFromNull {
			return osd.FromReal(math.NaN()), nil
		}
		return osd.Undefined(), nil
	default:
		return nil, d.errorf(osd.CodeUnexpected, nil, "unexpected %s", tok.Kind)
	}
}

func (d *decoder) object() (*osd.Value, error) {
	out := osd.NewMap()
	m := out.Map()
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == eng.KindEndObject {
			return out, nil
		}
		if tok.Kind != eng.KindKey {
			return nil, d.errorf(osd.CodeUnexpected, nil, "expected object key, got %s", tok.Kind)
		}
		key, keyPath := tok.String, d.src.Path()
		vt, err := d.next()
		if err != nil {
			return nil, err
		}
		child, err := d.value(vt)
		if err != nil {
			return nil, err
		}
		if m.Has(key) {
			switch d.opts.OnDuplicateKey {
			case osd.DuplicateError:
				return nil, &osd.DecodeError{Format: osd.FormatJSON, Code: osd.CodeDuplicateKey, Path: keyPath, Offset: vt.Offset, Message: "key '" + key + "' duplicated"}
			case osd.DuplicateFirst:
				continue
			}
		}
		m.Set(key, child)
	}
}

func (d *decoder) array() (*osd.Value, error) {
	out := osd.NewArray()
	a := out.Array()
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == eng.KindEndArray {
			return out, nil
		}
		child, err := d.value(tok)
		if err != nil {
			return nil, err
		}
		a.Append(child)
	}
}

// wrap converts driver and enforcement errors into a DecodeError.
func (d *decoder) wrap(err error) error {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return &osd.DecodeError{Format: osd.FormatJSON, Code: ie.Code, Path: ie.Path, Offset: ie.Offset, Message: ie.Message}
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return d.errorf(osd.CodeTruncated, err, "unexpected end of input")
	}
	return d.errorf(osd.CodeSyntax, err, "%v", err)
}

func (d *decoder) errorf(code string, cause error, format string, args ...any) *osd.DecodeError {
	de := osd.NewDecodeError(osd.FormatJSON, code, d.src.Location(), format, args...)
	de.Path = d.src.Path()
	de.Cause = cause
	return de
}
