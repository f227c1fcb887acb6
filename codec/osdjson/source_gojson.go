package osdjson

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	eng "github.com/reoring/osd/internal/engine"
)

// gojsonSource is the default engine.TokenSource, backed by the go-json
// Decoder token API. Decoder.Token skips ',' and ':' without checking them,
// so the source re-reads the bytes between tokens and validates separators
// itself.
type gojsonSource struct {
	dec   *j.Decoder
	rec   *recorder
	keys  keyTracker
	after position
}

// position is what the previous token left the grammar expecting.
type position int

const (
	afterNothing position = iota
	afterOpen
	afterKey
	afterValue
)

func newGoJSONSource(r io.Reader) eng.TokenSource {
	rec := &recorder{r: r}
	dec := j.NewDecoder(rec)
	dec.UseNumber()
	return &gojsonSource{dec: dec, rec: rec}
}

func (s *gojsonSource) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			if seps := separators(s.rec.pending()); seps != "" {
				return eng.Token{}, fmt.Errorf("unexpected %q at end of input", seps)
			}
		}
		return eng.Token{}, err
	}
	end := s.dec.InputOffset()
	seps := separators(s.rec.upTo(end))
	s.rec.discard(end)
	closer := tok == j.Delim('}') || tok == j.Delim(']')
	if want := s.expectedSeparator(closer); seps != want {
		if want == "" {
			return eng.Token{}, fmt.Errorf("unexpected %q before token", seps)
		}
		return eng.Token{}, fmt.Errorf("expected %q before token, found %q", want, seps)
	}

	out, isKey := s.convert(tok)
	switch {
	case out.Kind == eng.KindBeginObject || out.Kind == eng.KindBeginArray:
		s.after = afterOpen
	case isKey:
		s.after = afterKey
	default:
		s.after = afterValue
	}
	return out, nil
}

// expectedSeparator returns the separator that must precede the next token.
func (s *gojsonSource) expectedSeparator(closer bool) string {
	switch s.after {
	case afterKey:
		return ":"
	case afterValue:
		if !closer && len(s.keys.stack) > 0 {
			return ","
		}
	}
	return ""
}

func (s *gojsonSource) convert(tok j.Token) (eng.Token, bool) {
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.keys.open(kindObject)
			return eng.Token{Kind: eng.KindBeginObject, Offset: -1}, false
		case '}':
			s.keys.close()
			return eng.Token{Kind: eng.KindEndObject, Offset: -1}, false
		case '[':
			s.keys.open(kindArray)
			return eng.Token{Kind: eng.KindBeginArray, Offset: -1}, false
		case ']':
			s.keys.close()
			return eng.Token{Kind: eng.KindEndArray, Offset: -1}, false
		}
	case string:
		if s.keys.isKey() {
			return eng.Token{Kind: eng.KindKey, String: v, Offset: -1}, true
		}
		return eng.Token{Kind: eng.KindString, String: v, Offset: -1}, false
	case bool:
		s.keys.valueDone()
		return eng.Token{Kind: eng.KindBool, Bool: v, Offset: -1}, false
	case j.Number:
		s.keys.valueDone()
		return eng.Token{Kind: eng.KindNumber, Number: string(v), Offset: -1}, false
	case float64:
		s.keys.valueDone()
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: -1}, false
	}
	s.keys.valueDone()
	return eng.Token{Kind: eng.KindNull, Offset: -1}, false
}

func (s *gojsonSource) Location() int64 { return -1 }

// separators collects the ',' and ':' bytes in the leading whitespace of a
// token span, stopping at the token itself.
func separators(span []byte) string {
	var out []byte
	for _, c := range span {
		switch c {
		case ' ', '\t', '\r', '\n':
		case ',', ':':
			out = append(out, c)
		default:
			return string(out)
		}
	}
	return string(out)
}

// recorder keeps the bytes the decoder has read but the source has not yet
// inspected. base is the input offset of buf[0].
type recorder struct {
	r    io.Reader
	buf  []byte
	base int64
}

func (r *recorder) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.buf = append(r.buf, p[:n]...)
	return n, err
}

func (r *recorder) upTo(off int64) []byte {
	n := off - r.base
	if n < 0 {
		return nil
	}
	if n > int64(len(r.buf)) {
		n = int64(len(r.buf))
	}
	return r.buf[:n]
}

func (r *recorder) pending() []byte { return r.buf }

func (r *recorder) discard(off int64) {
	n := len(r.upTo(off))
	r.buf = r.buf[n:]
	r.base += int64(n)
}
