package osdjson

import (
	"bytes"
	"io"

	"github.com/valyala/fastjson"

	eng "github.com/reoring/osd/internal/engine"
)

// fastjsonSource parses the whole input with fastjson on the first call and
// replays the document as tokens. Offsets are not reported.
type fastjsonSource struct {
	r      io.Reader
	toks   []eng.Token
	pos    int
	err    error
	loaded bool
}

func newFastJSONSource(r io.Reader) eng.TokenSource {
	return &fastjsonSource{r: r}
}

func (s *fastjsonSource) load() {
	s.loaded = true
	data, err := io.ReadAll(s.r)
	if err != nil {
		s.err = err
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		s.err = io.EOF
		return
	}
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		s.err = err
		return
	}
	s.toks = appendTokens(s.toks, v)
}

func (s *fastjsonSource) NextToken() (eng.Token, error) {
	if !s.loaded {
		s.load()
	}
	if s.pos < len(s.toks) {
		tok := s.toks[s.pos]
		s.pos++
		return tok, nil
	}
	if s.err != nil {
		return eng.Token{}, s.err
	}
	return eng.Token{}, io.EOF
}

func (s *fastjsonSource) Location() int64 { return -1 }

// appendTokens flattens v in document order. Object keys keep their input
// order, repeats included.
func appendTokens(toks []eng.Token, v *fastjson.Value) []eng.Token {
	switch v.Type() {
	case fastjson.TypeObject:
		toks = append(toks, eng.Token{Kind: eng.KindBeginObject, Offset: -1})
		o, _ := v.Object()
		o.Visit(func(key []byte, child *fastjson.Value) {
			toks = append(toks, eng.Token{Kind: eng.KindKey, String: string(key), Offset: -1})
			toks = appendTokens(toks, child)
		})
		return append(toks, eng.Token{Kind: eng.KindEndObject, Offset: -1})
	case fastjson.TypeArray:
		toks = append(toks, eng.Token{Kind: eng.KindBeginArray, Offset: -1})
		items, _ := v.Array()
		for _, item := range items {
			toks = appendTokens(toks, item)
		}
		return append(toks, eng.Token{Kind: eng.KindEndArray, Offset: -1})
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return append(toks, eng.Token{Kind: eng.KindString, String: string(b), Offset: -1})
	case fastjson.TypeNumber:
		return append(toks, eng.Token{Kind: eng.KindNumber, Number: v.String(), Offset: -1})
	case fastjson.TypeTrue:
		return append(toks, eng.Token{Kind: eng.KindBool, Bool: true, Offset: -1})
	case fastjson.TypeFalse:
		return append(toks, eng.Token{Kind: eng.KindBool, Bool: false, Offset: -1})
	default:
		return append(toks, eng.Token{Kind: eng.KindNull, Offset: -1})
	}
}
