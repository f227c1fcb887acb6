package engine

// Enforcement wrapper for TokenSource to apply max depth checks, object
// grammar checks (a key must be followed by a value), and JSON Pointer path
// tracking in a streaming fashion.

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	MaxDepth int // 0 disables the depth check.
}

// Issue codes produced by the enforcement wrapper. They match the public
// osd.Code* constants.
const (
	CodeMaxDepth     = "max_depth"
	CodeMissingValue = "missing_value"
	CodeUnexpected   = "unexpected_token"
)

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
	path         string
	nextIndex    int
	pendingKey   string
}

// Enforcer is a TokenSource that validates nesting as tokens pass through.
type Enforcer struct {
	inner TokenSource
	opt   EnforceOptions
	stack []frame
	depth int
	path  string
}

// WrapWithEnforcement returns a TokenSource that enforces maximum nesting
// depth and object key/value alternation while tracking the current path.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) *Enforcer {
	return &Enforcer{inner: inner, opt: opt}
}

func (e *Enforcer) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	if tok.Offset < 0 {
		tok.Offset = e.inner.Location()
	}

	if n := len(e.stack); n > 0 {
		top := &e.stack[n-1]
		if top.kind == kindObject && !top.expectingKey && !tok.Kind.IsValueStart() {
			return Token{}, e.issue(CodeMissingValue, tok.Offset, "key '"+top.pendingKey+"' has no value")
		}
		if top.kind == kindObject && top.expectingKey && tok.Kind != KindKey && tok.Kind != KindEndObject {
			return Token{}, e.issue(CodeUnexpected, tok.Offset, "expected object key, got "+tok.Kind.String())
		}
	}

	path := e.currentPathForToken(tok)

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		kind := kindObject
		if tok.Kind == KindBeginArray {
			kind = kindArray
		}
		e.stack = append(e.stack, frame{kind: kind, expectingKey: kind == kindObject, path: path})
		e.depth++
		if e.opt.MaxDepth > 0 && e.depth > e.opt.MaxDepth {
			return Token{}, e.issue(CodeMaxDepth, tok.Offset, "max depth exceeded")
		}
	case KindEndObject, KindEndArray:
		want := kindObject
		if tok.Kind == KindEndArray {
			want = kindArray
		}
		n := len(e.stack)
		if n == 0 || e.stack[n-1].kind != want {
			return Token{}, e.issue(CodeUnexpected, tok.Offset, "unbalanced "+tok.Kind.String())
		}
		e.stack = e.stack[:n-1]
		e.depth--
		e.valueDone()
	case KindKey:
		if n := len(e.stack); n > 0 {
			top := &e.stack[n-1]
			top.expectingKey = false
			top.pendingKey = tok.String
		}
	case KindString, KindNumber, KindBool, KindNull:
		e.valueDone()
	}
	return tok, nil
}

// valueDone marks the enclosing object as ready for its next key.
func (e *Enforcer) valueDone() {
	if n := len(e.stack); n > 0 {
		top := &e.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
			top.pendingKey = ""
		}
	}
}

func (e *Enforcer) issue(code string, offset int64, msg string) IssueError {
	return IssueError{SimpleIssue{Code: code, Path: NormalizePath(e.path), Message: msg, Offset: offset}}
}

func (e *Enforcer) currentPathForToken(tok Token) string {
	if len(e.stack) == 0 {
		e.path = ""
		return ""
	}

	var path string
	top := &e.stack[len(e.stack)-1]
	switch tok.Kind {
	case KindKey:
		path = JoinPointer(top.path, tok.String)
	case KindBeginObject, KindBeginArray, KindString, KindNumber, KindBool, KindNull:
		if top.kind == kindArray {
			path = JoinIndex(top.path, top.nextIndex)
			top.nextIndex++
		} else {
			path = JoinPointer(top.path, top.pendingKey)
		}
	default:
		path = top.path
	}
	e.path = path
	return path
}

// Path returns the JSON Pointer of the most recent token ("/" at the root).
func (e *Enforcer) Path() string { return NormalizePath(e.path) }

// Depth returns the current container nesting depth.
func (e *Enforcer) Depth() int { return e.depth }

func (e *Enforcer) Location() int64 { return e.inner.Location() }
