package osdjson

import (
	"io"

	"github.com/reoring/osd"
	eng "github.com/reoring/osd/internal/engine"
)

// newTokenSource picks the token driver named by osd.JSONOptions.Driver.
func newTokenSource(r io.Reader, driver string) eng.TokenSource {
	switch driver {
	case osd.DriverStdlibJSON:
		return newStdlibSource(r)
	case osd.DriverFastJSON:
		return newFastJSONSource(r)
	default:
		return newGoJSONSource(r)
	}
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

// keyTracker tells key strings apart from value strings, since the
// underlying decoders report both as plain strings.
type keyTracker struct {
	stack []frame
}

func (k *keyTracker) open(kind containerKind) {
	k.stack = append(k.stack, frame{kind: kind, expectingKey: kind == kindObject})
}

func (k *keyTracker) close() {
	if n := len(k.stack); n > 0 {
		k.stack = k.stack[:n-1]
	}
	k.valueDone()
}

// isKey reports whether a string token at this point is an object key and
// advances the object state accordingly.
func (k *keyTracker) isKey() bool {
	if n := len(k.stack); n > 0 {
		top := &k.stack[n-1]
		if top.kind == kindObject && top.expectingKey {
			top.expectingKey = false
			return true
		}
	}
	k.valueDone()
	return false
}

func (k *keyTracker) valueDone() {
	if n := len(k.stack); n > 0 {
		top := &k.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}
}
