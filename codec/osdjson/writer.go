package osdjson

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"unicode/utf8"

	j "github.com/goccy/go-json"

	"github.com/reoring/osd"
)

// Grammar violations reported by a strict Writer.
var (
	ErrWriterComplete     = errors.New("osdjson: a complete JSON value has already been written")
	ErrArrayEndMisplaced  = errors.New("osdjson: cannot close an array here")
	ErrObjectEndMisplaced = errors.New("osdjson: cannot close an object here")
	ErrPropertyMisplaced  = errors.New("osdjson: cannot write a property name here")
	ErrValueMisplaced     = errors.New("osdjson: cannot write a value here, a property name is expected")
)

// writeContext is one level of the writer's nesting stack. The bottom
// context stands for the top level outside any container.
type writeContext struct {
	count          int  // values (or properties) written so far
	inArray        bool // context is an array
	inObject       bool // context is an object
	expectingValue bool // a property name was written and its value is due
	padding        int  // longest property name seen so far (pretty output)
}

// Writer is a low-level JSON emitter driven by start/end/scalar events. It
// knows nothing about osd.Value. In strict mode every event is checked
// against the JSON grammar; otherwise events are written as given.
//
// The first error (grammar or I/O) is sticky: later calls return it.
type Writer struct {
	out    io.Writer
	pretty bool
	indent int
	strict bool

	stack    []writeContext
	complete bool
	err      error

	scratch bytes.Buffer
	quoter  *j.Encoder
}

// NewWriter returns a Writer emitting to out with the pretty-print and
// strictness settings of opts.
func NewWriter(out io.Writer, opts osd.JSONOptions) *Writer {
	w := &Writer{
		out:    out,
		pretty: opts.Pretty,
		indent: opts.IndentWidth(),
		strict: opts.Strict,
	}
	w.quoter = j.NewEncoder(&w.scratch)
	w.quoter.SetEscapeHTML(false)
	w.Reset(out)
	return w
}

// Reset discards all state and directs output to out.
func (w *Writer) Reset(out io.Writer) {
	w.out = out
	w.stack = append(w.stack[:0], writeContext{})
	w.complete = false
	w.err = nil
}

// Complete reports whether the outermost value has been fully written.
func (w *Writer) Complete() bool { return w.complete }

// Err returns the sticky error, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) top() *writeContext { return &w.stack[len(w.stack)-1] }

func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
	}
	return w.err
}

func (w *Writer) put(s string) {
	if w.err != nil {
		return
	}
	if _, err := io.WriteString(w.out, s); err != nil {
		w.err = err
	}
}

func (w *Writer) newline(depth int) {
	if !w.pretty {
		return
	}
	w.put("\n")
	for i := 0; i < depth*w.indent; i++ {
		w.put(" ")
	}
}

// beginValue validates and separates the value about to be written in the
// current context.
func (w *Writer) beginValue() error {
	if w.err != nil {
		return w.err
	}
	ctx := w.top()
	if w.strict {
		if w.complete {
			return w.fail(ErrWriterComplete)
		}
		if ctx.inObject && !ctx.expectingValue {
			return w.fail(ErrValueMisplaced)
		}
	}
	if ctx.expectingValue {
		ctx.expectingValue = false
		return nil
	}
	if ctx.inArray || ctx.inObject {
		if ctx.count > 0 {
			w.put(",")
		}
		w.newline(len(w.stack) - 1)
	}
	ctx.count++
	return nil
}

// endScalar marks the writer complete after a top-level scalar.
func (w *Writer) endScalar() error {
	if len(w.stack) == 1 {
		w.complete = true
	}
	return w.err
}

func (w *Writer) start(open string, array bool) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.put(open)
	w.stack = append(w.stack, writeContext{inArray: array, inObject: !array})
	return w.err
}

func (w *Writer) end(closer string, array bool) error {
	if w.err != nil {
		return w.err
	}
	ctx := w.top()
	misplaced := ErrObjectEndMisplaced
	ok := ctx.inObject && !ctx.expectingValue
	if array {
		misplaced = ErrArrayEndMisplaced
		ok = ctx.inArray
	}
	if len(w.stack) == 1 {
		if w.strict {
			return w.fail(misplaced)
		}
		w.put(closer)
		return w.err
	}
	if w.strict && !ok {
		return w.fail(misplaced)
	}
	if ctx.count > 0 {
		w.newline(len(w.stack) - 2)
	}
	w.put(closer)
	w.stack = w.stack[:len(w.stack)-1]
	if len(w.stack) == 1 {
		w.complete = true
	}
	return w.err
}

// ArrayStart opens an array.
func (w *Writer) ArrayStart() error { return w.start("[", true) }

// ArrayEnd closes the innermost array.
func (w *Writer) ArrayEnd() error { return w.end("]", true) }

// ObjectStart opens an object.
func (w *Writer) ObjectStart() error { return w.start("{", false) }

// ObjectEnd closes the innermost object.
func (w *Writer) ObjectEnd() error { return w.end("}", false) }

// PropertyName writes an object key; the next write is its value. Pretty
// output pads names to the longest one seen so far in the object so the
// colons line up.
func (w *Writer) PropertyName(name string) error {
	if w.err != nil {
		return w.err
	}
	ctx := w.top()
	if w.strict {
		if w.complete {
			return w.fail(ErrWriterComplete)
		}
		if !ctx.inObject || ctx.expectingValue {
			return w.fail(ErrPropertyMisplaced)
		}
	}
	if ctx.count > 0 {
		w.put(",")
	}
	w.newline(len(w.stack) - 1)
	ctx.count++
	w.putQuoted(name)
	if w.pretty {
		n := utf8.RuneCountInString(name)
		if n > ctx.padding {
			ctx.padding = n
		}
		for i := ctx.padding - n; i >= 0; i-- {
			w.put(" ")
		}
		w.put(": ")
	} else {
		w.put(":")
	}
	ctx.expectingValue = true
	return w.err
}

// Null writes the null literal.
func (w *Writer) Null() error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.put("null")
	return w.endScalar()
}

// Bool writes true or false.
func (w *Writer) Bool(b bool) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.put(strconv.FormatBool(b))
	return w.endScalar()
}

// Int writes a 32-bit integer.
func (w *Writer) Int(n int32) error { return w.Int64(int64(n)) }

// Int64 writes a 64-bit integer.
func (w *Writer) Int64(n int64) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.put(strconv.FormatInt(n, 10))
	return w.endScalar()
}

// Real writes a double that always carries a decimal point. NaN and
// infinities are written as null; that loss is one-way.
func (w *Writer) Real(f float64) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	if s, ok := formatReal(f); ok {
		w.put(s)
	} else {
		w.put("null")
	}
	return w.endScalar()
}

// String writes a quoted, escaped string.
func (w *Writer) String(s string) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.putQuoted(s)
	return w.endScalar()
}

func (w *Writer) putQuoted(s string) {
	if w.err != nil {
		return
	}
	w.scratch.Reset()
	if err := w.quoter.Encode(s); err != nil {
		w.err = err
		return
	}
	w.put(string(bytes.TrimRight(w.scratch.Bytes(), "\n")))
}

// Raw writes pre-encoded JSON text as one value. The text is not checked.
func (w *Writer) Raw(text string) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.put(text)
	return w.endScalar()
}
