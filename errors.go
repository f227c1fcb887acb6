package osd

import (
	"errors"
	"fmt"
	"strings"
)

// Decode error codes carried in DecodeError.Code.
const (
	CodeSyntax        = "syntax_error"
	CodeTruncated     = "truncated"
	CodeMissingValue  = "missing_value"
	CodeUnexpected    = "unexpected_token"
	CodeSignature     = "invalid_signature"
	CodeEncoding      = "invalid_encoding"
	CodeDuplicateKey  = "duplicate_key"
	CodeMaxDepth      = "max_depth"
	CodeTrailingData  = "trailing_data"
	CodeUnknownFormat = "unknown_format"
)

// ErrMalformed is matched by errors.Is for every DecodeError.
var ErrMalformed = errors.New("osd: malformed input")

// ErrUnsupportedFormat is returned when a Format has no codec.
var ErrUnsupportedFormat = errors.New("osd: unsupported format")

// DecodeError reports input that does not match a format's grammar.
type DecodeError struct {
	Format  Format
	Code    string // One of the codes listed above.
	Path    string // JSON Pointer of the value being decoded ("/" for the root, "" when unknown).
	Offset  int64  // Byte offset in the input (-1 when unknown).
	Message string
	Cause   error // Optional: underlying error.
}

// Error renders "osd: <format>: <code> at <path> (offset N): message".
func (e *DecodeError) Error() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "osd: %s: %s", e.Format, e.Code)
	if e.Path != "" {
		fmt.Fprintf(b, " at %s", e.Path)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(b, " (offset %d)", e.Offset)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error { return e.Cause }

// Is makes every DecodeError match ErrMalformed.
func (e *DecodeError) Is(target error) bool { return target == ErrMalformed }

// NewDecodeError builds a DecodeError with a formatted message and no path.
func NewDecodeError(f Format, code string, offset int64, format string, args ...any) *DecodeError {
	return &DecodeError{Format: f, Code: code, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// AsDecodeError extracts a DecodeError from an error using errors.As internally.
func AsDecodeError(err error) (*DecodeError, bool) {
	if err == nil {
		return nil, false
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
