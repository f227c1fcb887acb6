package osd

import (
	"fmt"
	"strings"
)

// DuplicatePolicy controls how decoders treat a key repeated within one map.
type DuplicatePolicy int

const (
	DuplicateLast  DuplicatePolicy = iota // Later entries replace earlier ones in place.
	DuplicateFirst                        // The first entry wins; later ones are skipped.
	DuplicateError                        // Reject the input with CodeDuplicateKey.
)

func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateFirst:
		return "first"
	case DuplicateError:
		return "error"
	default:
		return "last"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p DuplicatePolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *DuplicatePolicy) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "last":
		*p = DuplicateLast
	case "first":
		*p = DuplicateFirst
	case "error":
		*p = DuplicateError
	default:
		return fmt.Errorf("osd: unknown duplicate key policy %q", string(b))
	}
	return nil
}

// JSON token drivers selectable through JSONOptions.Driver.
const (
	DriverGoJSON     = "go-json"
	DriverStdlibJSON = "encoding/json"
	DriverFastJSON   = "fastjson" // Parses the whole input up front; not streaming.
)

// JSONOptions configures the JSON codec.
type JSONOptions struct {
	Pretty      bool   `yaml:"pretty" toml:"pretty"`
	Indent      int    `yaml:"indent" toml:"indent"`               // Spaces per level when Pretty; 0 means 4.
	Strict      bool   `yaml:"strict" toml:"strict"`               // Writer enforces JSON grammar.
	Driver      string `yaml:"driver" toml:"driver"`               // Token driver; "" means go-json.
	NaNFromNull bool   `yaml:"nan_from_null" toml:"nan_from_null"` // Reader maps null to Real NaN instead of Unknown.
}

// XMLOptions configures the XML codec.
type XMLOptions struct {
	Declaration bool   `yaml:"declaration" toml:"declaration"` // Emit <?xml version="1.0" encoding="UTF-8"?>.
	Indent      string `yaml:"indent" toml:"indent"`           // Indentation per level; "" writes a single line.
}

// NotationOptions configures the notation codec.
type NotationOptions struct {
	Header bool `yaml:"header" toml:"header"` // Emit the <? llsd/notation ?> header line.
}

// BinaryOptions configures the binary and protobuf codecs.
type BinaryOptions struct {
	Header bool `yaml:"header" toml:"header"` // Emit the format signature line.
}

// Options bundles codec options. It is an immutable value: codecs read it and
// never retain or modify it.
type Options struct {
	Elide          bool            `yaml:"elide" toml:"elide"`                       // Default-elision ("no defaults") output.
	MaxDepth       int             `yaml:"max_depth" toml:"max_depth"`               // Container nesting limit on decode; 0 disables.
	OnDuplicateKey DuplicatePolicy `yaml:"on_duplicate_key" toml:"on_duplicate_key"` // Map key repetition on decode.

	JSON     JSONOptions     `yaml:"json" toml:"json"`
	XML      XMLOptions      `yaml:"xml" toml:"xml"`
	Notation NotationOptions `yaml:"notation" toml:"notation"`
	Binary   BinaryOptions   `yaml:"binary" toml:"binary"`
}

// DefaultOptions returns the options used by the codec package-level helpers.
func DefaultOptions() Options {
	return Options{
		MaxDepth:       256,
		OnDuplicateKey: DuplicateLast,
		JSON:           JSONOptions{Indent: 4, Strict: true, Driver: DriverGoJSON},
		XML:            XMLOptions{Declaration: true},
		Binary:         BinaryOptions{Header: true},
	}
}

// WithElide returns a copy of o with Elide set.
func (o Options) WithElide(elide bool) Options {
	o.Elide = elide
	return o
}

// IndentWidth returns the effective pretty-print indent width.
func (o JSONOptions) IndentWidth() int {
	if o.Indent <= 0 {
		return 4
	}
	return o.Indent
}
