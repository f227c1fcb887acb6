package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/reoring/osd"
	"github.com/reoring/osd/internal/logging"
)

// Engine routes values to codecs under a fixed set of options. An Engine is
// immutable after construction and safe for concurrent use.
type Engine struct {
	opts   osd.Options
	log    zerolog.Logger
	codecs map[osd.Format]Codec
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for debug events. The default discards them.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithConsoleLogger logs to stderr through a console writer. The level
// defaults to info and follows OSD_LOG_LEVEL; OSD_LOG_TIMESTAMP and
// OSD_LOG_NOCOLOR adjust the layout.
func WithConsoleLogger() Option {
	return func(e *Engine) { e.log = logging.New(logging.ProfileRuntime) }
}

// WithCodec registers c for its format, replacing the builtin codec.
func WithCodec(c Codec) Option {
	return func(e *Engine) { e.codecs[c.Format()] = c }
}

// NewEngine returns an Engine using opts and the builtin codecs.
func NewEngine(opts osd.Options, options ...Option) *Engine {
	e := &Engine{opts: opts, log: zerolog.Nop(), codecs: make(map[osd.Format]Codec)}
	for _, c := range Builtin() {
		e.codecs[c.Format()] = c
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Options returns the engine's options.
func (e *Engine) Options() osd.Options { return e.opts }

// Codec returns the codec registered for f.
func (e *Engine) Codec(f osd.Format) (Codec, error) {
	c, ok := e.codecs[f]
	if !ok {
		return nil, fmt.Errorf("%w: %s", osd.ErrUnsupportedFormat, f)
	}
	return c, nil
}

// decoder returns the codec for f, or a DecodeError with CodeUnknownFormat
// wrapping ErrUnsupportedFormat.
func (e *Engine) decoder(f osd.Format) (Codec, error) {
	c, ok := e.codecs[f]
	if !ok {
		return nil, &osd.DecodeError{Format: f, Code: osd.CodeUnknownFormat, Offset: -1, Message: "no codec registered", Cause: osd.ErrUnsupportedFormat}
	}
	return c, nil
}

// Serialize encodes v in format f. With elide, default-valued map entries are
// omitted and default array elements are written as placeholders.
func (e *Engine) Serialize(v *osd.Value, f osd.Format, elide bool) ([]byte, error) {
	c, err := e.Codec(f)
	if err != nil {
		return nil, err
	}
	out, err := c.Marshal(v, e.opts.WithElide(elide))
	if err != nil {
		e.log.Debug().Err(err).Stringer("format", f).Msg("serialize failed")
		return nil, err
	}
	e.log.Debug().Stringer("format", f).Bool("elide", elide).Int("bytes", len(out)).Msg("serialized")
	return out, nil
}

// SerializeTo writes v to w in format f.
func (e *Engine) SerializeTo(w io.Writer, v *osd.Value, f osd.Format, elide bool) error {
	c, err := e.Codec(f)
	if err != nil {
		return err
	}
	if err := c.Encode(w, v, e.opts.WithElide(elide)); err != nil {
		e.log.Debug().Err(err).Stringer("format", f).Msg("serialize failed")
		return err
	}
	return nil
}

// Deserialize decodes data as format f.
func (e *Engine) Deserialize(data []byte, f osd.Format) (*osd.Value, error) {
	c, err := e.decoder(f)
	if err != nil {
		return nil, err
	}
	v, err := c.Unmarshal(data, e.opts)
	if err != nil {
		e.logDecodeError(f, err)
		return nil, err
	}
	return v, nil
}

// DeserializeAuto detects the format of data and decodes it.
func (e *Engine) DeserializeAuto(data []byte) (*osd.Value, error) {
	f := Detect(data)
	e.log.Debug().Stringer("format", f).Int("bytes", len(data)).Msg("detected format")
	return e.Deserialize(data, f)
}

// DeserializeReader detects the format of r by peeking at its first bytes and
// decodes the rest of the stream.
func (e *Engine) DeserializeReader(r io.Reader) (*osd.Value, error) {
	br, ok := r.(*bufio.Reader)
	if !ok || br.Size() < sniffLen {
		br = bufio.NewReaderSize(r, 4096)
	}
	f := DetectReader(br)
	e.log.Debug().Stringer("format", f).Msg("detected format")
	c, err := e.decoder(f)
	if err != nil {
		return nil, err
	}
	v, err := c.Decode(br, e.opts)
	if err != nil {
		e.logDecodeError(f, err)
		return nil, err
	}
	return v, nil
}

// Convert decodes data in any detected format and re-encodes it as f.
func (e *Engine) Convert(data []byte, f osd.Format, elide bool) ([]byte, error) {
	v, err := e.DeserializeAuto(data)
	if err != nil {
		return nil, err
	}
	return e.Serialize(v, f, elide)
}

func (e *Engine) logDecodeError(f osd.Format, err error) {
	ev := e.log.Debug().Stringer("format", f)
	if de, ok := osd.AsDecodeError(err); ok {
		ev = ev.Str("code", de.Code).Str("path", de.Path).Int64("offset", de.Offset)
	}
	ev.Err(err).Msg("deserialize failed")
}

var defaultEngine = NewEngine(osd.DefaultOptions())

// Default returns the engine behind the package-level functions. It uses
// osd.DefaultOptions and discards log events.
func Default() *Engine { return defaultEngine }

// Serialize encodes v in format f with the default engine.
func Serialize(v *osd.Value, f osd.Format, elide bool) ([]byte, error) {
	return defaultEngine.Serialize(v, f, elide)
}

// Deserialize decodes data as format f with the default engine.
func Deserialize(data []byte, f osd.Format) (*osd.Value, error) {
	return defaultEngine.Deserialize(data, f)
}

// DeserializeAuto detects the format of data and decodes it with the default
// engine.
func DeserializeAuto(data []byte) (*osd.Value, error) {
	return defaultEngine.DeserializeAuto(data)
}

// DeserializeReader detects the format of r and decodes it with the default
// engine.
func DeserializeReader(r io.Reader) (*osd.Value, error) {
	return defaultEngine.DeserializeReader(r)
}

// String renders v in notation form for logging and debugging.
func String(v *osd.Value) string {
	b, err := defaultEngine.Serialize(v, osd.FormatNotation, false)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(bytes.TrimSpace(b))
}
