package osd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ParseOptionsYAML decodes options from YAML on top of DefaultOptions.
// Unknown keys are rejected.
func ParseOptionsYAML(data []byte) (Options, error) {
	opts := DefaultOptions()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("osd: decode yaml options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// ParseOptionsTOML decodes options from TOML on top of DefaultOptions.
// Unknown keys are rejected.
func ParseOptionsTOML(data []byte) (Options, error) {
	opts := DefaultOptions()
	meta, err := toml.Decode(string(data), &opts)
	if err != nil {
		return Options{}, fmt.Errorf("osd: decode toml options: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Options{}, fmt.Errorf("osd: unknown toml option keys: %s", strings.Join(keys, ", "))
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// LoadOptionsFile reads options from path, choosing the decoder by extension
// (.yaml, .yml, .toml).
func LoadOptionsFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseOptionsYAML(data)
	case ".toml":
		return ParseOptionsTOML(data)
	default:
		return Options{}, fmt.Errorf("osd: unsupported options file extension %q", filepath.Ext(path))
	}
}

// Validate checks option ranges and names.
func (o Options) Validate() error {
	if o.MaxDepth < 0 {
		return fmt.Errorf("osd: max_depth must be >= 0, got %d", o.MaxDepth)
	}
	if o.JSON.Indent < 0 || o.JSON.Indent > 16 {
		return fmt.Errorf("osd: json.indent must be within 0..16, got %d", o.JSON.Indent)
	}
	switch o.JSON.Driver {
	case "", DriverGoJSON, DriverStdlibJSON, DriverFastJSON:
	default:
		return fmt.Errorf("osd: unknown json.driver %q", o.JSON.Driver)
	}
	if strings.Trim(o.XML.Indent, " \t") != "" {
		return fmt.Errorf("osd: xml.indent may contain only spaces and tabs")
	}
	switch o.OnDuplicateKey {
	case DuplicateLast, DuplicateFirst, DuplicateError:
	default:
		return fmt.Errorf("osd: invalid on_duplicate_key %d", o.OnDuplicateKey)
	}
	return nil
}
