package osd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseOptionsYAML(t *testing.T) {
	opts, err := ParseOptionsYAML([]byte(`
elide: true
max_depth: 32
on_duplicate_key: error
json:
  pretty: true
  driver: encoding/json
  nan_from_null: true
xml:
  indent: "  "
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !opts.Elide || opts.MaxDepth != 32 || opts.OnDuplicateKey != DuplicateError {
		t.Fatalf("top-level options not applied: %+v", opts)
	}
	if !opts.JSON.Pretty || opts.JSON.Driver != DriverStdlibJSON || !opts.JSON.NaNFromNull {
		t.Fatalf("json options not applied: %+v", opts.JSON)
	}
	if !opts.JSON.Strict || opts.JSON.Indent != 4 {
		t.Fatalf("unset json options should keep defaults: %+v", opts.JSON)
	}
	if opts.XML.Indent != "  " || !opts.XML.Declaration {
		t.Fatalf("xml options: %+v", opts.XML)
	}
}

func TestParseOptionsYAML_Empty(t *testing.T) {
	opts, err := ParseOptionsYAML(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts != DefaultOptions() {
		t.Fatalf("empty document should yield defaults: %+v", opts)
	}
}

func TestParseOptionsYAML_UnknownKey(t *testing.T) {
	if _, err := ParseOptionsYAML([]byte("max_dept: 3\n")); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestParseOptionsTOML(t *testing.T) {
	opts, err := ParseOptionsTOML([]byte(`
max_depth = 8
on_duplicate_key = "first"

[binary]
header = false

[notation]
header = true
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.MaxDepth != 8 || opts.OnDuplicateKey != DuplicateFirst {
		t.Fatalf("top-level options: %+v", opts)
	}
	if opts.Binary.Header || !opts.Notation.Header {
		t.Fatalf("section options: %+v %+v", opts.Binary, opts.Notation)
	}
}

func TestParseOptionsTOML_UnknownKey(t *testing.T) {
	_, err := ParseOptionsTOML([]byte("[json]\ncolour = true\n"))
	if err == nil || !strings.Contains(err.Error(), "json.colour") {
		t.Fatalf("expected error naming json.colour, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	bad := []Options{
		{MaxDepth: -1},
		{JSON: JSONOptions{Indent: 99}},
		{JSON: JSONOptions{Driver: "simdjson"}},
		{XML: XMLOptions{Indent: "--"}},
		{OnDuplicateKey: DuplicatePolicy(7)},
	}
	for i, o := range bad {
		if err := o.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadOptionsFile(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "osd.yaml")
	if err := os.WriteFile(yml, []byte("elide: true\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	opts, err := LoadOptionsFile(yml)
	if err != nil || !opts.Elide {
		t.Fatalf("load yaml: %+v %v", opts, err)
	}
	tml := filepath.Join(dir, "osd.toml")
	if err := os.WriteFile(tml, []byte("elide = true\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	opts, err = LoadOptionsFile(tml)
	if err != nil || !opts.Elide {
		t.Fatalf("load toml: %+v %v", opts, err)
	}
	if _, err := LoadOptionsFile(filepath.Join(dir, "osd.ini")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	ini := filepath.Join(dir, "x.ini")
	_ = os.WriteFile(ini, nil, 0o600)
	if _, err := LoadOptionsFile(ini); err == nil || errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected unsupported extension error, got %v", err)
	}
}

func TestJSONOptions_IndentWidth(t *testing.T) {
	if got := (JSONOptions{}).IndentWidth(); got != 4 {
		t.Fatalf("default indent = %d", got)
	}
	if got := (JSONOptions{Indent: 2}).IndentWidth(); got != 2 {
		t.Fatalf("indent = %d", got)
	}
}
