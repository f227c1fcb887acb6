// Package osd provides:
//
// - A tagged structured-data value (Value) with total coercion accessors
// - Exhaustive variant matching through Visitor/Accept
// - The default-elision predicate shared by every wire codec
// - Immutable, explicitly passed codec options loadable from YAML or TOML
// - A typed decode error (DecodeError) with code, JSON Pointer, and byte offset
//
// Design policy:
// - Keep the value model and shared policy in the root package; codecs live
//   under codec/ (one package per wire format) and never import each other.
// - Token plumbing and enforcement live under internal/.
// - No package-level mutable state; options travel with each call.
//
// Typical usage:
//
//	m := osd.NewMap()
//	m.Map().Set("name", osd.FromString("region"))
//	m.Map().Set("count", osd.FromInteger(0))
//
//	wire, err := codec.Serialize(m, osd.FormatJSON, true) // {"name":"region"}
//	v, err := codec.DeserializeAuto(wire)
//	n := v.Map().Get("count").AsInteger() // 0, coerced from Unknown
package osd
