// Package osdproto encodes values as protocol buffer messages using the
// protowire primitives. The schema is
//
//	message Value {
//	  oneof kind {
//	    bool       boolean = 1;
//	    sint32     integer = 2;
//	    fixed64    real    = 3; // IEEE-754 bits
//	    string     string  = 4;
//	    bytes      uuid    = 5;
//	    Timestamp  date    = 6;
//	    string     uri     = 7;
//	    bytes      binary  = 8;
//	    ArrayValue array   = 9;
//	    MapValue   map     = 10;
//	  }
//	}
//	message ArrayValue { repeated Value items = 1; }
//	message MapValue   { repeated Entry entries = 1; }
//	message Entry      { string key = 1; Value value = 2; }
//	message Timestamp  { int64 seconds = 1; int32 nanos = 2; }
//
// A Value message with no field set is the Unknown variant.
package osdproto

import "bytes"

// Header is the signature line written before a protobuf document.
const Header = "<? llsd/protobuf ?>\n"

// HasHeader reports whether data starts with the protobuf signature.
func HasHeader(data []byte) bool { return bytes.HasPrefix(data, []byte(Header)) }

const (
	fieldBoolean = 1
	fieldInteger = 2
	fieldReal    = 3
	fieldString  = 4
	fieldUUID    = 5
	fieldDate    = 6
	fieldURI     = 7
	fieldBinary  = 8
	fieldArray   = 9
	fieldMap     = 10

	fieldItems   = 1 // ArrayValue.items
	fieldEntries = 1 // MapValue.entries
	fieldKey     = 1 // Entry.key
	fieldValue   = 2 // Entry.value
	fieldSeconds = 1 // Timestamp.seconds
	fieldNanos   = 2 // Timestamp.nanos
)
