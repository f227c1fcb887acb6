package codec

import (
	"bufio"
	"bytes"

	"github.com/reoring/osd"
	"github.com/reoring/osd/codec/osdbinary"
	"github.com/reoring/osd/codec/osdproto"
)

// sniffLen is how many leading bytes Detect needs to decide. Leading
// whitespace beyond it is not skipped.
const sniffLen = 64

var (
	xmlDeclaration = []byte("<?xml")
	xmlRoot        = []byte("<llsd")
	xmlSignature   = []byte("llsd/xml")
	notationSig    = []byte("llsd/notation")
)

// Detect selects a format from the leading bytes of data without consuming
// or modifying them. Binary and protobuf are recognised only by their exact
// signatures. Text formats are recognised after optional whitespace and a
// UTF-8 byte order mark. Anything else is reported as JSON.
func Detect(data []byte) osd.Format {
	if osdbinary.HasHeader(data) {
		return osd.FormatBinary
	}
	if osdproto.HasHeader(data) {
		return osd.FormatProto
	}
	head := bytes.TrimPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("\xef\xbb\xbf"))
	head = bytes.TrimLeft(head, " \t\r\n")
	switch {
	case bytes.HasPrefix(head, xmlDeclaration), bytes.HasPrefix(head, xmlRoot):
		return osd.FormatXML
	case bytes.HasPrefix(head, []byte("<?")):
		pi := head
		if end := bytes.Index(pi, []byte("?>")); end >= 0 {
			pi = pi[:end]
		}
		switch {
		case bytes.Contains(pi, xmlSignature):
			return osd.FormatXML
		case bytes.Contains(pi, notationSig):
			return osd.FormatNotation
		}
	}
	return osd.FormatJSON
}

// DetectReader peeks at the start of br and reports its format. The peeked
// bytes stay buffered for the decoder.
func DetectReader(br *bufio.Reader) osd.Format {
	head, _ := br.Peek(sniffLen)
	return Detect(head)
}
