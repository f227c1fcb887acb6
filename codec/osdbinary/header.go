package osdbinary

import "bytes"

// Header is the signature line written before a binary document.
const Header = "<? llsd/binary ?>\n"

// compactHeader is an older spelling accepted on read.
const compactHeader = "<?llsd/binary?>\n"

// HasHeader reports whether data starts with a binary signature.
func HasHeader(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Header)) || bytes.HasPrefix(data, []byte(compactHeader))
}

// headerLen returns the length of the signature at the start of data, 0 when
// there is none, or -1 when data starts like a signature but does not match.
func headerLen(data []byte) int {
	switch {
	case bytes.HasPrefix(data, []byte(Header)):
		return len(Header)
	case bytes.HasPrefix(data, []byte(compactHeader)):
		return len(compactHeader)
	case bytes.HasPrefix(data, []byte("<?")):
		return -1
	default:
		return 0
	}
}
