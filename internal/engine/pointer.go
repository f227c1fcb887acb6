package engine

import (
	"strconv"
	"strings"
)

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapeJSONPointerToken(s string) string {
	return jsonPointerEscaper.Replace(s)
}

// JoinPointer appends one reference token to a JSON Pointer.
func JoinPointer(base, token string) string {
	if base == "" || base == "/" {
		return "/" + escapeJSONPointerToken(token)
	}
	return base + "/" + escapeJSONPointerToken(token)
}

// JoinIndex appends an array index to a JSON Pointer.
func JoinIndex(base string, i int) string {
	return JoinPointer(base, strconv.Itoa(i))
}

// NormalizePath renders the root pointer as "/".
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// PathStack tracks the JSON Pointer of the value a recursive decoder is
// currently reading.
type PathStack struct {
	parts []string
}

// PushKey enters the map entry key.
func (p *PathStack) PushKey(key string) {
	p.parts = append(p.parts, JoinPointer(p.top(), key))
}

// PushIndex enters array element i.
func (p *PathStack) PushIndex(i int) {
	p.parts = append(p.parts, JoinIndex(p.top(), i))
}

// Pop leaves the innermost entry or element.
func (p *PathStack) Pop() {
	if n := len(p.parts); n > 0 {
		p.parts = p.parts[:n-1]
	}
}

// Depth returns the number of pushed segments.
func (p *PathStack) Depth() int { return len(p.parts) }

// String returns the current pointer, "/" at the root.
func (p *PathStack) String() string { return NormalizePath(p.top()) }

func (p *PathStack) top() string {
	if n := len(p.parts); n > 0 {
		return p.parts[n-1]
	}
	return ""
}
