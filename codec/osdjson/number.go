package osdjson

import (
	"math"
	"strconv"
	"strings"

	"github.com/reoring/osd"
)

// formatReal renders f so that it always reads back as a real: integral
// values get ".0" and exponent forms get a mantissa decimal point. The
// second result is false for NaN and infinities, which JSON cannot carry.
func formatReal(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsRune(s, '.') {
		return s, true
	}
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		return s[:i] + ".0" + s[i:], true
	}
	return s + ".0", true
}

// numberValue classifies a JSON number token: integers within int32 become
// Integer, everything else is Real.
func numberValue(text string) (*osd.Value, bool) {
	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			if n >= math.MinInt32 && n <= math.MaxInt32 {
				return osd.FromInteger(int32(n)), true
			}
			return osd.FromReal(float64(n)), true
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		// ParseFloat reports range errors with ±Inf, which is still a usable real.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return osd.FromReal(f), true
		}
		return nil, false
	}
	return osd.FromReal(f), true
}
