package osd

import (
	"math"
	"strings"
	"time"
)

// FormatDate renders t as RFC3339 in UTC with fractional seconds trimmed.
// The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseDate accepts RFC3339 with or without fractional seconds, a bare
// date-time without zone (read as UTC), and a bare date. "" yields the zero
// time without error.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02"} {
		if t2, err2 := time.ParseInLocation(layout, s, time.UTC); err2 == nil {
			return t2, nil
		}
	}
	return time.Time{}, err
}

// DateFromUnix converts seconds since the Unix epoch (with fraction) to a UTC
// time. The fraction is rounded to microseconds, the finest step a float64
// resolves for present-day instants. Zero and non-finite input yield the zero
// time, so the default date survives the epoch-based encodings.
func DateFromUnix(sec float64) time.Time {
	if sec == 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return time.Time{}
	}
	whole, frac := math.Modf(sec)
	usec := time.Duration(math.Round(frac*1e6)) * time.Microsecond
	return time.Unix(int64(whole), 0).Add(usec).UTC()
}

// DateToUnix converts t to seconds since the Unix epoch with fraction. The
// zero time converts to 0.
func DateToUnix(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
