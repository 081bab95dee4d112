package atcf

import (
	"fmt"
	"strings"
	"time"
)

// Missing marks an absent floating-point value.
const Missing = -9999.0

// MissingInt marks an absent integer value.
const MissingInt = -9999

// IsMissing reports whether v is the missing sentinel.
func IsMissing(v float64) bool { return v == Missing }

// IsMissingInt reports whether v is the integer missing sentinel.
func IsMissingInt(v int) bool { return v == MissingInt }

// ParseInt parses the leading integer of s. Blank or non-numeric input is missing.
func ParseInt(s string) int {
	v, ok := leadingInt(strings.TrimSpace(s))
	if !ok {
		return MissingInt
	}
	return v
}

// ParseIntNonZero is ParseInt with 0 also treated as missing.
func ParseIntNonZero(s string) int {
	v := ParseInt(s)
	if v == 0 {
		return MissingInt
	}
	return v
}

// ParseTenths parses an integer scaled by ten, e.g. "125" -> 12.5.
func ParseTenths(s string) float64 {
	v := ParseInt(s)
	if v == MissingInt {
		return Missing
	}
	return float64(v) / 10.0
}

// ParseLat parses tenths of a degree with an N or S suffix. The second
// result is false, and the value Missing, when the hemisphere letter is
// absent or unknown or the value is out of range.
func ParseLat(s string) (float64, bool) {
	return parseHemisphere(strings.TrimSpace(s), 'N', 'S', 90)
}

// ParseLon parses tenths of a degree with an E or W suffix. West is negative.
func ParseLon(s string) (float64, bool) {
	return parseHemisphere(strings.TrimSpace(s), 'E', 'W', 360)
}

func parseHemisphere(s string, pos, neg byte, limit float64) (float64, bool) {
	if s == "" {
		return Missing, false
	}
	v, ok := leadingInt(s)
	if !ok {
		return Missing, false
	}

	deg := float64(v) / 10.0
	switch s[len(s)-1] {
	case pos:
	case neg:
		deg = -deg
	default:
		return Missing, false
	}

	if deg < -limit || deg > limit {
		return Missing, false
	}
	return deg, true
}

// ParseTime parses YYYYMMDDHH in UTC. Anything that does not name a real hour
// is a fatal error.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < 10 || !allDigits(s[:10]) {
		return time.Time{}, Fatal(fmt.Errorf("%w: %q", ErrInvalidTime, s))
	}

	year := atoiDigits(s[0:4])
	month := atoiDigits(s[4:6])
	day := atoiDigits(s[6:8])
	hour := atoiDigits(s[8:10])

	t := time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day || t.Hour() != hour {
		return time.Time{}, Fatal(fmt.Errorf("%w: %q", ErrInvalidTime, s))
	}
	return t, nil
}

// FormatTime renders t as YYYYMMDDHH.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006010215")
}

// FormatLat renders degrees as tenths with a hemisphere suffix.
func FormatLat(v float64) string {
	if IsMissing(v) {
		return ""
	}
	if v < 0 {
		return fmt.Sprintf("%dS", roundTenths(-v))
	}
	return fmt.Sprintf("%dN", roundTenths(v))
}

// FormatLon renders degrees east as tenths with a hemisphere suffix.
func FormatLon(v float64) string {
	if IsMissing(v) {
		return ""
	}
	if v < 0 {
		return fmt.Sprintf("%dW", roundTenths(-v))
	}
	return fmt.Sprintf("%dE", roundTenths(v))
}

func roundTenths(v float64) int {
	return int(v*10 + 0.5)
}

// leadingInt mirrors C atoi: optional sign followed by digits, trailing
// characters ignored.
func leadingInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	i, sign := 0, 1
	switch s[0] {
	case '-':
		sign, i = -1, 1
	case '+':
		i = 1
	}
	start := i
	v := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		v = v*10 + int(s[i]-'0')
		i++
	}
	if i == start {
		return 0, false
	}
	return sign * v, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func atoiDigits(s string) int {
	v := 0
	for i := 0; i < len(s); i++ {
		v = v*10 + int(s[i]-'0')
	}
	return v
}
