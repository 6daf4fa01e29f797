// Package prefix derives Argentine area codes from dialed numbers.
package prefix

import "strings"

const (
	countryCode     = "54"
	mobileIndicator = "9"
	metroCode       = "11"
	// Unknown is returned when the number carries no digits.
	Unknown = "00"
)

var probeLengths = []int{4, 3, 2}

// Extract returns the 2-4 digit area code of ani.
//
// Area codes are variable length, so "11" (AMBA) is matched before the
// longest-first probe. A leading country code and mobile indicator are stripped.
func Extract(ani string) string {
	digits := Digits(ani)

	if rest, ok := strings.CutPrefix(digits, countryCode); ok {
		if afterNine, ok := strings.CutPrefix(rest, mobileIndicator); ok {
			if p, ok := probe(afterNine); ok {
				return p
			}
		}
		if p, ok := probe(rest); ok {
			return p
		}
	}
	if p, ok := probe(digits); ok {
		return p
	}

	if digits == "" {
		return Unknown
	}
	if len(digits) > 2 {
		return digits[:2]
	}
	return digits
}

func probe(digits string) (string, bool) {
	if strings.HasPrefix(digits, metroCode) {
		return metroCode, true
	}
	for _, n := range probeLengths {
		if len(digits) >= n {
			return digits[:n], true
		}
	}
	return "", false
}

// Digits strips every non-digit character from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
