package schema

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber coerces a raw metric cell to a finite float64. Currency
// symbols, thousands separators, and accounting-style parenthesized
// negatives are tolerated. Redaction markers and any other non-numeric
// content report absence, never zero.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || isRedaction(s) {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', '$', ' ':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// isRedaction recognizes the placeholders publishers substitute for small
// counts to protect privacy.
func isRedaction(s string) bool {
	switch s {
	case "*", "**", "***", "-", "--", "n/a", "N/A", "NA", ".", "†":
		return true
	}
	return strings.Trim(s, "*") == ""
}
