package messaging

import "strings"

// DefaultCountryCode is prefixed to national numbers.
const DefaultCountryCode = "55"

// maxNationalDigits is the longest national number (area code + 9-digit mobile).
const maxNationalDigits = 11

// NormalizePhone strips everything but digits and prefixes countryCode when the
// number is national (at most 11 digits after dropping trunk zeros).
// It returns "" when raw contains no digits.
func NormalizePhone(raw, countryCode string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimLeft(b.String(), "0")
	if digits == "" {
		return ""
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	if len(digits) <= maxNationalDigits {
		return countryCode + digits
	}
	return digits
}
