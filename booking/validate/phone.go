// Package validate holds pure input validators for the booking dialogue.
package validate

import (
	"fmt"
	"strings"
)

// stripPhone removes everything except digits and a single leading plus.
func stripPhone(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneNumber reports whether raw is a Kazakhstan mobile number in one of
// two accepted shapes: +77XXXXXXXXX or 87XXXXXXXXX. Everything else is
// rejected; this is a closed whitelist rather than general E.164 parsing.
func PhoneNumber(raw string) bool {
	s := stripPhone(raw)
	switch {
	case strings.HasPrefix(s, "+7"):
		digits := s[1:]
		return len(digits) == 11 && digits[1] == '7' && allDigits(digits)
	case strings.HasPrefix(s, "8"):
		return len(s) == 11 && s[1] == '7' && allDigits(s)
	default:
		return false
	}
}

// FormatPhoneNumber normalizes a phone number to "+7 XXX XXX XX XX".
// A leading 8 is replaced with 7, a missing 7 is prepended. Input that does
// not reduce to 11 digits starting with 7 is returned unchanged, so the
// function is safe to call on anything.
func FormatPhoneNumber(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if strings.HasPrefix(s, "8") {
		s = "7" + s[1:]
	} else if !strings.HasPrefix(s, "7") {
		s = "7" + s
	}
	if len(s) != 11 || s[0] != '7' {
		return raw
	}
	return fmt.Sprintf("+7 %s %s %s %s", s[1:4], s[4:7], s[7:9], s[9:11])
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
