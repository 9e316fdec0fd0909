package services

import (
	"strings"
	"unicode"
)

// NormalizePhone strips everything but digits, so "+1(23)4-5" becomes
// "12345". Every entry point that accepts a phone number goes through it.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseIdentifier splits a login identifier into a phone number or an email.
// Anything containing "@" is an email; everything else is a phone number.
func ParseIdentifier(identifier string) (phone, email string) {
	if strings.Contains(identifier, "@") {
		return "", NormalizeEmail(identifier)
	}
	return NormalizePhone(identifier), ""
}

// LooksLikePhone accepts digits and the usual separators only.
func LooksLikePhone(s string) bool {
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
		case strings.ContainsRune("+-() .", r):
		default:
			return false
		}
	}
	return true
}
